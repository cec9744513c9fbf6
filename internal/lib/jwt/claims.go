// Package jwt выпускает и проверяет токены операторских конечных точек
// биллинга (ручная сверка, повышение подписки, запуск прохода истечения).
package jwt

import "github.com/golang-jwt/jwt/v5"

// Claims полезная нагрузка операторского токена.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
