package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Maker выпускает и проверяет JWT-токены с симметричным ключом.
type Maker struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewMaker создает новый Maker.
func NewMaker(secretKey string, tokenTTL time.Duration) *Maker {
	return &Maker{
		secretKey: secretKey,
		tokenTTL:  tokenTTL,
	}
}

// CreateToken выпускает токен для пользователя с указанной ролью.
func (m *Maker) CreateToken(username, role string) (string, error) {
	const op = "jwt.CreateToken"
	now := time.Now()
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// VerifyToken проверяет подпись и срок действия токена и возвращает claims.
func (m *Maker) VerifyToken(tokenString string) (*Claims, error) {
	const op = "jwt.VerifyToken"
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
