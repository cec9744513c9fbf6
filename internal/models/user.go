package models

import "time"

// User представляет продавца маркетплейса в части, относящейся к биллингу.
// SubscriptionEndsAt равен nil для уровня FREE — бесплатный уровень
// не истекает.
type User struct {
	UID                string             // Уникальный идентификатор пользователя
	Email              string             // Электронная почта
	Username           string             // Имя пользователя (уникальное)
	SubscriptionTier   Tier               // Текущий уровень подписки
	SubscriptionStatus SubscriptionStatus // ACTIVE или EXPIRED
	SubscriptionEndsAt *time.Time         // Дата окончания платного уровня
}
