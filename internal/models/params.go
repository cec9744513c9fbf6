package models

import "time"

// CompletePaymentParams параметры атомарного завершения платежа.
// Tier равен nil, когда платеж не меняет подписку.
type CompletePaymentParams struct {
	PaymentID         int
	UserUID           string
	Tier              *Tier
	EndsAt            time.Time
	Amount            int64
	NotificationTitle string
	NotificationBody  string
}

// UpgradeSubscriptionParams параметры ручного повышения подписки.
type UpgradeSubscriptionParams struct {
	UserUID           string
	Tier              Tier
	Amount            int64
	EndsAt            time.Time
	NotificationTitle string
	NotificationBody  string
}

// NotificationMessage сообщение для очереди уведомлений: воркер-отправитель
// превращает его в письмо пользователю.
type NotificationMessage struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}
