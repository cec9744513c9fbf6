package models

import "time"

// PaymentStatus статус платежа. Платеж переходит из pending в completed
// или failed ровно один раз, терминальные статусы не откатываются.
type PaymentStatus string

// Допустимые статусы платежа.
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentType назначение платежа.
type PaymentType string

// Допустимые назначения платежа.
const (
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeOther        PaymentType = "other"
)

// Payment запись о попытке оплаты. ProviderPaymentID — идентификатор
// платежа или платежной ссылки на стороне шлюза, по нему события
// webhook сопоставляются с локальной записью.
type Payment struct {
	ID                int               // Идентификатор записи
	UserUID           string            // Владелец платежа
	Type              PaymentType       // subscription или other
	Amount            int64             // Сумма в сентаво
	Status            PaymentStatus     // pending, completed, failed
	ProviderPaymentID string            // Ключ корреляции со шлюзом
	Metadata          map[string]string // Произвольные данные, как минимум целевой tier
	PaidAt            *time.Time        // Момент подтверждения оплаты
	CreatedAt         time.Time         // Момент создания записи
}

// SubscriptionLog строка журнала оформленных подписок. Журнал только
// пополняется и используется для отчетов по выручке.
type SubscriptionLog struct {
	ID        int
	UserUID   string
	Tier      Tier
	Amount    int64
	CreatedAt time.Time
}
