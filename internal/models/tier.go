package models

import "strings"

// Tier уровень подписки продавца. Уровень определяет цену и лимит
// активных объявлений.
type Tier string

// Допустимые уровни подписки.
const (
	TierFree  Tier = "FREE"
	TierPro   Tier = "PRO"
	TierElite Tier = "ELITE"
)

// ParseTier разбирает уровень подписки без учета регистра.
// Неизвестное имя возвращает false вторым значением.
func ParseTier(name string) (Tier, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case string(TierFree):
		return TierFree, true
	case string(TierPro):
		return TierPro, true
	case string(TierElite):
		return TierElite, true
	default:
		return "", false
	}
}

// IsPaid сообщает, является ли уровень платным.
func (t Tier) IsPaid() bool {
	return t == TierPro || t == TierElite
}

// TierPrice возвращает цену уровня в сентаво. Для FREE и неизвестных
// уровней возвращает false вторым значением.
func TierPrice(t Tier) (int64, bool) {
	switch t {
	case TierPro:
		return 19900, true
	case TierElite:
		return 49900, true
	default:
		return 0, false
	}
}

// DefaultListingLimit возвращает лимит активных объявлений уровня,
// применяемый при отсутствии значения в системных настройках.
func DefaultListingLimit(t Tier) int {
	switch t {
	case TierPro:
		return 50
	case TierElite:
		return 100
	default:
		return 10
	}
}

// SubscriptionStatus статус подписки пользователя.
type SubscriptionStatus string

// Допустимые статусы подписки.
const (
	SubscriptionActive  SubscriptionStatus = "ACTIVE"
	SubscriptionExpired SubscriptionStatus = "EXPIRED"
)
