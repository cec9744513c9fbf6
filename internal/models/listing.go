package models

import "time"

// ListingStatus статус объявления на маркетплейсе.
type ListingStatus string

// Допустимые статусы объявления. В лимит уровня входят только
// available и pending; hidden освобождает место.
const (
	ListingAvailable ListingStatus = "available"
	ListingPending   ListingStatus = "pending"
	ListingHidden    ListingStatus = "hidden"
	ListingSold      ListingStatus = "sold"
)

// Listing объявление о продаже игрового предмета или валюты.
// Предметные и валютные объявления для биллинга неразличимы.
type Listing struct {
	ID        int
	UserUID   string
	Title     string
	Status    ListingStatus
	CreatedAt time.Time
}

// Notification сообщение пользователю о событии биллинга.
// Строка создается в одной транзакции с изменением, о котором сообщает.
type Notification struct {
	ID        int
	UserUID   string
	Title     string
	Body      string
	CreatedAt time.Time
}
