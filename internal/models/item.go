package models

import "time"

// TrackedItem — одна заявка подписчика на отслеживание цены одного товара.
// Повторная отправка той же ссылки создаёт отдельную независимую запись.
type TrackedItem struct {
	ID            uint64
	SubscriberID  int64
	ProductRef    string
	DisplayName   string
	LastPrice     float64
	LastCheckedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PriceDrop struct {
	ID         uint64
	ItemID     uint64
	OldPrice   float64
	NewPrice   float64
	ObservedAt time.Time
	CreatedAt  time.Time
}

type ItemCreateInput struct {
	SubscriberID int64
	ProductRef   string
	DisplayName  string
	Price        float64
	CheckedAt    time.Time
}
