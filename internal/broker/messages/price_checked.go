package messages

import "time"

// PriceChecked публикуется воркером после каждого успешного опроса цены.
// Сравнение с сохранённой ценой и решение об уведомлении — на стороне бота.
type PriceChecked struct {
	ItemID    uint64    `json:"item_id"`
	CheckedAt time.Time `json:"checked_at"`
	Price     float64   `json:"price"`
}
