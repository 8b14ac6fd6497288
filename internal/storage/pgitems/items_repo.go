package pgitems

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/PriceBox/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) CreateItem(ctx context.Context, in models.ItemCreateInput) (*models.TrackedItem, error) {
	now := time.Now().UTC()

	var id uint64
	err := s.db.QueryRow(ctx, `
INSERT INTO tracked_items (
  subscriber_id, product_ref, display_name, last_price, last_checked_at, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$6)
RETURNING id
`, in.SubscriberID, in.ProductRef, in.DisplayName, in.Price, in.CheckedAt.UTC(), now).Scan(&id)
	if err != nil {
		return nil, errors.Wrap(err, "insert tracked item")
	}

	items, err := s.GetItemsByIDs(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	if len(items) != 1 {
		return nil, errors.Errorf("tracked item %d not found after insert", id)
	}
	return items[0], nil
}

func (s *Storage) GetItemsByIDs(ctx context.Context, ids []uint64) ([]*models.TrackedItem, error) {
	if len(ids) == 0 {
		return []*models.TrackedItem{}, nil
	}

	rows, err := s.db.Query(ctx, `
SELECT
  id, subscriber_id, product_ref, display_name,
  last_price, last_checked_at,
  created_at, updated_at
FROM tracked_items
WHERE id = ANY($1)
`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "select tracked items")
	}
	defer rows.Close()

	out := make([]*models.TrackedItem, 0, len(ids))
	for rows.Next() {
		var it models.TrackedItem
		if err := rows.Scan(
			&it.ID, &it.SubscriberID, &it.ProductRef, &it.DisplayName,
			&it.LastPrice, &it.LastCheckedAt,
			&it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan tracked item")
		}
		out = append(out, &it)
	}

	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// ListAllItems возвращает все отслеживаемые записи всех подписчиков.
// Порядок стабильный (по id); используется циклом проверки цен.
func (s *Storage) ListAllItems(ctx context.Context) ([]*models.TrackedItem, error) {
	rows, err := s.db.Query(ctx, `
SELECT
  id, subscriber_id, product_ref, display_name,
  last_price, last_checked_at,
  created_at, updated_at
FROM tracked_items
ORDER BY id
`)
	if err != nil {
		return nil, errors.Wrap(err, "select all tracked items")
	}
	defer rows.Close()

	var out []*models.TrackedItem
	for rows.Next() {
		var it models.TrackedItem
		if err := rows.Scan(
			&it.ID, &it.SubscriberID, &it.ProductRef, &it.DisplayName,
			&it.LastPrice, &it.LastCheckedAt,
			&it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan tracked item")
		}
		out = append(out, &it)
	}

	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// UpdatePrice перезаписывает last_price/last_checked_at одной записи.
// Несуществующий id — нефатальная аномалия: пишем в лог и продолжаем.
func (s *Storage) UpdatePrice(ctx context.Context, id uint64, newPrice float64, checkedAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
UPDATE tracked_items
SET
  last_price = $2,
  last_checked_at = $3,
  updated_at = now()
WHERE id = $1
`, id, newPrice, checkedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "update price")
	}
	if tag.RowsAffected() == 0 {
		slog.Warn("update price: tracked item not found", "item_id", id)
	}
	return nil
}
