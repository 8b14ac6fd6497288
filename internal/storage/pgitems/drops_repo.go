package pgitems

import (
	"context"
	"time"

	"github.com/BearBump/PriceBox/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) RecordPriceDrop(ctx context.Context, itemID uint64, oldPrice, newPrice float64, observedAt time.Time) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO price_drops (item_id, old_price, new_price, observed_at, created_at)
VALUES ($1,$2,$3,$4, now())
`, itemID, oldPrice, newPrice, observedAt.UTC())
	return errors.Wrap(err, "insert price drop")
}

func (s *Storage) ListPriceDrops(ctx context.Context, itemID uint64, limit, offset int) ([]*models.PriceDrop, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT id, item_id, old_price, new_price, observed_at, created_at
FROM price_drops
WHERE item_id = $1
ORDER BY observed_at DESC
LIMIT $2 OFFSET $3
`, itemID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select price drops")
	}
	defer rows.Close()

	var out []*models.PriceDrop
	for rows.Next() {
		var d models.PriceDrop
		if err := rows.Scan(&d.ID, &d.ItemID, &d.OldPrice, &d.NewPrice, &d.ObservedAt, &d.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan price drop")
		}
		out = append(out, &d)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
