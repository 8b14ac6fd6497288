package pgitems

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS tracked_items (
  id BIGSERIAL PRIMARY KEY,
  subscriber_id BIGINT NOT NULL,
  product_ref TEXT NOT NULL,
  display_name TEXT NOT NULL,
  last_price DOUBLE PRECISION NOT NULL,
  last_checked_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		// Намеренно без UNIQUE (subscriber_id, product_ref): повторная подписка
		// на ту же ссылку — отдельная запись.
		`CREATE INDEX IF NOT EXISTS idx_tracked_items_subscriber_id ON tracked_items(subscriber_id)`,
		`
CREATE TABLE IF NOT EXISTS price_drops (
  id BIGSERIAL PRIMARY KEY,
  item_id BIGINT NOT NULL REFERENCES tracked_items(id) ON DELETE CASCADE,
  old_price DOUBLE PRECISION NOT NULL,
  new_price DOUBLE PRECISION NOT NULL,
  observed_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_price_drops_item_id_observed_at ON price_drops(item_id, observed_at DESC)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
