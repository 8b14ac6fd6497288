package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/BearBump/PriceBox/internal/integrations/shop"
)

// FakeClient — локальная заглушка магазина для демо и тестов.
// Цена детерминирована по ссылке; каждый пятый часовой интервал она
// проседает на 10%, чтобы падения реально случались.
type FakeClient struct {
	now func() time.Time
}

func New() *FakeClient {
	return &FakeClient{now: func() time.Time { return time.Now().UTC() }}
}

func (f *FakeClient) Lookup(ctx context.Context, productRef string) (shop.Product, error) {
	if productRef == "" {
		return shop.Product{}, shop.ErrNameNotFound
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(productRef))
	v := h.Sum32()

	base := float64(100+v%900) + float64(v%100)/100

	hour := f.now().Truncate(time.Hour).Unix() / 3600
	if (int64(v)+hour)%5 == 0 {
		base = math.Round(base*90) / 100
	}

	return shop.Product{
		Name:  fmt.Sprintf("Fake Product %04x", v%0x10000),
		Price: base,
	}, nil
}
