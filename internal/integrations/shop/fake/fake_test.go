package fake

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/PriceBox/internal/integrations/shop"
	"github.com/stretchr/testify/require"
)

func TestFakeClient_Deterministic(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New()
	c.now = func() time.Time { return fixed }

	a, err := c.Lookup(context.Background(), "https://shop.example/p1")
	require.NoError(t, err)
	require.NotEmpty(t, a.Name)
	require.Positive(t, a.Price)

	b, err := c.Lookup(context.Background(), "https://shop.example/p1")
	require.NoError(t, err)
	require.Equal(t, a, b)

	other, err := c.Lookup(context.Background(), "https://shop.example/p2")
	require.NoError(t, err)
	require.NotEqual(t, a.Price, other.Price)
}

func TestFakeClient_EmptyRef(t *testing.T) {
	c := New()
	_, err := c.Lookup(context.Background(), "")
	require.ErrorIs(t, err, shop.ErrNameNotFound)
}

func TestFakeClient_DipsOverHours(t *testing.T) {
	c := New()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	seen := map[float64]struct{}{}
	for i := 0; i < 5; i++ {
		hr := base.Add(time.Duration(i) * time.Hour)
		c.now = func() time.Time { return hr }
		p, err := c.Lookup(context.Background(), "https://shop.example/p1")
		require.NoError(t, err)
		seen[p.Price] = struct{}{}
	}
	// За пять часов ровно один интервал со скидкой.
	require.Len(t, seen, 2)
}
