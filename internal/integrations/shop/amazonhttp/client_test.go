package amazonhttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BearBump/PriceBox/internal/integrations/shop"
	"github.com/stretchr/testify/require"
)

func TestClient_Lookup_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
<span id="productTitle">
  Widget Deluxe
</span>
<span class="a-offscreen">₹1,299.00</span>
<span class="a-offscreen">₹999.00</span>
</body></html>`))
	}))
	defer srv.Close()

	c := New("")
	p, err := c.Lookup(context.Background(), srv.URL+"/dp/B000TEST")
	require.NoError(t, err)
	require.Equal(t, "Widget Deluxe", p.Name)
	require.Equal(t, 1299.00, p.Price)
}

func TestClient_Lookup_NameNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><span class="a-offscreen">$5.00</span></body></html>`))
	}))
	defer srv.Close()

	c := New("")
	_, err := c.Lookup(context.Background(), srv.URL)
	require.ErrorIs(t, err, shop.ErrNameNotFound)
}

func TestClient_Lookup_PriceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><span id="productTitle">X</span></body></html>`))
	}))
	defer srv.Close()

	c := New("")
	_, err := c.Lookup(context.Background(), srv.URL)
	require.ErrorIs(t, err, shop.ErrPriceNotFound)
}

func TestClient_Lookup_PriceUnparseable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><span id="productTitle">X</span><span class="a-offscreen">call us</span></body></html>`))
	}))
	defer srv.Close()

	c := New("")
	_, err := c.Lookup(context.Background(), srv.URL)
	require.ErrorIs(t, err, shop.ErrPriceNotFound)
}

func TestClient_Lookup_BadURL(t *testing.T) {
	c := New("")
	_, err := c.Lookup(context.Background(), "not a url")
	require.Error(t, err)

	_, err = c.Lookup(context.Background(), "ftp://example.com/x")
	require.Error(t, err)
}

func TestParsePrice(t *testing.T) {
	v, err := parsePrice("₹1,299.00")
	require.NoError(t, err)
	require.Equal(t, 1299.00, v)

	v, err = parsePrice("$5.99")
	require.NoError(t, err)
	require.Equal(t, 5.99, v)

	_, err = parsePrice("—")
	require.Error(t, err)
}
