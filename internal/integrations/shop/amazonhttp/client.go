package amazonhttp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/PriceBox/internal/integrations/shop"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

type Client struct {
	userAgent string
	httpc     *http.Client
}

func New(userAgent string) *Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		userAgent: userAgent,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Lookup(ctx context.Context, productRef string) (shop.Product, error) {
	u, err := url.Parse(productRef)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return shop.Product{}, errors.Errorf("bad product url %q", productRef)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return shop.Product{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return shop.Product{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return shop.Product{}, fmt.Errorf("product page http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return shop.Product{}, errors.Wrap(err, "parse html")
	}

	name := strings.TrimSpace(doc.Find("span#productTitle").First().Text())
	if name == "" {
		return shop.Product{}, shop.ErrNameNotFound
	}

	priceText := strings.TrimSpace(doc.Find("span.a-offscreen").First().Text())
	if priceText == "" {
		return shop.Product{}, shop.ErrPriceNotFound
	}
	price, err := parsePrice(priceText)
	if err != nil {
		return shop.Product{}, errors.Wrapf(shop.ErrPriceNotFound, "parse %q", priceText)
	}

	return shop.Product{Name: name, Price: price}, nil
}

// parsePrice срезает символ валюты и разделители тысяч: "₹1,299.00" -> 1299.00.
func parsePrice(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '.'
	})
	if s == "" {
		return 0, errors.New("empty price")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errors.New("negative price")
	}
	return v, nil
}
