package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/PriceBox/internal/broker/messages"
	"github.com/BearBump/PriceBox/internal/integrations/shop"
	"github.com/BearBump/PriceBox/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	ListAllItems(ctx context.Context) ([]*models.TrackedItem, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Checker — периодический цикл проверки цен. Один экземпляр, один тикер;
// внутри цикла позиции обрабатываются с ограниченным параллелизмом, и ошибка
// по одной позиции не прерывает остальные.
type Checker struct {
	repo Repository
	shop shop.Client
	producer Producer
	rl RateLimiter

	topic string

	checkInterval time.Duration
	concurrency int
	lookupTimeout time.Duration
	rateLimitPerMinute int64

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalListed         atomic.Int64
	totalProcessed      atomic.Int64
	totalErrors         atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(repo Repository, shopClient shop.Client, producer Producer, rl RateLimiter, topic string) *Checker {
	return &Checker{
		repo: repo, shop: shopClient, producer: producer, rl: rl, topic: topic,
		checkInterval: time.Hour,
		concurrency: 4,
		lookupTimeout: 10 * time.Second,
		rateLimitPerMinute: 60,
		triggerCh: make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (c *Checker) WithSettings(checkInterval time.Duration, concurrency int, lookupTimeout time.Duration, rlPerMin int64) *Checker {
	if checkInterval > 0 {
		c.checkInterval = checkInterval
	}
	if concurrency > 0 {
		c.concurrency = concurrency
	}
	if lookupTimeout > 0 {
		c.lookupTimeout = lookupTimeout
	}
	if rlPerMin > 0 {
		c.rateLimitPerMinute = rlPerMin
	}
	return c
}

// Trigger forces an immediate check cycle (best-effort, non-blocking).
func (c *Checker) Trigger() {
	c.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case c.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	TotalListed    int64      `json:"totalListed"`
	TotalProcessed int64      `json:"totalProcessed"`
	TotalErrors    int64      `json:"totalErrors"`
	InFlight       int64      `json:"inFlight"`
	LastError      string     `json:"lastError,omitempty"`
}

func (c *Checker) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, c.startedAtUnixNano).UTC(),
		TotalListed:    c.totalListed.Load(),
		TotalProcessed: c.totalProcessed.Load(),
		TotalErrors:    c.totalErrors.Load(),
		InFlight:       c.inFlight.Load(),
	}
	if n := c.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := c.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	c.lastErrorMu.Lock()
	st.LastError = c.lastError
	c.lastErrorMu.Unlock()
	return st
}

func (c *Checker) Run(ctx context.Context) error {
	t := time.NewTicker(c.checkInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			c.runOnce(ctx)
		case <-c.triggerCh:
			c.runOnce(ctx)
		}
	}
}

func (c *Checker) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	c.lastCycleUnixNano.Store(now.UnixNano())

	items, err := c.repo.ListAllItems(ctx)
	if err != nil {
		slog.Error("list tracked items", "error", err.Error())
		c.lastErrorMu.Lock()
		c.lastError = err.Error()
		c.lastErrorMu.Unlock()
		return
	}
	c.totalListed.Add(int64(len(items)))

	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	for _, it := range items {
		sem <- struct{}{}
		wg.Add(1)
		itCopy := it
		c.inFlight.Add(1)
		go func() {
			defer func() {
				c.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			if err := c.processOne(ctx, itCopy); err != nil {
				c.totalErrors.Add(1)
				c.lastErrorMu.Lock()
				c.lastError = err.Error()
				c.lastErrorMu.Unlock()
				// Позиция останется как есть и попадёт в следующий цикл.
				slog.Error("check item price", "item_id", itCopy.ID, "error", err.Error())
			}
			c.totalProcessed.Add(1)
		}()
	}
	wg.Wait()
}

func (c *Checker) processOne(ctx context.Context, it *models.TrackedItem) error {
	now := time.Now().UTC()

	if c.rl != nil && c.rateLimitPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:shop:%s:%s", refHost(it.ProductRef), now.Format("200601021504"))
		allowed, n, err := c.rl.Allow(ctx, minuteKey, c.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			return err
		}
		if !allowed {
			// Слишком много запросов в минуту: подождём немного, чтобы разгрузить магазин.
			slog.Warn("rate limit exceeded", "host", refHost(it.ProductRef), "count", n)
			time.Sleep(500 * time.Millisecond)
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, c.lookupTimeout)
	p, err := c.shop.Lookup(lookupCtx, it.ProductRef)
	cancel()
	if err != nil {
		return errors.Wrap(err, "lookup")
	}

	msg := messages.PriceChecked{
		ItemID:    it.ID,
		CheckedAt: now,
		Price:     p.Price,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal kafka msg")
	}

	key := []byte(fmt.Sprintf("%d", it.ID))
	// Kafka может быть не готова сразу после старта docker compose.
	// Для устойчивости делаем небольшой retry.
	var pubErr error
	for i := 0; i < 10; i++ {
		if err := c.producer.Publish(ctx, c.topic, key, b); err == nil {
			pubErr = nil
			break
		} else {
			pubErr = err
			time.Sleep(time.Duration(150*(i+1)) * time.Millisecond)
		}
	}
	if pubErr != nil {
		return pubErr
	}
	return nil
}

func refHost(productRef string) string {
	u, err := url.Parse(productRef)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
