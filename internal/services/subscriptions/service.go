package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/PriceBox/internal/broker/messages"
	"github.com/BearBump/PriceBox/internal/cache"
	"github.com/BearBump/PriceBox/internal/integrations/shop"
	"github.com/BearBump/PriceBox/internal/models"
	"github.com/pkg/errors"
)

// ErrStore помечает сбой слоя хранения при подписке, чтобы бот мог
// отличить "не смогли сохранить" от "не смогли распарсить товар".
var ErrStore = errors.New("store failure")

type Repository interface {
	CreateItem(ctx context.Context, in models.ItemCreateInput) (*models.TrackedItem, error)
	GetItemsByIDs(ctx context.Context, ids []uint64) ([]*models.TrackedItem, error)
	UpdatePrice(ctx context.Context, id uint64, newPrice float64, checkedAt time.Time) error
	RecordPriceDrop(ctx context.Context, itemID uint64, oldPrice, newPrice float64, observedAt time.Time) error
}

type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Service struct {
	repo     Repository
	shop     shop.Client
	notifier Notifier

	cache     cache.BytesCache
	lookupTTL time.Duration
}

func New(repo Repository, shopClient shop.Client, notifier Notifier, c cache.BytesCache, lookupTTL time.Duration) *Service {
	return &Service{repo: repo, shop: shopClient, notifier: notifier, cache: c, lookupTTL: lookupTTL}
}

// Subscribe разрешает ссылку через магазин и создаёт запись отслеживания.
// Ошибки lookup-а возвращаются как есть: бот различает их через errors.Is.
func (s *Service) Subscribe(ctx context.Context, subscriberID int64, productRef string) (*models.TrackedItem, error) {
	productRef = strings.TrimSpace(productRef)
	if productRef == "" {
		return nil, errors.New("productRef is required")
	}

	p, err := s.lookupProduct(ctx, productRef)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.CreateItem(ctx, models.ItemCreateInput{
		SubscriberID: subscriberID,
		ProductRef:   productRef,
		DisplayName:  p.Name,
		Price:        p.Price,
		CheckedAt:    time.Now().UTC(),
	})
	if err != nil {
		slog.Error("create tracked item", "subscriber_id", subscriberID, "error", err.Error())
		return nil, errors.Wrap(ErrStore, err.Error())
	}
	return item, nil
}

// ApplyPriceCheck — приёмник сообщений воркера. Сравнение строгое и всегда
// против сохранённой цены: рост и возврат выше последнего "пола" алёрт не
// даёт. Сбои хранилища и доставки здесь только логируются — следующий цикл
// всё равно принесёт свежее наблюдение.
func (s *Service) ApplyPriceCheck(ctx context.Context, msg messages.PriceChecked) error {
	if msg.ItemID == 0 {
		return errors.New("item_id is required")
	}
	if msg.CheckedAt.IsZero() {
		msg.CheckedAt = time.Now().UTC()
	}

	items, err := s.repo.GetItemsByIDs(ctx, []uint64{msg.ItemID})
	if err != nil {
		slog.Error("load tracked item", "item_id", msg.ItemID, "error", err.Error())
		return nil
	}
	if len(items) == 0 {
		slog.Warn("price check for unknown tracked item", "item_id", msg.ItemID)
		return nil
	}
	item := items[0]

	if msg.Price >= item.LastPrice {
		return nil
	}

	text := dropMessage(item, msg.Price)
	if err := s.notifier.SendMessage(ctx, item.SubscriberID, text); err != nil {
		// Доставка best-effort: без ретраев, цикл не блокируем.
		slog.Error("send price drop notification", "item_id", item.ID, "subscriber_id", item.SubscriberID, "error", err.Error())
	}

	if err := s.repo.UpdatePrice(ctx, item.ID, msg.Price, msg.CheckedAt); err != nil {
		slog.Error("update price", "item_id", item.ID, "error", err.Error())
		return nil
	}
	if err := s.repo.RecordPriceDrop(ctx, item.ID, item.LastPrice, msg.Price, msg.CheckedAt); err != nil {
		slog.Error("record price drop", "item_id", item.ID, "error", err.Error())
	}

	return nil
}

func (s *Service) lookupProduct(ctx context.Context, productRef string) (shop.Product, error) {
	key := lookupKey(productRef)

	// Кратковременный кэш, чтобы повторная отправка той же ссылки не
	// дёргала магазин ещё раз. Кэш не обязателен: любая ошибка — промах.
	if s.cache != nil && s.lookupTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var p shop.Product
			if json.Unmarshal(b, &p) == nil && p.Name != "" {
				return p, nil
			}
		}
	}

	p, err := s.shop.Lookup(ctx, productRef)
	if err != nil {
		return shop.Product{}, err
	}

	if s.cache != nil && s.lookupTTL > 0 {
		b, _ := json.Marshal(p)
		_ = s.cache.Set(ctx, key, b, s.lookupTTL)
	}
	return p, nil
}

func dropMessage(item *models.TrackedItem, newPrice float64) string {
	return fmt.Sprintf("🚨 Price dropped for %q!\nOld Price: %.2f\nNew Price: %.2f\n%s",
		item.DisplayName, item.LastPrice, newPrice, item.ProductRef)
}

func lookupKey(productRef string) string {
	return "lookup:" + productRef
}
