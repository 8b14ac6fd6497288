package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/PriceBox/internal/integrations/shop"
	"github.com/BearBump/PriceBox/internal/integrations/telegram"
	"github.com/BearBump/PriceBox/internal/models"
	"github.com/BearBump/PriceBox/internal/services/subscriptions"
)

const (
	welcomeText = "👋 Welcome! I am the Price Tracker Bot.\n" +
		"Send me a product link, and I'll track its price for you."
	helpText = "ℹ️ To use this bot:\n" +
		"1. Send a product link to track its price.\n" +
		"2. Use /about to learn more about this bot.\n" +
		"I'll alert you when the price drops!"
	aboutText = "Price Tracker Bot\n" +
		"This bot tracks product prices and notifies you when the price drops.\n" +
		"Simply send a product link to get started!"

	replyNameNotFound  = "❌ Failed to parse the product. Check the link and try again."
	replyPriceNotFound = "❌ Failed to fetch the product price. Please try again later."
	replyFetchFailed   = "❌ Failed to fetch the product. Please try again later."
	replyStoreFailed   = "❌ There was an error adding your product. Please try again."
)

type API interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

type Registrar interface {
	Subscribe(ctx context.Context, subscriberID int64, productRef string) (*models.TrackedItem, error)
}

// Bot — командная поверхность: /start, /help, /about, любой другой текст
// трактуется как ссылка на товар.
type Bot struct {
	tg   API
	subs Registrar

	pollTimeout time.Duration
}

func New(tg API, subs Registrar, pollTimeout time.Duration) *Bot {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Bot{tg: tg, subs: subs, pollTimeout: pollTimeout}
}

func (b *Bot) Run(ctx context.Context) error {
	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := b.tg.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("get updates", "error", err.Error())
			time.Sleep(2 * time.Second)
			continue
		}

		for _, up := range updates {
			if up.UpdateID >= offset {
				offset = up.UpdateID + 1
			}
			if up.Message == nil || strings.TrimSpace(up.Message.Text) == "" {
				continue
			}
			b.handleMessage(ctx, up.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch text {
	case "/start":
		b.reply(ctx, chatID, welcomeText)
	case "/help":
		b.reply(ctx, chatID, helpText)
	case "/about":
		b.reply(ctx, chatID, aboutText)
	default:
		b.handleLink(ctx, chatID, text)
	}
}

func (b *Bot) handleLink(ctx context.Context, chatID int64, productRef string) {
	item, err := b.subs.Subscribe(ctx, chatID, productRef)
	if err != nil {
		slog.Warn("subscribe failed", "chat_id", chatID, "error", err.Error())
		b.reply(ctx, chatID, subscribeFailureReply(err))
		return
	}

	b.reply(ctx, chatID, fmt.Sprintf("✅ Added %q to your tracking list at price %.2f!",
		item.DisplayName, item.LastPrice))
}

func subscribeFailureReply(err error) string {
	switch {
	case errors.Is(err, shop.ErrNameNotFound):
		return replyNameNotFound
	case errors.Is(err, shop.ErrPriceNotFound):
		return replyPriceNotFound
	case errors.Is(err, subscriptions.ErrStore):
		return replyStoreFailed
	default:
		return replyFetchFailed
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.tg.SendMessage(ctx, chatID, text); err != nil {
		slog.Error("send reply", "chat_id", chatID, "error", err.Error())
	}
}
