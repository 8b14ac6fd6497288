package main

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BearBump/PriceBox/internal/bot"
	"github.com/BearBump/PriceBox/internal/broker/messages"
	"github.com/BearBump/PriceBox/internal/services/subscriptions"
)

type priceBotOpts struct {
	topic         string
	consumerGroup string
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

func runPriceBot(ctx context.Context, opts priceBotOpts, svc *subscriptions.Service, b *bot.Bot, consumer kafkaConsumer) error {
	consumerErr := make(chan error, 1)
	go func() {
		slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
		consumerErr <- consumer.Consume(ctx, func(_key, value []byte) error {
			return applyPriceChecked(ctx, svc, value)
		})
	}()

	botErr := make(chan error, 1)
	go func() {
		slog.Info("telegram long polling started")
		botErr <- b.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-consumerErr:
		return err
	case err := <-botErr:
		return err
	}
}

// applyPriceChecked терпим к мусору в топике: нечитаемое сообщение
// логируем и коммитим, иначе консьюмер зациклится на нём навсегда.
func applyPriceChecked(ctx context.Context, svc *subscriptions.Service, value []byte) error {
	var m messages.PriceChecked
	if err := json.Unmarshal(value, &m); err != nil {
		slog.Error("decode price checked message", "error", err.Error())
		return nil
	}
	if err := svc.ApplyPriceCheck(ctx, m); err != nil {
		slog.Error("apply price check", "item_id", m.ItemID, "error", err.Error())
		return nil
	}
	return nil
}
