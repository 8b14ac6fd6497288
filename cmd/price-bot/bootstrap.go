package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/PriceBox/config"
	"github.com/BearBump/PriceBox/internal/bot"
	"github.com/BearBump/PriceBox/internal/broker/kafka"
	"github.com/BearBump/PriceBox/internal/cache/rediscache"
	"github.com/BearBump/PriceBox/internal/integrations/shop"
	"github.com/BearBump/PriceBox/internal/integrations/shop/amazonhttp"
	"github.com/BearBump/PriceBox/internal/integrations/shop/fake"
	"github.com/BearBump/PriceBox/internal/integrations/telegram"
	"github.com/BearBump/PriceBox/internal/services/subscriptions"
	"github.com/BearBump/PriceBox/internal/storage/pgitems"
)

type priceBotApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     priceBotOpts
	svc      *subscriptions.Service
	bot      *bot.Bot
	consumer *kafka.Consumer
	closeDB  func()
}

func mustBootstrapPriceBot() *priceBotApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	if cfg.Telegram.BotToken == "" {
		panic("telegram bot token is required")
	}

	consumerGroup := cfg.PriceBox.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "price-bot"
	}
	topic := cfg.Kafka.PriceCheckedTopicName
	if topic == "" {
		topic = "price.checked"
	}

	lookupTTL := time.Duration(cfg.PriceBox.LookupCacheTTLSeconds) * time.Second
	if lookupTTL <= 0 {
		lookupTTL = 10 * time.Minute
	}
	pollTimeout := time.Duration(cfg.Telegram.PollTimeoutSeconds) * time.Second

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)

	tg := telegram.New(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken)

	var shopClient shop.Client
	if cfg.PriceBox.ShopMode == "amazon" {
		shopClient = amazonhttp.New(cfg.PriceBox.ShopUserAgent)
	} else {
		shopClient = fake.New()
	}

	svc := subscriptions.New(st, shopClient, tg, rc, lookupTTL)
	b := bot.New(tg, svc, pollTimeout)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &priceBotApp{
		ctx:    ctx,
		cancel: cancel,
		opts: priceBotOpts{
			topic:         topic,
			consumerGroup: consumerGroup,
		},
		svc:      svc,
		bot:      b,
		consumer: consumer,
		closeDB:  st.Close,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgitems.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgitems.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *priceBotApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *priceBotApp) Run() error {
	return runPriceBot(a.ctx, a.opts, a.svc, a.bot, a.consumer)
}
