package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/PriceBox/config"
	"github.com/BearBump/PriceBox/internal/broker/kafka"
	"github.com/BearBump/PriceBox/internal/cache/rediscache"
	"github.com/BearBump/PriceBox/internal/integrations/shop"
	"github.com/BearBump/PriceBox/internal/integrations/shop/amazonhttp"
	"github.com/BearBump/PriceBox/internal/integrations/shop/fake"
	"github.com/BearBump/PriceBox/internal/services/checker"
	"github.com/BearBump/PriceBox/internal/storage/pgitems"
)

type workerFactories struct {
	newStorage     func(cfg *config.Config) (repo checker.Repository, closeFn func(), err error)
	newProducer    func(cfg *config.Config) checker.Producer
	newRateLimiter func(cfg *config.Config) checker.RateLimiter
	newShopClient  func(cfg *config.Config) shop.Client
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (checker.Repository, func(), error) {
			st, err := pgitems.New(pgConnString(cfg))
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newProducer: func(cfg *config.Config) checker.Producer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
		newRateLimiter: func(cfg *config.Config) checker.RateLimiter {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
		newShopClient: func(cfg *config.Config) shop.Client {
			// По умолчанию локальный fake, чтобы воркер можно было гонять
			// без походов в настоящий магазин.
			switch cfg.PriceBox.ShopMode {
			case "amazon":
				return amazonhttp.New(cfg.PriceBox.ShopUserAgent)
			default:
				return fake.New()
			}
		},
	}
}

func pgConnString(cfg *config.Config) string {
	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
}

func RunPriceWorker(ctx context.Context, cfg *config.Config, f workerFactories) error {
	topic := cfg.Kafka.PriceCheckedTopicName
	if topic == "" {
		topic = "price.checked"
	}

	checkInterval := time.Duration(cfg.PriceBox.WorkerCheckIntervalSeconds) * time.Second
	if checkInterval <= 0 {
		checkInterval = time.Hour
	}
	concurrency := cfg.PriceBox.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	lookupTimeout := time.Duration(cfg.PriceBox.WorkerLookupTimeoutSeconds) * time.Second
	if lookupTimeout <= 0 {
		lookupTimeout = 10 * time.Second
	}
	rlPerMin := int64(cfg.PriceBox.WorkerRateLimitPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 60
	}

	repo, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	producer := f.newProducer(cfg)
	rl := f.newRateLimiter(cfg)
	shopClient := f.newShopClient(cfg)

	c := checker.New(repo, shopClient, producer, rl, topic).
		WithSettings(checkInterval, concurrency, lookupTimeout, rlPerMin)

	if cfg.PriceBox.WorkerHTTPAddr != "" {
		go func() {
			err := runWorkerHTTPServer(ctx, workerHTTPOpts{
				httpAddr: cfg.PriceBox.WorkerHTTPAddr,
				checker:  c,
				cfg:      cfg,
			})
			if err != nil && ctx.Err() == nil {
				slog.Error("worker http server", "error", err.Error())
			}
		}()
	}

	return c.Run(ctx)
}
