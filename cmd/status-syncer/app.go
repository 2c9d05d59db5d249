package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/portraitlane/statusboard/config"
	"github.com/portraitlane/statusboard/internal/broker/kafka"
	"github.com/portraitlane/statusboard/internal/cache/rediscache"
	"github.com/portraitlane/statusboard/internal/integrations/shopify"
	shopifyfake "github.com/portraitlane/statusboard/internal/integrations/shopify/fake"
	"github.com/portraitlane/statusboard/internal/integrations/shopify/resthttp"
	"github.com/portraitlane/statusboard/internal/services/syncer"
	"github.com/portraitlane/statusboard/internal/storage"
	"github.com/portraitlane/statusboard/internal/storage/memstore"
	"github.com/portraitlane/statusboard/internal/storage/pgstore"
	"github.com/portraitlane/statusboard/internal/storage/redisstore"
)

type syncerFactories struct {
	newStore         func(cfg *config.Config) (store storage.RecordStore, closeFn func(), err error)
	newProducer      func(cfg *config.Config) syncer.Producer
	newRateLimiter   func(cfg *config.Config) syncer.RateLimiter
	newShopifyClient func(cfg *config.Config) shopify.Client
}

func defaultSyncerFactories() syncerFactories {
	return syncerFactories{
		newStore: func(cfg *config.Config) (storage.RecordStore, func(), error) {
			switch cfg.StatusBoard.StoreBackend {
			case "postgres":
				sslMode := cfg.Database.SSLMode
				if sslMode == "" {
					sslMode = "disable"
				}
				connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
					cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
				st, err := pgstore.New(connString)
				if err != nil {
					return nil, nil, err
				}
				return st, st.Close, nil
			case "memory":
				return memstore.New(), nil, nil
			default:
				redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
				return redisstore.New(redisAddr), nil, nil
			}
		},
		newProducer: func(cfg *config.Config) syncer.Producer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
		newRateLimiter: func(cfg *config.Config) syncer.RateLimiter {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
		newShopifyClient: func(cfg *config.Config) shopify.Client {
			// Without store credentials fall back to the local fake so the
			// syncer runs out of the box in demos.
			if cfg.Shopify.StoreDomain != "" && cfg.Shopify.AccessToken != "" {
				return resthttp.New(cfg.Shopify.StoreDomain, cfg.Shopify.AccessToken, cfg.Shopify.APIVersion)
			}
			return shopifyfake.New()
		},
	}
}

func RunStatusSyncer(ctx context.Context, cfg *config.Config, f syncerFactories) error {
	topic := cfg.Kafka.StatusChangedTopicName
	if topic == "" {
		topic = "order.status.changed"
	}

	interval := time.Duration(cfg.StatusBoard.SyncerIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}
	batchSize := cfg.StatusBoard.SyncerBatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	concurrency := cfg.StatusBoard.SyncerConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	rlPerMin := int64(cfg.StatusBoard.SyncerRateLimitPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 30
	}

	store, closeFn, err := f.newStore(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	producer := f.newProducer(cfg)
	rl := f.newRateLimiter(cfg)
	shopClient := f.newShopifyClient(cfg)

	s := syncer.New(store, shopClient, producer, rl, topic).
		WithSettings(interval, batchSize, concurrency, rlPerMin).
		WithBackoff(syncer.BackoffConfig{
			Step1: time.Duration(cfg.StatusBoard.SyncerBackoff1Seconds) * time.Second,
			Step2: time.Duration(cfg.StatusBoard.SyncerBackoff2Seconds) * time.Second,
			Step3: time.Duration(cfg.StatusBoard.SyncerBackoff3Seconds) * time.Second,
			Step4: time.Duration(cfg.StatusBoard.SyncerBackoff4Seconds) * time.Second,
		})

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runSyncerHTTPServer(ctx, syncerHTTPOpts{
			httpAddr:    cfg.StatusBoard.SyncerHTTPAddr,
			swaggerPath: os.Getenv("swaggerPath"),
			syncer:      s,
			cfg:         cfg,
		})
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- s.Run(ctx) }()

	select {
	case err := <-httpErr:
		return err
	case err := <-runErr:
		return err
	}
}
