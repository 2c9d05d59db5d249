package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/portraitlane/statusboard/config"
	"github.com/portraitlane/statusboard/internal/broker/kafka"
	"github.com/portraitlane/statusboard/internal/integrations/shopify"
	shopifyfake "github.com/portraitlane/statusboard/internal/integrations/shopify/fake"
	"github.com/portraitlane/statusboard/internal/integrations/shopify/resthttp"
	"github.com/portraitlane/statusboard/internal/services/orders"
	"github.com/portraitlane/statusboard/internal/steps"
	"github.com/portraitlane/statusboard/internal/storage"
	"github.com/portraitlane/statusboard/internal/storage/memstore"
	"github.com/portraitlane/statusboard/internal/storage/pgstore"
	"github.com/portraitlane/statusboard/internal/storage/redisstore"
)

type statusAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     statusAPIOpts
	svc      *orders.Service
	consumer *kafka.Consumer
	closeFns []func()
}

func mustBootstrapStatusAPI() *statusAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	httpAddr := cfg.StatusBoard.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.StatusBoard.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "status-api"
	}
	topic := cfg.Kafka.StatusChangedTopicName
	if topic == "" {
		topic = "order.status.changed"
	}
	completionTag := cfg.StatusBoard.CompletionTag
	if completionTag == "" {
		completionTag = orders.DefaultCompletionTag
	}
	fetchTimeout := time.Duration(cfg.StatusBoard.ShopifyTimeoutSeconds) * time.Second
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	listConcurrency := cfg.StatusBoard.ListEnrichConcurrency

	var closeFns []func()

	store, closeStore := mustOpenStore(cfg)
	if closeStore != nil {
		closeFns = append(closeFns, closeStore)
	}

	shop := newShopifyClient(cfg)
	deriver := steps.NewDeriver(steps.Templates{
		UploadURL:   cfg.StatusBoard.UploadURLTemplate,
		DeliveryURL: cfg.StatusBoard.DeliveryURLTemplate,
		RevisionURL: cfg.StatusBoard.RevisionURLTemplate,
	})

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)
	closeFns = append(closeFns, func() { _ = producer.Close() })

	svc := orders.New(store, shop, deriver).
		WithAutoCreate(cfg.StatusBoard.AutoCreateRecords).
		WithProducer(producer, topic).
		WithSettings(completionTag, fetchTimeout, listConcurrency)

	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &statusAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: statusAPIOpts{
			httpAddr:      httpAddr,
			swaggerPath:   swaggerPath,
			topic:         topic,
			consumerGroup: consumerGroup,
		},
		svc:      svc,
		consumer: consumer,
		closeFns: closeFns,
	}
}

func mustOpenStore(cfg *config.Config) (storage.RecordStore, func()) {
	switch cfg.StatusBoard.StoreBackend {
	case "postgres":
		sslMode := cfg.Database.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
		st := mustOpenPostgresWithRetry(connString, 60*time.Second)
		return st, st.Close
	case "memory":
		return memstore.New(), nil
	default:
		redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		return redisstore.New(redisAddr), nil
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgstore.Store {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgstore.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

// newShopifyClient falls back to the deterministic fake when the store
// credentials are absent, so the service runs out of the box in demos.
func newShopifyClient(cfg *config.Config) shopify.Client {
	if cfg.Shopify.StoreDomain != "" && cfg.Shopify.AccessToken != "" {
		return resthttp.New(cfg.Shopify.StoreDomain, cfg.Shopify.AccessToken, cfg.Shopify.APIVersion)
	}
	return shopifyfake.New()
}

func (a *statusAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	for _, fn := range a.closeFns {
		fn()
	}
}

func (a *statusAPIApp) Run() error {
	return runStatusAPI(a.ctx, a.opts, a.svc, a.consumer)
}
