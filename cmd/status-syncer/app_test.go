package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portraitlane/statusboard/config"
	"github.com/portraitlane/statusboard/internal/integrations/shopify"
	shopifyfake "github.com/portraitlane/statusboard/internal/integrations/shopify/fake"
	"github.com/portraitlane/statusboard/internal/integrations/shopify/resthttp"
	"github.com/portraitlane/statusboard/internal/services/syncer"
	"github.com/portraitlane/statusboard/internal/storage"
	"github.com/portraitlane/statusboard/internal/storage/memstore"
)

func TestDefaultSyncerFactories_SelectShopifyClient(t *testing.T) {
	f := defaultSyncerFactories()

	cfgReal := &config.Config{
		Shopify: config.ShopifyConfig{
			StoreDomain: "demo.myshopify.com",
			AccessToken: "shpat_test",
		},
	}
	c1 := f.newShopifyClient(cfgReal)
	_, ok := c1.(*resthttp.Client)
	require.True(t, ok)

	c2 := f.newShopifyClient(&config.Config{})
	_, ok = c2.(*shopifyfake.FakeClient)
	require.True(t, ok)
}

func TestDefaultSyncerFactories_MemoryStoreBackend(t *testing.T) {
	f := defaultSyncerFactories()
	cfg := &config.Config{
		StatusBoard: config.StatusBoardConfig{StoreBackend: "memory"},
	}
	st, closeFn, err := f.newStore(cfg)
	require.NoError(t, err)
	require.Nil(t, closeFn)
	_, ok := st.(*memstore.Store)
	require.True(t, ok)
}

func TestDefaultSyncerFactories_ProducerAndRateLimiter_NonNil(t *testing.T) {
	f := defaultSyncerFactories()
	cfg := &config.Config{
		Kafka: config.KafkaConfig{Host: "localhost", Port: 9092},
		Redis: config.RedisConfig{Host: "localhost", Port: 6379},
	}
	require.NotNil(t, f.newProducer(cfg))
	require.NotNil(t, f.newRateLimiter(cfg))
}

func TestRunStatusSyncer_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))
	t.Setenv("swaggerPath", sw)

	calledClose := false
	f := syncerFactories{
		newStore: func(cfg *config.Config) (storage.RecordStore, func(), error) {
			return memstore.New(), func() { calledClose = true }, nil
		},
		newProducer:    func(cfg *config.Config) syncer.Producer { return nil },
		newRateLimiter: func(cfg *config.Config) syncer.RateLimiter { return nil },
		newShopifyClient: func(cfg *config.Config) shopify.Client {
			return shopifyfake.New()
		},
	}

	cfg := &config.Config{
		Kafka: config.KafkaConfig{StatusChangedTopicName: "t"},
		StatusBoard: config.StatusBoardConfig{
			SyncerHTTPAddr:        "127.0.0.1:0",
			SyncerIntervalSeconds: 1,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunStatusSyncer(ctx, cfg, f)
	require.Error(t, err)
	require.True(t, calledClose)
}

func TestRunSyncerHTTPServer_StatsAndTrigger(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	store := memstore.New()
	s := syncer.New(store, shopifyfake.New(), nil, nil, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runSyncerHTTPServer(ctx, syncerHTTPOpts{
			httpAddr:    "127.0.0.1:0",
			swaggerPath: sw,
			onListen:    func(addr string) { addrCh <- addr },
			syncer:      s,
			cfg:         &config.Config{},
		})
	}()

	addr := <-addrCh

	resp, err := http.Get("http://" + addr + "/stats")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	var stats syncer.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	require.False(t, stats.StartedAt.IsZero())

	resp, err = http.Post("http://"+addr+"/trigger", "application/json", nil)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	require.Contains(t, string(body), "\"triggered\":true")

	resp, err = http.Get("http://" + addr + "/config")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	cancel()
	<-errCh

	// Records are untouched until a cycle actually runs.
	_, err = store.Get(context.Background(), "1001")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
