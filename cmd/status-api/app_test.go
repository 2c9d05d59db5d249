package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/portraitlane/statusboard/internal/broker/messages"
	shopifyfake "github.com/portraitlane/statusboard/internal/integrations/shopify/fake"
	"github.com/portraitlane/statusboard/internal/models"
	"github.com/portraitlane/statusboard/internal/services/orders"
	"github.com/portraitlane/statusboard/internal/steps"
	"github.com/portraitlane/statusboard/internal/storage/memstore"
)

type idleConsumer struct{}

func (c idleConsumer) Consume(ctx context.Context, _ func(key, value []byte) error) error {
	<-ctx.Done()
	return ctx.Err()
}

// replayConsumer hands a single prepared message to the handler, then idles.
type replayConsumer struct {
	value []byte
}

func (c *replayConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	if err := handler(nil, c.value); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func writeTempSwagger(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))
	return sw
}

func testOrdersService() *orders.Service {
	return orders.New(memstore.New(), shopifyfake.New(), steps.NewDeriver(steps.Templates{})).
		WithAutoCreate(true)
}

func TestRunStatusAPI_SwaggerAndHealthServed(t *testing.T) {
	sw := writeTempSwagger(t)
	svc := testOrdersService()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := statusAPIOpts{
		httpAddr:      "127.0.0.1:0",
		swaggerPath:   sw,
		topic:         "t",
		consumerGroup: "g",
		onListen:      func(httpAddr string) { addrCh <- httpAddr },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- runStatusAPI(ctx, opts, svc, idleConsumer{}) }()

	httpAddr := <-addrCh

	resp, err := http.Get("http://" + httpAddr + "/swagger.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	require.Contains(t, string(body), "\"swagger\"")

	resp, err = http.Get("http://" + httpAddr + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	resp, err = http.Get("http://" + httpAddr + "/order-status?order=1001")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	require.Contains(t, string(body), models.StageUploadPhoto)

	cancel()
	require.Error(t, <-errCh)
}

func TestRunStatusAPI_ConsumerAppliesBrokerUpdate(t *testing.T) {
	sw := writeTempSwagger(t)
	svc := testOrdersService()

	status := models.StageInProgress
	msg, err := json.Marshal(messages.OrderStatusChanged{
		OrderNumber:   "7001",
		ChangedAt:     time.Now().UTC(),
		CurrentStatus: &status,
		Source:        "riley",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := statusAPIOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: sw,
		topic:       "t",
		onListen:    func(httpAddr string) { addrCh <- httpAddr },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- runStatusAPI(ctx, opts, svc, &replayConsumer{value: msg}) }()

	httpAddr := <-addrCh

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + httpAddr + "/order-status?order=7001")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == 200 && string(body) != "" &&
			json.Valid(body) && containsStatus(body, models.StageInProgress)
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.Error(t, <-errCh)
}

func containsStatus(body []byte, status string) bool {
	var view struct {
		CurrentStatus string `json:"current_status"`
	}
	if err := json.Unmarshal(body, &view); err != nil {
		return false
	}
	return view.CurrentStatus == status
}

func TestRunStatusAPI_MissingSwaggerFileFails(t *testing.T) {
	svc := testOrdersService()

	err := runStatusAPI(context.Background(), statusAPIOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: "/nonexistent/swagger.json",
	}, svc, idleConsumer{})
	require.Error(t, err)
}
