package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/portraitlane/statusboard/internal/broker/messages"
	"github.com/portraitlane/statusboard/internal/integrations/shopify"
	"github.com/portraitlane/statusboard/internal/models"
	"github.com/portraitlane/statusboard/internal/storage"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Syncer periodically lists Shopify orders and seeds a tracking record for
// every order that has none yet, so the dashboard sees new orders without
// anyone touching them first. Existing records are never modified.
type Syncer struct {
	store    storage.RecordStore
	shop     shopify.Client
	producer Producer
	rl       RateLimiter

	topic string

	backoff *Backoff

	interval           time.Duration
	batchSize          int
	concurrency        int
	rateLimitPerMinute int64

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalSeen           atomic.Int64
	totalSeeded         atomic.Int64
	totalErrors         atomic.Int64
	inFlight            atomic.Int64
	failStreak          atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(store storage.RecordStore, shop shopify.Client, producer Producer, rl RateLimiter, topic string) *Syncer {
	return &Syncer{
		store: store, shop: shop, producer: producer, rl: rl, topic: topic,
		backoff:            NewBackoff(DefaultBackoffConfig()),
		interval:           60 * time.Second,
		batchSize:          50,
		concurrency:        10,
		rateLimitPerMinute: 30,
		triggerCh:          make(chan struct{}, 1),
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

func (s *Syncer) WithSettings(interval time.Duration, batchSize, concurrency int, rlPerMin int64) *Syncer {
	if interval > 0 {
		s.interval = interval
	}
	if batchSize > 0 {
		s.batchSize = batchSize
	}
	if concurrency > 0 {
		s.concurrency = concurrency
	}
	if rlPerMin > 0 {
		s.rateLimitPerMinute = rlPerMin
	}
	return s
}

func (s *Syncer) WithBackoff(cfg BackoffConfig) *Syncer {
	s.backoff = NewBackoff(cfg)
	return s
}

// Trigger forces an immediate sync cycle (best-effort, non-blocking).
func (s *Syncer) Trigger() {
	s.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt     time.Time  `json:"startedAt"`
	LastCycleAt   *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt *time.Time `json:"lastTriggerAt,omitempty"`
	TotalSeen     int64      `json:"totalSeen"`
	TotalSeeded   int64      `json:"totalSeeded"`
	TotalErrors   int64      `json:"totalErrors"`
	InFlight      int64      `json:"inFlight"`
	FailStreak    int64      `json:"failStreak"`
	LastError     string     `json:"lastError,omitempty"`
}

func (s *Syncer) Stats() Stats {
	st := Stats{
		StartedAt:   time.Unix(0, s.startedAtUnixNano).UTC(),
		TotalSeen:   s.totalSeen.Load(),
		TotalSeeded: s.totalSeeded.Load(),
		TotalErrors: s.totalErrors.Load(),
		InFlight:    s.inFlight.Load(),
		FailStreak:  s.failStreak.Load(),
	}
	if n := s.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := s.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	s.lastErrorMu.Lock()
	st.LastError = s.lastError
	s.lastErrorMu.Unlock()
	return st
}

func (s *Syncer) Run(ctx context.Context) error {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			s.runOnce(ctx)
		case <-s.triggerCh:
			s.runOnce(ctx)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		timer.Reset(s.nextDelay())
	}
}

func (s *Syncer) nextDelay() time.Duration {
	if d := s.backoff.Delay(int(s.failStreak.Load())); d > 0 {
		return d
	}
	return s.interval
}

func (s *Syncer) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	s.lastCycleUnixNano.Store(now.UnixNano())

	if s.rl != nil && s.rateLimitPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:shopify:list:%s", now.Format("200601021504"))
		allowed, n, err := s.rl.Allow(ctx, minuteKey, s.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			// A broken limiter must not stop syncing; log and continue.
			slog.Warn("rate limiter unavailable", "error", err.Error())
		} else if !allowed {
			slog.Warn("shopify rate limit reached, skipping cycle", "count", n)
			return
		}
	}

	orders, err := s.shop.FetchAllOrders(ctx, s.batchSize)
	if err != nil {
		s.recordError(errors.Wrap(err, "list shopify orders"))
		s.failStreak.Add(1)
		return
	}
	s.failStreak.Store(0)
	s.totalSeen.Add(int64(len(orders)))

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for _, o := range orders {
		sem <- struct{}{}
		wg.Add(1)
		oCopy := o
		s.inFlight.Add(1)
		go func() {
			defer func() {
				s.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			if err := s.seedOne(ctx, oCopy); err != nil {
				s.totalErrors.Add(1)
				s.recordError(err)
				slog.Error("seed tracking record", "order", oCopy.Name, "error", err.Error())
			}
		}()
	}
	wg.Wait()
}

// seedOne creates the default tracking record for an order that has none.
func (s *Syncer) seedOne(ctx context.Context, o *models.ShopifyOrder) error {
	key := models.OrderKey(o.Name)
	if key == "" {
		return nil
	}

	_, err := s.store.Get(ctx, key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return errors.Wrap(err, "load tracking record")
	}

	rec := models.NewTrackingRecord()
	if len(o.LineItems) > 0 {
		rec.ProductName = o.LineItems[0].Title
	}
	if err := s.store.Put(ctx, key, rec); err != nil {
		return errors.Wrap(err, "persist tracking record")
	}
	s.totalSeeded.Add(1)

	s.publishSeeded(ctx, key, rec)
	return nil
}

func (s *Syncer) publishSeeded(ctx context.Context, key string, rec *models.TrackingRecord) {
	if s.producer == nil || s.topic == "" {
		return
	}
	status := rec.CurrentStatus
	msg := messages.OrderStatusChanged{
		OrderNumber:   key,
		ChangedAt:     time.Now().UTC(),
		CurrentStatus: &status,
		Source:        "syncer",
	}
	if rec.ProductName != "" {
		name := rec.ProductName
		msg.ProductName = &name
	}
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("marshal seed event", "order", key, "error", err.Error())
		return
	}
	if err := s.producer.Publish(ctx, s.topic, []byte(key), b); err != nil {
		slog.Warn("publish seed event", "order", key, "error", err.Error())
	}
}

func (s *Syncer) recordError(err error) {
	s.lastErrorMu.Lock()
	s.lastError = err.Error()
	s.lastErrorMu.Unlock()
}
