package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/portraitlane/statusboard/internal/broker/messages"
	"github.com/portraitlane/statusboard/internal/integrations/shopify"
	"github.com/portraitlane/statusboard/internal/models"
	"github.com/portraitlane/statusboard/internal/steps"
	"github.com/portraitlane/statusboard/internal/storage"
)

// ErrInvalidInput marks client mistakes (missing order number, status
// outside the pipeline). The API layer maps it to 400.
var ErrInvalidInput = errors.New("invalid input")

// DefaultCompletionTag is appended to the Shopify order when an order
// reaches the terminal stage; a downstream flow watches for it.
const DefaultCompletionTag = "status-complete"

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Service reconciles locally tracked order state with Shopify. The record
// store is the only source of truth for current_status; Shopify data is
// fetched per request and only enriches the response.
type Service struct {
	store   storage.RecordStore
	shop    shopify.Client
	deriver *steps.Deriver

	producer Producer
	topic    string

	autoCreate      bool
	completionTag   string
	fetchTimeout    time.Duration
	listConcurrency int
}

func New(store storage.RecordStore, shop shopify.Client, deriver *steps.Deriver) *Service {
	return &Service{
		store:           store,
		shop:            shop,
		deriver:         deriver,
		completionTag:   DefaultCompletionTag,
		fetchTimeout:    10 * time.Second,
		listConcurrency: 10,
	}
}

// WithAutoCreate switches the read path from 404-on-missing to answering
// with a default record (upload_photo). The read never persists anything.
func (s *Service) WithAutoCreate(b bool) *Service {
	s.autoCreate = b
	return s
}

func (s *Service) WithProducer(p Producer, topic string) *Service {
	s.producer = p
	s.topic = topic
	return s
}

func (s *Service) WithSettings(completionTag string, fetchTimeout time.Duration, listConcurrency int) *Service {
	if completionTag != "" {
		s.completionTag = completionTag
	}
	if fetchTimeout > 0 {
		s.fetchTimeout = fetchTimeout
	}
	if listConcurrency > 0 {
		s.listConcurrency = listConcurrency
	}
	return s
}

// Get returns the merged view for one order. Shopify being unreachable is
// never fatal here: the view is built from the record alone.
func (s *Service) Get(ctx context.Context, orderNumber string) (*models.OrderView, error) {
	key := models.OrderKey(orderNumber)
	if key == "" {
		return nil, errors.Wrap(ErrInvalidInput, "order number is required")
	}

	rec, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		if !s.autoCreate {
			return nil, err
		}
		rec = models.NewTrackingRecord()
	default:
		// Store trouble degrades like a miss; the auto-create policy then
		// decides between a default view and 404.
		slog.Warn("record store read failed", "order", key, "error", err.Error())
		if !s.autoCreate {
			return nil, storage.ErrNotFound
		}
		rec = models.NewTrackingRecord()
	}

	return s.buildView(ctx, key, rec), nil
}

// Update applies a partial update, persists it, and runs the completion tag
// hook when the merged status is the terminal stage. The returned bool
// reports whether the marker tag is in place on the Shopify order; a false
// never implies the write failed.
func (s *Service) Update(ctx context.Context, orderNumber string, patch models.TrackingPatch) (*models.OrderView, bool, error) {
	key := models.OrderKey(orderNumber)
	if key == "" {
		return nil, false, errors.Wrap(ErrInvalidInput, "order_number is required")
	}
	if patch.CurrentStatus != nil && !models.ValidStage(*patch.CurrentStatus) {
		return nil, false, errors.Wrapf(ErrInvalidInput, "unknown status %q", *patch.CurrentStatus)
	}

	rec, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		rec = models.NewTrackingRecord()
	} else if err != nil {
		return nil, false, errors.Wrap(err, "load tracking record")
	}

	patch.Apply(rec)
	if err := s.store.Put(ctx, key, rec); err != nil {
		return nil, false, errors.Wrap(err, "persist tracking record")
	}

	tagged := false
	if rec.CurrentStatus == models.StageOrderComplete {
		tagged = s.ensureCompletionTag(ctx, key)
	}

	s.publishChange(ctx, key, patch, "api")

	return s.buildView(ctx, key, rec), tagged, nil
}

// List returns the most recent Shopify orders, each enriched with its
// tracking status. Shopify being unreachable yields an empty list.
func (s *Service) List(ctx context.Context, limit int) ([]models.OrderSummary, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	orders, err := s.shop.FetchAllOrders(fetchCtx, limit)
	if err != nil {
		slog.Warn("shopify list failed", "error", err.Error())
		return []models.OrderSummary{}, nil
	}

	out := make([]models.OrderSummary, len(orders))
	sem := make(chan struct{}, s.listConcurrency)
	var wg sync.WaitGroup
	for i, o := range orders {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, o *models.ShopifyOrder) {
			defer func() {
				<-sem
				wg.Done()
			}()
			sum := models.OrderSummary{
				OrderNumber:       o.Name,
				ShopifyID:         o.ID,
				CustomerName:      o.CustomerName,
				FinancialStatus:   o.FinancialStatus,
				FulfillmentStatus: o.FulfillmentStatus,
				TotalPrice:        o.TotalPrice,
				Currency:          o.Currency,
				CreatedAt:         o.CreatedAt,
			}
			if rec, err := s.store.Get(ctx, models.OrderKey(o.Name)); err == nil {
				sum.TrackingStatus = rec.CurrentStatus
			}
			out[i] = sum
		}(i, o)
	}
	wg.Wait()

	return out, nil
}

// ApplyBrokerUpdate feeds a consumed OrderStatusChanged event through the
// same merge as an HTTP write. It never republishes, so the api and the
// syncer cannot feed each other in a loop.
func (s *Service) ApplyBrokerUpdate(ctx context.Context, msg messages.OrderStatusChanged) error {
	key := models.OrderKey(msg.OrderNumber)
	if key == "" {
		return errors.Wrap(ErrInvalidInput, "order_number is required")
	}
	if msg.CurrentStatus != nil && !models.ValidStage(*msg.CurrentStatus) {
		return errors.Wrapf(ErrInvalidInput, "unknown status %q", *msg.CurrentStatus)
	}

	rec, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		rec = models.NewTrackingRecord()
	} else if err != nil {
		return errors.Wrap(err, "load tracking record")
	}

	patch := models.TrackingPatch{
		CurrentStatus:  msg.CurrentStatus,
		ProductName:    msg.ProductName,
		ProjectID:      msg.ProjectID,
		LinkID:         msg.LinkID,
		RevisionNumber: msg.RevisionNumber,
	}
	patch.Apply(rec)
	if err := s.store.Put(ctx, key, rec); err != nil {
		return errors.Wrap(err, "persist tracking record")
	}

	if rec.CurrentStatus == models.StageOrderComplete {
		s.ensureCompletionTag(ctx, key)
	}
	return nil
}

// ensureCompletionTag appends the marker tag to the Shopify order unless it
// is already there. Returns true when the tag is in place afterwards; any
// failure is logged and reported as false, never as an error.
func (s *Service) ensureCompletionTag(ctx context.Context, key string) bool {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	o, err := s.shop.FetchOrderByNumber(fetchCtx, key)
	if err != nil {
		slog.Warn("completion tag: shopify fetch failed", "order", key, "error", err.Error())
		return false
	}
	if o == nil {
		slog.Warn("completion tag: order not found in shopify", "order", key)
		return false
	}

	for _, t := range o.Tags {
		if t == s.completionTag {
			return true
		}
	}

	tags := append(append([]string(nil), o.Tags...), s.completionTag)
	if err := s.shop.UpdateTags(fetchCtx, o.ID, tags); err != nil {
		slog.Warn("completion tag: update failed", "order", key, "error", err.Error())
		return false
	}
	return true
}

// publishChange emits an OrderStatusChanged event, best effort.
func (s *Service) publishChange(ctx context.Context, key string, patch models.TrackingPatch, source string) {
	if s.producer == nil || s.topic == "" {
		return
	}
	msg := messages.OrderStatusChanged{
		OrderNumber:    key,
		ChangedAt:      time.Now().UTC(),
		CurrentStatus:  patch.CurrentStatus,
		ProductName:    patch.ProductName,
		ProjectID:      patch.ProjectID,
		LinkID:         patch.LinkID,
		RevisionNumber: patch.RevisionNumber,
		Source:         source,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("marshal status event", "order", key, "error", err.Error())
		return
	}
	if err := s.producer.Publish(ctx, s.topic, []byte(key), b); err != nil {
		slog.Warn("publish status event", "order", key, "error", err.Error())
	}
}

func (s *Service) buildView(ctx context.Context, key string, rec *models.TrackingRecord) *models.OrderView {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	o, err := s.shop.FetchOrderByNumber(fetchCtx, key)
	if err != nil {
		slog.Warn("shopify fetch failed", "order", key, "error", err.Error())
		o = nil
	}

	view := &models.OrderView{
		OrderNumber:    models.DisplayOrderNumber(key),
		CurrentStatus:  rec.CurrentStatus,
		ProductName:    rec.ProductName,
		RevisionNumber: rec.RevisionNumber,
		Steps:          s.deriver.Derive(rec.CurrentStatus, rec),
		Shopify:        o,
	}
	if view.ProductName == "" && o != nil && len(o.LineItems) > 0 {
		view.ProductName = o.LineItems[0].Title
	}
	return view
}
