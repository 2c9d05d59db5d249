package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/portraitlane/statusboard/internal/models"
)

// FakeClient is a deterministic stand-in for the Shopify Admin API, used in
// tests and whenever store credentials are not configured. Orders are
// synthesized from the order number, so the same number always yields the
// same order. Tag updates are remembered in memory.
type FakeClient struct {
	mu   sync.Mutex
	tags map[int64][]string
}

func New() *FakeClient {
	return &FakeClient{tags: make(map[int64][]string)}
}

func orderID(orderKey string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderKey))
	return int64(h.Sum32())
}

func (f *FakeClient) FetchOrderByNumber(ctx context.Context, orderNumber string) (*models.ShopifyOrder, error) {
	key := models.OrderKey(orderNumber)
	if key == "" {
		return nil, nil
	}
	id := orderID(key)

	f.mu.Lock()
	tags := append([]string(nil), f.tags[id]...)
	f.mu.Unlock()

	// A slice of titles keeps the fake varied without being random.
	titles := []string{"Custom Portrait", "Pet Painting", "Family Sketch"}

	return &models.ShopifyOrder{
		ID:                id,
		Name:              models.DisplayOrderNumber(orderNumber),
		Email:             fmt.Sprintf("customer%s@example.com", key),
		CustomerName:      "Fake Customer",
		FinancialStatus:   "paid",
		FulfillmentStatus: "unfulfilled",
		TotalPrice:        fmt.Sprintf("%d.00", 49+id%100),
		Currency:          "USD",
		Tags:              tags,
		CreatedAt:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LineItems: []models.ShopifyLineItem{
			{Title: titles[id%3], Quantity: 1, Price: fmt.Sprintf("%d.00", 49+id%100)},
		},
	}, nil
}

func (f *FakeClient) FetchAllOrders(ctx context.Context, limit int) ([]*models.ShopifyOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 10 {
		limit = 10
	}
	out := make([]*models.ShopifyOrder, 0, limit)
	for i := 0; i < limit; i++ {
		o, _ := f.FetchOrderByNumber(ctx, fmt.Sprintf("%d", 1001+i))
		out = append(out, o)
	}
	return out, nil
}

func (f *FakeClient) UpdateTags(ctx context.Context, orderID int64, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags[orderID] = append([]string(nil), tags...)
	return nil
}
