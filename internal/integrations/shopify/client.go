package shopify

import (
	"context"
	"strings"

	"github.com/portraitlane/statusboard/internal/models"
)

// Client is the slice of the Shopify Admin API this service consumes.
// Errors from any method are treated by callers as "external data
// unavailable" and never fail a request outright.
type Client interface {
	// FetchOrderByNumber looks an order up by its storefront number
	// ("#1001" or "1001"). Returns (nil, nil) when no such order exists.
	FetchOrderByNumber(ctx context.Context, orderNumber string) (*models.ShopifyOrder, error)

	// FetchAllOrders lists the most recent orders, any status.
	FetchAllOrders(ctx context.Context, limit int) ([]*models.ShopifyOrder, error)

	// UpdateTags replaces the order's tag list.
	UpdateTags(ctx context.Context, orderID int64, tags []string) error
}

// Shopify stores tags as one comma-separated string.

func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
