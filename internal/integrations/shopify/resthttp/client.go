package resthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/portraitlane/statusboard/internal/integrations/shopify"
	"github.com/portraitlane/statusboard/internal/models"
)

const defaultAPIVersion = "2024-01"

type Client struct {
	storeDomain string
	accessToken string
	apiVersion  string
	httpc       *http.Client
}

func New(storeDomain, accessToken, apiVersion string) *Client {
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	return &Client{
		storeDomain: storeDomain,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type orderJSON struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Customer *struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer"`
	FinancialStatus   string    `json:"financial_status"`
	FulfillmentStatus string    `json:"fulfillment_status"`
	TotalPrice        string    `json:"total_price"`
	Currency          string    `json:"currency"`
	Tags              string    `json:"tags"`
	CreatedAt         time.Time `json:"created_at"`
	LineItems         []struct {
		Title    string `json:"title"`
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
	} `json:"line_items"`
}

type ordersResp struct {
	Orders []orderJSON `json:"orders"`
}

func (c *Client) baseURL() string {
	d := c.storeDomain
	if !strings.Contains(d, "://") {
		d = "https://" + d
	}
	return fmt.Sprintf("%s/admin/api/%s", d, c.apiVersion)
}

func (c *Client) FetchOrderByNumber(ctx context.Context, orderNumber string) (*models.ShopifyOrder, error) {
	q := url.Values{}
	// Shopify matches "name" including the '#'.
	q.Set("name", models.DisplayOrderNumber(orderNumber))
	q.Set("status", "any")

	var body ordersResp
	if err := c.getJSON(ctx, "/orders.json?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if len(body.Orders) == 0 {
		return nil, nil
	}
	return toOrder(body.Orders[0]), nil
}

func (c *Client) FetchAllOrders(ctx context.Context, limit int) ([]*models.ShopifyOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("status", "any")

	var body ordersResp
	if err := c.getJSON(ctx, "/orders.json?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	out := make([]*models.ShopifyOrder, 0, len(body.Orders))
	for _, o := range body.Orders {
		out = append(out, toOrder(o))
	}
	return out, nil
}

func (c *Client) UpdateTags(ctx context.Context, orderID int64, tags []string) error {
	payload := map[string]any{
		"order": map[string]any{
			"id":   orderID,
			"tags": shopify.JoinTags(tags),
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal tags payload")
	}

	u := fmt.Sprintf("%s/orders/%d.json", c.baseURL(), orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(b))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("shopify update tags http %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+path, nil)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("shopify http %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode")
	}
	return nil
}

func toOrder(o orderJSON) *models.ShopifyOrder {
	out := &models.ShopifyOrder{
		ID:                o.ID,
		Name:              o.Name,
		Email:             o.Email,
		FinancialStatus:   o.FinancialStatus,
		FulfillmentStatus: o.FulfillmentStatus,
		TotalPrice:        o.TotalPrice,
		Currency:          o.Currency,
		Tags:              shopify.SplitTags(o.Tags),
		CreatedAt:         o.CreatedAt,
	}
	if o.Customer != nil {
		out.CustomerName = strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
	}
	for _, li := range o.LineItems {
		out.LineItems = append(out.LineItems, models.ShopifyLineItem{
			Title:    li.Title,
			Quantity: li.Quantity,
			Price:    li.Price,
		})
	}
	return out
}
