package models

import (
	"strings"
	"time"
)

// Pipeline stages in display order. The order of this list defines progress.
const (
	StageUploadPhoto   = "upload_photo"
	StageInProgress    = "in_progress"
	StageCheckDelivery = "check_delivery"
	StageCheckRevision = "check_revision"
	StageOrderComplete = "order_complete"
)

var Stages = []string{
	StageUploadPhoto,
	StageInProgress,
	StageCheckDelivery,
	StageCheckRevision,
	StageOrderComplete,
}

// StageIndex returns the position of a stage in the pipeline, or -1 for a
// value outside the known set. Callers treat -1 as "no progress yet", so an
// unrecognized status renders every step as pending.
func StageIndex(stage string) int {
	for i, s := range Stages {
		if s == stage {
			return i
		}
	}
	return -1
}

func ValidStage(stage string) bool {
	return StageIndex(stage) >= 0
}

// Step completion states.
const (
	StepCompleted  = "completed"
	StepInProgress = "in_progress"
	StepPending    = "pending"
)

type StepView struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Status    string  `json:"status"`
	Clickable bool    `json:"clickable"`
	URL       *string `json:"url"`
}

// TrackingRecord is the locally persisted state for one order, keyed by the
// normalized order number. It never stores anything Shopify owns.
type TrackingRecord struct {
	CurrentStatus  string    `json:"current_status"`
	ProductName    string    `json:"product_name,omitempty"`
	ProjectID      string    `json:"project_id,omitempty"`
	LinkID         string    `json:"link_id,omitempty"`
	RevisionNumber int       `json:"revision_number"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewTrackingRecord() *TrackingRecord {
	now := time.Now().UTC()
	return &TrackingRecord{
		CurrentStatus:  StageUploadPhoto,
		RevisionNumber: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TrackingPatch is a partial update: nil fields leave the record untouched.
type TrackingPatch struct {
	CurrentStatus  *string
	ProductName    *string
	ProjectID      *string
	LinkID         *string
	RevisionNumber *int
}

// Apply merges the set fields into rec. This is the only place record fields
// are overwritten, so every write path (HTTP, broker, syncer) shares one
// merge behavior.
func (p TrackingPatch) Apply(rec *TrackingRecord) {
	if p.CurrentStatus != nil {
		rec.CurrentStatus = *p.CurrentStatus
	}
	if p.ProductName != nil {
		rec.ProductName = *p.ProductName
	}
	if p.ProjectID != nil {
		rec.ProjectID = *p.ProjectID
	}
	if p.LinkID != nil {
		rec.LinkID = *p.LinkID
	}
	if p.RevisionNumber != nil {
		rec.RevisionNumber = *p.RevisionNumber
	}
	rec.UpdatedAt = time.Now().UTC()
}

type ShopifyLineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// ShopifyOrder is the slice of the Shopify Admin API order we care about.
// Fetched per request, never persisted locally.
type ShopifyOrder struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email,omitempty"`
	CustomerName      string            `json:"customer_name,omitempty"`
	FinancialStatus   string            `json:"financial_status,omitempty"`
	FulfillmentStatus string            `json:"fulfillment_status,omitempty"`
	TotalPrice        string            `json:"total_price,omitempty"`
	Currency          string            `json:"currency,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	LineItems         []ShopifyLineItem `json:"line_items,omitempty"`
}

// OrderView is the merged response shape. CurrentStatus always comes from
// the tracking record; Shopify's own financial/fulfillment statuses live
// under Shopify and are never conflated with it.
type OrderView struct {
	OrderNumber    string        `json:"order_number"`
	CurrentStatus  string        `json:"current_status"`
	ProductName    string        `json:"product_name,omitempty"`
	RevisionNumber int           `json:"revision_number"`
	Steps          []StepView    `json:"steps"`
	Shopify        *ShopifyOrder `json:"shopify,omitempty"`
}

// OrderSummary is one row of the batch listing.
type OrderSummary struct {
	OrderNumber       string    `json:"order_number"`
	ShopifyID         int64     `json:"shopify_id"`
	CustomerName      string    `json:"customer_name,omitempty"`
	FinancialStatus   string    `json:"financial_status,omitempty"`
	FulfillmentStatus string    `json:"fulfillment_status,omitempty"`
	TotalPrice        string    `json:"total_price,omitempty"`
	Currency          string    `json:"currency,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	TrackingStatus    string    `json:"tracking_status,omitempty"`
}

// OrderKey normalizes an order number for use as a storage key: surrounding
// whitespace and any leading '#' are stripped. Read and write paths both go
// through here so the two can never disagree.
func OrderKey(orderNumber string) string {
	return strings.TrimPrefix(strings.TrimSpace(orderNumber), "#")
}

// DisplayOrderNumber is the inverse presentation form: '#' plus the key.
func DisplayOrderNumber(orderNumber string) string {
	k := OrderKey(orderNumber)
	if k == "" {
		return ""
	}
	return "#" + k
}
