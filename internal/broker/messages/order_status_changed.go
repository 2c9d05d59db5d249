package messages

import "time"

// OrderStatusChanged is published whenever a tracking record is written:
// by the HTTP write path, and by the syncer when it seeds a record for a
// newly seen Shopify order. Consumers apply it through the same partial
// merge as an HTTP update; absent optional fields leave the record alone.
type OrderStatusChanged struct {
	OrderNumber string    `json:"order_number"`
	ChangedAt   time.Time `json:"changed_at"`

	CurrentStatus  *string `json:"current_status,omitempty"`
	ProductName    *string `json:"product_name,omitempty"`
	ProjectID      *string `json:"project_id,omitempty"`
	LinkID         *string `json:"link_id,omitempty"`
	RevisionNumber *int    `json:"revision_number,omitempty"`

	// Source identifies the writer: "api", "syncer", "riley".
	Source string `json:"source,omitempty"`
}
