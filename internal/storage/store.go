package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/portraitlane/statusboard/internal/models"
)

// ErrNotFound is returned by Get when no record exists for the key.
var ErrNotFound = errors.New("tracking record not found")

// RecordStore is the single source of truth for tracking records. Keys are
// normalized order numbers (no leading '#'). Put is an upsert; concurrent
// writers to the same key race and the last write wins.
type RecordStore interface {
	Get(ctx context.Context, key string) (*models.TrackingRecord, error)
	Put(ctx context.Context, key string, rec *models.TrackingRecord) error
}
