package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/portraitlane/statusboard/internal/models"
	"github.com/portraitlane/statusboard/internal/storage"
)

func (s *Store) Get(ctx context.Context, key string) (*models.TrackingRecord, error) {
	var rec models.TrackingRecord
	err := s.db.QueryRow(ctx, `
SELECT current_status, product_name, project_id, link_id, revision_number, created_at, updated_at
FROM order_tracking
WHERE order_key = $1
`, key).Scan(
		&rec.CurrentStatus, &rec.ProductName, &rec.ProjectID, &rec.LinkID,
		&rec.RevisionNumber, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select tracking record")
	}
	return &rec, nil
}

func (s *Store) Put(ctx context.Context, key string, rec *models.TrackingRecord) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO order_tracking (
  order_key, current_status, product_name, project_id, link_id, revision_number, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (order_key)
DO UPDATE SET
  current_status = EXCLUDED.current_status,
  product_name = EXCLUDED.product_name,
  project_id = EXCLUDED.project_id,
  link_id = EXCLUDED.link_id,
  revision_number = EXCLUDED.revision_number,
  updated_at = EXCLUDED.updated_at
`, key, rec.CurrentStatus, rec.ProductName, rec.ProjectID, rec.LinkID,
		rec.RevisionNumber, rec.CreatedAt, rec.UpdatedAt)
	return errors.Wrap(err, "upsert tracking record")
}
