// Package memstore keeps tracking records in process memory. It exists for
// local runs and tests only: nothing survives a restart and instances do not
// see each other's writes, so it must never back a multi-instance deployment.
package memstore

import (
	"context"
	"sync"

	"github.com/portraitlane/statusboard/internal/models"
	"github.com/portraitlane/statusboard/internal/storage"
)

type Store struct {
	mu   sync.RWMutex
	recs map[string]models.TrackingRecord
}

func New() *Store {
	return &Store{recs: make(map[string]models.TrackingRecord)}
}

func (s *Store) Get(ctx context.Context, key string) (*models.TrackingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	// Copy so callers cannot mutate shared state.
	out := rec
	return &out, nil
}

func (s *Store) Put(ctx context.Context, key string, rec *models.TrackingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[key] = *rec
	return nil
}
