package redisstore

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/portraitlane/statusboard/internal/models"
	"github.com/portraitlane/statusboard/internal/storage"
)

// Store persists tracking records as JSON under one redis key per order,
// without expiry. Redis provides the single-key atomicity the write path
// relies on.
type Store struct {
	c *redis.Client
}

func New(addr string) *Store {
	return &Store{
		c: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
	}
}

func recordKey(orderKey string) string {
	return "order:" + orderKey + ":tracking"
}

func (s *Store) Get(ctx context.Context, key string) (*models.TrackingRecord, error) {
	b, err := s.c.Get(ctx, recordKey(key)).Bytes()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	var rec models.TrackingRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, errors.Wrap(err, "unmarshal record")
	}
	return &rec, nil
}

func (s *Store) Put(ctx context.Context, key string, rec *models.TrackingRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	if err := s.c.Set(ctx, recordKey(key), b, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}
