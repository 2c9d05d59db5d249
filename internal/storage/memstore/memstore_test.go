package memstore

import (
	"context"
	"testing"

	"github.com/portraitlane/statusboard/internal/models"
	"github.com/portraitlane/statusboard/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestStore_GetPut(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Get(ctx, "1001")
	require.ErrorIs(t, err, storage.ErrNotFound)

	rec := models.NewTrackingRecord()
	require.NoError(t, s.Put(ctx, "1001", rec))

	got, err := s.Get(ctx, "1001")
	require.NoError(t, err)
	require.Equal(t, models.StageUploadPhoto, got.CurrentStatus)

	// Mutating the returned copy must not leak back into the store.
	got.CurrentStatus = models.StageOrderComplete
	again, err := s.Get(ctx, "1001")
	require.NoError(t, err)
	require.Equal(t, models.StageUploadPhoto, again.CurrentStatus)
}

func TestStore_PutOverwrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec := models.NewTrackingRecord()
	require.NoError(t, s.Put(ctx, "1001", rec))

	rec.CurrentStatus = models.StageCheckDelivery
	require.NoError(t, s.Put(ctx, "1001", rec))

	got, err := s.Get(ctx, "1001")
	require.NoError(t, err)
	require.Equal(t, models.StageCheckDelivery, got.CurrentStatus)
}
