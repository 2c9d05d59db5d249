package redisstore

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/portraitlane/statusboard/internal/models"
	"github.com/portraitlane/statusboard/internal/storage"
)

func TestStore_GetPut(t *testing.T) {
	mr := miniredis.RunT(t)
	s := New(mr.Addr())
	ctx := context.Background()

	_, err := s.Get(ctx, "1001")
	require.ErrorIs(t, err, storage.ErrNotFound)

	rec := models.NewTrackingRecord()
	rec.ProductName = "Custom Portrait"
	require.NoError(t, s.Put(ctx, "1001", rec))

	got, err := s.Get(ctx, "1001")
	require.NoError(t, err)
	require.Equal(t, models.StageUploadPhoto, got.CurrentStatus)
	require.Equal(t, "Custom Portrait", got.ProductName)

	// No expiry on record keys.
	require.Equal(t, int64(0), int64(mr.TTL("order:1001:tracking")))
}

func TestStore_PutOverwrites(t *testing.T) {
	mr := miniredis.RunT(t)
	s := New(mr.Addr())
	ctx := context.Background()

	rec := models.NewTrackingRecord()
	require.NoError(t, s.Put(ctx, "1001", rec))

	rec.CurrentStatus = models.StageCheckRevision
	rec.RevisionNumber = 2
	require.NoError(t, s.Put(ctx, "1001", rec))

	got, err := s.Get(ctx, "1001")
	require.NoError(t, err)
	require.Equal(t, models.StageCheckRevision, got.CurrentStatus)
	require.Equal(t, 2, got.RevisionNumber)
}

func TestStore_CorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	s := New(mr.Addr())

	require.NoError(t, mr.Set("order:1001:tracking", "{not json"))
	_, err := s.Get(context.Background(), "1001")
	require.Error(t, err)
}
