package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeClient_Deterministic(t *testing.T) {
	f := New()
	ctx := context.Background()

	a, err := f.FetchOrderByNumber(ctx, "1001")
	require.NoError(t, err)
	b, err := f.FetchOrderByNumber(ctx, "#1001")
	require.NoError(t, err)

	require.Equal(t, a.ID, b.ID)
	require.Equal(t, "#1001", a.Name)
	require.Equal(t, a.TotalPrice, b.TotalPrice)
}

func TestFakeClient_TagsRemembered(t *testing.T) {
	f := New()
	ctx := context.Background()

	o, err := f.FetchOrderByNumber(ctx, "1001")
	require.NoError(t, err)
	require.Empty(t, o.Tags)

	require.NoError(t, f.UpdateTags(ctx, o.ID, []string{"status-complete"}))

	o, err = f.FetchOrderByNumber(ctx, "1001")
	require.NoError(t, err)
	require.Equal(t, []string{"status-complete"}, o.Tags)
}

func TestFakeClient_FetchAllOrders(t *testing.T) {
	f := New()
	orders, err := f.FetchAllOrders(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, orders, 5)
	require.Equal(t, "#1001", orders[0].Name)
}
