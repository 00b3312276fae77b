package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreTTL(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	store.now = clock.Now
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))

	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	clock.Advance(59 * time.Second)
	_, err = store.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	// Expired entries are dropped, not resurrected.
	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSetReplaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "old", time.Minute))
	require.NoError(t, store.Set(ctx, "k", "new", time.Minute))

	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "new", v)
}

func TestMemoryStoreDel(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, store.Del(ctx, "k"))
	require.NoError(t, store.Del(ctx, "k"))

	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}
