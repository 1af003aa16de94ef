package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStoreClaimsOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "e1", "reminders", time.Hour))
	assert.ErrorIs(t, store.CheckAndInsert(ctx, "e1", "reminders", time.Hour), ErrIdempotencyConflict)
	require.NoError(t, store.CheckAndInsert(ctx, "e1", "other", time.Hour))

	require.NoError(t, store.Delete(ctx, "e1", "reminders"))
	require.NoError(t, store.CheckAndInsert(ctx, "e1", "reminders", time.Hour))

	mr.FastForward(2 * time.Hour)
	require.NoError(t, store.CheckAndInsert(ctx, "e1", "reminders", time.Hour))
}

func TestIdempotencyStoreRejectsEmptyInput(t *testing.T) {
	var nilStore *IdempotencyStore
	assert.Error(t, nilStore.CheckAndInsert(context.Background(), "k", "m", time.Minute))
	assert.NoError(t, nilStore.Delete(context.Background(), "k", "m"))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewIdempotencyStore(client)
	assert.Error(t, store.CheckAndInsert(context.Background(), "", "m", time.Minute))
	assert.Error(t, store.CheckAndInsert(context.Background(), "k", "", time.Minute))
}
