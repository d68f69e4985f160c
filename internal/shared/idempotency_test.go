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

func TestIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewIdempotencyStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "abc", "goldloan.payment"))
	assert.ErrorIs(t, store.CheckAndInsert(ctx, "abc", "goldloan.payment"), ErrIdempotencyConflict)
	assert.NoError(t, store.CheckAndInsert(ctx, "abc", "goldloan.originate"))
	assert.Equal(t, time.Hour, mr.TTL("kanak:idempotency:goldloan.payment:abc"))

	require.NoError(t, store.Delete(ctx, "abc", "goldloan.payment"))
	assert.NoError(t, store.CheckAndInsert(ctx, "abc", "goldloan.payment"))

	assert.Error(t, store.CheckAndInsert(ctx, "", "goldloan.payment"))
	assert.Error(t, store.CheckAndInsert(ctx, "k", ""))

	mr.FastForward(2 * time.Hour)
	assert.NoError(t, store.CheckAndInsert(ctx, "abc", "goldloan.payment"))
}
