package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "comment:1", []byte(`{"id":1}`), time.Hour))
	got, err := store.Get(ctx, "comment:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(got))
	assert.Equal(t, time.Hour, mr.TTL("comment:1"))

	exists, err := store.Exists(ctx, "comment:1")
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := store.Delete(ctx, "comment:1", "comment:2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get(ctx, "comment:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisStore_ExpiredKeyIsMiss(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "review:9", []byte("x"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "review:9")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisStore_DeleteMatchingIsScoped(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	for _, k := range []string{
		"comment:chapter:1:p0:s20:createTime:desc",
		"comment:chapter:1:p1:s20:createTime:desc",
		"comment:chapter:2:p0:s20:createTime:desc",
		"review:novel:1:p0:s20:createTime:desc",
	} {
		require.NoError(t, mr.Set(k, "[]"))
	}

	n, err := store.DeleteMatching(ctx, "comment:chapter:1:*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.False(t, mr.Exists("comment:chapter:1:p0:s20:createTime:desc"))
	assert.True(t, mr.Exists("comment:chapter:2:p0:s20:createTime:desc"))
	assert.True(t, mr.Exists("review:novel:1:p0:s20:createTime:desc"))
}

func TestRedisStore_IncrementStartsAtZero(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	n, err := store.Increment(ctx, "like:comment:3", 1, LikeTTL)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, LikeTTL, mr.TTL("like:comment:3"))

	n, err = store.Increment(ctx, "like:comment:3", 1, LikeTTL)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.Increment(ctx, "like:comment:3", -1, LikeTTL)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRedisStore_NilClientAlwaysMisses(t *testing.T) {
	store := NewRedisStore(nil)
	ctx := context.Background()

	assert.NoError(t, store.Set(ctx, "comment:1", []byte("x"), time.Hour))
	_, err := store.Get(ctx, "comment:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	exists, err := store.Exists(ctx, "comment:1")
	assert.NoError(t, err)
	assert.False(t, exists)

	n, err := store.DeleteMatching(ctx, "comment:*")
	assert.NoError(t, err)
	assert.Zero(t, n)
}
