package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "wp-test"), mr
}

func TestRedisStoreSetAndGet(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "company:7:cart:closeout", []byte(`[]`)))

	raw, err := mr.Get("wp-test:company:7:cart:closeout")
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)
	assert.Equal(t, 0, int(mr.TTL("wp-test:company:7:cart:closeout")), "snapshots must not expire")

	got, ok, err := s.Get(ctx, "company:7:cart:closeout")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[]`), got)
}

func TestRedisStoreMissingKey(t *testing.T) {
	s, _ := setupRedisStore(t)

	got, ok, err := s.Get(context.Background(), "cart:at-once")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRedisStoreDelete(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "cart:prebook", []byte(`[1]`)))
	require.NoError(t, s.Delete(ctx, "cart:prebook"))
	assert.False(t, mr.Exists("wp-test:cart:prebook"))
}

func TestRedisStoreUnavailable(t *testing.T) {
	s, mr := setupRedisStore(t)
	mr.SetError("LOADING")

	_, _, err := s.Get(context.Background(), "cart:at-once")
	assert.Error(t, err)
	mr.SetError("")

	var nilStore *RedisStore
	_, _, err = nilStore.Get(context.Background(), "cart:at-once")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestNewRedisStoreDefaultPrefix(t *testing.T) {
	s := NewRedisStore(nil, " ")
	assert.Equal(t, "wp:cart:at-once", s.buildKey("cart:at-once"))
}
