package cache

import (
	"context"
	"testing"

	"github.com/wholesale-portal/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	Use(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "wp-test")
	t.Cleanup(func() { _ = Close() })
	return mr
}

func TestProductCacheRoundTrip(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	_, ok, err := GetProduct(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	product := &models.Product{
		ID:                7,
		Slug:              "wool-coat",
		Name:              "Wool Coat",
		AllowedOrderTypes: []string{"prebook"},
		Variants:          []models.ProductVariant{{ID: 3, SKU: "WC-S", Size: "S"}},
	}
	require.NoError(t, SetProduct(ctx, product))
	assert.True(t, mr.Exists("wp-test:catalog:product:7"))
	assert.Equal(t, ProductTTL, mr.TTL("wp-test:catalog:product:7"))

	got, ok, err := GetProduct(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "wool-coat", got.Slug)
	assert.Len(t, got.Variants, 1)
	assert.True(t, got.AllowsOrderType("prebook"))

	require.NoError(t, DelProduct(ctx, 7))
	assert.False(t, mr.Exists("wp-test:catalog:product:7"))
}

func TestCacheDisabledIsNoop(t *testing.T) {
	require.NoError(t, Close())
	assert.False(t, Enabled())
	assert.Nil(t, Client())

	require.NoError(t, SetProduct(context.Background(), &models.Product{ID: 1}))
	_, ok, err := GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
