package directory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/store/memory"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string]domain.ProductResolution
	deleted []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]domain.ProductResolution{}}
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.ProductResolution, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *domain.ProductResolution, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = *value
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.deleted = append(c.deleted, key)
	}
	return nil
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "gula 1kg", Normalize("  Gula 1KG "))
	assert.Equal(t, "", Normalize("   "))
}

func TestResolveIsExactAndCaseSensitive(t *testing.T) {
	ctx := context.Background()
	d := New(memory.NewSeeded(), newMapCache(), time.Minute)

	res, ok, err := d.Resolve(ctx, "Kopi Sachet")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, res.ConversionFactor.Equal(decimal.NewFromInt(10)))

	_, ok, err = d.Resolve(ctx, "kopi sachet")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveDefaultsFactorToOne(t *testing.T) {
	d := New(memory.NewSeeded(), nil, 0)

	res, ok, err := d.Resolve(context.Background(), "Sabun Mandi")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, res.ConversionFactor.Equal(decimal.NewFromInt(1)))
}

func TestResolveItemMissKeepsItem(t *testing.T) {
	d := New(memory.NewSeeded(), nil, 0)
	item := domain.WaybillItem{ProductName: "Unknown Widget", Incoming: 4}

	warning, err := d.ResolveItem(context.Background(), "WB-9", &item)
	require.NoError(t, err)
	require.NotNil(t, warning)
	assert.Equal(t, "WB-9", warning.WaybillNo)
	assert.Nil(t, item.ProductID)
	assert.True(t, item.ConversionFactor.Equal(decimal.NewFromInt(1)))
}

func TestWritesInvalidateCachedResolution(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	d := New(memory.NewSeeded(), c, time.Minute)

	res, ok, err := d.Resolve(ctx, "Gula 1kg")
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, c.entries, "product:resolve:Gula 1kg")

	product, err := d.products.GetProductByID(ctx, res.ID)
	require.NoError(t, err)
	product.ProductName = "Gula Pasir 1kg"
	product.ConversionFactor = decimal.NewFromInt(6)
	_, err = d.Update(ctx, *product)
	require.NoError(t, err)

	assert.NotContains(t, c.entries, "product:resolve:Gula 1kg")
	assert.Contains(t, c.deleted, "product:resolve:Gula Pasir 1kg")

	_, ok, err = d.Resolve(ctx, "Gula 1kg")
	require.NoError(t, err)
	assert.False(t, ok)

	res, ok, err = d.Resolve(ctx, "Gula Pasir 1kg")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, res.ConversionFactor.Equal(decimal.NewFromInt(6)))
}
