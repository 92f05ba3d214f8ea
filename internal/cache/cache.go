package cache

import (
	"context"
	"time"

	"waybilltrack/backend/internal/domain"
)

// ProductCache holds product-name resolutions. Only hits are cached.
type ProductCache interface {
	Get(ctx context.Context, key string) (*domain.ProductResolution, bool, error)
	Set(ctx context.Context, key string, value *domain.ProductResolution, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type NoopProductCache struct{}

func (NoopProductCache) Get(_ context.Context, _ string) (*domain.ProductResolution, bool, error) {
	return nil, false, nil
}

func (NoopProductCache) Set(_ context.Context, _ string, _ *domain.ProductResolution, _ time.Duration) error {
	return nil
}

func (NoopProductCache) Delete(_ context.Context, _ ...string) error {
	return nil
}
