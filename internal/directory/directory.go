// Package directory links waybill line items to catalogue products by name.
package directory

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"waybilltrack/backend/internal/cache"
	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/store"
)

const cacheKeyPrefix = "product:resolve:"

// Products is the slice of the repository the directory needs.
type Products interface {
	FindProductByName(ctx context.Context, productName string) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpsertProductByName(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (*domain.Product, error)
}

type Directory struct {
	products Products
	cache    cache.ProductCache
	ttl      time.Duration
}

func New(products Products, productCache cache.ProductCache, ttl time.Duration) *Directory {
	if productCache == nil {
		productCache = cache.NoopProductCache{}
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Directory{products: products, cache: productCache, ttl: ttl}
}

// Normalize is the comparison form stored next to category and product name.
func Normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Resolve looks a product up by its exact, case-sensitive name. A miss is
// reported as ok=false with a nil error. A product without a conversion
// factor resolves with factor 1.
func (d *Directory) Resolve(ctx context.Context, productName string) (*domain.ProductResolution, bool, error) {
	key := cacheKeyPrefix + productName
	if cached, ok, err := d.cache.Get(ctx, key); err != nil {
		log.Printf("[directory] WARN: cache get failed for %q: %v", productName, err)
	} else if ok {
		return cached, true, nil
	}

	product, err := d.products.FindProductByName(ctx, productName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	resolution := &domain.ProductResolution{
		ID:               product.ID,
		ConversionFactor: factorOrOne(product.ConversionFactor),
	}
	if err := d.cache.Set(ctx, key, resolution, d.ttl); err != nil {
		log.Printf("[directory] WARN: cache set failed for %q: %v", productName, err)
	}
	return resolution, true, nil
}

// ResolveItem fills the product id and conversion factor of item. On a miss
// the item keeps a nil product id with factor 1 and a warning is returned.
func (d *Directory) ResolveItem(ctx context.Context, waybillNo string, item *domain.WaybillItem) (*domain.ResolutionWarning, error) {
	resolution, ok, err := d.Resolve(ctx, item.ProductName)
	if err != nil {
		return nil, err
	}
	if !ok {
		item.ProductID = nil
		item.ConversionFactor = decimal.NewFromInt(1)
		warning := &domain.ResolutionWarning{
			WaybillNo:   waybillNo,
			ProductName: item.ProductName,
			Message:     "product not found in directory",
		}
		log.Printf("[directory] WARN: waybill %s: product %q not found", waybillNo, item.ProductName)
		return warning, nil
	}
	id := resolution.ID
	item.ProductID = &id
	item.ConversionFactor = resolution.ConversionFactor
	return nil, nil
}

func (d *Directory) Create(ctx context.Context, product domain.Product) (*domain.Product, error) {
	created, err := d.products.CreateProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	d.invalidate(ctx, created.ProductName)
	return created, nil
}

func (d *Directory) Update(ctx context.Context, product domain.Product) (*domain.Product, error) {
	current, err := d.products.GetProductByID(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	updated, err := d.products.UpdateProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	d.invalidate(ctx, current.ProductName, updated.ProductName)
	return updated, nil
}

func (d *Directory) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	saved, err := d.products.UpsertProductByName(ctx, product)
	if err != nil {
		return nil, err
	}
	d.invalidate(ctx, saved.ProductName)
	return saved, nil
}

func (d *Directory) Delete(ctx context.Context, id string) (*domain.Product, error) {
	deleted, err := d.products.DeleteProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	d.invalidate(ctx, deleted.ProductName)
	return deleted, nil
}

func (d *Directory) invalidate(ctx context.Context, names ...string) {
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, cacheKeyPrefix+name)
	}
	if err := d.cache.Delete(ctx, keys...); err != nil {
		log.Printf("[directory] WARN: cache invalidation failed: %v", err)
	}
}

func factorOrOne(factor decimal.Decimal) decimal.Decimal {
	if factor.LessThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return factor
}
