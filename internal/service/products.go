package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/policy"
)

const maxProductPage = 100

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.ProductListResponse, error) {
	if _, err := s.authorize(ctx, policy.ViewProducts); err != nil {
		return domain.ProductListResponse{}, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = s.settings.ProductPage
	}
	filter.Limit = min(filter.Limit, maxProductPage)

	products, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return domain.ProductListResponse{}, err
	}
	return domain.ProductListResponse{
		Products:      products,
		CurrentPage:   filter.Page,
		TotalPages:    (total + filter.Limit - 1) / filter.Limit,
		TotalProducts: total,
		Limit:         filter.Limit,
	}, nil
}

// ProductsByCategory lists every product in a category, matched without
// regard to case.
func (s *Service) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	if _, err := s.authorize(ctx, policy.ViewProducts); err != nil {
		return nil, err
	}
	if strings.TrimSpace(category) == "" {
		return nil, invalid("category", "is required")
	}
	products, _, err := s.repo.ListProducts(ctx, domain.ProductFilter{Category: category})
	return products, err
}

// SearchProducts matches query as a case-insensitive substring of the name.
func (s *Service) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	if _, err := s.authorize(ctx, policy.ViewProducts); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, invalid("q", "is required")
	}
	products, _, err := s.repo.ListProducts(ctx, domain.ProductFilter{Search: query})
	return products, err
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	if _, err := s.authorize(ctx, policy.ViewProducts); err != nil {
		return nil, err
	}
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	if _, err := s.authorize(ctx, policy.ManageProducts); err != nil {
		return domain.Product{}, err
	}
	product, err := productFromInput(in)
	if err != nil {
		return domain.Product{}, err
	}
	created, err := s.directory.Create(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (domain.Product, error) {
	if _, err := s.authorize(ctx, policy.ManageProducts); err != nil {
		return domain.Product{}, err
	}
	product, err := productFromInput(in)
	if err != nil {
		return domain.Product{}, err
	}
	product.ID = id
	updated, err := s.directory.Update(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.authorize(ctx, policy.ManageProducts); err != nil {
		return err
	}
	_, err := s.directory.Delete(ctx, id)
	return err
}

// ImportProducts upserts parsed spreadsheet rows by product name. Existing
// products keep their other fields and take the imported category.
func (s *Service) ImportProducts(ctx context.Context, rows []domain.ProductImportRow, skipped []int) (domain.ProductImportResponse, error) {
	if _, err := s.authorize(ctx, policy.ImportProducts); err != nil {
		return domain.ProductImportResponse{}, err
	}
	resp := domain.ProductImportResponse{Skipped: append([]int(nil), skipped...)}
	for _, row := range rows {
		category := strings.TrimSpace(row.Category)
		name := strings.TrimSpace(row.ProductName)
		if category == "" || name == "" {
			resp.Skipped = append(resp.Skipped, row.Row)
			continue
		}
		if _, err := s.directory.Upsert(ctx, domain.Product{Category: category, ProductName: name}); err != nil {
			return resp, err
		}
		resp.Imported++
	}
	return resp, nil
}

func productFromInput(in domain.ProductInput) (domain.Product, error) {
	product := domain.Product{
		Category:    strings.TrimSpace(in.Category),
		ProductName: strings.TrimSpace(in.ProductName),
		SKU:         strings.TrimSpace(in.SKU),
		Barcode:     strings.TrimSpace(in.Barcode),
		Stock:       in.Stock,
		BaseUnit:    strings.TrimSpace(in.BaseUnit),
	}
	if product.Category == "" {
		return domain.Product{}, invalid("category", "is required")
	}
	if product.ProductName == "" {
		return domain.Product{}, invalid("product_name", "is required")
	}
	if product.Stock < 0 {
		return domain.Product{}, invalid("stock", "must not be negative")
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return domain.Product{}, invalid("price", "must not be negative")
		}
		product.Price = *in.Price
	}
	if in.ConversionFactor != nil {
		if in.ConversionFactor.LessThan(decimal.NewFromInt(1)) {
			return domain.Product{}, invalid("conversion_factor", "must be at least 1")
		}
		product.ConversionFactor = *in.ConversionFactor
	}
	return product, nil
}
