package store

import (
	"context"
	"errors"
	"time"

	"waybilltrack/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// CountLedger is the append/upsert audit trail of count saves, keyed by
// (waybill id, product name). Entries outlive the waybill they describe.
type CountLedger interface {
	UpsertCountEntry(ctx context.Context, entry domain.CountLedgerEntry) error
	ListCountEntries(ctx context.Context, waybillID string) ([]domain.CountLedgerEntry, error)
}

type Repository interface {
	CountLedger

	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	ListCategories(ctx context.Context) ([]string, error)
	CountProducts(ctx context.Context) (int, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	FindProductByName(ctx context.Context, productName string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpsertProductByName(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (*domain.Product, error)

	CreateWaybill(ctx context.Context, waybill domain.Waybill) (*domain.Waybill, error)
	GetWaybillByID(ctx context.Context, id string) (*domain.Waybill, error)
	GetWaybillByNo(ctx context.Context, waybillNo string) (*domain.Waybill, error)
	ListWaybills(ctx context.Context, filter domain.WaybillFilter) ([]domain.Waybill, error)
	CountWaybills(ctx context.Context, filter domain.WaybillFilter) (int, error)
	UpdateWaybill(ctx context.Context, waybill domain.Waybill) (*domain.Waybill, error)
	DeleteWaybill(ctx context.Context, id string) error
	SumIncoming(ctx context.Context, from time.Time, to time.Time) (int, error)
	ListDiscrepancies(ctx context.Context, from *time.Time, to *time.Time, limit int) ([]domain.Discrepancy, error)
	CountDiscrepancies(ctx context.Context, from *time.Time, to *time.Time) (int, error)

	CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	GetUserByID(ctx context.Context, id string) (*domain.UserAccount, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	UpdateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	DeleteUser(ctx context.Context, id string) error
}
