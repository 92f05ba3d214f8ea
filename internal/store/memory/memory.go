package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/reconcile"
	"waybilltrack/backend/internal/store"
	"waybilltrack/backend/internal/xid"
)

type Store struct {
	mu            sync.RWMutex
	products      map[string]domain.Product
	waybills      map[string]domain.Waybill
	ledger        map[string]domain.CountLedgerEntry
	usersByID     map[string]domain.UserAccount
	ledgerWritten []string
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// The password comes from SEED_ADMIN_PASSWORD; if unset a hardcoded dev
// default is used with a warning. Production runs on PostgreSQL.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD to override.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed password: %v", err)
	}
	admin := domain.UserAccount{
		ID:        xid.New("usr"),
		Username:  "admin",
		Fullname:  "Warehouse Administrator",
		Email:     "admin@example.com",
		Password:  string(hash),
		Role:      domain.RoleSuperAdmin,
		CreatedAt: time.Now().UTC(),
	}
	return map[string]domain.UserAccount{admin.ID: admin}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// New returns an empty store with no users.
func New() *Store {
	return &Store{
		products:  make(map[string]domain.Product),
		waybills:  make(map[string]domain.Waybill),
		ledger:    make(map[string]domain.CountLedgerEntry),
		usersByID: make(map[string]domain.UserAccount),
	}
}

func NewSeeded() *Store {
	s := New()
	s.usersByID = seedUsers()

	now := time.Now().UTC()
	for _, p := range []struct {
		category string
		name     string
		unit     string
		factor   int64
	}{
		{"Beverage", "Air Mineral 600ml", "btl", 24},
		{"Beverage", "Kopi Sachet", "pcs", 10},
		{"Grocery", "Gula 1kg", "pack", 1},
		{"Grocery", "Mie Goreng Instan", "pcs", 40},
		{"Dairy", "Susu UHT 1L", "box", 12},
		{"Household", "Sabun Mandi", "pcs", 0},
	} {
		product := domain.Product{
			ID:          xid.New("prd"),
			Category:    p.category,
			ProductName: p.name,
			BaseUnit:    p.unit,
			Price:       decimal.Zero,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if p.factor > 0 {
			product.ConversionFactor = decimal.NewFromInt(p.factor)
		}
		normalizeProduct(&product)
		s.products[product.ID] = product
	}
	return s
}

func (s *Store) ListProducts(_ context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category := normalize(filter.Category)
	search := normalize(filter.Search)

	matched := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if category != "" && p.CategoryNormalized != category {
			continue
		}
		if search != "" && !strings.Contains(p.ProductNameNormalized, search) {
			continue
		}
		matched = append(matched, p)
	}
	slices.SortFunc(matched, func(a, b domain.Product) int {
		return strings.Compare(a.ProductName, b.ProductName)
	})

	total := len(matched)
	if filter.Limit < 1 {
		return matched, total, nil
	}
	page := max(filter.Page, 1)
	start := (page - 1) * filter.Limit
	if start >= total {
		return []domain.Product{}, total, nil
	}
	end := min(start+filter.Limit, total)
	return matched[start:end], total, nil
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.products))
	categories := make([]string, 0, 16)
	for _, p := range s.products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	slices.Sort(categories)
	return categories, nil
}

func (s *Store) CountProducts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) FindProductByName(_ context.Context, productName string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.productByNameLocked(productName); ok {
		return &p, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(product.ProductName) == "" || strings.TrimSpace(product.Category) == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.productByNameLocked(product.ProductName); exists {
		return nil, store.ErrConflict
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	normalizeProduct(&product)
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.products[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if strings.TrimSpace(product.ProductName) == "" || strings.TrimSpace(product.Category) == "" {
		return nil, store.ErrInvalidInput
	}
	if other, taken := s.productByNameLocked(product.ProductName); taken && other.ID != product.ID {
		return nil, store.ErrConflict
	}
	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	normalizeProduct(&product)
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) UpsertProductByName(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(product.ProductName) == "" || strings.TrimSpace(product.Category) == "" {
		return nil, store.ErrInvalidInput
	}
	now := time.Now().UTC()
	if current, exists := s.productByNameLocked(product.ProductName); exists {
		current.Category = product.Category
		current.UpdatedAt = now
		normalizeProduct(&current)
		s.products[current.ID] = current
		return &current, nil
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	normalizeProduct(&product)
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	delete(s.products, id)
	return &product, nil
}

func (s *Store) CreateWaybill(_ context.Context, waybill domain.Waybill) (*domain.Waybill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if waybill.WaybillNo == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.waybillByNoLocked(waybill.WaybillNo); exists {
		return nil, store.ErrConflict
	}
	if waybill.ID == "" {
		waybill.ID = xid.New("wb")
	}
	if waybill.Status == "" {
		waybill.Status = domain.WaybillStatusOpen
	}
	now := time.Now().UTC()
	if waybill.CreatedAt.IsZero() {
		waybill.CreatedAt = now
	}
	waybill.UpdatedAt = now
	saved := cloneWaybill(waybill)
	s.waybills[saved.ID] = saved
	out := cloneWaybill(saved)
	return &out, nil
}

func (s *Store) GetWaybillByID(_ context.Context, id string) (*domain.Waybill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	waybill, exists := s.waybills[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	out := cloneWaybill(waybill)
	return &out, nil
}

func (s *Store) GetWaybillByNo(_ context.Context, waybillNo string) (*domain.Waybill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	waybill, exists := s.waybillByNoLocked(waybillNo)
	if !exists {
		return nil, store.ErrNotFound
	}
	out := cloneWaybill(waybill)
	return &out, nil
}

func (s *Store) ListWaybills(_ context.Context, filter domain.WaybillFilter) ([]domain.Waybill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	waybills := s.filterWaybillsLocked(filter)
	if filter.Status == domain.WaybillStatusClosed {
		slices.SortFunc(waybills, compareClosedAtDesc)
	} else {
		slices.SortFunc(waybills, func(a, b domain.Waybill) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	if filter.Limit > 0 && len(waybills) > filter.Limit {
		waybills = waybills[:filter.Limit]
	}
	out := make([]domain.Waybill, 0, len(waybills))
	for _, waybill := range waybills {
		out = append(out, cloneWaybill(waybill))
	}
	return out, nil
}

func (s *Store) CountWaybills(_ context.Context, filter domain.WaybillFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filterWaybillsLocked(filter)), nil
}

func (s *Store) UpdateWaybill(_ context.Context, waybill domain.Waybill) (*domain.Waybill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.waybills[waybill.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if waybill.WaybillNo == "" {
		return nil, store.ErrInvalidInput
	}
	if other, taken := s.waybillByNoLocked(waybill.WaybillNo); taken && other.ID != waybill.ID {
		return nil, store.ErrConflict
	}
	waybill.CreatedAt = current.CreatedAt
	waybill.UpdatedAt = time.Now().UTC()
	saved := cloneWaybill(waybill)
	s.waybills[saved.ID] = saved
	out := cloneWaybill(saved)
	return &out, nil
}

func (s *Store) DeleteWaybill(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.waybills[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.waybills, id)
	return nil
}

func (s *Store) SumIncoming(_ context.Context, from time.Time, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, waybill := range s.waybills {
		if waybill.Date.Before(from) || !waybill.Date.Before(to) {
			continue
		}
		for _, item := range waybill.Items {
			total += item.Incoming
		}
	}
	return total, nil
}

func (s *Store) ListDiscrepancies(_ context.Context, from *time.Time, to *time.Time, limit int) ([]domain.Discrepancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	closed := s.filterWaybillsLocked(domain.WaybillFilter{
		Status:     domain.WaybillStatusClosed,
		ClosedFrom: from,
		ClosedTo:   to,
	})
	slices.SortFunc(closed, compareClosedAtDesc)

	out := make([]domain.Discrepancy, 0, 16)
	for _, waybill := range closed {
		for _, d := range reconcile.Discrepancies(waybill) {
			out = append(out, d)
			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (s *Store) CountDiscrepancies(ctx context.Context, from *time.Time, to *time.Time) (int, error) {
	list, err := s.ListDiscrepancies(ctx, from, to, 0)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func (s *Store) UpsertCountEntry(_ context.Context, entry domain.CountLedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.WaybillID == "" || entry.ProductName == "" {
		return store.ErrInvalidInput
	}
	key := ledgerKey(entry.WaybillID, entry.ProductName)
	if _, exists := s.ledger[key]; !exists {
		s.ledgerWritten = append(s.ledgerWritten, key)
	}
	entry.Counts = slices.Clone(entry.Counts)
	s.ledger[key] = entry
	return nil
}

func (s *Store) ListCountEntries(_ context.Context, waybillID string) ([]domain.CountLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.CountLedgerEntry, 0, 8)
	for _, key := range s.ledgerWritten {
		entry := s.ledger[key]
		if entry.WaybillID != waybillID {
			continue
		}
		entry.Counts = slices.Clone(entry.Counts)
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return nil, store.ErrInvalidInput
	}
	if s.userTakenLocked(user, "") {
		return nil, store.ErrConflict
	}
	if user.ID == "" {
		user.ID = xid.New("usr")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByID[user.ID] = user
	return &user, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByID))
	for _, user := range s.usersByID {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username = strings.ToLower(strings.TrimSpace(username))
	for _, user := range s.usersByID {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.usersByID[user.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Username == "" {
		return nil, store.ErrInvalidInput
	}
	if s.userTakenLocked(user, user.ID) {
		return nil, store.ErrConflict
	}
	if strings.TrimSpace(user.Password) == "" {
		user.Password = current.Password
	}
	user.CreatedAt = current.CreatedAt
	s.usersByID[user.ID] = user
	return &user, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.usersByID, id)
	return nil
}

func (s *Store) productByNameLocked(productName string) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ProductName == productName {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Store) waybillByNoLocked(waybillNo string) (domain.Waybill, bool) {
	for _, waybill := range s.waybills {
		if waybill.WaybillNo == waybillNo {
			return waybill, true
		}
	}
	return domain.Waybill{}, false
}

func (s *Store) userTakenLocked(user domain.UserAccount, selfID string) bool {
	for _, other := range s.usersByID {
		if other.ID == selfID {
			continue
		}
		if other.Username == user.Username {
			return true
		}
		if user.Email != "" && other.Email == user.Email {
			return true
		}
	}
	return false
}

func (s *Store) filterWaybillsLocked(filter domain.WaybillFilter) []domain.Waybill {
	out := make([]domain.Waybill, 0, len(s.waybills))
	for _, waybill := range s.waybills {
		if filter.Status != "" && waybill.Status != filter.Status {
			continue
		}
		if filter.DatedBefore != nil && !waybill.Date.Before(*filter.DatedBefore) {
			continue
		}
		if filter.ClosedFrom != nil || filter.ClosedTo != nil {
			if waybill.ClosedAt == nil {
				continue
			}
			if filter.ClosedFrom != nil && waybill.ClosedAt.Before(*filter.ClosedFrom) {
				continue
			}
			if filter.ClosedTo != nil && waybill.ClosedAt.After(*filter.ClosedTo) {
				continue
			}
		}
		out = append(out, waybill)
	}
	return out
}

func compareClosedAtDesc(a, b domain.Waybill) int {
	switch {
	case a.ClosedAt == nil && b.ClosedAt == nil:
		return b.CreatedAt.Compare(a.CreatedAt)
	case a.ClosedAt == nil:
		return 1
	case b.ClosedAt == nil:
		return -1
	}
	return b.ClosedAt.Compare(*a.ClosedAt)
}

func ledgerKey(waybillID string, productName string) string {
	return waybillID + "::" + productName
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func normalizeProduct(p *domain.Product) {
	p.CategoryNormalized = normalize(p.Category)
	p.ProductNameNormalized = normalize(p.ProductName)
}

func cloneWaybill(src domain.Waybill) domain.Waybill {
	dup := src
	dup.Items = slices.Clone(src.Items)
	if dup.Items == nil {
		dup.Items = []domain.WaybillItem{}
	}
	if src.ClosedAt != nil {
		closedAt := *src.ClosedAt
		dup.ClosedAt = &closedAt
	}
	return dup
}
