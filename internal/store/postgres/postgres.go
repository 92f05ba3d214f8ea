package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/store"
	"waybilltrack/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const productColumns = `id, category, category_normalized, product_name, product_name_normalized,
	sku, barcode, price, stock, base_unit, conversion_factor, created_at, updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var sku, barcode, baseUnit sql.NullString
	if err := row.Scan(
		&p.ID,
		&p.Category,
		&p.CategoryNormalized,
		&p.ProductName,
		&p.ProductNameNormalized,
		&sku,
		&barcode,
		&p.Price,
		&p.Stock,
		&baseUnit,
		&p.ConversionFactor,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.SKU = sku.String
	p.Barcode = barcode.String
	p.BaseUnit = baseUnit.String
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	category := normalize(filter.Category)
	search := normalize(filter.Search)

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM products
		WHERE ($1 = '' OR category_normalized = $1)
			AND ($2 = '' OR strpos(product_name_normalized, $2) > 0)
	`, category, search).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	var limit any
	offset := 0
	if filter.Limit > 0 {
		limit = filter.Limit
		offset = (max(filter.Page, 1) - 1) * filter.Limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = '' OR category_normalized = $1)
			AND ($2 = '' OR strpos(product_name_normalized, $2) > 0)
		ORDER BY product_name ASC
		LIMIT $3 OFFSET $4
	`, category, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 32)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM products
		WHERE category <> ''
		ORDER BY category ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]string, 0, 16)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.findProduct(ctx, "id", id)
}

func (s *Store) FindProductByName(ctx context.Context, productName string) (*domain.Product, error) {
	return s.findProduct(ctx, "product_name", productName)
}

func (s *Store) findProduct(ctx context.Context, column string, value string) (*domain.Product, error) {
	if column != "id" && column != "product_name" {
		return nil, fmt.Errorf("unsupported lookup column")
	}
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE %s = $1
	`, productColumns, column), value)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.ProductName) == "" || strings.TrimSpace(product.Category) == "" {
		return nil, store.ErrInvalidInput
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO products (
			id, category, category_normalized, product_name, product_name_normalized,
			sku, barcode, price, stock, base_unit, conversion_factor, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
		RETURNING `+productColumns,
		product.ID, product.Category, normalize(product.Category), product.ProductName, normalize(product.ProductName),
		nullIfEmpty(product.SKU), nullIfEmpty(product.Barcode), product.Price, product.Stock,
		nullIfEmpty(product.BaseUnit), product.ConversionFactor)
	created, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.ProductName) == "" || strings.TrimSpace(product.Category) == "" {
		return nil, store.ErrInvalidInput
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET category = $2, category_normalized = $3, product_name = $4, product_name_normalized = $5,
			sku = $6, barcode = $7, price = $8, stock = $9, base_unit = $10, conversion_factor = $11,
			updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		product.ID, product.Category, normalize(product.Category), product.ProductName, normalize(product.ProductName),
		nullIfEmpty(product.SKU), nullIfEmpty(product.Barcode), product.Price, product.Stock,
		nullIfEmpty(product.BaseUnit), product.ConversionFactor)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return updated, nil
}

func (s *Store) UpsertProductByName(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.ProductName) == "" || strings.TrimSpace(product.Category) == "" {
		return nil, store.ErrInvalidInput
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO products (
			id, category, category_normalized, product_name, product_name_normalized,
			price, stock, conversion_factor, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
		ON CONFLICT (product_name) DO UPDATE
		SET category = EXCLUDED.category,
			category_normalized = EXCLUDED.category_normalized,
			updated_at = now()
		RETURNING `+productColumns,
		product.ID, product.Category, normalize(product.Category), product.ProductName, normalize(product.ProductName),
		product.Price, product.Stock, product.ConversionFactor)
	return scanProduct(row)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM products
		WHERE id = $1
		RETURNING `+productColumns, id)
	deleted, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return deleted, nil
}

const waybillColumns = `id, waybill_no, date, count, uom, status, closed_at, items, created_at, updated_at`

func scanWaybill(row rowScanner) (*domain.Waybill, error) {
	var w domain.Waybill
	var closedAt sql.NullTime
	var itemsRaw []byte
	if err := row.Scan(
		&w.ID,
		&w.WaybillNo,
		&w.Date,
		&w.Count,
		&w.UOM,
		&w.Status,
		&closedAt,
		&itemsRaw,
		&w.CreatedAt,
		&w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	w.Date = w.Date.UTC()
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	if closedAt.Valid {
		at := closedAt.Time.UTC()
		w.ClosedAt = &at
	}
	w.Items = []domain.WaybillItem{}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &w.Items); err != nil {
			return nil, err
		}
	}
	return &w, nil
}

func (s *Store) CreateWaybill(ctx context.Context, waybill domain.Waybill) (*domain.Waybill, error) {
	if waybill.WaybillNo == "" {
		return nil, store.ErrInvalidInput
	}
	if waybill.ID == "" {
		waybill.ID = xid.New("wb")
	}
	if waybill.Status == "" {
		waybill.Status = domain.WaybillStatusOpen
	}
	itemsJSON, err := marshalItems(waybill.Items)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO waybills (id, waybill_no, date, count, uom, status, closed_at, items, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
		RETURNING `+waybillColumns,
		waybill.ID, waybill.WaybillNo, waybill.Date, waybill.Count, waybill.UOM, waybill.Status,
		nullTime(waybill.ClosedAt), itemsJSON)
	created, err := scanWaybill(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return created, nil
}

func (s *Store) GetWaybillByID(ctx context.Context, id string) (*domain.Waybill, error) {
	return s.findWaybill(ctx, "id", id)
}

func (s *Store) GetWaybillByNo(ctx context.Context, waybillNo string) (*domain.Waybill, error) {
	return s.findWaybill(ctx, "waybill_no", waybillNo)
}

func (s *Store) findWaybill(ctx context.Context, column string, value string) (*domain.Waybill, error) {
	if column != "id" && column != "waybill_no" {
		return nil, fmt.Errorf("unsupported lookup column")
	}
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM waybills
		WHERE %s = $1
	`, waybillColumns, column), value)
	waybill, err := scanWaybill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return waybill, nil
}

func (s *Store) ListWaybills(ctx context.Context, filter domain.WaybillFilter) ([]domain.Waybill, error) {
	where, args := waybillWhere(filter)
	order := "created_at DESC"
	if filter.Status == domain.WaybillStatusClosed {
		order = "closed_at DESC NULLS LAST, created_at DESC"
	}
	query := "SELECT " + waybillColumns + " FROM waybills" + where + " ORDER BY " + order
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	waybills := make([]domain.Waybill, 0, 32)
	for rows.Next() {
		waybill, err := scanWaybill(rows)
		if err != nil {
			return nil, err
		}
		waybills = append(waybills, *waybill)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return waybills, nil
}

func (s *Store) CountWaybills(ctx context.Context, filter domain.WaybillFilter) (int, error) {
	where, args := waybillWhere(filter)
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM waybills"+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func waybillWhere(filter domain.WaybillFilter) (string, []any) {
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 5)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.DatedBefore != nil {
		add("date < $%d", *filter.DatedBefore)
	}
	if filter.ClosedFrom != nil {
		add("closed_at >= $%d", *filter.ClosedFrom)
	}
	if filter.ClosedTo != nil {
		add("closed_at <= $%d", *filter.ClosedTo)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) UpdateWaybill(ctx context.Context, waybill domain.Waybill) (*domain.Waybill, error) {
	if waybill.WaybillNo == "" {
		return nil, store.ErrInvalidInput
	}
	itemsJSON, err := marshalItems(waybill.Items)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE waybills
		SET waybill_no = $2, date = $3, count = $4, uom = $5, status = $6, closed_at = $7,
			items = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+waybillColumns,
		waybill.ID, waybill.WaybillNo, waybill.Date, waybill.Count, waybill.UOM, waybill.Status,
		nullTime(waybill.ClosedAt), itemsJSON)
	updated, err := scanWaybill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteWaybill(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM waybills WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SumIncoming(ctx context.Context, from time.Time, to time.Time) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM((item->>'incoming')::int), 0)
		FROM waybills w
		CROSS JOIN LATERAL jsonb_array_elements(w.items) AS item
		WHERE w.date >= $1 AND w.date < $2
	`, from, to).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

const discrepancyFrom = `
	FROM waybills w
	CROSS JOIN LATERAL jsonb_array_elements(w.items) WITH ORDINALITY AS e(item, ord)
	WHERE w.status = 'CLOSED'
		AND ($1::timestamptz IS NULL OR w.closed_at >= $1)
		AND ($2::timestamptz IS NULL OR w.closed_at <= $2)
		AND COALESCE((e.item->>'incoming')::int, 0) <> COALESCE((e.item->>'actual_count')::int, 0)`

func (s *Store) ListDiscrepancies(ctx context.Context, from *time.Time, to *time.Time, limit int) ([]domain.Discrepancy, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.waybill_no,
			e.item->>'product_name',
			COALESCE((e.item->>'incoming')::int, 0),
			COALESCE((e.item->>'actual_count')::int, 0),
			COALESCE(e.item->>'remark_actual', ''),
			w.closed_at`+discrepancyFrom+`
		ORDER BY w.closed_at DESC, w.id, e.ord
		LIMIT $3
	`, nullTime(from), nullTime(to), limitArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Discrepancy, 0, 16)
	for rows.Next() {
		var d domain.Discrepancy
		var closedAt time.Time
		if err := rows.Scan(&d.WaybillNo, &d.ProductName, &d.Incoming, &d.ActualCount, &d.RemarkActual, &closedAt); err != nil {
			return nil, err
		}
		closedAt = closedAt.UTC()
		d.ClosedAt = &closedAt
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountDiscrepancies(ctx context.Context, from *time.Time, to *time.Time) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+discrepancyFrom, nullTime(from), nullTime(to)).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpsertCountEntry(ctx context.Context, entry domain.CountLedgerEntry) error {
	if entry.WaybillID == "" || entry.ProductName == "" {
		return store.ErrInvalidInput
	}
	counts := entry.Counts
	if counts == nil {
		counts = []int{}
	}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO count_ledger (waybill_id, product_name, waybill_no, counts, total, remark_actual, product_id, saved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (waybill_id, product_name) DO UPDATE
		SET waybill_no = EXCLUDED.waybill_no,
			counts = EXCLUDED.counts,
			total = EXCLUDED.total,
			remark_actual = EXCLUDED.remark_actual,
			product_id = EXCLUDED.product_id,
			saved_at = EXCLUDED.saved_at
	`, entry.WaybillID, entry.ProductName, entry.WaybillNo, countsJSON, entry.Total, entry.RemarkActual,
		nullStringPtr(entry.ProductID), entry.SavedAt)
	return err
}

func (s *Store) ListCountEntries(ctx context.Context, waybillID string) ([]domain.CountLedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT waybill_id, waybill_no, product_name, counts, total, remark_actual, product_id, saved_at
		FROM count_ledger
		WHERE waybill_id = $1
		ORDER BY created_at ASC, product_name ASC
	`, waybillID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.CountLedgerEntry, 0, 8)
	for rows.Next() {
		var entry domain.CountLedgerEntry
		var countsRaw []byte
		var productID sql.NullString
		if err := rows.Scan(
			&entry.WaybillID,
			&entry.WaybillNo,
			&entry.ProductName,
			&countsRaw,
			&entry.Total,
			&entry.RemarkActual,
			&productID,
			&entry.SavedAt,
		); err != nil {
			return nil, err
		}
		entry.SavedAt = entry.SavedAt.UTC()
		if productID.Valid {
			id := productID.String
			entry.ProductID = &id
		}
		if len(countsRaw) > 0 {
			if err := json.Unmarshal(countsRaw, &entry.Counts); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

const userColumns = `id, username, fullname, email, password, role, created_at`

func scanUser(row rowScanner) (*domain.UserAccount, error) {
	var user domain.UserAccount
	var email sql.NullString
	if err := row.Scan(&user.ID, &user.Username, &user.Fullname, &email, &user.Password, &user.Role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Email = email.String
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return nil, store.ErrInvalidInput
	}
	if user.ID == "" {
		user.ID = xid.New("usr")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO app_users (id, username, fullname, email, password, role, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+userColumns,
		user.ID, user.Username, user.Fullname, nullIfEmpty(user.Email), user.Password, user.Role, user.CreatedAt)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return created, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.UserAccount, error) {
	return s.findUser(ctx, "id", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	return s.findUser(ctx, "username", strings.ToLower(strings.TrimSpace(username)))
}

func (s *Store) findUser(ctx context.Context, column string, value string) (*domain.UserAccount, error) {
	if column != "id" && column != "username" {
		return nil, fmt.Errorf("unsupported lookup column")
	}
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM app_users
		WHERE %s = $1
	`, userColumns, column), value)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Username == "" {
		return nil, store.ErrInvalidInput
	}

	// An empty password keeps the stored hash.
	row := s.db.QueryRowContext(ctx, `
		UPDATE app_users
		SET username = $2, fullname = $3, email = $4, role = $5,
			password = COALESCE(NULLIF($6, ''), password)
		WHERE id = $1
		RETURNING `+userColumns,
		user.ID, user.Username, user.Fullname, nullIfEmpty(user.Email), user.Role, user.Password)
	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM app_users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func marshalItems(items []domain.WaybillItem) ([]byte, error) {
	if items == nil {
		items = []domain.WaybillItem{}
	}
	return json.Marshal(items)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullStringPtr(val *string) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
