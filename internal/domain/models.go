package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WaybillStatusOpen   = "OPEN"
	WaybillStatusClosed = "CLOSED"
)

const (
	RoleSuperAdmin = "Super Admin"
	RoleAdmin      = "Admin"
	RoleUser       = "User"
)

type Waybill struct {
	ID        string        `json:"id"`
	WaybillNo string        `json:"waybill_no"`
	Date      time.Time     `json:"date"`
	Count     int           `json:"count"`
	UOM       string        `json:"uom"`
	Status    string        `json:"status"`
	ClosedAt  *time.Time    `json:"closed_at,omitempty"`
	Items     []WaybillItem `json:"items"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type WaybillItem struct {
	ProductName      string          `json:"product_name"`
	Incoming         int             `json:"incoming"`
	UOMIncoming      string          `json:"uom_incoming"`
	ActualCount      int             `json:"actual_count"`
	RemarkActual     string          `json:"remark_actual"`
	ProductID        *string         `json:"product_id"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
}

// WaybillInput is the caller-supplied shape for create and edit. Counts and
// remarks are optional here; they are normally written by a count save.
type WaybillInput struct {
	WaybillNo string             `json:"waybill_no"`
	Date      *time.Time         `json:"date,omitempty"`
	Count     *int               `json:"count"`
	UOM       string             `json:"uom"`
	Items     []WaybillItemInput `json:"items"`
}

type WaybillItemInput struct {
	ProductName      string           `json:"product_name"`
	Incoming         int              `json:"incoming"`
	UOMIncoming      string           `json:"uom_incoming"`
	ActualCount      int              `json:"actual_count"`
	RemarkActual     string           `json:"remark_actual"`
	ConversionFactor *decimal.Decimal `json:"conversion_factor,omitempty"`
}

type WaybillCreateRequest struct {
	Waybills []WaybillInput `json:"waybills"`
}

type WaybillCreateResponse struct {
	Waybills []Waybill           `json:"waybills"`
	Warnings []ResolutionWarning `json:"warnings,omitempty"`
}

type WaybillEditResponse struct {
	Waybill  Waybill             `json:"waybill"`
	Warnings []ResolutionWarning `json:"warnings,omitempty"`
}

type WaybillFilter struct {
	Status      string
	ClosedFrom  *time.Time
	ClosedTo    *time.Time
	DatedBefore *time.Time
	Limit       int
}

type WaybillListResponse struct {
	Waybills []Waybill `json:"waybills"`
}

// CountSheet maps a waybill item's product name to the value submitted for it.
type CountSheet map[string]string

type CountSaveRequest struct {
	Counts  CountSheet `json:"counts"`
	Remarks CountSheet `json:"remarks"`
}

type CountSaveResponse struct {
	Waybill  Waybill             `json:"waybill"`
	Modified bool                `json:"modified"`
	Warnings []ResolutionWarning `json:"warnings,omitempty"`
}

// ResolutionWarning records a product name that could not be linked to the
// product directory. The item is kept with a nil product id.
type ResolutionWarning struct {
	WaybillNo   string `json:"waybill_no"`
	ProductName string `json:"product_name"`
	Message     string `json:"message"`
}

type CountLedgerEntry struct {
	WaybillID    string    `json:"waybill_id"`
	WaybillNo    string    `json:"waybill_no"`
	ProductName  string    `json:"product_name"`
	Counts       []int     `json:"counts"`
	Total        int       `json:"total"`
	RemarkActual string    `json:"remark_actual"`
	ProductID    *string   `json:"product_id"`
	SavedAt      time.Time `json:"saved_at"`
}

type CountLedgerResponse struct {
	Entries []CountLedgerEntry `json:"entries"`
}

type Discrepancy struct {
	WaybillNo    string     `json:"waybill_no"`
	ProductName  string     `json:"product_name"`
	Incoming     int        `json:"incoming"`
	ActualCount  int        `json:"actual_count"`
	RemarkActual string     `json:"remark_actual"`
	ClosedAt     *time.Time `json:"closed_at"`
}

type DiscrepancyListResponse struct {
	Discrepancies []Discrepancy `json:"discrepancies"`
	Total         int           `json:"total"`
}

type Dashboard struct {
	ProductCount             int           `json:"product_count"`
	OpenWaybills             int           `json:"open_waybills"`
	ClosedWaybills           int           `json:"closed_waybills"`
	OverdueWaybills          int           `json:"overdue_waybills"`
	IncomingToday            int           `json:"incoming_today"`
	DiscrepanciesTotal       int           `json:"discrepancies_total"`
	DiscrepanciesThisMonth   int           `json:"discrepancies_this_month"`
	ClosedWaybillsThisMonth  []Waybill     `json:"closed_waybills_this_month"`
	DiscrepancyListThisMonth []Discrepancy `json:"discrepancy_list_this_month"`
}

type ClosedReport struct {
	From          string        `json:"from"`
	To            string        `json:"to"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Waybills      []Waybill     `json:"waybills"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

type Product struct {
	ID                    string          `json:"id"`
	Category              string          `json:"category"`
	CategoryNormalized    string          `json:"category_normalized"`
	ProductName           string          `json:"product_name"`
	ProductNameNormalized string          `json:"product_name_normalized"`
	SKU                   string          `json:"sku,omitempty"`
	Barcode               string          `json:"barcode,omitempty"`
	Price                 decimal.Decimal `json:"price"`
	Stock                 int             `json:"stock"`
	BaseUnit              string          `json:"base_unit,omitempty"`
	ConversionFactor      decimal.Decimal `json:"conversion_factor"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

type ProductInput struct {
	Category         string           `json:"category"`
	ProductName      string           `json:"product_name"`
	SKU              string           `json:"sku"`
	Barcode          string           `json:"barcode"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	Stock            int              `json:"stock"`
	BaseUnit         string           `json:"base_unit"`
	ConversionFactor *decimal.Decimal `json:"conversion_factor,omitempty"`
}

type ProductFilter struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

type ProductListResponse struct {
	Products      []Product `json:"products"`
	CurrentPage   int       `json:"current_page"`
	TotalPages    int       `json:"total_pages"`
	TotalProducts int       `json:"total_products"`
	Limit         int       `json:"limit"`
}

// ProductResolution is what the directory hands back for a product name.
type ProductResolution struct {
	ID               string          `json:"id"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
}

type ProductImportRow struct {
	Row         int    `json:"row"`
	Category    string `json:"category"`
	ProductName string `json:"product_name"`
}

type ProductImportResponse struct {
	Imported int   `json:"imported"`
	Skipped  []int `json:"skipped_rows,omitempty"`
}

type Actor struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type UserAccount struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Fullname  string    `json:"fullname"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type UserInput struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UserListResponse struct {
	Users []UserAccount `json:"users"`
}

// WaybillEvent is what the notification dispatcher publishes after a waybill
// write.
type WaybillEvent struct {
	IncomingID string    `json:"incomingId"`
	WaybillNo  string    `json:"waybillNo"`
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurredAt"`
}

const (
	EventWaybillCreated = "waybill.created"
	EventWaybillUpdated = "waybill.updated"
	EventWaybillCounted = "waybill.counted"
	EventWaybillClosed  = "waybill.closed"
)
