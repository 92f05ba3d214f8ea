package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/service"
	"waybilltrack/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()
	t.Setenv("SEED_ADMIN_PASSWORD", "admin123")

	repo := memory.NewSeeded()
	svc := service.New(repo, nil, nil, service.Settings{})
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

// mustHashPassword generates a bcrypt hash of the given password or fails the test.
func mustHashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

type session struct {
	t       *testing.T
	handler http.Handler
	token   string
	csrf    string
}

func login(t *testing.T, api *API, username string, password string) *session {
	t.Helper()
	handler := api.Handler()

	payload, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s: expected 200, got %d (body: %s)", username, rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	return &session{t: t, handler: handler, token: resp.AccessToken, csrf: api.generateCSRFToken()}
}

func (s *session) do(method string, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("X-CSRF-Token", s.csrf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v (status %d)", err, rec.Code)
	}
	return out
}

func sampleWaybill(waybillNo string) domain.WaybillCreateRequest {
	count := 2
	return domain.WaybillCreateRequest{Waybills: []domain.WaybillInput{{
		WaybillNo: waybillNo,
		Count:     &count,
		UOM:       "carton",
		Items: []domain.WaybillItemInput{
			{ProductName: "Mie Goreng Instan", Incoming: 10, UOMIncoming: "carton"},
			{ProductName: "Gula 1kg", Incoming: 5, UOMIncoming: "sack"},
		},
	}}}
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	api := newTestAPI(t)

	payload, _ := json.Marshal(domain.LoginRequest{Username: "admin", Password: "nope"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWaybillLifecycleOverHTTP(t *testing.T) {
	s := login(t, newTestAPI(t), "admin", "admin123")

	rec := s.do(http.MethodPost, "/api/v1/waybills", sampleWaybill("SJ-1001"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	created := decodeBody[domain.WaybillCreateResponse](t, rec)
	id := created.Waybills[0].ID

	rec = s.do(http.MethodPost, "/api/v1/waybills/"+id+"/counts", domain.CountSaveRequest{
		Counts:  domain.CountSheet{"Mie Goreng Instan": "4,3", "Gula 1kg": "5"},
		Remarks: domain.CountSheet{"Mie Goreng Instan": "three cartons crushed"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("counts: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	saved := decodeBody[domain.CountSaveResponse](t, rec)
	if !saved.Modified || saved.Waybill.Items[0].ActualCount != 7 {
		t.Fatalf("unexpected count result %+v", saved)
	}

	rec = s.do(http.MethodGet, "/api/v1/waybills/"+id+"/counts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ledger: expected 200, got %d", rec.Code)
	}
	if ledger := decodeBody[domain.CountLedgerResponse](t, rec); len(ledger.Entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(ledger.Entries))
	}

	rec = s.do(http.MethodPost, "/api/v1/waybills/"+id+"/close", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	rec = s.do(http.MethodPost, "/api/v1/waybills/"+id+"/close", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second close: expected 409, got %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/api/v1/reports/discrepancies", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("discrepancies: expected 200, got %d", rec.Code)
	}
	list := decodeBody[domain.DiscrepancyListResponse](t, rec)
	if list.Total != 1 || list.Discrepancies[0].ProductName != "Mie Goreng Instan" {
		t.Fatalf("unexpected discrepancies %+v", list)
	}

	rec = s.do(http.MethodGet, "/api/v1/reports/closed?format=csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv report: expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("expected csv content type, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "SJ-1001") {
		t.Fatalf("expected csv to mention the waybill")
	}

	rec = s.do(http.MethodGet, "/api/v1/reports/closed?format=pdf", nil)
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected pdf body, got %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/api/v1/reports/closed?format=xml", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown format: expected 400, got %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/api/v1/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", rec.Code)
	}
	if dash := decodeBody[domain.Dashboard](t, rec); dash.ClosedWaybills != 1 {
		t.Fatalf("expected one closed waybill on the dashboard, got %d", dash.ClosedWaybills)
	}
}

func TestCreateWaybillErrorsMapToStatus(t *testing.T) {
	s := login(t, newTestAPI(t), "admin", "admin123")

	if rec := s.do(http.MethodPost, "/api/v1/waybills", sampleWaybill("SJ-2001")); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/api/v1/waybills", sampleWaybill("SJ-2001")); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rec.Code)
	}

	bad := sampleWaybill("SJ-2002")
	bad.Waybills[0].UOM = ""
	rec := s.do(http.MethodPost, "/api/v1/waybills", bad)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("validation: expected 400, got %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["field"] != "waybills[0].uom" {
		t.Fatalf("expected field waybills[0].uom, got %q", body["field"])
	}

	if rec := s.do(http.MethodGet, "/api/v1/waybills/wb-missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing waybill: expected 404, got %d", rec.Code)
	}
}

func TestUserRoleIsLimitedToViewing(t *testing.T) {
	api := newTestAPI(t)
	admin := login(t, api, "admin", "admin123")

	rec := admin.do(http.MethodPost, "/api/v1/users", domain.UserInput{
		Username: "checker",
		Password: "checker1",
		Role:     domain.RoleUser,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	user := login(t, api, "checker", "checker1")
	if rec := user.do(http.MethodGet, "/api/v1/waybills", nil); rec.Code != http.StatusOK {
		t.Fatalf("user list waybills: expected 200, got %d", rec.Code)
	}
	if rec := user.do(http.MethodPost, "/api/v1/waybills", sampleWaybill("SJ-3001")); rec.Code != http.StatusForbidden {
		t.Fatalf("user create waybill: expected 403, got %d", rec.Code)
	}
	if rec := user.do(http.MethodGet, "/api/v1/users", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("user list users: expected 403, got %d", rec.Code)
	}
}

func TestProductEndpoints(t *testing.T) {
	s := login(t, newTestAPI(t), "admin", "admin123")

	rec := s.do(http.MethodGet, "/api/v1/products?limit=2&page=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	page := decodeBody[domain.ProductListResponse](t, rec)
	if page.TotalProducts != 6 || page.TotalPages != 3 || page.CurrentPage != 2 || len(page.Products) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}

	rec = s.do(http.MethodGet, "/api/v1/products/categories", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("categories: expected 200, got %d", rec.Code)
	}
	if cats := decodeBody[map[string][]string](t, rec); len(cats["categories"]) != 4 {
		t.Fatalf("expected 4 categories, got %v", cats["categories"])
	}

	rec = s.do(http.MethodPost, "/api/v1/products", domain.ProductInput{Category: "Grocery", ProductName: "Garam Halus"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	created := decodeBody[map[string]domain.Product](t, rec)["product"]

	rec = s.do(http.MethodPut, "/api/v1/products/"+created.ID, domain.ProductInput{Category: "Pantry", ProductName: "Garam Halus"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, "/api/v1/products/"+created.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, "/api/v1/products/"+created.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/api/v1/products/search?q=susu", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", rec.Code)
	}
	if found := decodeBody[map[string][]domain.Product](t, rec)["products"]; len(found) != 1 {
		t.Fatalf("expected one match for susu, got %d", len(found))
	}
}

func TestProductImportFromWorkbook(t *testing.T) {
	api := newTestAPI(t)
	s := login(t, api, "admin", "admin123")

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]any{
		{"category", "productName"},
		{"Beverage", "Teh Botol"},
		{"", "No Category"},
		{"Grocery", "Gula 1kg"},
	}
	for i, row := range rows {
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := book.SetSheetRow(sheet, cellName, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var workbook bytes.Buffer
	if err := book.Write(&workbook); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "products.xlsx")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write(workbook.Bytes()); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("X-CSRF-Token", s.csrf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("import: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	resp := decodeBody[domain.ProductImportResponse](t, rec)
	if resp.Imported != 2 {
		t.Fatalf("expected 2 imported rows, got %d", resp.Imported)
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0] != 3 {
		t.Fatalf("expected row 3 skipped, got %v", resp.Skipped)
	}
}
