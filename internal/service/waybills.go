package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/policy"
	"waybilltrack/backend/internal/store"
)

// CreateWaybills validates the whole batch, then stores each waybill as OPEN.
// A waybill number already on file, or repeated inside the batch, fails the
// batch before anything is written.
func (s *Service) CreateWaybills(ctx context.Context, req domain.WaybillCreateRequest) (domain.WaybillCreateResponse, error) {
	if _, err := s.authorize(ctx, policy.ManageWaybills); err != nil {
		return domain.WaybillCreateResponse{}, err
	}
	if len(req.Waybills) == 0 {
		return domain.WaybillCreateResponse{}, invalid("waybills", "at least one waybill is required")
	}

	drafts := make([]waybillDraft, 0, len(req.Waybills))
	seen := make(map[string]int, len(req.Waybills))
	for i, in := range req.Waybills {
		prefix := fmt.Sprintf("waybills[%d]", i)
		draft, err := s.buildWaybill(prefix, in)
		if err != nil {
			return domain.WaybillCreateResponse{}, err
		}
		if first, dup := seen[draft.waybill.WaybillNo]; dup {
			return domain.WaybillCreateResponse{}, fmt.Errorf("%w: waybill number %q repeated at waybills[%d] and %s", store.ErrConflict, draft.waybill.WaybillNo, first, prefix)
		}
		seen[draft.waybill.WaybillNo] = i
		if err := s.ensureWaybillNoFree(ctx, draft.waybill.WaybillNo, ""); err != nil {
			return domain.WaybillCreateResponse{}, err
		}
		drafts = append(drafts, draft)
	}

	resp := domain.WaybillCreateResponse{Waybills: make([]domain.Waybill, 0, len(drafts))}
	for _, draft := range drafts {
		warnings, err := s.resolveItems(ctx, &draft, true)
		if err != nil {
			return resp, err
		}
		resp.Warnings = append(resp.Warnings, warnings...)

		draft.waybill.Status = domain.WaybillStatusOpen
		draft.waybill.ClosedAt = nil
		created, err := s.repo.CreateWaybill(ctx, draft.waybill)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return resp, fmt.Errorf("%w: waybill number %q already exists", store.ErrConflict, draft.waybill.WaybillNo)
			}
			return resp, err
		}
		resp.Waybills = append(resp.Waybills, *created)
		s.publish(ctx, *created, domain.EventWaybillCreated)
	}
	logWarnings("create waybills", resp.Warnings)
	return resp, nil
}

// EditWaybill replaces the scalar fields and items of a waybill and resolves
// every item again. Status and closedAt are left as they are.
func (s *Service) EditWaybill(ctx context.Context, id string, in domain.WaybillInput) (domain.WaybillEditResponse, error) {
	if _, err := s.authorize(ctx, policy.ManageWaybills); err != nil {
		return domain.WaybillEditResponse{}, err
	}
	current, err := s.repo.GetWaybillByID(ctx, id)
	if err != nil {
		return domain.WaybillEditResponse{}, err
	}

	draft, err := s.buildWaybill("", in)
	if err != nil {
		return domain.WaybillEditResponse{}, err
	}
	if draft.waybill.WaybillNo != current.WaybillNo {
		if err := s.ensureWaybillNoFree(ctx, draft.waybill.WaybillNo, current.ID); err != nil {
			return domain.WaybillEditResponse{}, err
		}
	}
	if in.Date == nil {
		draft.waybill.Date = current.Date
	}

	warnings, err := s.resolveItems(ctx, &draft, true)
	if err != nil {
		return domain.WaybillEditResponse{}, err
	}

	draft.waybill.ID = current.ID
	draft.waybill.Status = current.Status
	draft.waybill.ClosedAt = current.ClosedAt
	draft.waybill.CreatedAt = current.CreatedAt
	updated, err := s.repo.UpdateWaybill(ctx, draft.waybill)
	if err != nil {
		return domain.WaybillEditResponse{}, err
	}
	logWarnings("edit waybill", warnings)
	s.publish(ctx, *updated, domain.EventWaybillUpdated)
	return domain.WaybillEditResponse{Waybill: *updated, Warnings: warnings}, nil
}

// CloseWaybill moves an OPEN waybill to CLOSED and stamps closedAt. There is
// no way back; closing twice is a conflict.
func (s *Service) CloseWaybill(ctx context.Context, id string) (domain.Waybill, error) {
	if _, err := s.authorize(ctx, policy.CloseWaybills); err != nil {
		return domain.Waybill{}, err
	}
	waybill, err := s.repo.GetWaybillByID(ctx, id)
	if err != nil {
		return domain.Waybill{}, err
	}
	if waybill.Status == domain.WaybillStatusClosed {
		return domain.Waybill{}, fmt.Errorf("%w: waybill %s is already closed", store.ErrConflict, waybill.WaybillNo)
	}

	closedAt := s.now()
	waybill.Status = domain.WaybillStatusClosed
	waybill.ClosedAt = &closedAt
	updated, err := s.repo.UpdateWaybill(ctx, *waybill)
	if err != nil {
		return domain.Waybill{}, err
	}
	s.publish(ctx, *updated, domain.EventWaybillClosed)
	return *updated, nil
}

// DeleteWaybill removes the waybill. Its count ledger entries stay.
func (s *Service) DeleteWaybill(ctx context.Context, id string) error {
	if _, err := s.authorize(ctx, policy.DeleteWaybills); err != nil {
		return err
	}
	return s.repo.DeleteWaybill(ctx, id)
}

func (s *Service) GetWaybill(ctx context.Context, id string) (domain.Waybill, error) {
	if _, err := s.authorize(ctx, policy.ViewWaybills); err != nil {
		return domain.Waybill{}, err
	}
	waybill, err := s.repo.GetWaybillByID(ctx, id)
	if err != nil {
		return domain.Waybill{}, err
	}
	return *waybill, nil
}

func (s *Service) ListWaybills(ctx context.Context, status string, limit int) (domain.WaybillListResponse, error) {
	if _, err := s.authorize(ctx, policy.ViewWaybills); err != nil {
		return domain.WaybillListResponse{}, err
	}
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && status != domain.WaybillStatusOpen && status != domain.WaybillStatusClosed {
		return domain.WaybillListResponse{}, invalid("status", "must be OPEN or CLOSED")
	}
	waybills, err := s.repo.ListWaybills(ctx, domain.WaybillFilter{Status: status, Limit: limit})
	if err != nil {
		return domain.WaybillListResponse{}, err
	}
	return domain.WaybillListResponse{Waybills: waybills}, nil
}

// ListClosedWaybills returns CLOSED waybills whose closedAt falls in the day
// range, newest first.
func (s *Service) ListClosedWaybills(ctx context.Context, from string, to string) (domain.WaybillListResponse, error) {
	if _, err := s.authorize(ctx, policy.ViewReports); err != nil {
		return domain.WaybillListResponse{}, err
	}
	start, end, err := parseDayRange(from, to)
	if err != nil {
		return domain.WaybillListResponse{}, err
	}
	waybills, err := s.repo.ListWaybills(ctx, domain.WaybillFilter{
		Status:     domain.WaybillStatusClosed,
		ClosedFrom: start,
		ClosedTo:   end,
	})
	if err != nil {
		return domain.WaybillListResponse{}, err
	}
	return domain.WaybillListResponse{Waybills: waybills}, nil
}

// ListCountEntries returns the ledger for a waybill, including one that has
// since been deleted. An id with no waybill and no entries is not found.
func (s *Service) ListCountEntries(ctx context.Context, waybillID string) (domain.CountLedgerResponse, error) {
	if _, err := s.authorize(ctx, policy.ViewWaybills); err != nil {
		return domain.CountLedgerResponse{}, err
	}
	entries, err := s.ledger.ListCountEntries(ctx, waybillID)
	if err != nil {
		return domain.CountLedgerResponse{}, err
	}
	if len(entries) == 0 {
		// Entries outlive their waybill, so only an id with neither is unknown.
		if _, err := s.repo.GetWaybillByID(ctx, waybillID); err != nil {
			return domain.CountLedgerResponse{}, err
		}
	}
	return domain.CountLedgerResponse{Entries: entries}, nil
}

type waybillDraft struct {
	waybill domain.Waybill
	// factors holds caller-supplied conversion factors by item index.
	factors []*decimal.Decimal
}

func (s *Service) buildWaybill(prefix string, in domain.WaybillInput) (waybillDraft, error) {
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}

	waybillNo := strings.TrimSpace(in.WaybillNo)
	if waybillNo == "" {
		return waybillDraft{}, invalid(field("waybill_no"), "is required")
	}
	uom := strings.TrimSpace(in.UOM)
	if uom == "" {
		return waybillDraft{}, invalid(field("uom"), "is required")
	}
	if in.Count == nil {
		return waybillDraft{}, invalid(field("count"), "is required")
	}
	if *in.Count < 0 {
		return waybillDraft{}, invalid(field("count"), "must not be negative")
	}
	if len(in.Items) == 0 {
		return waybillDraft{}, invalid(field("items"), "at least one item is required")
	}

	date := startOfDay(s.now())
	if in.Date != nil {
		date = in.Date.UTC()
	}

	draft := waybillDraft{
		waybill: domain.Waybill{
			WaybillNo: waybillNo,
			Date:      date,
			Count:     *in.Count,
			UOM:       uom,
			Items:     make([]domain.WaybillItem, 0, len(in.Items)),
		},
		factors: make([]*decimal.Decimal, 0, len(in.Items)),
	}
	names := make(map[string]int, len(in.Items))
	for i, item := range in.Items {
		itemField := field(fmt.Sprintf("items[%d]", i))
		name := strings.TrimSpace(item.ProductName)
		if name == "" {
			return waybillDraft{}, invalid(itemField+".product_name", "is required")
		}
		if first, dup := names[name]; dup {
			return waybillDraft{}, invalid(itemField+".product_name", "duplicates items[%d]", first)
		}
		names[name] = i
		if item.Incoming < 0 {
			return waybillDraft{}, invalid(itemField+".incoming", "must not be negative")
		}
		if item.ActualCount < 0 {
			return waybillDraft{}, invalid(itemField+".actual_count", "must not be negative")
		}
		if item.ConversionFactor != nil && item.ConversionFactor.LessThan(decimal.NewFromInt(1)) {
			return waybillDraft{}, invalid(itemField+".conversion_factor", "must be at least 1")
		}

		draft.waybill.Items = append(draft.waybill.Items, domain.WaybillItem{
			ProductName:      name,
			Incoming:         item.Incoming,
			UOMIncoming:      strings.TrimSpace(item.UOMIncoming),
			ActualCount:      item.ActualCount,
			RemarkActual:     strings.TrimSpace(item.RemarkActual),
			ConversionFactor: decimal.NewFromInt(1),
		})
		draft.factors = append(draft.factors, item.ConversionFactor)
	}
	return draft, nil
}

// resolveItems links items to the product directory. With all set every item
// is resolved; otherwise only items missing a product id or factor are.
func (s *Service) resolveItems(ctx context.Context, draft *waybillDraft, all bool) ([]domain.ResolutionWarning, error) {
	warnings := make([]domain.ResolutionWarning, 0)
	for i := range draft.waybill.Items {
		item := &draft.waybill.Items[i]
		if !all && item.ProductID != nil && !item.ConversionFactor.IsZero() {
			continue
		}
		warning, err := s.directory.ResolveItem(ctx, draft.waybill.WaybillNo, item)
		if err != nil {
			return nil, err
		}
		if warning == nil {
			continue
		}
		if i < len(draft.factors) && draft.factors[i] != nil {
			item.ConversionFactor = *draft.factors[i]
		}
		warnings = append(warnings, *warning)
	}
	return warnings, nil
}

func (s *Service) ensureWaybillNoFree(ctx context.Context, waybillNo string, selfID string) error {
	existing, err := s.repo.GetWaybillByNo(ctx, waybillNo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return fmt.Errorf("%w: waybill number %q already exists", store.ErrConflict, waybillNo)
}
