package service

import (
	"context"
	"fmt"
	"slices"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/policy"
	"waybilltrack/backend/internal/reconcile"
)

// SaveCounts records the physical count sheet for a waybill. Each item's
// submitted text is parsed into integers and summed into actualCount. Items
// that were never linked to a product are resolved again. The waybill is
// written only when something changed, but every item gets a ledger upsert.
func (s *Service) SaveCounts(ctx context.Context, waybillID string, req domain.CountSaveRequest) (domain.CountSaveResponse, error) {
	if _, err := s.authorize(ctx, policy.CountWaybills); err != nil {
		return domain.CountSaveResponse{}, err
	}
	waybill, err := s.repo.GetWaybillByID(ctx, waybillID)
	if err != nil {
		return domain.CountSaveResponse{}, err
	}

	if unknown := reconcile.UnknownKeys(waybill.Items, req.Counts); len(unknown) > 0 {
		return domain.CountSaveResponse{}, invalid("counts."+unknown[0], "no item with this product name on waybill %s", waybill.WaybillNo)
	}
	if unknown := reconcile.UnknownKeys(waybill.Items, req.Remarks); len(unknown) > 0 {
		return domain.CountSaveResponse{}, invalid("remarks."+unknown[0], "no item with this product name on waybill %s", waybill.WaybillNo)
	}

	before := slices.Clone(waybill.Items)
	changed, results := reconcile.Apply(waybill.Items, req.Counts, req.Remarks)

	// A miss here resets the factor to 1; linksChanged picks that up.
	draft := waybillDraft{waybill: *waybill}
	warnings, err := s.resolveItems(ctx, &draft, false)
	if err != nil {
		return domain.CountSaveResponse{}, err
	}
	if !changed {
		changed = linksChanged(before, draft.waybill.Items)
	}

	saved := draft.waybill
	if changed {
		updated, err := s.repo.UpdateWaybill(ctx, draft.waybill)
		if err != nil {
			return domain.CountSaveResponse{}, err
		}
		saved = *updated
	}

	savedAt := s.now()
	for i, result := range results {
		item := draft.waybill.Items[i]
		entry := domain.CountLedgerEntry{
			WaybillID:    saved.ID,
			WaybillNo:    saved.WaybillNo,
			ProductName:  result.ProductName,
			Counts:       result.Counts,
			Total:        result.Total,
			RemarkActual: result.Remark,
			ProductID:    item.ProductID,
			SavedAt:      savedAt,
		}
		if err := s.ledger.UpsertCountEntry(ctx, entry); err != nil {
			return domain.CountSaveResponse{}, fmt.Errorf("ledger upsert for %q: %w", result.ProductName, err)
		}
	}

	logWarnings("save counts", warnings)
	if changed {
		s.publish(ctx, saved, domain.EventWaybillCounted)
	}
	return domain.CountSaveResponse{Waybill: saved, Modified: changed, Warnings: warnings}, nil
}

func linksChanged(before []domain.WaybillItem, after []domain.WaybillItem) bool {
	for i := range after {
		if !samePtr(before[i].ProductID, after[i].ProductID) {
			return true
		}
		if !before[i].ConversionFactor.Equal(after[i].ConversionFactor) {
			return true
		}
	}
	return false
}

func samePtr(a *string, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
