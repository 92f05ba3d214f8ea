// Package reconcile turns free-text count entries into item totals and
// compares them with the expected incoming quantities.
package reconcile

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"waybilltrack/backend/internal/domain"
)

// ParseCounts splits raw on commas and keeps the leading integer of every
// token, so "12pcs" counts as 12 and "1.5" as 1. Tokens that do not start
// with a digit, after an optional sign, are dropped without error.
func ParseCounts(raw string) []int {
	if strings.TrimSpace(raw) == "" {
		return []int{}
	}
	parts := strings.Split(raw, ",")
	counts := make([]int, 0, len(parts))
	for _, part := range parts {
		n, ok := leadingInt(strings.TrimSpace(part))
		if !ok {
			continue
		}
		counts = append(counts, n)
	}
	return counts
}

func leadingInt(token string) (int, bool) {
	end := 0
	if end < len(token) && (token[end] == '+' || token[end] == '-') {
		end++
	}
	digits := end
	for end < len(token) && token[end] >= '0' && token[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(token[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func Sum(counts []int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// ItemCount is the parsed result for one waybill item.
type ItemCount struct {
	ProductName string
	Counts      []int
	Total       int
	Remark      string
}

// Apply writes the parsed counts and remarks into items in place. Items with
// no submitted count end up at zero. It reports whether any item changed and
// returns the per-item parse results in item order.
func Apply(items []domain.WaybillItem, counts domain.CountSheet, remarks domain.CountSheet) (bool, []ItemCount) {
	changed := false
	results := make([]ItemCount, 0, len(items))
	for i := range items {
		item := &items[i]
		parsed := ParseCounts(counts[item.ProductName])
		total := Sum(parsed)
		remark := remarks[item.ProductName]

		if item.ActualCount != total || item.RemarkActual != remark {
			changed = true
		}
		item.ActualCount = total
		item.RemarkActual = remark

		results = append(results, ItemCount{
			ProductName: item.ProductName,
			Counts:      parsed,
			Total:       total,
			Remark:      remark,
		})
	}
	return changed, results
}

// UnknownKeys returns the keys of sheet that name no item, in sorted order.
func UnknownKeys(items []domain.WaybillItem, sheet domain.CountSheet) []string {
	known := make(map[string]struct{}, len(items))
	for _, item := range items {
		known[item.ProductName] = struct{}{}
	}
	unknown := make([]string, 0)
	for key := range sheet {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	slices.Sort(unknown)
	return unknown
}

func IsDiscrepancy(item domain.WaybillItem) bool {
	return item.ActualCount != item.Incoming
}

// Discrepancies lists the mismatched items of a closed waybill. Open
// waybills have none.
func Discrepancies(waybill domain.Waybill) []domain.Discrepancy {
	if waybill.Status != domain.WaybillStatusClosed {
		return nil
	}
	out := make([]domain.Discrepancy, 0)
	for _, item := range waybill.Items {
		if !IsDiscrepancy(item) {
			continue
		}
		var closedAt *time.Time
		if waybill.ClosedAt != nil {
			at := *waybill.ClosedAt
			closedAt = &at
		}
		out = append(out, domain.Discrepancy{
			WaybillNo:    waybill.WaybillNo,
			ProductName:  item.ProductName,
			Incoming:     item.Incoming,
			ActualCount:  item.ActualCount,
			RemarkActual: item.RemarkActual,
			ClosedAt:     closedAt,
		})
	}
	return out
}
