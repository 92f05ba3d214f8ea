package service

import (
	"context"
	"time"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/policy"
)

func (s *Service) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	if _, err := s.authorize(ctx, policy.ViewDashboard); err != nil {
		return domain.Dashboard{}, err
	}

	now := s.now()
	today := startOfDay(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Millisecond)
	overdueBefore := now.AddDate(0, 0, -s.settings.OverdueDays)

	var dash domain.Dashboard
	var err error
	if dash.ProductCount, err = s.repo.CountProducts(ctx); err != nil {
		return domain.Dashboard{}, err
	}
	if dash.OpenWaybills, err = s.repo.CountWaybills(ctx, domain.WaybillFilter{Status: domain.WaybillStatusOpen}); err != nil {
		return domain.Dashboard{}, err
	}
	if dash.ClosedWaybills, err = s.repo.CountWaybills(ctx, domain.WaybillFilter{Status: domain.WaybillStatusClosed}); err != nil {
		return domain.Dashboard{}, err
	}
	dash.OverdueWaybills, err = s.repo.CountWaybills(ctx, domain.WaybillFilter{
		Status:      domain.WaybillStatusOpen,
		DatedBefore: &overdueBefore,
	})
	if err != nil {
		return domain.Dashboard{}, err
	}
	if dash.IncomingToday, err = s.repo.SumIncoming(ctx, today, today.Add(24*time.Hour)); err != nil {
		return domain.Dashboard{}, err
	}
	if dash.DiscrepanciesTotal, err = s.repo.CountDiscrepancies(ctx, nil, nil); err != nil {
		return domain.Dashboard{}, err
	}
	if dash.DiscrepanciesThisMonth, err = s.repo.CountDiscrepancies(ctx, &monthStart, &monthEnd); err != nil {
		return domain.Dashboard{}, err
	}

	dash.ClosedWaybillsThisMonth, err = s.repo.ListWaybills(ctx, domain.WaybillFilter{
		Status:     domain.WaybillStatusClosed,
		ClosedFrom: &monthStart,
		ClosedTo:   &monthEnd,
		Limit:      s.settings.DashboardLimit,
	})
	if err != nil {
		return domain.Dashboard{}, err
	}
	dash.DiscrepancyListThisMonth, err = s.repo.ListDiscrepancies(ctx, &monthStart, &monthEnd, s.settings.DashboardLimit)
	if err != nil {
		return domain.Dashboard{}, err
	}
	return dash, nil
}

// ListDiscrepancies returns mismatched items of CLOSED waybills in the day
// range, newest closure first. A limit below 1 means no cap.
func (s *Service) ListDiscrepancies(ctx context.Context, from string, to string, limit int) (domain.DiscrepancyListResponse, error) {
	if _, err := s.authorize(ctx, policy.ViewReports); err != nil {
		return domain.DiscrepancyListResponse{}, err
	}
	start, end, err := parseDayRange(from, to)
	if err != nil {
		return domain.DiscrepancyListResponse{}, err
	}
	list, err := s.repo.ListDiscrepancies(ctx, start, end, limit)
	if err != nil {
		return domain.DiscrepancyListResponse{}, err
	}
	total, err := s.repo.CountDiscrepancies(ctx, start, end)
	if err != nil {
		return domain.DiscrepancyListResponse{}, err
	}
	return domain.DiscrepancyListResponse{Discrepancies: list, Total: total}, nil
}

func (s *Service) CountDiscrepancies(ctx context.Context, from string, to string) (int, error) {
	if _, err := s.authorize(ctx, policy.ViewReports); err != nil {
		return 0, err
	}
	start, end, err := parseDayRange(from, to)
	if err != nil {
		return 0, err
	}
	return s.repo.CountDiscrepancies(ctx, start, end)
}

// ClosedReport gathers the closed waybills and their discrepancies for an
// export. Rendering is left to the report package.
func (s *Service) ClosedReport(ctx context.Context, from string, to string) (domain.ClosedReport, error) {
	if _, err := s.authorize(ctx, policy.ViewReports); err != nil {
		return domain.ClosedReport{}, err
	}
	start, end, err := parseDayRange(from, to)
	if err != nil {
		return domain.ClosedReport{}, err
	}

	waybills, err := s.repo.ListWaybills(ctx, domain.WaybillFilter{
		Status:     domain.WaybillStatusClosed,
		ClosedFrom: start,
		ClosedTo:   end,
	})
	if err != nil {
		return domain.ClosedReport{}, err
	}
	discrepancies, err := s.repo.ListDiscrepancies(ctx, start, end, 0)
	if err != nil {
		return domain.ClosedReport{}, err
	}

	report := domain.ClosedReport{
		GeneratedAt:   s.now(),
		Waybills:      waybills,
		Discrepancies: discrepancies,
	}
	if start != nil {
		report.From = start.Format("2006-01-02")
	}
	if end != nil {
		report.To = end.Format("2006-01-02")
	}
	return report, nil
}
