package reports

import (
	"context"
	"fmt"
	"time"

	"procura/internal/core/entity"
)

// Service provides report generation operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SupplierPerformance aggregates purchase order outcomes per supplier.
func (s *Service) SupplierPerformance(ctx context.Context, filter SupplierPerformanceFilter) (*SupplierPerformanceReport, error) {
	// Default to the trailing quarter if no period given
	if filter.DateFrom == nil && filter.DateTo == nil {
		to := time.Now().UTC()
		from := to.AddDate(0, -3, 0)
		filter.DateFrom = &from
		filter.DateTo = &to
	}
	if err := validatePeriod(filter.Period); err != nil {
		return nil, err
	}

	rows, err := s.repo.GetSupplierPerformance(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get supplier performance: %w", err)
	}

	return &SupplierPerformanceReport{
		GeneratedAt: time.Now().UTC(),
		Period:      filter.Period,
		Rows:        rows,
	}, nil
}

// OrderVolume shows ordered versus delivered quantity per product per month.
func (s *Service) OrderVolume(ctx context.Context, filter OrderVolumeFilter) (*OrderVolumeReport, error) {
	// Default to the trailing year if no period given
	if filter.DateFrom == nil && filter.DateTo == nil {
		to := time.Now().UTC()
		from := to.AddDate(-1, 0, 0)
		filter.DateFrom = &from
		filter.DateTo = &to
	}
	if err := validatePeriod(filter.Period); err != nil {
		return nil, err
	}

	rows, err := s.repo.GetOrderVolume(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get order volume: %w", err)
	}

	counts, err := s.repo.GetOrderStatusCounts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get order status counts: %w", err)
	}

	return &OrderVolumeReport{
		GeneratedAt:  time.Now().UTC(),
		Period:       filter.Period,
		Rows:         rows,
		StatusCounts: counts,
	}, nil
}

// CapacityUtilization compares committed volume against declared capacity
// for one calendar month.
func (s *Service) CapacityUtilization(ctx context.Context, filter CapacityUtilizationFilter) (*CapacityUtilizationReport, error) {
	if filter.Month.IsZero() {
		filter.Month = time.Now().UTC()
	}
	filter.Month = entity.MonthBucket(filter.Month)

	// Set default pagination
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	rows, total, err := s.repo.GetCapacityUtilization(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get capacity utilization: %w", err)
	}

	return &CapacityUtilizationReport{
		GeneratedAt: time.Now().UTC(),
		Month:       filter.Month,
		Rows:        rows,
		TotalCount:  total,
	}, nil
}

// OrderJournal returns the unified journal of customer and purchase orders.
func (s *Service) OrderJournal(ctx context.Context, filter OrderJournalFilter) (*OrderJournalReport, error) {
	if err := validatePeriod(filter.Period); err != nil {
		return nil, err
	}
	switch filter.DocumentType {
	case "", JournalCustomerOrder, JournalPurchaseOrder:
	default:
		return nil, fmt.Errorf("unknown document type %q", filter.DocumentType)
	}

	// Set default pagination
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	rows, total, err := s.repo.GetOrderJournal(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get order journal: %w", err)
	}

	summary, err := s.repo.GetOrderJournalSummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get order journal summary: %w", err)
	}

	return &OrderJournalReport{
		GeneratedAt: time.Now().UTC(),
		Rows:        rows,
		Summary:     summary,
		TotalCount:  total,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}, nil
}

func validatePeriod(p Period) error {
	if p.DateFrom != nil && p.DateTo != nil && p.DateFrom.After(*p.DateTo) {
		return fmt.Errorf("dateFrom must be before dateTo")
	}
	return nil
}
