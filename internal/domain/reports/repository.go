package reports

import (
	"context"
)

// Repository defines report data access interface.
type Repository interface {
	// Supplier and capacity analytics
	GetSupplierPerformance(ctx context.Context, filter SupplierPerformanceFilter) ([]SupplierPerformanceRow, error)
	GetOrderVolume(ctx context.Context, filter OrderVolumeFilter) ([]OrderVolumeRow, error)
	GetOrderStatusCounts(ctx context.Context, filter OrderVolumeFilter) ([]StatusCount, error)
	GetCapacityUtilization(ctx context.Context, filter CapacityUtilizationFilter) ([]CapacityUtilizationRow, int64, error)

	// Order journal
	GetOrderJournal(ctx context.Context, filter OrderJournalFilter) ([]OrderJournalRow, int64, error)
	GetOrderJournalSummary(ctx context.Context, filter OrderJournalFilter) (JournalSummary, error)
}
