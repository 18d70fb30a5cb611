package reports

import (
	"time"

	"procura/internal/core/id"
	"procura/internal/core/types"
)

// Period bounds a report by document date. Zero bounds mean unbounded.
type Period struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
}

// Table is a report rendered into rows of cells, ready for CSV or
// spreadsheet export.
type Table struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// SupplierPerformanceFilter limits the supplier performance report.
type SupplierPerformanceFilter struct {
	Period
	SupplierIDs []id.ID `json:"supplier_ids,omitempty"`
}

// SupplierPerformanceRow aggregates purchase order outcomes for one supplier.
type SupplierPerformanceRow struct {
	SupplierID       id.ID          `json:"supplier_id"`
	SupplierCode     string         `json:"supplier_code"`
	SupplierName     string         `json:"supplier_name"`
	TotalOrders      int64          `json:"total_orders"`
	Confirmed        int64          `json:"confirmed"`
	Rejected         int64          `json:"rejected"`
	Delivered        int64          `json:"delivered"`
	ConfirmationRate float64        `json:"confirmation_rate"`
	OnTimeRate       float64        `json:"on_time_rate"`
	TotalQuantity    types.Quantity `json:"total_quantity"`
	AvgQualityScore  float64        `json:"avg_quality_score"`
}

// SupplierPerformanceReport ranks suppliers by their order history.
type SupplierPerformanceReport struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Period      Period                   `json:"period"`
	Rows        []SupplierPerformanceRow `json:"rows"`
}

// OrderVolumeFilter limits the order volume report.
type OrderVolumeFilter struct {
	Period
	ProductIDs []id.ID `json:"product_ids,omitempty"`
}

// OrderVolumeRow holds ordered versus delivered quantity for one product
// in one calendar month.
type OrderVolumeRow struct {
	Month             time.Time      `json:"month"`
	ProductID         id.ID          `json:"product_id"`
	ProductSKU        string         `json:"product_sku"`
	ProductName       string         `json:"product_name"`
	OrderedQuantity   types.Quantity `json:"ordered_quantity"`
	DeliveredQuantity types.Quantity `json:"delivered_quantity"`
}

// StatusCount is a count of customer orders in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// OrderVolumeReport shows demand over time plus the current order mix.
type OrderVolumeReport struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	Period       Period           `json:"period"`
	Rows         []OrderVolumeRow `json:"rows"`
	StatusCounts []StatusCount    `json:"status_counts"`
}

// CapacityUtilizationFilter limits the capacity utilization report.
type CapacityUtilizationFilter struct {
	Month       time.Time `json:"month"`
	SupplierIDs []id.ID   `json:"supplier_ids,omitempty"`
	ProductIDs  []id.ID   `json:"product_ids,omitempty"`
	Limit       int       `json:"limit,omitempty"`
	Offset      int       `json:"offset,omitempty"`
}

// CapacityUtilizationRow compares committed volume against declared
// capacity for one supplier and product.
type CapacityUtilizationRow struct {
	SupplierID   id.ID          `json:"supplier_id"`
	SupplierName string         `json:"supplier_name"`
	ProductID    id.ID          `json:"product_id"`
	ProductSKU   string         `json:"product_sku"`
	ProductName  string         `json:"product_name"`
	MaxCapacity  types.Quantity `json:"max_capacity"`
	Committed    types.Quantity `json:"committed"`
	Available    types.Quantity `json:"available"`
	Utilization  float64        `json:"utilization"`
}

// CapacityUtilizationReport shows how loaded each supplier is in a month.
type CapacityUtilizationReport struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Month       time.Time                `json:"month"`
	Rows        []CapacityUtilizationRow `json:"rows"`
	TotalCount  int64                    `json:"total_count"`
}

// Document types appearing in the order journal.
const (
	JournalCustomerOrder = "customer_order"
	JournalPurchaseOrder = "purchase_order"
)

// OrderJournalFilter limits the unified order journal.
type OrderJournalFilter struct {
	Period
	DocumentType string `json:"document_type,omitempty"`
	Status       string `json:"status,omitempty"`
	Search       string `json:"search,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// OrderJournalRow is one document in the unified journal. Party is the
// customer name for customer orders and the supplier name for purchase
// orders.
type OrderJournalRow struct {
	DocumentType  string           `json:"document_type"`
	DocumentID    id.ID            `json:"document_id"`
	Number        string           `json:"number"`
	Date          time.Time        `json:"date"`
	Party         string           `json:"party"`
	Status        string           `json:"status"`
	TotalQuantity types.Quantity   `json:"total_quantity"`
	TotalAmount   types.MinorUnits `json:"total_amount"`
}

// JournalSummary counts journal rows per document type across the whole
// filtered set, not just the returned page.
type JournalSummary struct {
	CustomerOrders int64 `json:"customer_orders"`
	PurchaseOrders int64 `json:"purchase_orders"`
}

// OrderJournalReport is a paginated union of customer and purchase orders.
type OrderJournalReport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Rows        []OrderJournalRow `json:"rows"`
	Summary     JournalSummary    `json:"summary"`
	TotalCount  int64             `json:"total_count"`
	Limit       int               `json:"limit"`
	Offset      int               `json:"offset"`
}
