package dto

import (
	"time"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/domain/reports"
)

// parseIDs converts query string IDs to typed IDs.
func parseIDs(raw []string, field string) ([]id.ID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]id.ID, 0, len(raw))
	for _, s := range raw {
		parsed, err := id.Parse(s)
		if err != nil {
			return nil, apperror.NewValidation("invalid id").
				WithDetail("field", field).
				WithDetail("value", s)
		}
		out = append(out, parsed)
	}
	return out, nil
}

// --- Supplier Performance ---

// SupplierPerformanceRequest is the query for the supplier performance report.
type SupplierPerformanceRequest struct {
	FromDate    *time.Time `form:"fromDate"`
	ToDate      *time.Time `form:"toDate"`
	SupplierIDs []string   `form:"supplierId"`
	Format      string     `form:"format"`
}

// ToFilter converts the request to a domain filter.
func (r *SupplierPerformanceRequest) ToFilter() (reports.SupplierPerformanceFilter, error) {
	supplierIDs, err := parseIDs(r.SupplierIDs, "supplierId")
	if err != nil {
		return reports.SupplierPerformanceFilter{}, err
	}
	return reports.SupplierPerformanceFilter{
		Period:      reports.Period{DateFrom: r.FromDate, DateTo: r.ToDate},
		SupplierIDs: supplierIDs,
	}, nil
}

// --- Order Volume ---

// OrderVolumeRequest is the query for the order volume report.
type OrderVolumeRequest struct {
	FromDate   *time.Time `form:"fromDate"`
	ToDate     *time.Time `form:"toDate"`
	ProductIDs []string   `form:"productId"`
	Format     string     `form:"format"`
}

// ToFilter converts the request to a domain filter.
func (r *OrderVolumeRequest) ToFilter() (reports.OrderVolumeFilter, error) {
	productIDs, err := parseIDs(r.ProductIDs, "productId")
	if err != nil {
		return reports.OrderVolumeFilter{}, err
	}
	return reports.OrderVolumeFilter{
		Period:     reports.Period{DateFrom: r.FromDate, DateTo: r.ToDate},
		ProductIDs: productIDs,
	}, nil
}

// --- Capacity Utilization ---

// CapacityUtilizationRequest is the query for the capacity utilization report.
// Month is in "2006-01" form; the current month is used when omitted.
type CapacityUtilizationRequest struct {
	Month       string   `form:"month"`
	SupplierIDs []string `form:"supplierId"`
	ProductIDs  []string `form:"productId"`
	Limit       int      `form:"limit"`
	Offset      int      `form:"offset"`
	Format      string   `form:"format"`
}

// ToFilter converts the request to a domain filter.
func (r *CapacityUtilizationRequest) ToFilter() (reports.CapacityUtilizationFilter, error) {
	month := time.Now().UTC()
	if r.Month != "" {
		parsed, err := time.Parse("2006-01", r.Month)
		if err != nil {
			return reports.CapacityUtilizationFilter{}, apperror.NewValidation("month must be in YYYY-MM form").
				WithDetail("field", "month").
				WithDetail("value", r.Month)
		}
		month = parsed
	}

	supplierIDs, err := parseIDs(r.SupplierIDs, "supplierId")
	if err != nil {
		return reports.CapacityUtilizationFilter{}, err
	}
	productIDs, err := parseIDs(r.ProductIDs, "productId")
	if err != nil {
		return reports.CapacityUtilizationFilter{}, err
	}

	return reports.CapacityUtilizationFilter{
		Month:       month,
		SupplierIDs: supplierIDs,
		ProductIDs:  productIDs,
		Limit:       r.Limit,
		Offset:      r.Offset,
	}, nil
}

// --- Order Journal ---

// OrderJournalRequest is the query for the unified order journal.
type OrderJournalRequest struct {
	FromDate     *time.Time `form:"fromDate"`
	ToDate       *time.Time `form:"toDate"`
	DocumentType string     `form:"documentType"`
	Status       string     `form:"status"`
	Search       string     `form:"search"`
	Limit        int        `form:"limit"`
	Offset       int        `form:"offset"`
}

// ToFilter converts the request to a domain filter.
func (r *OrderJournalRequest) ToFilter() reports.OrderJournalFilter {
	return reports.OrderJournalFilter{
		Period:       reports.Period{DateFrom: r.FromDate, DateTo: r.ToDate},
		DocumentType: r.DocumentType,
		Status:       r.Status,
		Search:       r.Search,
		Limit:        r.Limit,
		Offset:       r.Offset,
	}
}
