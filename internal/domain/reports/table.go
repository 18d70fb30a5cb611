package reports

import (
	"fmt"
	"strconv"
)

// Table renders the report for CSV or spreadsheet export.
func (r *SupplierPerformanceReport) Table() Table {
	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, []string{
			row.SupplierCode,
			row.SupplierName,
			strconv.FormatInt(row.TotalOrders, 10),
			strconv.FormatInt(row.Confirmed, 10),
			strconv.FormatInt(row.Rejected, 10),
			strconv.FormatInt(row.Delivered, 10),
			formatRate(row.ConfirmationRate),
			formatRate(row.OnTimeRate),
			row.TotalQuantity.String(),
			fmt.Sprintf("%.2f", row.AvgQualityScore),
		})
	}
	return Table{
		Name: "Supplier Performance",
		Headers: []string{
			"Code", "Supplier", "Orders", "Confirmed", "Rejected",
			"Delivered", "Confirmation Rate", "On-Time Rate",
			"Total Quantity", "Avg Quality",
		},
		Rows: rows,
	}
}

// Table renders the report for CSV or spreadsheet export.
func (r *OrderVolumeReport) Table() Table {
	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, []string{
			row.Month.Format("2006-01"),
			row.ProductSKU,
			row.ProductName,
			row.OrderedQuantity.String(),
			row.DeliveredQuantity.String(),
		})
	}
	return Table{
		Name: "Order Volume",
		Headers: []string{
			"Month", "SKU", "Product", "Ordered", "Delivered",
		},
		Rows: rows,
	}
}

// Table renders the report for CSV or spreadsheet export.
func (r *CapacityUtilizationReport) Table() Table {
	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, []string{
			row.SupplierName,
			row.ProductSKU,
			row.ProductName,
			row.MaxCapacity.String(),
			row.Committed.String(),
			row.Available.String(),
			formatRate(row.Utilization),
		})
	}
	return Table{
		Name: "Capacity Utilization " + r.Month.Format("2006-01"),
		Headers: []string{
			"Supplier", "SKU", "Product", "Capacity", "Committed",
			"Available", "Utilization",
		},
		Rows: rows,
	}
}

// Table renders the report for CSV or spreadsheet export.
func (r *OrderJournalReport) Table() Table {
	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, []string{
			row.DocumentType,
			row.Number,
			row.Date.Format("2006-01-02"),
			row.Party,
			row.Status,
			row.TotalQuantity.String(),
		})
	}
	return Table{
		Name: "Order Journal",
		Headers: []string{
			"Type", "Number", "Date", "Party", "Status", "Quantity",
		},
		Rows: rows,
	}
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
