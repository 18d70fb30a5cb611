// Package report_repo provides the PostgreSQL aggregate queries behind
// reports and the dashboard.
package report_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"

	"procura/internal/core/id"
	"procura/internal/domain/reports"
	"procura/internal/infrastructure/storage/postgres"
)

// sqlArgs collects positional arguments while the query text is built.
type sqlArgs struct {
	args []any
}

// add appends a value and returns its placeholder.
func (a *sqlArgs) add(v any) string {
	a.args = append(a.args, v)
	return fmt.Sprintf("$%d", len(a.args))
}

// in appends all ids and returns a comma-joined placeholder list.
func (a *sqlArgs) in(ids []id.ID) string {
	placeholders := make([]string, len(ids))
	for i, v := range ids {
		placeholders[i] = a.add(v)
	}
	return strings.Join(placeholders, ",")
}

// ReportRepo implements reports.Repository with raw aggregate SQL.
// Quantities stay in their scaled integer representation; only rates
// are computed as floats in the database.
type ReportRepo struct {
	txm *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

// GetSupplierPerformance aggregates purchase order outcomes per supplier.
// Confirmation rate is confirmed over responded (confirmed plus rejected);
// on-time rate is the share of confirmations promising delivery by the
// required date.
func (r *ReportRepo) GetSupplierPerformance(ctx context.Context, filter reports.SupplierPerformanceFilter) ([]reports.SupplierPerformanceRow, error) {
	var a sqlArgs

	cond := "po.deletion_mark = false"
	if filter.DateFrom != nil {
		cond += fmt.Sprintf(" AND po.date >= %s", a.add(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		cond += fmt.Sprintf(" AND po.date <= %s", a.add(*filter.DateTo))
	}
	if len(filter.SupplierIDs) > 0 {
		cond += fmt.Sprintf(" AND po.supplier_id IN (%s)", a.in(filter.SupplierIDs))
	}

	query := fmt.Sprintf(`
		SELECT
			s.id as supplier_id,
			s.code as supplier_code,
			s.name as supplier_name,
			COUNT(*) as total_orders,
			COUNT(*) FILTER (WHERE po.confirmed_at IS NOT NULL) as confirmed,
			COUNT(*) FILTER (WHERE po.status = 'Rejected') as rejected,
			COUNT(*) FILTER (WHERE po.status IN ('Delivered', 'Closed')) as delivered,
			COALESCE(
				COUNT(*) FILTER (WHERE po.confirmed_at IS NOT NULL)::float8 /
				NULLIF(COUNT(*) FILTER (WHERE po.confirmed_at IS NOT NULL OR po.status = 'Rejected'), 0),
				0) as confirmation_rate,
			COALESCE(
				COUNT(*) FILTER (WHERE po.confirmed_date IS NOT NULL AND po.confirmed_date <= po.required_date)::float8 /
				NULLIF(COUNT(*) FILTER (WHERE po.confirmed_at IS NOT NULL), 0),
				0) as on_time_rate,
			COALESCE(SUM(po.total_quantity) FILTER (WHERE po.status NOT IN ('Rejected', 'Cancelled')), 0)::bigint as total_quantity,
			COALESCE((SELECT AVG(c.quality_score) FROM cat_supplier_capabilities c WHERE c.supplier_id = s.id), 0)::float8 as avg_quality_score
		FROM doc_purchase_orders po
		JOIN cat_suppliers s ON s.id = po.supplier_id
		WHERE %s
		GROUP BY s.id, s.code, s.name
		ORDER BY total_orders DESC, s.name
	`, cond)

	var rows []reports.SupplierPerformanceRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query, a.args...); err != nil {
		return nil, fmt.Errorf("supplier performance report: %w", err)
	}
	return rows, nil
}

// GetOrderVolume returns ordered versus delivered quantity per product per
// calendar month. Ordered quantity comes from customer order lines,
// delivered from confirmed quantities of delivered purchase orders.
func (r *ReportRepo) GetOrderVolume(ctx context.Context, filter reports.OrderVolumeFilter) ([]reports.OrderVolumeRow, error) {
	var a sqlArgs

	orderedCond := "o.deletion_mark = false AND o.status <> 'Cancelled'"
	deliveredCond := "po.deletion_mark = false AND po.status IN ('Delivered', 'Closed')"
	if filter.DateFrom != nil {
		ph := a.add(*filter.DateFrom)
		orderedCond += fmt.Sprintf(" AND o.date >= %s", ph)
		deliveredCond += fmt.Sprintf(" AND po.date >= %s", ph)
	}
	if filter.DateTo != nil {
		ph := a.add(*filter.DateTo)
		orderedCond += fmt.Sprintf(" AND o.date <= %s", ph)
		deliveredCond += fmt.Sprintf(" AND po.date <= %s", ph)
	}
	if len(filter.ProductIDs) > 0 {
		ph := a.in(filter.ProductIDs)
		orderedCond += fmt.Sprintf(" AND l.product_id IN (%s)", ph)
		deliveredCond += fmt.Sprintf(" AND i.product_id IN (%s)", ph)
	}

	query := fmt.Sprintf(`
		WITH ordered AS (
			SELECT
				date_trunc('month', o.date) as month,
				l.product_id,
				SUM(l.quantity) as quantity
			FROM doc_customer_orders o
			JOIN doc_customer_order_lines l ON l.document_id = o.id
			WHERE %s
			GROUP BY date_trunc('month', o.date), l.product_id
		),
		delivered AS (
			SELECT
				date_trunc('month', po.date) as month,
				i.product_id,
				SUM(i.confirmed_quantity) as quantity
			FROM doc_purchase_orders po
			JOIN doc_purchase_order_items i ON i.document_id = po.id
			WHERE %s
			GROUP BY date_trunc('month', po.date), i.product_id
		)
		SELECT
			COALESCE(o.month, d.month) as month,
			COALESCE(o.product_id, d.product_id) as product_id,
			p.sku as product_sku,
			p.name as product_name,
			COALESCE(o.quantity, 0)::bigint as ordered_quantity,
			COALESCE(d.quantity, 0)::bigint as delivered_quantity
		FROM ordered o
		FULL OUTER JOIN delivered d ON o.month = d.month AND o.product_id = d.product_id
		JOIN cat_products p ON p.id = COALESCE(o.product_id, d.product_id)
		ORDER BY month, p.name
	`, orderedCond, deliveredCond)

	var rows []reports.OrderVolumeRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query, a.args...); err != nil {
		return nil, fmt.Errorf("order volume report: %w", err)
	}
	return rows, nil
}

// GetOrderStatusCounts counts customer orders by status within the period.
func (r *ReportRepo) GetOrderStatusCounts(ctx context.Context, filter reports.OrderVolumeFilter) ([]reports.StatusCount, error) {
	var a sqlArgs

	cond := "o.deletion_mark = false"
	if filter.DateFrom != nil {
		cond += fmt.Sprintf(" AND o.date >= %s", a.add(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		cond += fmt.Sprintf(" AND o.date <= %s", a.add(*filter.DateTo))
	}
	if len(filter.ProductIDs) > 0 {
		cond += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM doc_customer_order_lines l
			WHERE l.document_id = o.id AND l.product_id IN (%s)
		)`, a.in(filter.ProductIDs))
	}

	query := fmt.Sprintf(`
		SELECT o.status, COUNT(*) as count
		FROM doc_customer_orders o
		WHERE %s
		GROUP BY o.status
		ORDER BY count DESC, o.status
	`, cond)

	var counts []reports.StatusCount
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &counts, query, a.args...); err != nil {
		return nil, fmt.Errorf("order status counts: %w", err)
	}
	return counts, nil
}

// GetCapacityUtilization compares committed volume against declared
// capacity for one month. Rows without a balance show zero commitment.
func (r *ReportRepo) GetCapacityUtilization(ctx context.Context, filter reports.CapacityUtilizationFilter) ([]reports.CapacityUtilizationRow, int64, error) {
	var a sqlArgs

	cond := "s.deletion_mark = false AND p.deletion_mark = false"
	if len(filter.SupplierIDs) > 0 {
		cond += fmt.Sprintf(" AND c.supplier_id IN (%s)", a.in(filter.SupplierIDs))
	}
	if len(filter.ProductIDs) > 0 {
		cond += fmt.Sprintf(" AND c.product_id IN (%s)", a.in(filter.ProductIDs))
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM cat_supplier_capabilities c
		JOIN cat_suppliers s ON s.id = c.supplier_id
		JOIN cat_products p ON p.id = c.product_id
		WHERE %s
	`, cond)

	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countQuery, a.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("capacity utilization count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT
			c.supplier_id,
			s.name as supplier_name,
			c.product_id,
			p.sku as product_sku,
			p.name as product_name,
			c.max_monthly_capacity as max_capacity,
			COALESCE(b.quantity, 0) as committed,
			GREATEST(c.max_monthly_capacity - COALESCE(b.quantity, 0), 0) as available,
			CASE WHEN c.max_monthly_capacity > 0
				THEN COALESCE(b.quantity, 0)::float8 / c.max_monthly_capacity::float8
				ELSE 0
			END as utilization
		FROM cat_supplier_capabilities c
		JOIN cat_suppliers s ON s.id = c.supplier_id
		JOIN cat_products p ON p.id = c.product_id
		LEFT JOIN reg_commitment_balances b
			ON b.supplier_id = c.supplier_id AND b.product_id = c.product_id AND b.period = %s
		WHERE %s
		ORDER BY utilization DESC, s.name, p.name
		LIMIT %d OFFSET %d
	`, a.add(filter.Month), cond, filter.Limit, filter.Offset)

	var rows []reports.CapacityUtilizationRow
	if err := pgxscan.Select(ctx, querier, &rows, query, a.args...); err != nil {
		return nil, 0, fmt.Errorf("capacity utilization report: %w", err)
	}
	return rows, total, nil
}

// GetOrderJournal returns one page of the unified journal plus the total
// row count across the filtered set.
func (r *ReportRepo) GetOrderJournal(ctx context.Context, filter reports.OrderJournalFilter) ([]reports.OrderJournalRow, int64, error) {
	union, args := buildJournalUnion(filter)
	if union == "" {
		return []reports.OrderJournalRow{}, 0, nil
	}

	querier := r.txm.GetQuerier(ctx)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s) j", union)
	var total int64
	if err := querier.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("order journal count: %w", err)
	}

	query := union + " ORDER BY date DESC, number DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var rows []reports.OrderJournalRow
	if err := pgxscan.Select(ctx, querier, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("order journal: %w", err)
	}
	return rows, total, nil
}

// GetOrderJournalSummary counts journal rows per document type across the
// whole filtered set.
func (r *ReportRepo) GetOrderJournalSummary(ctx context.Context, filter reports.OrderJournalFilter) (reports.JournalSummary, error) {
	union, args := buildJournalUnion(filter)
	if union == "" {
		return reports.JournalSummary{}, nil
	}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE document_type = '%s') as customer_orders,
			COUNT(*) FILTER (WHERE document_type = '%s') as purchase_orders
		FROM (%s) j
	`, reports.JournalCustomerOrder, reports.JournalPurchaseOrder, union)

	var summary reports.JournalSummary
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, query, args...).Scan(&summary.CustomerOrders, &summary.PurchaseOrders); err != nil {
		return reports.JournalSummary{}, fmt.Errorf("order journal summary: %w", err)
	}
	return summary, nil
}

// buildJournalUnion assembles the UNION ALL over customer and purchase
// orders. The page, count and summary queries share it so they always
// agree on the filtered set. Customer orders carry no monetary amount.
func buildJournalUnion(filter reports.OrderJournalFilter) (string, []any) {
	var a sqlArgs

	coCond := "o.deletion_mark = false"
	poCond := "po.deletion_mark = false"
	if filter.DateFrom != nil {
		ph := a.add(*filter.DateFrom)
		coCond += fmt.Sprintf(" AND o.date >= %s", ph)
		poCond += fmt.Sprintf(" AND po.date >= %s", ph)
	}
	if filter.DateTo != nil {
		ph := a.add(*filter.DateTo)
		coCond += fmt.Sprintf(" AND o.date <= %s", ph)
		poCond += fmt.Sprintf(" AND po.date <= %s", ph)
	}
	if filter.Status != "" {
		ph := a.add(filter.Status)
		coCond += fmt.Sprintf(" AND o.status = %s", ph)
		poCond += fmt.Sprintf(" AND po.status = %s", ph)
	}
	if filter.Search != "" {
		ph := a.add("%" + filter.Search + "%")
		coCond += fmt.Sprintf(" AND (o.number ILIKE %s OR c.name ILIKE %s)", ph, ph)
		poCond += fmt.Sprintf(" AND (po.number ILIKE %s OR po.order_number ILIKE %s OR s.name ILIKE %s)", ph, ph, ph)
	}

	var unions []string
	if filter.DocumentType == "" || filter.DocumentType == reports.JournalCustomerOrder {
		unions = append(unions, fmt.Sprintf(`
		SELECT
			'%s' as document_type,
			o.id as document_id,
			o.number,
			o.date,
			c.name as party,
			o.status,
			o.total_quantity,
			0::bigint as total_amount
		FROM doc_customer_orders o
		JOIN cat_customers c ON c.id = o.customer_id
		WHERE %s`, reports.JournalCustomerOrder, coCond))
	}
	if filter.DocumentType == "" || filter.DocumentType == reports.JournalPurchaseOrder {
		unions = append(unions, fmt.Sprintf(`
		SELECT
			'%s' as document_type,
			po.id as document_id,
			po.number,
			po.date,
			s.name as party,
			po.status,
			po.total_quantity,
			po.total_amount
		FROM doc_purchase_orders po
		JOIN cat_suppliers s ON s.id = po.supplier_id
		WHERE %s`, reports.JournalPurchaseOrder, poCond))
	}

	return strings.Join(unions, "\n\t\tUNION ALL\n"), a.args
}

// Ensure interface compliance
var _ reports.Repository = (*ReportRepo)(nil)
