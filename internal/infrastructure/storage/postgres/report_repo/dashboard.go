package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"procura/internal/core/entity"
	"procura/internal/domain/dashboard"
	"procura/internal/infrastructure/storage/postgres"
)

// DashboardRepo implements dashboard.Repository. The queries run on every
// cache miss, so each one stays a single round trip where possible.
type DashboardRepo struct {
	txm *postgres.TxManager
}

// NewDashboardRepo creates a new dashboard repository.
func NewDashboardRepo(txm *postgres.TxManager) *DashboardRepo {
	return &DashboardRepo{txm: txm}
}

// GetSummary counts documents by status plus the headline workflow flags.
func (r *DashboardRepo) GetSummary(ctx context.Context) (*dashboard.Summary, error) {
	querier := r.txm.GetQuerier(ctx)

	var summary dashboard.Summary
	if err := pgxscan.Select(ctx, querier, &summary.OrdersByStatus, `
		SELECT status, COUNT(*) as count
		FROM doc_customer_orders
		WHERE deletion_mark = false
		GROUP BY status
		ORDER BY count DESC, status
	`); err != nil {
		return nil, fmt.Errorf("orders by status: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &summary.PurchaseOrdersByStatus, `
		SELECT status, COUNT(*) as count
		FROM doc_purchase_orders
		WHERE deletion_mark = false
		GROUP BY status
		ORDER BY count DESC, status
	`); err != nil {
		return nil, fmt.Errorf("purchase orders by status: %w", err)
	}

	err := querier.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM doc_purchase_orders
			 WHERE deletion_mark = false AND status = 'SentToSupplier'),
			(SELECT COUNT(*) FROM doc_purchase_orders
			 WHERE deletion_mark = false
			   AND required_date < NOW()
			   AND status NOT IN ('Delivered', 'Closed', 'Rejected', 'Cancelled')),
			(SELECT COUNT(*) FROM doc_customer_orders
			 WHERE deletion_mark = false
			   AND status NOT IN ('Completed', 'Cancelled'))
	`).Scan(&summary.PendingConfirmations, &summary.LatePurchaseOrders, &summary.OpenOrders)
	if err != nil {
		return nil, fmt.Errorf("workflow counters: %w", err)
	}

	return &summary, nil
}

// GetTopSuppliers ranks suppliers by quantity allocated to them since the
// given time. The score averages confirmation and on-time rates.
func (r *DashboardRepo) GetTopSuppliers(ctx context.Context, limit int, since time.Time) ([]dashboard.TopSupplier, error) {
	query := `
		SELECT
			supplier_id,
			supplier_name,
			allocated_quantity,
			confirmation_rate,
			on_time_rate,
			(confirmation_rate + on_time_rate) / 2.0 as score
		FROM (
			SELECT
				po.supplier_id,
				s.name as supplier_name,
				COALESCE(SUM(po.total_quantity) FILTER (WHERE po.status NOT IN ('Rejected', 'Cancelled')), 0)::bigint as allocated_quantity,
				COALESCE(
					COUNT(*) FILTER (WHERE po.confirmed_at IS NOT NULL)::float8 /
					NULLIF(COUNT(*) FILTER (WHERE po.confirmed_at IS NOT NULL OR po.status = 'Rejected'), 0),
					0) as confirmation_rate,
				COALESCE(
					COUNT(*) FILTER (WHERE po.confirmed_date IS NOT NULL AND po.confirmed_date <= po.required_date)::float8 /
					NULLIF(COUNT(*) FILTER (WHERE po.confirmed_at IS NOT NULL), 0),
					0) as on_time_rate
			FROM doc_purchase_orders po
			JOIN cat_suppliers s ON s.id = po.supplier_id
			WHERE po.deletion_mark = false AND po.date >= $1
			GROUP BY po.supplier_id, s.name
		) t
		ORDER BY allocated_quantity DESC, score DESC
		LIMIT $2
	`

	var rows []dashboard.TopSupplier
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query, since, limit); err != nil {
		return nil, fmt.Errorf("top suppliers: %w", err)
	}
	return rows, nil
}

// GetMonthlyVolume returns the ordered/delivered trend for the trailing
// months, bucketed by calendar month, oldest first.
func (r *DashboardRepo) GetMonthlyVolume(ctx context.Context, months int) ([]dashboard.MonthlyVolumePoint, error) {
	since := entity.MonthBucket(time.Now().UTC()).AddDate(0, -(months - 1), 0)

	query := `
		WITH ordered AS (
			SELECT date_trunc('month', date) as month, SUM(total_quantity) as quantity
			FROM doc_customer_orders
			WHERE deletion_mark = false AND status <> 'Cancelled' AND date >= $1
			GROUP BY date_trunc('month', date)
		),
		delivered AS (
			SELECT date_trunc('month', po.date) as month, SUM(i.confirmed_quantity) as quantity
			FROM doc_purchase_orders po
			JOIN doc_purchase_order_items i ON i.document_id = po.id
			WHERE po.deletion_mark = false AND po.status IN ('Delivered', 'Closed') AND po.date >= $1
			GROUP BY date_trunc('month', po.date)
		)
		SELECT
			COALESCE(o.month, d.month) as month,
			COALESCE(o.quantity, 0)::bigint as ordered,
			COALESCE(d.quantity, 0)::bigint as delivered
		FROM ordered o
		FULL OUTER JOIN delivered d ON o.month = d.month
		ORDER BY month
	`

	var points []dashboard.MonthlyVolumePoint
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &points, query, since); err != nil {
		return nil, fmt.Errorf("monthly volume: %w", err)
	}
	return points, nil
}

// Ensure interface compliance
var _ dashboard.Repository = (*DashboardRepo)(nil)
