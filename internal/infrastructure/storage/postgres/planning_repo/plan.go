// Package planning_repo provides PostgreSQL persistence for distribution plans.
package planning_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/domain/planning"
	"procura/internal/infrastructure/storage/postgres"
)

const (
	plansTable       = "plans"
	allocationsTable = "plan_allocations"
)

var planCols = []string{
	"id", "order_id", "order_number", "strategy",
	"weight_on_time", "weight_quality", "weight_capacity",
	"rule", "executed_at", "created_by",
}

var allocationCols = []string{
	"id", "plan_id", "product_id", "supplier_id",
	"quantity", "score", "share",
	"purchase_order_id", "redistribution", "created_at",
}

// PlanRepo implements planning.PlanRepository.
type PlanRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewPlanRepo creates a new plan repository.
func NewPlanRepo(txm *postgres.TxManager) *PlanRepo {
	return &PlanRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a plan together with its allocations.
func (r *PlanRepo) Create(ctx context.Context, plan *planning.Plan) error {
	q := r.builder.Insert(plansTable).
		Columns(planCols...).
		Values(
			plan.ID, plan.OrderID, plan.OrderNumber, plan.Strategy,
			plan.WeightOnTime, plan.WeightQuality, plan.WeightCapacity,
			plan.Rule, plan.ExecutedAt, plan.CreatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert plan: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}

	return r.insertAllocations(ctx, plan.ID, plan.Allocations)
}

// GetByID retrieves a plan with its allocations.
func (r *PlanRepo) GetByID(ctx context.Context, planID id.ID) (*planning.Plan, error) {
	q := r.builder.Select(planCols...).
		From(plansTable).
		Where(squirrel.Eq{"id": planID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var plan planning.Plan
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &plan, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("plan", planID.String())
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}

	if err := r.loadAllocations(ctx, &plan); err != nil {
		return nil, err
	}

	return &plan, nil
}

// GetLatestByOrder returns the most recent plan of an order.
func (r *PlanRepo) GetLatestByOrder(ctx context.Context, orderID id.ID) (*planning.Plan, error) {
	q := r.builder.Select(planCols...).
		From(plansTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("executed_at DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var plan planning.Plan
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &plan, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("plan", orderID.String())
		}
		return nil, fmt.Errorf("get latest plan: %w", err)
	}

	if err := r.loadAllocations(ctx, &plan); err != nil {
		return nil, err
	}

	return &plan, nil
}

// ListByOrder returns the plan history of an order, newest first.
func (r *PlanRepo) ListByOrder(ctx context.Context, orderID id.ID) ([]*planning.Plan, error) {
	q := r.builder.Select(planCols...).
		From(plansTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("executed_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var plans []*planning.Plan
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &plans, sql, args...); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	for _, plan := range plans {
		if err := r.loadAllocations(ctx, plan); err != nil {
			return nil, err
		}
	}

	return plans, nil
}

// AppendAllocations adds redistribution allocations to a plan.
func (r *PlanRepo) AppendAllocations(ctx context.Context, planID id.ID, allocations []planning.PlanAllocation) error {
	return r.insertAllocations(ctx, planID, allocations)
}

func (r *PlanRepo) insertAllocations(ctx context.Context, planID id.ID, allocations []planning.PlanAllocation) error {
	if len(allocations) == 0 {
		return nil
	}

	q := r.builder.Insert(allocationsTable).Columns(allocationCols...)
	for _, a := range allocations {
		q = q.Values(
			a.ID, planID, a.ProductID, a.SupplierID,
			a.Quantity, a.Score, a.Share,
			a.PurchaseOrderID, a.Redistribution, a.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert allocations: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert allocations: %w", err)
	}

	return nil
}

func (r *PlanRepo) loadAllocations(ctx context.Context, plan *planning.Plan) error {
	q := r.builder.Select(allocationCols...).
		From(allocationsTable).
		Where(squirrel.Eq{"plan_id": plan.ID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	var allocations []planning.PlanAllocation
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &allocations, sql, args...); err != nil {
		return fmt.Errorf("load allocations: %w", err)
	}

	plan.Allocations = allocations
	return nil
}

var _ planning.PlanRepository = (*PlanRepo)(nil)
