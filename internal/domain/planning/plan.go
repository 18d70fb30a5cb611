// Package planning orchestrates distribution over customer orders:
// plan execution, purchase order creation, capacity commitments and
// the derived order status.
package planning

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"procura/internal/core/id"
	"procura/internal/core/types"
	"procura/internal/domain/distribution"
)

// Plan is the persisted outcome of one distribution run over an order.
// Rejection handling appends further allocations to the same plan, a
// full replan (order back in Created) produces a new plan.
type Plan struct {
	ID id.ID `db:"id" json:"id"`

	OrderID     id.ID  `db:"order_id" json:"orderId"`
	OrderNumber string `db:"order_number" json:"orderNumber"`

	Strategy distribution.Strategy `db:"strategy" json:"strategy"`

	WeightOnTime   decimal.Decimal `db:"weight_on_time" json:"weightOnTime"`
	WeightQuality  decimal.Decimal `db:"weight_quality" json:"weightQuality"`
	WeightCapacity decimal.Decimal `db:"weight_capacity" json:"weightCapacity"`

	// Rule is the CEL eligibility rule used, if any
	Rule string `db:"rule" json:"rule,omitempty"`

	ExecutedAt time.Time `db:"executed_at" json:"executedAt"`
	CreatedBy  string    `db:"created_by" json:"createdBy,omitempty"`

	Allocations []PlanAllocation `db:"-" json:"allocations"`
}

// PlanAllocation is one supplier×product cell of a plan.
type PlanAllocation struct {
	ID     id.ID `db:"id" json:"id"`
	PlanID id.ID `db:"plan_id" json:"planId"`

	ProductID  id.ID `db:"product_id" json:"productId"`
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	Quantity types.Quantity  `db:"quantity" json:"quantity"`
	Score    decimal.Decimal `db:"score" json:"score"`
	Share    decimal.Decimal `db:"share" json:"share"`

	// PurchaseOrderID links to the purchase order that carries this
	// allocation
	PurchaseOrderID id.ID `db:"purchase_order_id" json:"purchaseOrderId"`

	// Redistribution marks allocations appended after a rejection
	Redistribution bool `db:"redistribution" json:"redistribution,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewPlan creates a plan shell for an order.
func NewPlan(orderID id.ID, orderNumber string, strategy distribution.Strategy, w distribution.Weights, rule string) *Plan {
	return &Plan{
		ID:             id.New(),
		OrderID:        orderID,
		OrderNumber:    orderNumber,
		Strategy:       strategy,
		WeightOnTime:   w.OnTime,
		WeightQuality:  w.Quality,
		WeightCapacity: w.Capacity,
		Rule:           rule,
		ExecutedAt:     time.Now().UTC(),
	}
}

// Weights reconstructs the weight set the plan ran with.
func (p *Plan) Weights() distribution.Weights {
	return distribution.Weights{
		OnTime:   p.WeightOnTime,
		Quality:  p.WeightQuality,
		Capacity: p.WeightCapacity,
	}
}

// PlanRepository persists distribution plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, planID id.ID) (*Plan, error)

	// GetLatestByOrder returns the most recent plan of an order
	GetLatestByOrder(ctx context.Context, orderID id.ID) (*Plan, error)

	// ListByOrder returns the plan history of an order, newest first
	ListByOrder(ctx context.Context, orderID id.ID) ([]*Plan, error)

	// AppendAllocations adds redistribution allocations to a plan
	AppendAllocations(ctx context.Context, planID id.ID, allocations []PlanAllocation) error
}
