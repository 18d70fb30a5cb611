package supplier

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/types"
)

// Capability describes what a supplier can manufacture of one product.
// Current commitments are not stored here: they are the balance of the
// commitment register for the month in question.
type Capability struct {
	ID id.ID `db:"id" json:"id"`

	SupplierID id.ID `db:"supplier_id" json:"supplierId"`
	ProductID  id.ID `db:"product_id" json:"productId"`

	// MaxMonthlyCapacity is the production ceiling per month
	MaxMonthlyCapacity types.Quantity `db:"max_monthly_capacity" json:"maxMonthlyCapacity"`

	// QualityScore in [0,1], from incoming inspection statistics
	QualityScore decimal.Decimal `db:"quality_score" json:"qualityScore"`

	// OnTimeRate in [0,1], share of on-time deliveries
	OnTimeRate decimal.Decimal `db:"on_time_rate" json:"onTimeRate"`

	// LeadTimeDays overrides the product default lead time
	LeadTimeDays int `db:"lead_time_days" json:"leadTimeDays"`

	// MinAllocation is the smallest lot the supplier accepts (0 = none)
	MinAllocation types.Quantity `db:"min_allocation" json:"minAllocation"`

	// UnitPrice is the quoted price per unit, in minor currency units
	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewCapability creates a capability with generated ID.
func NewCapability(supplierID, productID id.ID) *Capability {
	return &Capability{
		ID:         id.New(),
		SupplierID: supplierID,
		ProductID:  productID,
		UpdatedAt:  time.Now().UTC(),
	}
}

var decimalOne = decimal.NewFromInt(1)

// Validate checks capability invariants.
func (c *Capability) Validate(ctx context.Context) error {
	if id.IsNil(c.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if id.IsNil(c.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if !c.MaxMonthlyCapacity.IsPositive() {
		return apperror.NewValidation("max monthly capacity must be positive").
			WithDetail("field", "maxMonthlyCapacity")
	}
	if c.QualityScore.IsNegative() || c.QualityScore.GreaterThan(decimalOne) {
		return apperror.NewValidation("quality score must be between 0 and 1").
			WithDetail("field", "qualityScore")
	}
	if c.OnTimeRate.IsNegative() || c.OnTimeRate.GreaterThan(decimalOne) {
		return apperror.NewValidation("on-time rate must be between 0 and 1").
			WithDetail("field", "onTimeRate")
	}
	if c.LeadTimeDays < 0 {
		return apperror.NewValidation("lead time cannot be negative").
			WithDetail("field", "leadTimeDays")
	}
	if c.MinAllocation.IsNegative() {
		return apperror.NewValidation("min allocation cannot be negative").
			WithDetail("field", "minAllocation")
	}
	if c.MinAllocation > c.MaxMonthlyCapacity {
		return apperror.NewValidation("min allocation cannot exceed max monthly capacity").
			WithDetail("field", "minAllocation")
	}
	if c.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}
	return nil
}

// Available returns the capacity left after committed quantity, floored at zero.
func (c *Capability) Available(committed types.Quantity) types.Quantity {
	avail := c.MaxMonthlyCapacity - committed
	if avail < 0 {
		return 0
	}
	return avail
}
