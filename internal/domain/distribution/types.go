// Package distribution implements the supplier allocation algorithm.
// It is a pure computation core: callers assemble supplier snapshots,
// the engine produces per-supplier allocations that sum exactly to the
// requested quantities.
package distribution

import (
	"time"

	"github.com/shopspring/decimal"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/types"
	"procura/internal/domain/catalogs/supplier"
)

// Strategy selects how shares are assigned to eligible suppliers.
type Strategy string

const (
	// StrategyEven splits quantity equally.
	StrategyEven Strategy = "even"
	// StrategyPerformance splits proportionally to the supplier score.
	StrategyPerformance Strategy = "performance"
	// StrategyCapacity splits proportionally to available capacity.
	StrategyCapacity Strategy = "capacity"
	// StrategyBalanced averages the performance and capacity shares.
	StrategyBalanced Strategy = "balanced"
)

// Valid reports whether the strategy is known.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyEven, StrategyPerformance, StrategyCapacity, StrategyBalanced:
		return true
	}
	return false
}

// Weights configure the supplier score.
//
//	score = onTimeRate*OnTime + qualityScore*Quality + capacityRatio*Capacity
//
// capacityRatio is availableCapacity / maxMonthlyCapacity.
type Weights struct {
	OnTime   decimal.Decimal `json:"onTime"`
	Quality  decimal.Decimal `json:"quality"`
	Capacity decimal.Decimal `json:"capacity"`
}

// DefaultWeights returns the standard 0.40 / 0.35 / 0.25 split.
func DefaultWeights() Weights {
	return Weights{
		OnTime:   decimal.NewFromFloat(0.40),
		Quality:  decimal.NewFromFloat(0.35),
		Capacity: decimal.NewFromFloat(0.25),
	}
}

var weightSumTolerance = decimal.New(1, -9)

// Validate checks each weight is within [0,1] and the sum is 1.
func (w Weights) Validate() error {
	one := decimal.NewFromInt(1)
	for name, v := range map[string]decimal.Decimal{
		"onTime":   w.OnTime,
		"quality":  w.Quality,
		"capacity": w.Capacity,
	} {
		if v.IsNegative() || v.GreaterThan(one) {
			return apperror.NewValidation("weight must be between 0 and 1").
				WithDetail("field", name).
				WithDetail("value", v.String())
		}
	}

	sum := w.OnTime.Add(w.Quality).Add(w.Capacity)
	if sum.Sub(one).Abs().GreaterThan(weightSumTolerance) {
		return apperror.NewValidation("weights must sum to 1").
			WithDetail("sum", sum.String())
	}
	return nil
}

// SupplierSnapshot is the state of one candidate supplier for one
// product at distribution time.
type SupplierSnapshot struct {
	SupplierID id.ID  `json:"supplierId"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Preferred  bool   `json:"preferred"`
	Active     bool   `json:"active"`

	Capability supplier.Capability `json:"capability"`

	// Committed is the register balance for the delivery month
	Committed types.Quantity `json:"committed"`
}

// Available returns the remaining capacity for the month.
func (s SupplierSnapshot) Available() types.Quantity {
	return s.Capability.Available(s.Committed)
}

// Item is one product demand to distribute.
type Item struct {
	ProductID id.ID          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`

	// Period is the delivery month for capacity accounting
	Period time.Time `json:"period"`

	Candidates []SupplierSnapshot `json:"candidates"`
}

// Request bundles everything the engine needs for one distribution run.
type Request struct {
	Strategy Strategy `json:"strategy"`
	Weights  Weights  `json:"weights"`

	// Rule is an optional CEL expression filtering candidates,
	// e.g. `capability.quality_score >= 0.8 || supplier.preferred`.
	Rule string `json:"rule,omitempty"`

	Items []Item `json:"items"`
}

// Allocation is the quantity assigned to one supplier for one product.
type Allocation struct {
	SupplierID   id.ID           `json:"supplierId"`
	SupplierName string          `json:"supplierName,omitempty"`
	Quantity     types.Quantity  `json:"quantity"`
	Score        decimal.Decimal `json:"score"`
	Share        decimal.Decimal `json:"share"`
}

// ItemResult holds the allocations of one demand item.
type ItemResult struct {
	ProductID id.ID          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`

	Allocations []Allocation `json:"allocations"`

	// BelowMinimum lists suppliers whose lot stayed under their
	// MinAllocation floor even after the drop-and-rerun pass.
	BelowMinimum []id.ID `json:"belowMinimum,omitempty"`
}

// Result is the outcome of a distribution run.
type Result struct {
	Strategy Strategy     `json:"strategy"`
	Items    []ItemResult `json:"items"`
}

// AllocationsFor returns all allocations of one supplier across items.
func (r *Result) AllocationsFor(supplierID id.ID) map[id.ID]Allocation {
	out := make(map[id.ID]Allocation)
	for _, item := range r.Items {
		for _, a := range item.Allocations {
			if a.SupplierID == supplierID {
				out[item.ProductID] = a
			}
		}
	}
	return out
}

// Suppliers returns the distinct suppliers that received an allocation,
// ordered by supplier ID for determinism.
func (r *Result) Suppliers() []id.ID {
	seen := make(map[id.ID]bool)
	var out []id.ID
	for _, item := range r.Items {
		for _, a := range item.Allocations {
			if !seen[a.SupplierID] {
				seen[a.SupplierID] = true
				out = append(out, a.SupplierID)
			}
		}
	}
	sortIDs(out)
	return out
}
