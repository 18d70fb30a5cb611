package distribution

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/types"
	"procura/internal/domain/catalogs/supplier"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine(): %v", err)
	}
	return e
}

type snapOpts struct {
	max       float64
	committed float64
	minAlloc  float64
	quality   float64
	onTime    float64
	preferred bool
	inactive  bool
}

func makeSnap(name string, productID id.ID, o snapOpts) SupplierSnapshot {
	supplierID := id.New()
	cap := supplier.NewCapability(supplierID, productID)
	cap.MaxMonthlyCapacity = types.NewQuantityFromFloat64(o.max)
	cap.MinAllocation = types.NewQuantityFromFloat64(o.minAlloc)
	cap.QualityScore = decimal.NewFromFloat(o.quality)
	cap.OnTimeRate = decimal.NewFromFloat(o.onTime)

	return SupplierSnapshot{
		SupplierID: supplierID,
		Code:       name,
		Name:       name,
		Preferred:  o.preferred,
		Active:     !o.inactive,
		Capability: *cap,
		Committed:  types.NewQuantityFromFloat64(o.committed),
	}
}

func oneItem(qty float64, snaps ...SupplierSnapshot) []Item {
	return []Item{{
		ProductID:  snaps[0].Capability.ProductID,
		Quantity:   types.NewQuantityFromFloat64(qty),
		Period:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Candidates: snaps,
	}}
}

func allocatedTotal(ir ItemResult) types.Quantity {
	var total types.Quantity
	for _, a := range ir.Allocations {
		total += a.Quantity
	}
	return total
}

func allocationFor(t *testing.T, ir ItemResult, supplierID id.ID) Allocation {
	t.Helper()
	for _, a := range ir.Allocations {
		if a.SupplierID == supplierID {
			return a
		}
	}
	t.Fatalf("no allocation for supplier %s", supplierID)
	return Allocation{}
}

func TestScore(t *testing.T) {
	productID := id.New()
	// available = max - committed = 100, ratio = 1
	snap := makeSnap("A", productID, snapOpts{max: 100, quality: 0.8, onTime: 0.9})

	got := Score(snap, DefaultWeights())
	// 0.9*0.40 + 0.8*0.35 + 1.0*0.25 = 0.89
	want := decimal.NewFromFloat(0.89)
	if !got.Equal(want) {
		t.Errorf("Score = %s, want %s", got, want)
	}

	// Half committed halves the capacity term.
	snap.Committed = types.NewQuantityFromFloat64(50)
	got = Score(snap, DefaultWeights())
	want = decimal.NewFromFloat(0.765)
	if !got.Equal(want) {
		t.Errorf("Score with load = %s, want %s", got, want)
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		w       Weights
		wantErr bool
	}{
		{"default", DefaultWeights(), false},
		{
			"custom sum 1",
			Weights{decimal.NewFromFloat(0.5), decimal.NewFromFloat(0.3), decimal.NewFromFloat(0.2)},
			false,
		},
		{
			"negative weight",
			Weights{decimal.NewFromFloat(-0.1), decimal.NewFromFloat(0.6), decimal.NewFromFloat(0.5)},
			true,
		},
		{
			"sum below 1",
			Weights{decimal.NewFromFloat(0.3), decimal.NewFromFloat(0.3), decimal.NewFromFloat(0.3)},
			true,
		},
		{
			"above 1",
			Weights{decimal.NewFromFloat(1.1), decimal.Zero, decimal.Zero},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDistributeEven(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	a := makeSnap("A", productID, snapOpts{max: 500, quality: 0.9, onTime: 0.9})
	b := makeSnap("B", productID, snapOpts{max: 500, quality: 0.5, onTime: 0.5})

	res, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
		Items:    oneItem(100, a, b),
	})
	if err != nil {
		t.Fatalf("Distribute(): %v", err)
	}

	ir := res.Items[0]
	if got := allocationFor(t, ir, a.SupplierID).Quantity.Float64(); got != 50 {
		t.Errorf("A quantity = %v, want 50", got)
	}
	if got := allocationFor(t, ir, b.SupplierID).Quantity.Float64(); got != 50 {
		t.Errorf("B quantity = %v, want 50", got)
	}
}

func TestDistributeEvenRemainder(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	snaps := []SupplierSnapshot{
		makeSnap("A", productID, snapOpts{max: 500, quality: 0.9, onTime: 0.9}),
		makeSnap("B", productID, snapOpts{max: 500, quality: 0.8, onTime: 0.8}),
		makeSnap("C", productID, snapOpts{max: 500, quality: 0.7, onTime: 0.7}),
	}

	res, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
		Items:    oneItem(100, snaps...),
	})
	if err != nil {
		t.Fatalf("Distribute(): %v", err)
	}

	ir := res.Items[0]
	if got := allocatedTotal(ir).Float64(); got != 100 {
		t.Fatalf("total allocated = %v, want exactly 100", got)
	}

	// 100/3 leaves one 0.0001 unit, placed by remainder then score:
	// the highest-scoring supplier gets 33.3334.
	if got := allocationFor(t, ir, snaps[0].SupplierID).Quantity.Int64Scaled(); got != 333334 {
		t.Errorf("A scaled quantity = %d, want 333334", got)
	}
}

func TestDistributePerformanceProportional(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	// Capacity terms equal (both idle), scores differ only through
	// quality and on-time: A = 2x B.
	a := makeSnap("A", productID, snapOpts{max: 1000, quality: 0.8, onTime: 0.8})
	b := makeSnap("B", productID, snapOpts{max: 1000, quality: 0.4, onTime: 0.4})

	res, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyPerformance,
		// Weight capacity at zero so shares follow performance only.
		Weights: Weights{
			OnTime:   decimal.NewFromFloat(0.5),
			Quality:  decimal.NewFromFloat(0.5),
			Capacity: decimal.Zero,
		},
		Items: oneItem(90, a, b),
	})
	if err != nil {
		t.Fatalf("Distribute(): %v", err)
	}

	ir := res.Items[0]
	if got := allocationFor(t, ir, a.SupplierID).Quantity.Float64(); got != 60 {
		t.Errorf("A quantity = %v, want 60", got)
	}
	if got := allocationFor(t, ir, b.SupplierID).Quantity.Float64(); got != 30 {
		t.Errorf("B quantity = %v, want 30", got)
	}
}

func TestDistributeCapacityProportional(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	a := makeSnap("A", productID, snapOpts{max: 300, quality: 0.5, onTime: 0.5})
	b := makeSnap("B", productID, snapOpts{max: 100, quality: 0.9, onTime: 0.9})

	res, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyCapacity,
		Weights:  DefaultWeights(),
		Items:    oneItem(80, a, b),
	})
	if err != nil {
		t.Fatalf("Distribute(): %v", err)
	}

	ir := res.Items[0]
	if got := allocationFor(t, ir, a.SupplierID).Quantity.Float64(); got != 60 {
		t.Errorf("A quantity = %v, want 60", got)
	}
	if got := allocationFor(t, ir, b.SupplierID).Quantity.Float64(); got != 20 {
		t.Errorf("B quantity = %v, want 20", got)
	}
}

func TestDistributeCapsAtAvailableCapacity(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	a := makeSnap("A", productID, snapOpts{max: 30, quality: 0.9, onTime: 0.9})
	b := makeSnap("B", productID, snapOpts{max: 200, quality: 0.9, onTime: 0.9})

	res, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
		Items:    oneItem(100, a, b),
	})
	if err != nil {
		t.Fatalf("Distribute(): %v", err)
	}

	ir := res.Items[0]
	if got := allocationFor(t, ir, a.SupplierID).Quantity.Float64(); got != 30 {
		t.Errorf("A quantity = %v, want capped 30", got)
	}
	if got := allocationFor(t, ir, b.SupplierID).Quantity.Float64(); got != 70 {
		t.Errorf("B quantity = %v, want 70 after redistribution", got)
	}
}

func TestDistributeCommittedReducesAvailable(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	// A has 100 max but 80 already committed this month.
	a := makeSnap("A", productID, snapOpts{max: 100, committed: 80, quality: 0.9, onTime: 0.9})
	b := makeSnap("B", productID, snapOpts{max: 100, quality: 0.9, onTime: 0.9})

	res, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
		Items:    oneItem(60, a, b),
	})
	if err != nil {
		t.Fatalf("Distribute(): %v", err)
	}

	ir := res.Items[0]
	if got := allocationFor(t, ir, a.SupplierID).Quantity.Float64(); got != 20 {
		t.Errorf("A quantity = %v, want 20 (available)", got)
	}
	if got := allocationFor(t, ir, b.SupplierID).Quantity.Float64(); got != 40 {
		t.Errorf("B quantity = %v, want 40", got)
	}
}

func TestDistributeInsufficientCapacity(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	a := makeSnap("A", productID, snapOpts{max: 30, quality: 0.9, onTime: 0.9})
	b := makeSnap("B", productID, snapOpts{max: 40, quality: 0.9, onTime: 0.9})

	_, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
		Items:    oneItem(100, a, b),
	})
	if err == nil {
		t.Fatal("Distribute() = nil, want insufficient capacity error")
	}

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		t.Fatalf("error is not AppError: %v", err)
	}
	if appErr.Code != apperror.CodeInsufficientCapacity {
		t.Errorf("code = %s, want %s", appErr.Code, apperror.CodeInsufficientCapacity)
	}
}

func TestDistributeNoEligibleSuppliers(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	inactive := makeSnap("A", productID, snapOpts{max: 100, quality: 0.9, onTime: 0.9, inactive: true})
	exhausted := makeSnap("B", productID, snapOpts{max: 100, committed: 100, quality: 0.9, onTime: 0.9})

	_, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
		Items:    oneItem(10, inactive, exhausted),
	})
	if err == nil {
		t.Fatal("Distribute() = nil, want validation error")
	}
	appErr, _ := apperror.AsAppError(err)
	if appErr == nil || appErr.Code != apperror.CodeValidation {
		t.Errorf("error = %v, want VALIDATION", err)
	}
}

func TestDistributeEligibilityRule(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	good := makeSnap("A", productID, snapOpts{max: 200, quality: 0.9, onTime: 0.9})
	poor := makeSnap("B", productID, snapOpts{max: 200, quality: 0.5, onTime: 0.9})
	preferred := makeSnap("C", productID, snapOpts{max: 200, quality: 0.5, onTime: 0.9, preferred: true})

	res, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
		Rule:     `capability.quality_score >= 0.8 || supplier.preferred`,
		Items:    oneItem(100, good, poor, preferred),
	})
	if err != nil {
		t.Fatalf("Distribute(): %v", err)
	}

	ir := res.Items[0]
	if len(ir.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2 (rule filters B)", len(ir.Allocations))
	}
	for _, a := range ir.Allocations {
		if a.SupplierID == poor.SupplierID {
			t.Error("rule failed to filter low-quality supplier")
		}
	}
}

func TestDistributeRuleErrors(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	a := makeSnap("A", productID, snapOpts{max: 100, quality: 0.9, onTime: 0.9})

	tests := []struct {
		name string
		rule string
	}{
		{"syntax error", `capability.quality_score >=`},
		{"non-bool result", `capability.quality_score + 1.0`},
		{"unknown variable", `warehouse.id == "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Distribute(context.Background(), Request{
				Strategy: StrategyEven,
				Weights:  DefaultWeights(),
				Rule:     tt.rule,
				Items:    oneItem(10, a),
			})
			if err == nil {
				t.Fatal("Distribute() = nil, want validation error")
			}
			appErr, _ := apperror.AsAppError(err)
			if appErr == nil || appErr.Code != apperror.CodeValidation {
				t.Errorf("error = %v, want VALIDATION", err)
			}
		})
	}
}

func TestDistributeMinAllocationRerun(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	a := makeSnap("A", productID, snapOpts{max: 200, quality: 0.9, onTime: 0.9})
	b := makeSnap("B", productID, snapOpts{max: 200, quality: 0.9, onTime: 0.9})
	// C only accepts lots of 40 and up, an even split of 100 gives ~33.
	c := makeSnap("C", productID, snapOpts{max: 200, minAlloc: 40, quality: 0.9, onTime: 0.9})

	res, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
		Items:    oneItem(100, a, b, c),
	})
	if err != nil {
		t.Fatalf("Distribute(): %v", err)
	}

	ir := res.Items[0]
	if len(ir.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2 after dropping C", len(ir.Allocations))
	}
	for _, alloc := range ir.Allocations {
		if alloc.SupplierID == c.SupplierID {
			t.Error("C still allocated below its minimum lot")
		}
		if got := alloc.Quantity.Float64(); got != 50 {
			t.Errorf("surviving allocation = %v, want 50", got)
		}
	}
	if len(ir.BelowMinimum) != 0 {
		t.Errorf("BelowMinimum = %v, want empty", ir.BelowMinimum)
	}
}

func TestDistributeMinAllocationKeptWhenNoAlternative(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	// Both under minimum: dropping both would leave nobody, the first
	// pass stands and the violation is surfaced.
	a := makeSnap("A", productID, snapOpts{max: 60, minAlloc: 55, quality: 0.9, onTime: 0.9})
	b := makeSnap("B", productID, snapOpts{max: 60, minAlloc: 55, quality: 0.9, onTime: 0.9})

	res, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
		Items:    oneItem(100, a, b),
	})
	if err != nil {
		t.Fatalf("Distribute(): %v", err)
	}

	ir := res.Items[0]
	if got := allocatedTotal(ir).Float64(); got != 100 {
		t.Errorf("total allocated = %v, want 100", got)
	}
	if len(ir.BelowMinimum) != 2 {
		t.Errorf("BelowMinimum = %d suppliers, want 2", len(ir.BelowMinimum))
	}
}

func TestDistributeBalanced(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	// A: high score, small capacity. B: low score, big capacity.
	a := makeSnap("A", productID, snapOpts{max: 100, quality: 1, onTime: 1})
	b := makeSnap("B", productID, snapOpts{max: 300, quality: 0.2, onTime: 0.2})

	res, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyBalanced,
		Weights:  DefaultWeights(),
		Items:    oneItem(100, a, b),
	})
	if err != nil {
		t.Fatalf("Distribute(): %v", err)
	}

	ir := res.Items[0]
	if got := allocatedTotal(ir).Float64(); got != 100 {
		t.Fatalf("total allocated = %v, want 100", got)
	}

	qa := allocationFor(t, ir, a.SupplierID).Quantity.Float64()
	qb := allocationFor(t, ir, b.SupplierID).Quantity.Float64()
	// Balanced sits between pure performance (A dominant) and pure
	// capacity (B gets 75): both must receive a meaningful share.
	if qa <= 25 || qa >= 75 {
		t.Errorf("A quantity = %v, want between pure-capacity 25 and pure-performance share", qa)
	}
	if qa+qb != 100 {
		t.Errorf("sum = %v, want 100", qa+qb)
	}
}

func TestDistributeMultipleItems(t *testing.T) {
	e := newEngine(t)
	p1 := id.New()
	p2 := id.New()
	a1 := makeSnap("A", p1, snapOpts{max: 100, quality: 0.9, onTime: 0.9})
	b1 := makeSnap("B", p1, snapOpts{max: 100, quality: 0.9, onTime: 0.9})
	a2 := makeSnap("A2", p2, snapOpts{max: 500, quality: 0.7, onTime: 0.7})

	res, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
		Items: []Item{
			{ProductID: p1, Quantity: types.NewQuantityFromFloat64(40), Candidates: []SupplierSnapshot{a1, b1}},
			{ProductID: p2, Quantity: types.NewQuantityFromFloat64(200), Candidates: []SupplierSnapshot{a2}},
		},
	})
	if err != nil {
		t.Fatalf("Distribute(): %v", err)
	}

	if len(res.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(res.Items))
	}
	for i, ir := range res.Items {
		if got, want := allocatedTotal(ir), ir.Quantity; got != want {
			t.Errorf("item %d total = %v, want %v", i, got.Float64(), want.Float64())
		}
	}
	if len(res.Suppliers()) != 3 {
		t.Errorf("distinct suppliers = %d, want 3", len(res.Suppliers()))
	}
}

func TestDistributeRequestValidation(t *testing.T) {
	e := newEngine(t)
	productID := id.New()
	a := makeSnap("A", productID, snapOpts{max: 100, quality: 0.9, onTime: 0.9})

	if _, err := e.Distribute(context.Background(), Request{
		Strategy: "random",
		Weights:  DefaultWeights(),
		Items:    oneItem(10, a),
	}); err == nil {
		t.Error("unknown strategy accepted")
	}

	if _, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
	}); err == nil {
		t.Error("empty request accepted")
	}

	items := oneItem(0, a)
	if _, err := e.Distribute(context.Background(), Request{
		Strategy: StrategyEven,
		Weights:  DefaultWeights(),
		Items:    items,
	}); err == nil {
		t.Error("zero quantity accepted")
	}
}
