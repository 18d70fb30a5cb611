package distribution

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/types"
)

// Engine runs the allocation algorithm. It holds the compiled CEL
// environment and is safe for concurrent use.
type Engine struct {
	env *cel.Env
}

// NewEngine creates the distribution engine.
func NewEngine() (*Engine, error) {
	env, err := newRuleEnv()
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}
	return &Engine{env: env}, nil
}

// Score computes the weighted supplier score.
// capacityRatio is available/max so an idle supplier scores higher
// than one already loaded for the month.
func Score(snap SupplierSnapshot, w Weights) decimal.Decimal {
	ratio := decimal.Zero
	if snap.Capability.MaxMonthlyCapacity.IsPositive() {
		ratio = snap.Available().Decimal().Div(snap.Capability.MaxMonthlyCapacity.Decimal())
	}
	return snap.Capability.OnTimeRate.Mul(w.OnTime).
		Add(snap.Capability.QualityScore.Mul(w.Quality)).
		Add(ratio.Mul(w.Capacity))
}

// ValidateRule compiles a rule without running a distribution.
func (e *Engine) ValidateRule(rule string) error {
	if rule == "" {
		return nil
	}
	_, err := e.compileRule(rule)
	return err
}

// Distribute allocates every item of the request across its candidate
// suppliers. Allocations per item always sum exactly to the item
// quantity.
func (e *Engine) Distribute(ctx context.Context, req Request) (*Result, error) {
	if !req.Strategy.Valid() {
		return nil, apperror.NewValidation("unknown strategy").
			WithDetail("strategy", string(req.Strategy))
	}
	if err := req.Weights.Validate(); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, apperror.NewValidation("nothing to distribute")
	}

	var prg cel.Program
	if req.Rule != "" {
		var err error
		prg, err = e.compileRule(req.Rule)
		if err != nil {
			return nil, err
		}
	}

	result := &Result{
		Strategy: req.Strategy,
		Items:    make([]ItemResult, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		ir, err := e.allocateItem(item, req.Strategy, req.Weights, prg)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, *ir)
	}
	return result, nil
}

// candidate carries the per-supplier working state of one allocation run.
type candidate struct {
	snap  SupplierSnapshot
	score decimal.Decimal

	// fixed-point quantities, scaled by 1e4
	available int64
	alloc     int64

	weight decimal.Decimal
	capped bool
}

func (e *Engine) allocateItem(item Item, strategy Strategy, w Weights, prg cel.Program) (*ItemResult, error) {
	if !item.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("product_id", item.ProductID.String())
	}

	cands, err := eligibleCandidates(item, w, prg)
	if err != nil {
		return nil, err
	}

	total := item.Quantity.Int64Scaled()
	if err := runAllocation(item.ProductID, total, strategy, cands); err != nil {
		return nil, err
	}

	// Suppliers landing under their minimum lot are dropped once and
	// the item re-run on the survivors. When the survivors cannot
	// carry the quantity the first pass stands, with the shortfall
	// surfaced through BelowMinimum.
	violators := belowMinimum(cands)
	if len(violators) > 0 && len(violators) < len(cands) {
		survivors := exclude(cands, violators)
		if sumAvailable(survivors) >= total {
			if err := runAllocation(item.ProductID, total, strategy, survivors); err == nil {
				cands = survivors
			}
		}
	}

	return buildItemResult(item, cands), nil
}

func eligibleCandidates(item Item, w Weights, prg cel.Program) ([]*candidate, error) {
	out := make([]*candidate, 0, len(item.Candidates))
	for _, snap := range item.Candidates {
		if !snap.Active {
			continue
		}
		avail := snap.Available()
		if !avail.IsPositive() {
			continue
		}
		if prg != nil {
			ok, err := evalRule(prg, snap)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, &candidate{
			snap:      snap,
			score:     Score(snap, w),
			available: avail.Int64Scaled(),
		})
	}

	if len(out) == 0 {
		return nil, apperror.NewValidation("no eligible suppliers").
			WithDetail("product_id", item.ProductID.String())
	}
	return out, nil
}

// runAllocation assigns the total across candidates under the strategy,
// capping at available capacity and redistributing overflow until the
// whole quantity is placed.
func runAllocation(productID id.ID, total int64, strategy Strategy, cands []*candidate) error {
	if sum := sumAvailable(cands); sum < total {
		return apperror.NewInsufficientCapacity(
			productID.String(),
			types.Quantity(total).Float64(),
			types.Quantity(sum).Float64(),
		)
	}

	assignWeights(strategy, cands)
	for _, c := range cands {
		c.alloc = 0
		c.capped = false
	}

	remaining := total
	free := append([]*candidate(nil), cands...)
	for remaining > 0 {
		spreadLargestRemainder(remaining, free)

		var overflow int64
		next := free[:0]
		for _, c := range free {
			switch {
			case c.alloc > c.available:
				overflow += c.alloc - c.available
				c.alloc = c.available
				c.capped = true
			case c.alloc == c.available:
				c.capped = true
			default:
				next = append(next, c)
			}
		}
		remaining = overflow
		free = next

		if remaining > 0 && len(free) == 0 {
			// Unreachable given the sum check above, kept as a guard.
			return apperror.NewInsufficientCapacity(
				productID.String(),
				types.Quantity(total).Float64(),
				types.Quantity(total-remaining).Float64(),
			)
		}
	}
	return nil
}

// assignWeights sets the share weight of each candidate. A degenerate
// all-zero weighting falls back to even shares.
func assignWeights(strategy Strategy, cands []*candidate) {
	one := decimal.NewFromInt(1)

	switch strategy {
	case StrategyEven:
		for _, c := range cands {
			c.weight = one
		}
	case StrategyPerformance:
		for _, c := range cands {
			c.weight = c.score
		}
	case StrategyCapacity:
		for _, c := range cands {
			c.weight = decimal.NewFromInt(c.available)
		}
	case StrategyBalanced:
		sumScore := decimal.Zero
		var sumAvail int64
		for _, c := range cands {
			sumScore = sumScore.Add(c.score)
			sumAvail += c.available
		}
		two := decimal.NewFromInt(2)
		for _, c := range cands {
			scoreShare := decimal.Zero
			if sumScore.IsPositive() {
				scoreShare = c.score.Div(sumScore)
			}
			capacityShare := decimal.Zero
			if sumAvail > 0 {
				capacityShare = decimal.NewFromInt(c.available).Div(decimal.NewFromInt(sumAvail))
			}
			c.weight = scoreShare.Add(capacityShare).Div(two)
		}
	}

	for _, c := range cands {
		if c.weight.IsPositive() {
			return
		}
	}
	for _, c := range cands {
		c.weight = one
	}
}

// spreadLargestRemainder adds amount across candidates proportionally
// to their weights. Whole scaled units only: fractional remainders are
// ranked and the leftover units go to the largest ones, ties broken by
// score then supplier ID.
func spreadLargestRemainder(amount int64, cands []*candidate) {
	sumW := decimal.Zero
	for _, c := range cands {
		sumW = sumW.Add(c.weight)
	}
	if !sumW.IsPositive() {
		sumW = decimal.NewFromInt(int64(len(cands)))
		for _, c := range cands {
			c.weight = decimal.NewFromInt(1)
		}
	}

	amountDec := decimal.NewFromInt(amount)
	remainders := make([]decimal.Decimal, len(cands))
	var assigned int64
	for i, c := range cands {
		exact := amountDec.Mul(c.weight).Div(sumW)
		fl := exact.Floor().IntPart()
		c.alloc += fl
		assigned += fl
		remainders[i] = exact.Sub(decimal.NewFromInt(fl))
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := remainders[order[a]], remainders[order[b]]
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		sa, sb := cands[order[a]].score, cands[order[b]].score
		if !sa.Equal(sb) {
			return sa.GreaterThan(sb)
		}
		ia, ib := cands[order[a]].snap.SupplierID, cands[order[b]].snap.SupplierID
		return bytes.Compare(ia[:], ib[:]) < 0
	})

	leftover := amount - assigned
	for leftover > 0 {
		for _, idx := range order {
			if leftover == 0 {
				break
			}
			cands[idx].alloc++
			leftover--
		}
	}
}

func sumAvailable(cands []*candidate) int64 {
	var sum int64
	for _, c := range cands {
		sum += c.available
	}
	return sum
}

// belowMinimum returns candidates whose positive allocation is under
// their MinAllocation floor.
func belowMinimum(cands []*candidate) []*candidate {
	var out []*candidate
	for _, c := range cands {
		min := c.snap.Capability.MinAllocation.Int64Scaled()
		if min > 0 && c.alloc > 0 && c.alloc < min {
			out = append(out, c)
		}
	}
	return out
}

func exclude(cands, drop []*candidate) []*candidate {
	dropped := make(map[*candidate]bool, len(drop))
	for _, c := range drop {
		dropped[c] = true
	}
	out := make([]*candidate, 0, len(cands)-len(drop))
	for _, c := range cands {
		if !dropped[c] {
			out = append(out, c)
		}
	}
	return out
}

func buildItemResult(item Item, cands []*candidate) *ItemResult {
	totalDec := decimal.NewFromInt(item.Quantity.Int64Scaled())

	ir := &ItemResult{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}
	for _, c := range cands {
		if c.alloc <= 0 {
			continue
		}
		share := decimal.NewFromInt(c.alloc).Div(totalDec)
		ir.Allocations = append(ir.Allocations, Allocation{
			SupplierID:   c.snap.SupplierID,
			SupplierName: c.snap.Name,
			Quantity:     types.Quantity(c.alloc),
			Score:        c.score.Round(6),
			Share:        share.Round(6),
		})

		min := c.snap.Capability.MinAllocation.Int64Scaled()
		if min > 0 && c.alloc < min {
			ir.BelowMinimum = append(ir.BelowMinimum, c.snap.SupplierID)
		}
	}

	sort.SliceStable(ir.Allocations, func(a, b int) bool {
		qa, qb := ir.Allocations[a].Quantity, ir.Allocations[b].Quantity
		if qa != qb {
			return qa > qb
		}
		ia, ib := ir.Allocations[a].SupplierID, ir.Allocations[b].SupplierID
		return bytes.Compare(ia[:], ib[:]) < 0
	})

	return ir
}

func sortIDs(ids []id.ID) {
	sort.Slice(ids, func(a, b int) bool {
		return bytes.Compare(ids[a][:], ids[b][:]) < 0
	})
}
