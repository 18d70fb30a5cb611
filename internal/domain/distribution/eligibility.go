package distribution

import (
	"github.com/google/cel-go/cel"

	"procura/internal/core/apperror"
)

// newRuleEnv declares the variables visible to eligibility rules.
func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("supplier", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("capability", cel.MapType(cel.StringType, cel.DynType)),
	)
}

// compileRule compiles an eligibility rule. Compile errors and
// non-boolean rules are validation errors.
func (e *Engine) compileRule(rule string) (cel.Program, error) {
	ast, iss := e.env.Compile(rule)
	if iss != nil && iss.Err() != nil {
		return nil, apperror.NewValidation("invalid eligibility rule").
			WithDetail("rule", rule).
			WithDetail("error", iss.Err().Error())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, apperror.NewValidation("eligibility rule must evaluate to bool").
			WithDetail("rule", rule).
			WithDetail("type", ast.OutputType().String())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, apperror.NewValidation("invalid eligibility rule").
			WithDetail("rule", rule).
			WithDetail("error", err.Error())
	}
	return prg, nil
}

// ruleVars flattens a snapshot into the rule variable bindings.
func ruleVars(snap SupplierSnapshot) map[string]any {
	return map[string]any{
		"supplier": map[string]any{
			"id":        snap.SupplierID.String(),
			"code":      snap.Code,
			"name":      snap.Name,
			"preferred": snap.Preferred,
			"active":    snap.Active,
		},
		"capability": map[string]any{
			"max_monthly_capacity": snap.Capability.MaxMonthlyCapacity.Float64(),
			"quality_score":        snap.Capability.QualityScore.InexactFloat64(),
			"on_time_rate":         snap.Capability.OnTimeRate.InexactFloat64(),
			"lead_time_days":       snap.Capability.LeadTimeDays,
			"min_allocation":       snap.Capability.MinAllocation.Float64(),
			"available":            snap.Available().Float64(),
		},
	}
}

func evalRule(prg cel.Program, snap SupplierSnapshot) (bool, error) {
	out, _, err := prg.Eval(ruleVars(snap))
	if err != nil {
		return false, apperror.NewValidation("eligibility rule evaluation failed").
			WithDetail("supplier_id", snap.SupplierID.String()).
			WithDetail("error", err.Error())
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, apperror.NewValidation("eligibility rule must evaluate to bool")
	}
	return b, nil
}
