package validator

import (
	"strconv"
	"strings"

	"github.com/flame-sim/flame/pkg/model"
)

var comparisonOps = map[string]string{
	"EQ":  "==",
	"NEQ": "!=",
	"LEQ": "<=",
	"GEQ": ">=",
	"LT":  "<",
	"GT":  ">",
}

var logicalOps = map[string]string{
	"AND": "&&",
	"OR":  "||",
}

// processConditionSymbols normalises symbolic operators and resolves
// operand prefixes. A condition must be a time test, a comparison of
// two operand values, or a combination of two nested conditions; mixed
// sides are an error.
func (v *Validator) processConditionSymbols(c *model.Condition, owner string) {
	switch {
	case c.Time != nil:
		v.processTimeSymbols(c.Time, owner)
	case c.Values != nil && c.Nested == nil:
		v.processValuesSymbols(c.Values, owner)
	case c.Nested != nil && c.Values == nil:
		v.processNestedSymbols(c.Nested, owner)
	default:
		v.report.Addf(model.ErrInvalidCondition, owner,
			"lhs and rhs are not both values or both nested conditions")
	}
}

func (v *Validator) processTimeSymbols(t *model.TimeCondition, owner string) {
	if strings.HasPrefix(t.PhaseRaw, "a.") {
		t.PhaseVariable = strings.TrimPrefix(t.PhaseRaw, "a.")
		t.PhaseIsVariable = true
	} else {
		value, err := strconv.Atoi(t.PhaseRaw)
		if err != nil {
			v.report.Addf(model.ErrInvalidCondition, owner,
				"cannot cast time phase to an integer: %q", t.PhaseRaw)
		}
		t.PhaseValue = value
	}
	if t.HasDuration {
		duration, err := strconv.Atoi(t.DurationRaw)
		if err != nil {
			v.report.Addf(model.ErrInvalidCondition, owner,
				"cannot cast time duration to an integer: %q", t.DurationRaw)
		}
		t.Duration = duration
	}
}

func (v *Validator) processOperand(op *model.Operand, owner string) {
	switch {
	case strings.HasPrefix(op.Raw, "a."):
		op.Kind = model.OperandAgentVar
		op.Name = strings.TrimPrefix(op.Raw, "a.")
	case strings.HasPrefix(op.Raw, "m."):
		op.Kind = model.OperandMessageVar
		op.Name = strings.TrimPrefix(op.Raw, "m.")
	default:
		op.Kind = model.OperandLiteral
		value, err := strconv.ParseFloat(op.Raw, 64)
		if err != nil {
			v.report.Addf(model.ErrInvalidCondition, owner,
				"value not variable or number: %q", op.Raw)
		}
		op.Value = value
	}
}

func (v *Validator) processValuesSymbols(vc *model.ValuesCondition, owner string) {
	if normalised, ok := comparisonOps[vc.Op]; ok {
		vc.Op = normalised
	} else {
		v.report.Addf(model.ErrInvalidCondition, owner,
			"condition op value not recognised: %q", vc.Op)
	}
	v.processOperand(&vc.LHS, owner)
	v.processOperand(&vc.RHS, owner)
}

func (v *Validator) processNestedSymbols(nc *model.NestedCondition, owner string) {
	if nc.LHS == nil || nc.RHS == nil {
		v.report.Addf(model.ErrInvalidCondition, owner,
			"lhs and rhs are not both values or both nested conditions")
		return
	}
	v.processConditionSymbols(nc.LHS, owner)
	v.processConditionSymbols(nc.RHS, owner)
	if normalised, ok := logicalOps[nc.Op]; ok {
		nc.Op = normalised
	} else {
		v.report.Addf(model.ErrInvalidCondition, owner,
			"condition op value not recognised: %q", nc.Op)
	}
}

// validateCondition binds variable references against the agent (and,
// for filters, the message) and collects the agent variables the
// predicate reads onto the root condition.
func (v *Validator) validateCondition(c, root *model.Condition, agent *model.Agent,
	msg *model.Message, owner string) {
	switch {
	case c.Time != nil:
		v.validateTimeCondition(c.Time, root, agent, owner)
	case c.Values != nil && c.Nested == nil:
		v.validateOperand(&c.Values.LHS, root, agent, msg, owner)
		v.validateOperand(&c.Values.RHS, root, agent, msg, owner)
	case c.Nested != nil && c.Values == nil:
		if c.Nested.LHS != nil {
			v.validateCondition(c.Nested.LHS, root, agent, msg, owner)
		}
		if c.Nested.RHS != nil {
			v.validateCondition(c.Nested.RHS, root, agent, msg, owner)
		}
	}
}

func (v *Validator) validateTimeCondition(t *model.TimeCondition, root *model.Condition,
	agent *model.Agent, owner string) {
	validPeriod := false
	for _, tu := range v.m.TimeUnits {
		if t.Period == tu.Name {
			validPeriod = true
		}
	}
	if !validPeriod {
		v.report.Addf(model.ErrInvalidCondition, owner,
			"time period is not a valid time unit: %q", t.Period)
	}
	if t.PhaseIsVariable {
		if !agent.ValidVariableName(t.PhaseVariable) {
			v.report.Addf(model.ErrInvalidCondition, owner,
				"time phase variable is not a valid agent variable: %q", t.PhaseVariable)
		} else {
			root.AddReadOnlyVariable(t.PhaseVariable)
		}
	}
}

func (v *Validator) validateOperand(op *model.Operand, root *model.Condition,
	agent *model.Agent, msg *model.Message, owner string) {
	switch op.Kind {
	case model.OperandAgentVar:
		if !agent.ValidVariableName(op.Name) {
			v.report.Addf(model.ErrInvalidCondition, owner,
				"value is not a valid agent variable: %q", op.Name)
		} else {
			root.AddReadOnlyVariable(op.Name)
		}
	case model.OperandMessageVar:
		if msg == nil {
			v.report.Addf(model.ErrInvalidCondition, owner,
				"cannot validate value as the message type is invalid: %q", op.Name)
		} else if !msg.ValidVariableName(op.Name) {
			v.report.Addf(model.ErrInvalidCondition, owner,
				"value is not a valid message variable: %q", op.Name)
		}
	}
}

// validateConditionOrFilter runs symbol processing then binding for a
// transition condition (msg nil) or a message filter.
func (v *Validator) validateConditionOrFilter(c *model.Condition, agent *model.Agent,
	msg *model.Message, owner string) {
	v.processConditionSymbols(c, owner)
	v.validateCondition(c, c, agent, msg, owner)
}
