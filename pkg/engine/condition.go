package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/flame-sim/flame/pkg/model"
)

// Env is the evaluation environment of one condition: the current
// agent's memory values, the current message (for filters) and the
// iteration counter.
type Env struct {
	Agent     map[string]any
	Message   map[string]any
	Iteration int
}

// ConditionEvaluator compiles validated condition trees to expression
// programs and evaluates them per agent. Programs are cached by source.
type ConditionEvaluator struct {
	cache   *ConditionCache
	periods map[string]int
}

// NewConditionEvaluator resolves the model's time units down to
// iteration counts and prepares the program cache. Time unit chains
// must not recurse.
func NewConditionEvaluator(m *model.Model, cacheSize int) (*ConditionEvaluator, error) {
	periods := make(map[string]int, len(m.TimeUnits))
	units := make(map[string]*model.TimeUnit, len(m.TimeUnits))
	for _, tu := range m.TimeUnits {
		units[tu.Name] = tu
	}

	var resolve func(name string, trail map[string]bool) (int, error)
	resolve = func(name string, trail map[string]bool) (int, error) {
		if p, ok := periods[name]; ok {
			return p, nil
		}
		tu, ok := units[name]
		if !ok {
			return 0, fmt.Errorf("unknown time unit: %q", name)
		}
		if trail[name] {
			return 0, fmt.Errorf("time unit %q recurses", name)
		}
		trail[name] = true
		p := tu.Period
		if tu.Unit != "iteration" {
			base, err := resolve(tu.Unit, trail)
			if err != nil {
				return 0, err
			}
			p *= base
		}
		periods[name] = p
		return p, nil
	}

	for _, tu := range m.TimeUnits {
		if _, err := resolve(tu.Name, map[string]bool{}); err != nil {
			return nil, err
		}
	}

	return &ConditionEvaluator{
		cache:   NewConditionCache(cacheSize),
		periods: periods,
	}, nil
}

// Source renders a validated condition tree as expression source.
// Variable names go through index syntax so dashes in names survive.
func (e *ConditionEvaluator) Source(c *model.Condition) (string, error) {
	if c == nil {
		return "", fmt.Errorf("condition is nil")
	}
	var src string
	var err error
	switch {
	case c.Time != nil:
		src, err = e.timeSource(c.Time)
	case c.Values != nil:
		src, err = e.valuesSource(c.Values)
	case c.Nested != nil:
		var lhs, rhs string
		lhs, err = e.Source(c.Nested.LHS)
		if err != nil {
			return "", err
		}
		rhs, err = e.Source(c.Nested.RHS)
		if err != nil {
			return "", err
		}
		src = fmt.Sprintf("(%s) %s (%s)", lhs, c.Nested.Op, rhs)
	default:
		return "", fmt.Errorf("condition has no content")
	}
	if err != nil {
		return "", err
	}
	if c.Not {
		src = "!(" + src + ")"
	}
	return src, nil
}

func (e *ConditionEvaluator) timeSource(t *model.TimeCondition) (string, error) {
	period, ok := e.periods[t.Period]
	if !ok {
		return "", fmt.Errorf("unknown time unit: %q", t.Period)
	}
	phase := strconv.Itoa(t.PhaseValue)
	if t.PhaseIsVariable {
		phase = fmt.Sprintf("int(a[%q])", t.PhaseVariable)
	}
	rem := fmt.Sprintf("(((iteration - %s) %% %d) + %d) %% %d", phase, period, period, period)
	if t.HasDuration {
		return fmt.Sprintf("%s < %d", rem, t.Duration), nil
	}
	return rem + " == 0", nil
}

func (e *ConditionEvaluator) valuesSource(vc *model.ValuesCondition) (string, error) {
	lhs, err := operandSource(vc.LHS)
	if err != nil {
		return "", err
	}
	rhs, err := operandSource(vc.RHS)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", lhs, vc.Op, rhs), nil
}

func operandSource(op model.Operand) (string, error) {
	switch op.Kind {
	case model.OperandAgentVar:
		return fmt.Sprintf("a[%q]", op.Name), nil
	case model.OperandMessageVar:
		return fmt.Sprintf("m[%q]", op.Name), nil
	case model.OperandLiteral:
		return strconv.FormatFloat(op.Value, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("operand %q is unresolved", op.Raw)
	}
}

// Eval evaluates a condition against the environment.
func (e *ConditionEvaluator) Eval(c *model.Condition, env Env) (bool, error) {
	source, err := e.Source(c)
	if err != nil {
		return false, err
	}

	exprEnv := map[string]any{
		"a":         env.Agent,
		"m":         env.Message,
		"iteration": env.Iteration,
	}
	if exprEnv["a"] == nil {
		exprEnv["a"] = map[string]any{}
	}
	if exprEnv["m"] == nil {
		exprEnv["m"] = map[string]any{}
	}

	program, err := e.cache.CompileAndCache(source, exprEnv)
	if err != nil {
		return false, fmt.Errorf("failed to compile condition %q: %w", source, err)
	}
	result, err := expr.Run(program, exprEnv)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate condition %q: %w", source, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition must return boolean, got %T", result)
	}
	return b, nil
}

// String helpers shared with diagnostics.
func ConditionString(c *model.Condition) string {
	var sb strings.Builder
	writeCondition(&sb, c)
	return sb.String()
}

func writeCondition(sb *strings.Builder, c *model.Condition) {
	if c == nil {
		return
	}
	if c.Not {
		sb.WriteString("not(")
	}
	switch {
	case c.Time != nil:
		sb.WriteString("time(")
		sb.WriteString(c.Time.Period)
		sb.WriteString(", ")
		if c.Time.PhaseIsVariable {
			sb.WriteString("a." + c.Time.PhaseVariable)
		} else {
			sb.WriteString(strconv.Itoa(c.Time.PhaseValue))
		}
		if c.Time.HasDuration {
			sb.WriteString(", " + strconv.Itoa(c.Time.Duration))
		}
		sb.WriteString(")")
	case c.Values != nil:
		sb.WriteString(operandString(c.Values.LHS))
		sb.WriteString(" " + c.Values.Op + " ")
		sb.WriteString(operandString(c.Values.RHS))
	case c.Nested != nil:
		sb.WriteString("(")
		writeCondition(sb, c.Nested.LHS)
		sb.WriteString(") " + c.Nested.Op + " (")
		writeCondition(sb, c.Nested.RHS)
		sb.WriteString(")")
	}
	if c.Not {
		sb.WriteString(")")
	}
}

func operandString(op model.Operand) string {
	switch op.Kind {
	case model.OperandAgentVar:
		return "a." + op.Name
	case model.OperandMessageVar:
		return "m." + op.Name
	case model.OperandLiteral:
		return strconv.FormatFloat(op.Value, 'g', -1, 64)
	default:
		return op.Raw
	}
}
