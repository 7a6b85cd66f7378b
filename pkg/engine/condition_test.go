package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flame-sim/flame/pkg/model"
)

func evaluatorModel() *model.Model {
	m := model.NewModel()
	m.Name = "t"
	m.TimeUnits = []*model.TimeUnit{
		{Name: "daily", Unit: "iteration", Period: 1},
		{Name: "weekly", Unit: "daily", Period: 7},
	}
	return m
}

func valuesCondition(op string, lhs, rhs model.Operand) *model.Condition {
	return &model.Condition{Values: &model.ValuesCondition{Op: op, LHS: lhs, RHS: rhs}}
}

func agentVar(name string) model.Operand {
	return model.Operand{Kind: model.OperandAgentVar, Name: name}
}

func literal(v float64) model.Operand {
	return model.Operand{Kind: model.OperandLiteral, Value: v}
}

func TestConditionEvaluator_Values(t *testing.T) {
	ev, err := NewConditionEvaluator(evaluatorModel(), 10)
	require.NoError(t, err)

	c := valuesCondition("<", agentVar("x"), literal(0.5))

	ok, err := ev.Eval(c, Env{Agent: map[string]any{"x": 0.25}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Eval(c, Env{Agent: map[string]any{"x": 0.75}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConditionEvaluator_Not(t *testing.T) {
	ev, err := NewConditionEvaluator(evaluatorModel(), 10)
	require.NoError(t, err)

	c := valuesCondition("==", agentVar("state"), literal(2))
	c.Not = true

	ok, err := ev.Eval(c, Env{Agent: map[string]any{"state": 2.0}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConditionEvaluator_Nested(t *testing.T) {
	ev, err := NewConditionEvaluator(evaluatorModel(), 10)
	require.NoError(t, err)

	c := &model.Condition{Nested: &model.NestedCondition{
		Op:  "&&",
		LHS: valuesCondition(">=", agentVar("x"), literal(0)),
		RHS: valuesCondition("<", agentVar("x"), literal(10)),
	}}

	ok, err := ev.Eval(c, Env{Agent: map[string]any{"x": 5.0}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Eval(c, Env{Agent: map[string]any{"x": 15.0}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConditionEvaluator_MessageFilter(t *testing.T) {
	ev, err := NewConditionEvaluator(evaluatorModel(), 10)
	require.NoError(t, err)

	c := valuesCondition("<",
		model.Operand{Kind: model.OperandMessageVar, Name: "range"},
		agentVar("radius"))

	ok, err := ev.Eval(c, Env{
		Agent:   map[string]any{"radius": 2.0},
		Message: map[string]any{"range": 1.5},
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConditionEvaluator_Time(t *testing.T) {
	ev, err := NewConditionEvaluator(evaluatorModel(), 10)
	require.NoError(t, err)

	weekly := &model.Condition{Time: &model.TimeCondition{Period: "weekly", PhaseRaw: "2", PhaseValue: 2}}

	ok, err := ev.Eval(weekly, Env{Iteration: 2})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Eval(weekly, Env{Iteration: 9})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Eval(weekly, Env{Iteration: 3})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConditionEvaluator_TimeDuration(t *testing.T) {
	ev, err := NewConditionEvaluator(evaluatorModel(), 10)
	require.NoError(t, err)

	c := &model.Condition{Time: &model.TimeCondition{
		Period:      "weekly",
		PhaseRaw:    "0",
		Duration:    3,
		HasDuration: true,
	}}

	for iteration, want := range map[int]bool{0: true, 2: true, 3: false, 7: true, 10: false} {
		ok, err := ev.Eval(c, Env{Iteration: iteration})
		require.NoError(t, err)
		assert.Equal(t, want, ok, "iteration %d", iteration)
	}
}

func TestConditionEvaluator_RecursiveTimeUnits(t *testing.T) {
	m := model.NewModel()
	m.TimeUnits = []*model.TimeUnit{
		{Name: "a", Unit: "b", Period: 2},
		{Name: "b", Unit: "a", Period: 2},
	}
	_, err := NewConditionEvaluator(m, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recurses")
}

func TestConditionEvaluator_DashedVariableNames(t *testing.T) {
	ev, err := NewConditionEvaluator(evaluatorModel(), 10)
	require.NoError(t, err)

	c := valuesCondition(">", agentVar("my-var"), literal(1))
	ok, err := ev.Eval(c, Env{Agent: map[string]any{"my-var": 2.0}})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConditionCache_LRU(t *testing.T) {
	cache := NewConditionCache(2)
	env := map[string]any{"x": 1}

	_, err := cache.CompileAndCache("x == 1", env)
	require.NoError(t, err)
	_, err = cache.CompileAndCache("x == 2", env)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Size())

	// Third entry evicts the least recently used.
	_, err = cache.CompileAndCache("x == 3", env)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Size())

	// Hits do not grow the cache.
	_, err = cache.CompileAndCache("x == 3", env)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Size())
}

func TestConditionString(t *testing.T) {
	c := &model.Condition{Nested: &model.NestedCondition{
		Op:  "||",
		LHS: valuesCondition("<", agentVar("x"), literal(1)),
		RHS: &model.Condition{Time: &model.TimeCondition{Period: "daily", PhaseValue: 0}},
	}}
	s := ConditionString(c)
	assert.Contains(t, s, "a.x < 1")
	assert.Contains(t, s, "time(daily, 0)")
}
