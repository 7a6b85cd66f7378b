package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flame-sim/flame/pkg/model"
)

func buildDependencyGraph(t *testing.T, functions []*model.Function,
	startState string, endStates model.StringSet,
	variables []*model.Variable) *DependencyGraph {
	t.Helper()
	sg := NewStateGraph("agent")
	sg.Generate(functions, startState, endStates)
	require.NoError(t, sg.CheckCycles())

	dg := NewDependencyGraph(sg)
	require.NoError(t, dg.Generate(variables))
	return dg
}

// A linear chain where f0, f1 and f3 read a and f2 writes it: the
// readers must order in front of the writer, and the writer in front of
// its reader.
func TestDependencyGraph_RawConflict(t *testing.T) {
	dg := buildDependencyGraph(t, []*model.Function{
		chainFunction("f0", "s0", "s1", []string{"a"}, nil),
		chainFunction("f1", "s1", "s2", []string{"a"}, nil),
		chainFunction("f2", "s2", "s3", nil, []string{"a"}),
		chainFunction("f3", "s3", "s4", []string{"a"}, nil),
	}, "s0", model.NewStringSet("s4"), []*model.Variable{{Type: "double", Name: "a"}})

	g := dg.Graph()
	assert.True(t, g.DependencyExists(model.TaskFunction, "f1", model.TaskFunction, "f2"))
	assert.True(t, g.DependencyExists(model.TaskFunction, "f0", model.TaskFunction, "f2"))
	assert.True(t, g.DependencyExists(model.TaskFunction, "f2", model.TaskFunction, "f3"))

	for _, e := range g.Edges() {
		assert.NotEqual(t, model.DepState, g.Dependency(e).Kind)
	}
	require.NoError(t, g.CheckCycles("agent", model.ErrCyclicStateGraph))
}

// No state or variable vertices survive dependency analysis.
func TestDependencyGraph_NoStateVerticesRemain(t *testing.T) {
	dg := buildDependencyGraph(t, []*model.Function{
		chainFunction("f0", "s0", "s1", nil, []string{"x"}),
		chainFunction("f1", "s1", "s2", []string{"x"}, nil),
	}, "s0", model.NewStringSet("s2"), []*model.Variable{{Type: "double", Name: "x"}})

	for _, v := range dg.Graph().Vertices() {
		kind := dg.Graph().Task(v).Kind
		assert.NotEqual(t, model.TaskState, kind)
		assert.NotEqual(t, model.TaskVariable, kind)
		assert.NotEqual(t, model.TaskFinishAgent, kind)
	}
}

// A branching state becomes a condition vertex with a generated name
// and the opaque priority hint.
func TestDependencyGraph_ConditionPromotion(t *testing.T) {
	left := chainFunction("f_left", "s1", "s2", nil, nil)
	left.Condition = &model.Condition{Values: &model.ValuesCondition{
		Op:  "<",
		LHS: model.Operand{Kind: model.OperandAgentVar, Name: "x"},
		RHS: model.Operand{Kind: model.OperandLiteral, Value: 0.5},
	}}
	left.Condition.AddReadOnlyVariable("x")
	right := chainFunction("f_right", "s1", "s3", nil, nil)
	right.Condition = &model.Condition{Values: &model.ValuesCondition{
		Op:  ">=",
		LHS: model.Operand{Kind: model.OperandAgentVar, Name: "x"},
		RHS: model.Operand{Kind: model.OperandLiteral, Value: 0.5},
	}}
	right.Condition.AddReadOnlyVariable("x")

	dg := buildDependencyGraph(t, []*model.Function{
		chainFunction("f0", "s0", "s1", nil, []string{"x"}),
		left,
		right,
	}, "s0", model.NewStringSet("s2", "s3"), []*model.Variable{{Type: "double", Name: "x"}})

	g := dg.Graph()
	v, ok := g.FindTask(model.TaskCondition, "0")
	require.True(t, ok, "promoted condition vertex missing")
	cond := g.Task(v)
	assert.Equal(t, 5, cond.PriorityLevel)
	assert.Equal(t, "agent", cond.ParentName)

	// Both guarded branches depend on the condition vertex.
	assert.True(t, g.DependencyExists(model.TaskCondition, "0", model.TaskFunction, "f_left"))
	assert.True(t, g.DependencyExists(model.TaskCondition, "0", model.TaskFunction, "f_right"))
	// The condition reads x written by f0.
	assert.True(t, g.DependencyExists(model.TaskFunction, "f0", model.TaskCondition, "0"))
}

// Variables with identical final writer sets group into one population
// write vertex each.
func TestDependencyGraph_VariableOutputGrouping(t *testing.T) {
	w1 := chainFunction("w1", "s0", "s1", nil, []string{"x", "y"})
	w2 := chainFunction("w2", "s1", "s2", nil, []string{"fx", "fy"})

	dg := buildDependencyGraph(t, []*model.Function{w1, w2},
		"s0", model.NewStringSet("s2"),
		[]*model.Variable{
			{Type: "double", Name: "x"},
			{Type: "double", Name: "y"},
			{Type: "double", Name: "fx"},
			{Type: "double", Name: "fy"},
		})

	g := dg.Graph()
	var ioVertices []model.VertexID
	for _, v := range g.Vertices() {
		if g.Task(v).Kind == model.TaskIOPopWrite {
			ioVertices = append(ioVertices, v)
		}
	}
	require.Len(t, ioVertices, 2)

	byVars := map[string]model.VertexID{}
	for _, v := range ioVertices {
		key := ""
		for _, name := range g.Task(v).WriteVars.Sorted() {
			key += name + ","
		}
		byVars[key] = v
	}

	fxfy, ok := byVars["fx,fy,"]
	require.True(t, ok, "missing group fx,fy: %v", byVars)
	xy, ok := byVars["x,y,"]
	require.True(t, ok, "missing group x,y: %v", byVars)

	w1v, _ := g.FindTask(model.TaskFunction, "w1")
	w2v, _ := g.FindTask(model.TaskFunction, "w2")
	assert.Equal(t, []model.VertexID{w1v}, g.Predecessors(xy))
	assert.Equal(t, []model.VertexID{w2v}, g.Predecessors(fxfy))
	assert.Equal(t, 1, g.InDegree(xy))
	assert.Equal(t, 1, g.InDegree(fxfy))
}

// Transitive reduction drops the shortcut edge but keeps reachability.
func TestGraph_RemoveRedundantDependencies(t *testing.T) {
	g := New()
	a := g.AddVertex(model.NewTask("m", "a", model.TaskFunction))
	b := g.AddVertex(model.NewTask("m", "b", model.TaskFunction))
	c := g.AddVertex(model.NewTask("m", "c", model.TaskFunction))
	g.AddEdge(a, b, "Data", model.DepVariable)
	g.AddEdge(b, c, "Data", model.DepVariable)
	g.AddEdge(a, c, "Data", model.DepVariable)

	require.NoError(t, g.RemoveRedundantDependencies())

	av, _ := g.FindTask(model.TaskFunction, "a")
	bv, _ := g.FindTask(model.TaskFunction, "b")
	cv, _ := g.FindTask(model.TaskFunction, "c")
	assert.True(t, g.HasEdge(av, bv))
	assert.True(t, g.HasEdge(bv, cv))
	assert.False(t, g.HasEdge(av, cv), "redundant edge must be removed")
	assert.Equal(t, 2, len(g.Edges()))
}

// Rebuilding from the same input yields the same edge structure.
func TestDependencyGraph_Deterministic(t *testing.T) {
	build := func() []string {
		dg := buildDependencyGraph(t, []*model.Function{
			chainFunction("f0", "s0", "s1", []string{"a"}, []string{"b"}),
			chainFunction("f1", "s1", "s2", []string{"b"}, []string{"a"}),
			chainFunction("f2", "s2", "s3", []string{"a", "b"}, nil),
		}, "s0", model.NewStringSet("s3"), []*model.Variable{
			{Type: "double", Name: "a"},
			{Type: "double", Name: "b"},
		})
		g := dg.Graph()
		var edges []string
		for _, e := range g.Edges() {
			edges = append(edges,
				g.Task(g.Source(e)).FullName()+"->"+g.Task(g.Target(e)).FullName())
		}
		return edges
	}

	assert.Equal(t, build(), build())
}
