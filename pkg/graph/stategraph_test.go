package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flame-sim/flame/pkg/model"
)

func chainFunction(name, current, next string, readOnly, readWrite []string) *model.Function {
	f := model.NewFunction(name, current, next)
	for _, v := range readOnly {
		f.ReadOnlyVars.Add(v)
	}
	for _, v := range readWrite {
		f.ReadWriteVars.Add(v)
	}
	return f
}

func TestStateGraph_Generate(t *testing.T) {
	sg := NewStateGraph("agent")
	sg.Generate([]*model.Function{
		chainFunction("f0", "s0", "s1", []string{"a"}, nil),
		chainFunction("f1", "s1", "s2", nil, []string{"a"}),
	}, "s0", model.NewStringSet("s2"))

	g := sg.Graph()

	// Three states, two functions.
	assert.Equal(t, 5, g.VertexCount())
	require.NotNil(t, sg.StartTask())
	assert.Equal(t, "s0", sg.StartTask().Name)
	require.Len(t, sg.EndTasks(), 1)
	assert.Equal(t, "f1", sg.EndTasks()[0].Name)

	assert.True(t, g.DependencyExists(model.TaskState, "s0", model.TaskFunction, "f0"))
	assert.True(t, g.DependencyExists(model.TaskFunction, "f0", model.TaskState, "s1"))
	assert.True(t, g.DependencyExists(model.TaskState, "s1", model.TaskFunction, "f1"))
	assert.True(t, g.DependencyExists(model.TaskFunction, "f1", model.TaskState, "s2"))

	// Memory access propagates onto the function tasks.
	v, ok := g.FindTask(model.TaskFunction, "f1")
	require.True(t, ok)
	task := g.Task(v)
	assert.True(t, task.ReadVars.Has("a"))
	assert.True(t, task.WriteVars.Has("a"))

	require.NoError(t, sg.CheckCycles())
	assert.Nil(t, sg.CheckFunctionConditions())
}

func TestStateGraph_Messages(t *testing.T) {
	f := chainFunction("post", "s0", "s1", nil, nil)
	f.Outputs = append(f.Outputs, &model.IOput{MessageName: "loc"})
	read := chainFunction("read", "s1", "s2", nil, nil)
	read.Inputs = append(read.Inputs, &model.IOput{MessageName: "loc"})

	sg := NewStateGraph("agent")
	sg.Generate([]*model.Function{f, read}, "s0", model.NewStringSet("s2"))
	g := sg.Graph()

	assert.True(t, g.DependencyExists(model.TaskFunction, "post", model.TaskMessage, "loc"))
	assert.True(t, g.DependencyExists(model.TaskMessage, "loc", model.TaskFunction, "read"))

	v, ok := g.FindTask(model.TaskFunction, "post")
	require.True(t, ok)
	assert.True(t, g.Task(v).OutputMessages.Has("loc"))
	v, ok = g.FindTask(model.TaskFunction, "read")
	require.True(t, ok)
	assert.True(t, g.Task(v).InputMessages.Has("loc"))
}

func TestStateGraph_CycleDetection(t *testing.T) {
	sg := NewStateGraph("agent")
	sg.Generate([]*model.Function{
		chainFunction("f0", "s0", "s1", nil, nil),
		chainFunction("f1", "s1", "s2", nil, nil),
		chainFunction("back", "s2", "s1", nil, nil),
	}, "s0", model.NewStringSet())

	err := sg.CheckCycles()
	require.Error(t, err)
	var gerr *model.GraphError
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, model.ErrCyclicStateGraph)
	assert.Equal(t, "agent", gerr.Agent)
	assert.NotEmpty(t, gerr.Edge)
}

func TestStateGraph_UnconditionalBranch(t *testing.T) {
	left := chainFunction("f_left", "s0", "s1", nil, nil)
	left.Condition = &model.Condition{Values: &model.ValuesCondition{
		Op:  "<",
		LHS: model.Operand{Kind: model.OperandAgentVar, Name: "a"},
		RHS: model.Operand{Kind: model.OperandLiteral, Value: 1},
	}}
	left.Condition.AddReadOnlyVariable("a")

	right := chainFunction("f_right", "s0", "s2", nil, nil)

	sg := NewStateGraph("agent")
	sg.Generate([]*model.Function{left, right}, "s0", model.NewStringSet("s1", "s2"))

	verr := sg.CheckFunctionConditions()
	require.NotNil(t, verr)
	assert.Equal(t, model.ErrUnconditionalBranch, verr.Kind)
	assert.Contains(t, verr.Message, "f_right")

	// The branching state picked up the condition's reads.
	v, ok := sg.Graph().FindTask(model.TaskState, "s0")
	require.True(t, ok)
	assert.True(t, sg.Graph().Task(v).ReadVars.Has("a"))
}
