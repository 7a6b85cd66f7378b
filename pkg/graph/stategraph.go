package graph

import (
	"fmt"

	"github.com/flame-sim/flame/pkg/model"
)

// StateGraph is the per-agent graph of states and transition functions
// built before dependency analysis. Vertices are state and function
// tasks; edges carry the state name with DepState.
type StateGraph struct {
	g         *Graph
	agentName string

	startTask *model.Task
	endTasks  []*model.Task
}

// NewStateGraph creates an empty state graph for the named agent.
func NewStateGraph(agentName string) *StateGraph {
	return &StateGraph{g: New(), agentName: agentName}
}

// Graph exposes the underlying arena, e.g. for rendering.
func (sg *StateGraph) Graph() *Graph { return sg.g }

// AgentName returns the owning agent's name.
func (sg *StateGraph) AgentName() string { return sg.agentName }

// StartTask returns the task the agent starts from.
func (sg *StateGraph) StartTask() *model.Task { return sg.startTask }

// EndTasks returns the function tasks whose next state is an end state.
func (sg *StateGraph) EndTasks() []*model.Task { return sg.endTasks }

func (sg *StateGraph) stateTask(name, startState string) *model.Task {
	if v, ok := sg.g.FindTask(model.TaskState, name); ok {
		return sg.g.Task(v)
	}
	t := model.NewTask(sg.agentName, name, model.TaskState)
	sg.g.AddVertex(t)
	if name == startState {
		sg.startTask = t
	}
	return t
}

func (sg *StateGraph) messageTask(name string) *model.Task {
	if v, ok := sg.g.FindTask(model.TaskMessage, name); ok {
		return sg.g.Task(v)
	}
	t := model.NewTask(name, name, model.TaskMessage)
	sg.g.AddVertex(t)
	return t
}

func (sg *StateGraph) vertex(t *model.Task) model.VertexID {
	v, _ := sg.g.Vertex(t)
	return v
}

func (sg *StateGraph) addStates(f *model.Function, task *model.Task, startState string) {
	current := sg.stateTask(f.CurrentState, startState)
	next := sg.stateTask(f.NextState, startState)

	sg.g.AddEdge(sg.vertex(current), sg.vertex(task), f.CurrentState, model.DepState)
	sg.g.AddEdge(sg.vertex(task), sg.vertex(next), f.NextState, model.DepState)

	// A guarded transition is evaluated in its source state, so the
	// condition's reads belong to that state.
	if f.Condition != nil {
		task.HasCondition = true
		for name := range f.Condition.ReadOnlyVariables() {
			current.AddReadVariable(name)
			current.AddReadOnlyVariable(name)
		}
	}
}

func (sg *StateGraph) addVariables(f *model.Function, task *model.Task) {
	for name := range f.ReadOnlyVars {
		task.AddReadOnlyVariable(name)
		task.AddReadVariable(name)
	}
	for name := range f.ReadWriteVars {
		task.AddReadVariable(name)
		task.AddWriteVariable(name)
	}
}

func (sg *StateGraph) addMessages(f *model.Function, task *model.Task) {
	for _, out := range f.Outputs {
		task.OutputMessages.Add(out.MessageName)
		msg := sg.messageTask(out.MessageName)
		sg.g.AddEdge(sg.vertex(task), sg.vertex(msg), out.MessageName, model.DepCommunication)
	}
	for _, in := range f.Inputs {
		task.InputMessages.Add(in.MessageName)
		msg := sg.messageTask(in.MessageName)
		sg.g.AddEdge(sg.vertex(msg), sg.vertex(task), in.MessageName, model.DepCommunication)
	}
}

// Generate builds the state graph from the agent's transition functions.
func (sg *StateGraph) Generate(functions []*model.Function, startState string, endStates model.StringSet) {
	for _, f := range functions {
		task := model.NewTask(sg.agentName, f.Name, model.TaskFunction)
		sg.g.AddVertex(task)
		sg.addStates(f, task, startState)
		sg.addVariables(f, task)
		sg.addMessages(f, task)
		if endStates.Has(f.NextState) {
			sg.endTasks = append(sg.endTasks, task)
		}
	}
}

// CheckCycles reports the first back edge in the state graph.
func (sg *StateGraph) CheckCycles() error {
	return sg.g.CheckCycles(sg.agentName, model.ErrCyclicStateGraph)
}

// CheckFunctionConditions verifies that every function leaving a state
// with more than one outgoing transition carries a condition.
func (sg *StateGraph) CheckFunctionConditions() *model.ValidationError {
	for _, v := range sg.g.Vertices() {
		if sg.g.Task(v).Kind != model.TaskState || sg.g.OutDegree(v) <= 1 {
			continue
		}
		for _, e := range sg.g.OutEdges(v) {
			t := sg.g.Task(sg.g.Target(e))
			if !t.HasCondition {
				return &model.ValidationError{
					Kind:   model.ErrUnconditionalBranch,
					Entity: sg.agentName,
					Message: fmt.Sprintf(
						"function %q leaves a state with more than one outgoing function but has no condition",
						t.Name),
				}
			}
		}
	}
	return nil
}
