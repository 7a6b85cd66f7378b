// Package flame is the model compiler and task scheduler for agent
// based simulations: it validates a declarative model of agents,
// functions, states and messages, derives per-agent state and
// dependency graphs, assembles them into one model graph and emits a
// topologically ordered task list for a worker-pool executor.
package flame

import (
	"github.com/flame-sim/flame/pkg/graph"
	"github.com/flame-sim/flame/pkg/model"
	"github.com/flame-sim/flame/pkg/schedule"
	"github.com/flame-sim/flame/pkg/validator"
)

// CompileResult bundles everything the compiler produces for one model.
type CompileResult struct {
	Model *model.Model

	// AgentGraphs holds each agent's reduced dependency graph.
	AgentGraphs map[string]*graph.DependencyGraph

	// ModelGraph is the assembled cross-agent DAG.
	ModelGraph *graph.ModelGraph

	// Tasks and Dependencies are the executor inputs.
	Tasks        *schedule.TaskList
	Dependencies schedule.TaskIDMap
}

// Compile validates the model and, when clean, runs the whole pipeline
// through to the emitted task list. Validation problems come back as a
// *model.ValidationReport; graph problems are fatal single errors.
func Compile(m *model.Model, opts validator.Options) (*CompileResult, error) {
	val := validator.New(m, opts)
	if report := val.Validate(); report != nil {
		return nil, report
	}

	result := &CompileResult{
		Model:       m,
		AgentGraphs: make(map[string]*graph.DependencyGraph, len(m.Agents)),
	}

	graphs := make([]*graph.DependencyGraph, 0, len(m.Agents))
	for _, agent := range m.Agents {
		sg := val.StateGraph(agent.Name)
		if sg == nil {
			// The model was validated in an earlier run; rebuild the
			// state graph from the validated declarations.
			sg = graph.NewStateGraph(agent.Name)
			sg.Generate(agent.Functions, agent.StartState, agent.EndStates)
		}
		dg := graph.NewDependencyGraph(sg)
		if err := dg.Generate(agent.Variables); err != nil {
			return nil, err
		}
		result.AgentGraphs[agent.Name] = dg
		graphs = append(graphs, dg)
	}

	mg := graph.NewModelGraph(m.Name)
	if err := mg.Assemble(graphs); err != nil {
		return nil, err
	}
	result.ModelGraph = mg

	tasks, deps, err := schedule.EmitTaskList(mg)
	if err != nil {
		return nil, err
	}
	result.Tasks = tasks
	result.Dependencies = deps
	return result, nil
}

// StateGraphs rebuilds the per-agent state graphs of a validated model,
// e.g. for rendering. The model must have been validated.
func StateGraphs(m *model.Model) (map[string]*graph.StateGraph, error) {
	if !m.Validated() {
		return nil, model.ErrModelNotValidated
	}
	out := make(map[string]*graph.StateGraph, len(m.Agents))
	for _, agent := range m.Agents {
		sg := graph.NewStateGraph(agent.Name)
		sg.Generate(agent.Functions, agent.StartState, agent.EndStates)
		out[agent.Name] = sg
	}
	return out, nil
}
