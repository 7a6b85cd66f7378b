package schedule

import (
	"context"
	"fmt"

	"github.com/flame-sim/flame/pkg/graph"
	"github.com/flame-sim/flame/pkg/model"
)

// TaskFunc is an executable agent transition bound to a task at
// registration time.
type TaskFunc func(ctx context.Context) error

// IOOp selects the population I/O operation a data task performs.
type IOOp int

const (
	IOOpInit IOOp = iota
	IOOpFin
	IOOpOutput
)

// MessageBoardOp selects the board operation a message task performs.
type MessageBoardOp int

const (
	MessageBoardSync MessageBoardOp = iota
	MessageBoardClear
)

// Registrar is the executor-side registration contract. The compiler
// calls CreateAgentTask or CreateMessageBoardTask once per task and
// CreateIOTask once each for the start and finish tasks; a population
// write task gets one CreateIOTask call per written variable, all under
// the same task name. AddDependency is called once per model-graph edge,
// and Finalise last.
type Registrar interface {
	CreateAgentTask(taskName, agentName string, fn TaskFunc) error
	CreateIOTask(taskName, agentName, variable string, op IOOp) error
	CreateMessageBoardTask(taskName, messageName string, op MessageBoardOp) error
	AddDependency(child, parent string) error
	Finalise() error
}

// regName returns the unique registration name for a task. Message sync
// and clear tasks share parent and name, so they carry an operation
// prefix instead of the plain full name.
func regName(t *model.Task) string {
	switch t.Kind {
	case model.TaskMessageSync:
		return "sync_" + t.Name
	case model.TaskMessageClear:
		return "clear_" + t.Name
	default:
		return t.FullName()
	}
}

// Register walks the model graph and registers every task and
// dependency with the executor. Agent functions resolve their
// executable through funcMap by function name; promoted conditions may
// have no registered function and are created with a nil TaskFunc.
func Register(mg *graph.ModelGraph, funcMap map[string]TaskFunc, r Registrar) error {
	g := mg.Graph()

	for _, v := range g.Vertices() {
		t := g.Task(v)
		switch t.Kind {
		case model.TaskFunction, model.TaskCondition:
			fn, ok := funcMap[t.Name]
			if !ok && t.Kind == model.TaskFunction {
				return fmt.Errorf("function %q has not been registered, cannot create task", t.FullName())
			}
			if err := r.CreateAgentTask(regName(t), t.ParentName, fn); err != nil {
				return fmt.Errorf("creating task for function %q: %w", t.FullName(), err)
			}
		case model.TaskIOPopWrite:
			for _, name := range t.WriteVars.Sorted() {
				if err := r.CreateIOTask(regName(t), t.ParentName, name, IOOpOutput); err != nil {
					return fmt.Errorf("creating io task for agent %q: %w", t.ParentName, err)
				}
			}
		case model.TaskStartModel:
			if err := r.CreateIOTask(regName(t), t.ParentName, "", IOOpInit); err != nil {
				return fmt.Errorf("creating start task: %w", err)
			}
		case model.TaskFinishModel:
			if err := r.CreateIOTask(regName(t), t.ParentName, "", IOOpFin); err != nil {
				return fmt.Errorf("creating finish task: %w", err)
			}
		case model.TaskMessageSync:
			if err := r.CreateMessageBoardTask(regName(t), t.Name, MessageBoardSync); err != nil {
				return fmt.Errorf("creating sync task for message %q: %w", t.Name, err)
			}
		case model.TaskMessageClear:
			if err := r.CreateMessageBoardTask(regName(t), t.Name, MessageBoardClear); err != nil {
				return fmt.Errorf("creating clear task for message %q: %w", t.Name, err)
			}
		}
	}

	for _, e := range g.Edges() {
		parent := regName(g.Task(g.Source(e)))
		child := regName(g.Task(g.Target(e)))
		if err := r.AddDependency(child, parent); err != nil {
			return fmt.Errorf("adding dependency between %s and %s: %w", parent, child, err)
		}
	}

	return r.Finalise()
}
