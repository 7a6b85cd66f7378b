package graph

import (
	"sort"
	"strconv"

	"github.com/flame-sim/flame/pkg/model"
)

// Priority hint carried by promoted condition tasks; the task emitter
// uses it only to order tasks within a level, and the executor does not
// read it.
const condPriority = 5

// DependencyGraph transforms an agent's state graph into a data and
// control dependency DAG whose topological order is the execution
// schedule. It takes ownership of the state graph's arena.
type DependencyGraph struct {
	g         *Graph
	agentName string

	startTask *model.Task
	endTask   *model.Task
	endTasks  []*model.Task

	condCount int
	ioCount   int
}

// NewDependencyGraph wraps a finished state graph for dependency
// analysis.
func NewDependencyGraph(sg *StateGraph) *DependencyGraph {
	return &DependencyGraph{
		g:         sg.Graph(),
		agentName: sg.AgentName(),
		startTask: sg.StartTask(),
		endTasks:  sg.EndTasks(),
	}
}

// Graph exposes the underlying arena.
func (dg *DependencyGraph) Graph() *Graph { return dg.g }

// AgentName returns the owning agent's name.
func (dg *DependencyGraph) AgentName() string { return dg.agentName }

// Generate runs the dependency analysis over the state graph:
// condition promotion, state contraction, start/finish framing, the
// last-writer sweep, population output emission, state-edge removal and
// transitive reduction.
func (dg *DependencyGraph) Generate(variables []*model.Variable) error {
	dg.transformConditionalStatesToConditions()
	dg.contractStateVertices()
	if err := dg.addDataAndConditionDependencies(variables); err != nil {
		return err
	}
	dg.addVariableOutput()
	dg.removeStateDependencies()
	return dg.g.RemoveRedundantDependencies()
}

// transformConditionalStatesToConditions retypes every branching state
// into a condition task with a generated name. The runtime evaluates the
// predicate once per iteration at this point.
func (dg *DependencyGraph) transformConditionalStatesToConditions() {
	for _, v := range dg.g.Vertices() {
		t := dg.g.Task(v)
		if t.Kind == model.TaskState && dg.g.OutDegree(v) > 1 {
			t.Kind = model.TaskCondition
			t.Name = strconv.Itoa(dg.condCount)
			t.PriorityLevel = condPriority
			dg.condCount++
		}
	}
}

// contractStateVertices bridges each remaining state vertex's
// predecessors to its successors and deletes the vertex. When the start
// task is still a state its unique successor function takes over.
func (dg *DependencyGraph) contractStateVertices() {
	if dg.startTask != nil && dg.startTask.Kind == model.TaskState {
		if v, ok := dg.g.Vertex(dg.startTask); ok {
			for _, e := range dg.g.OutEdges(v) {
				dg.startTask = dg.g.Task(dg.g.Target(e))
			}
		}
	}
	dg.g.ContractVertices(model.TaskState, model.DepState)
}

// addStartTask frames the graph with a StartAgent task writing every
// agent variable, so the first real reader of each variable sees the
// init task as its last writer.
func (dg *DependencyGraph) addStartTask(variables []*model.Variable) {
	initTask := model.NewTask(dg.agentName, dg.agentName, model.TaskStartAgent)
	initVertex := dg.g.AddVertex(initTask)
	if dg.startTask != nil {
		if v, ok := dg.g.Vertex(dg.startTask); ok {
			dg.g.AddEdge(initVertex, v, "Start", model.DepInit)
		}
	}
	for _, variable := range variables {
		initTask.AddWriteVariable(variable.Name)
		initTask.LastWritesFor(variable.Name).Add(initVertex)
	}
}

// addEndTask frames the graph with a FinishAgent task collecting the
// final writes; it is dissolved again by addVariableOutput.
func (dg *DependencyGraph) addEndTask() {
	dg.endTask = model.NewTask(dg.agentName, dg.agentName, model.TaskFinishAgent)
	v := dg.g.AddVertex(dg.endTask)
	for _, t := range dg.endTasks {
		if tv, ok := dg.g.Vertex(t); ok {
			dg.g.AddEdge(tv, v, "End", model.DepInit)
		}
	}
}

func (dg *DependencyGraph) copyWritingAndConditionVertices(v model.VertexID, task *model.Task) {
	for _, e := range dg.g.InEdges(v) {
		src := dg.g.Task(dg.g.Source(e))
		task.MergeLastWrites(src)
		task.MergeLastReads(src)
		task.LastConditions.AddAll(src.LastConditions)
	}
}

func (dg *DependencyGraph) addConditionDependencies(v model.VertexID, task *model.Task) {
	for _, cv := range task.LastConditions.Sorted() {
		dg.g.AddEdge(cv, v, "Condition", model.DepCondition)
	}
	// A condition dominates everything downstream until the next one.
	if task.Kind == model.TaskCondition {
		task.LastConditions = make(model.VertexSet)
		task.LastConditions.Add(v)
	}
}

// addReadDependencies draws one data edge from each last writer of each
// variable this task reads, and records the task as a last reader.
// Duplicate edges between the same pair are suppressed regardless of
// how many variables they share.
func (dg *DependencyGraph) addReadDependencies(v model.VertexID, task *model.Task) {
	used := make(model.VertexSet)
	for _, name := range task.ReadVars.Sorted() {
		if writers, ok := task.LastWrites[name]; ok {
			for _, w := range writers.Sorted() {
				if used.Has(w) {
					continue
				}
				dg.g.AddEdge(w, v, "Data", model.DepVariable)
				used.Add(w)
			}
		}
		task.LastReadsFor(name).Add(v)
	}
}

// addWritingVertices publishes this task as the last writer of each of
// its write variables. Readers and writers since the previous write
// order in front of it, so no read/write or write/write hazard is left
// unordered.
func (dg *DependencyGraph) addWritingVertices(v model.VertexID, task *model.Task) {
	used := make(model.VertexSet)
	used.Add(v)
	for _, name := range task.WriteVars.Sorted() {
		if readers, ok := task.LastReads[name]; ok {
			for _, r := range readers.Sorted() {
				if used.Has(r) {
					continue
				}
				dg.g.AddEdge(r, v, "Data", model.DepVariable)
				used.Add(r)
			}
		}
		if writers, ok := task.LastWrites[name]; ok {
			for _, w := range writers.Sorted() {
				if used.Has(w) {
					continue
				}
				dg.g.AddEdge(w, v, "Data", model.DepVariable)
				used.Add(w)
			}
		}
		task.ClearLastReads(name)
		task.ClearLastWrites(name)
		task.LastWritesFor(name).Add(v)
	}
}

// addDataAndConditionDependencies performs the forward sweep: frame the
// graph, then visit vertices in topological order merging last-writer
// and last-condition sets and drawing condition and data edges.
func (dg *DependencyGraph) addDataAndConditionDependencies(variables []*model.Variable) error {
	dg.addStartTask(variables)
	dg.addEndTask()

	order, err := dg.g.TopoSort()
	if err != nil {
		return &model.GraphError{Agent: dg.agentName, Err: model.ErrCyclicStateGraph}
	}

	for _, v := range order {
		task := dg.g.Task(v)
		switch task.Kind {
		case model.TaskFunction, model.TaskCondition,
			model.TaskStartAgent, model.TaskFinishAgent:
			dg.copyWritingAndConditionVertices(v, task)
			dg.addConditionDependencies(v, task)
			dg.addReadDependencies(v, task)
			dg.addWritingVertices(v, task)
		}
	}
	return nil
}

// addVariableOutput groups variables with identical final writer sets
// into one IoPopWrite task each, then dissolves the FinishAgent frame.
func (dg *DependencyGraph) addVariableOutput() {
	lws := dg.endTask.LastWrites

	remaining := make([]string, 0, len(lws))
	for name := range lws {
		remaining = append(remaining, name)
	}
	// Lexical order keeps the generated task numbering stable.
	sort.Strings(remaining)

	done := make(map[string]bool)
	for _, name := range remaining {
		if done[name] {
			continue
		}
		writers := lws[name]

		task := model.NewTask(dg.agentName, strconv.Itoa(dg.ioCount), model.TaskIOPopWrite)
		dg.ioCount++
		v := dg.g.AddVertex(task)
		task.WriteVars.Add(name)
		done[name] = true

		for _, other := range remaining {
			if done[other] {
				continue
			}
			if writers.Equal(lws[other]) {
				task.WriteVars.Add(other)
				done[other] = true
			}
		}

		used := make(model.VertexSet)
		for _, w := range writers.Sorted() {
			dg.g.AddEdge(w, v, "", model.DepData)
			used.Add(w)
		}
		// The snapshot also waits for readers that follow the final
		// write, so it never overlaps live memory access.
		for _, name := range task.WriteVars.Sorted() {
			readers, ok := dg.endTask.LastReads[name]
			if !ok {
				continue
			}
			for _, r := range readers.Sorted() {
				if used.Has(r) {
					continue
				}
				dg.g.AddEdge(r, v, "", model.DepData)
				used.Add(r)
			}
		}
		// Exports sit below the conditions dominating the agent's end,
		// like every other downstream task.
		for _, cv := range dg.endTask.LastConditions.Sorted() {
			if used.Has(cv) {
				continue
			}
			dg.g.AddEdge(cv, v, "Condition", model.DepCondition)
			used.Add(cv)
		}
	}

	if v, ok := dg.g.Vertex(dg.endTask); ok {
		dg.g.RemoveVertex(v)
	}
	dg.endTask = nil
}

// removeStateDependencies drops every state edge; ordering is expressed
// by data and condition edges from here on. State edges touching a
// condition vertex become condition edges instead: the predicate is
// evaluated at that point of the old state chain, so the ordering is
// real.
func (dg *DependencyGraph) removeStateDependencies() {
	for _, e := range dg.g.Edges() {
		if dg.g.Dependency(e).Kind != model.DepState {
			continue
		}
		src, dst := dg.g.Source(e), dg.g.Target(e)
		if dg.g.Task(src).Kind == model.TaskCondition ||
			dg.g.Task(dst).Kind == model.TaskCondition {
			dg.g.AddEdge(src, dst, "Condition", model.DepCondition)
		}
		dg.g.RemoveEdge(e)
	}
}
