package graph

import (
	"github.com/flame-sim/flame/pkg/model"
)

// ModelGraph is the cross-agent dependency DAG: every agent's reduced
// dependency graph imported into one arena, framed by StartModel and
// FinishModel, with message vertices replaced by sync/clear pairs.
type ModelGraph struct {
	g         *Graph
	modelName string

	startTask *model.Task
	endTask   *model.Task
}

// NewModelGraph creates a model graph containing only the StartModel
// and FinishModel frame.
func NewModelGraph(modelName string) *ModelGraph {
	mg := &ModelGraph{g: New(), modelName: modelName}
	mg.startTask = model.NewTask(modelName, "Start", model.TaskStartModel)
	mg.g.AddVertex(mg.startTask)
	mg.endTask = model.NewTask(modelName, "Finish", model.TaskFinishModel)
	mg.g.AddVertex(mg.endTask)
	return mg
}

// Graph exposes the underlying arena.
func (mg *ModelGraph) Graph() *Graph { return mg.g }

// importGraph copies one agent's dependency graph into the model arena.
// StartAgent vertices are hooked under StartModel and IoPopWrite
// vertices above FinishModel as they arrive.
func (mg *ModelGraph) importGraph(dg *DependencyGraph) {
	src := dg.Graph()
	startV, _ := mg.g.Vertex(mg.startTask)
	endV, _ := mg.g.Vertex(mg.endTask)

	mapped := make(map[model.VertexID]model.VertexID)
	for _, v := range src.Vertices() {
		t := src.Task(v)
		nv := mg.g.AddVertex(t)
		mapped[v] = nv
		switch t.Kind {
		case model.TaskStartAgent:
			mg.g.AddEdge(startV, nv, "", model.DepInit)
		case model.TaskIOPopWrite:
			mg.g.AddEdge(nv, endV, "", model.DepInit)
		}
	}
	for _, e := range src.Edges() {
		d := src.Dependency(e)
		mg.g.AddEdge(mapped[src.Source(e)], mapped[src.Target(e)], d.Name, d.Kind)
	}
}

func (mg *ModelGraph) messageVertex(name string, kind model.TaskKind) model.VertexID {
	if v, ok := mg.g.FindTask(kind, name); ok {
		return v
	}
	return mg.g.AddVertex(model.NewTask(name, name, kind))
}

// changeMessageTasksToSync replaces every message vertex with a single
// sync vertex per message name: producers edge into the sync, consumers
// read from it.
func (mg *ModelGraph) changeMessageTasksToSync() {
	var doomed []model.VertexID
	for _, v := range mg.g.Vertices() {
		t := mg.g.Task(v)
		if t.Kind != model.TaskMessage {
			continue
		}
		s := mg.messageVertex(t.Name, model.TaskMessageSync)
		for _, e := range mg.g.InEdges(v) {
			mg.g.AddEdge(mg.g.Source(e), s, t.Name, model.DepCommunication)
		}
		for _, e := range mg.g.OutEdges(v) {
			mg.g.AddEdge(s, mg.g.Target(e), t.Name, model.DepCommunication)
		}
		doomed = append(doomed, v)
	}
	for _, v := range doomed {
		mg.g.RemoveVertex(v)
	}
}

// addMessageClearTasks pairs every sync vertex with a clear vertex fed
// by each consumer, so the board is wiped only after every reader is
// done. A sync without consumers feeds its clear directly.
func (mg *ModelGraph) addMessageClearTasks() {
	for _, v := range mg.g.Vertices() {
		t := mg.g.Task(v)
		if t.Kind != model.TaskMessageSync {
			continue
		}
		clear := model.NewTask(t.ParentName, t.Name, model.TaskMessageClear)
		clearV := mg.g.AddVertex(clear)
		consumers := mg.g.Successors(v)
		if len(consumers) == 0 {
			mg.g.AddEdge(v, clearV, t.Name, model.DepCommunication)
			continue
		}
		for _, c := range consumers {
			mg.g.AddEdge(c, clearV, t.Name, model.DepCommunication)
		}
	}
}

// frame guarantees StartModel is the only source and FinishModel the
// only sink, so the frame tasks bracket every iteration.
func (mg *ModelGraph) frame() {
	startV, _ := mg.g.Vertex(mg.startTask)
	endV, _ := mg.g.Vertex(mg.endTask)
	for _, v := range mg.g.Vertices() {
		if v == startV || v == endV {
			continue
		}
		if mg.g.InDegree(v) == 0 {
			mg.g.AddEdge(startV, v, "", model.DepBlank)
		}
		if mg.g.OutDegree(v) == 0 {
			mg.g.AddEdge(v, endV, "", model.DepBlank)
		}
	}
}

// Assemble imports every agent graph, contracts the per-agent start
// anchors, installs message sync/clear pairs, closes the frame and runs
// cycle detection across the union. Cycles are fatal.
func (mg *ModelGraph) Assemble(graphs []*DependencyGraph) error {
	for _, dg := range graphs {
		mg.importGraph(dg)
	}
	mg.g.ContractVertices(model.TaskStartAgent, model.DepBlank)
	mg.changeMessageTasksToSync()
	mg.addMessageClearTasks()
	mg.frame()
	return mg.g.CheckCycles("", model.ErrCyclicModelGraph)
}
