// Package graph builds the per-agent state and dependency graphs and the
// cross-agent model graph, and keeps them acyclic, contracted and
// transitively reduced.
//
// The graph is an arena: vertices and edges are dense integer handles
// into parallel slices. Removal tombstones a slot rather than shifting
// indexes, so handles held in task scratch state stay valid; transitive
// reduction rebuilds the arena and invalidates every edge handle.
package graph

import (
	"sort"

	"github.com/flame-sim/flame/pkg/model"
)

// EdgeID is a dense handle into the edge arena.
type EdgeID int

type edgeRec struct {
	from  model.VertexID
	to    model.VertexID
	dep   *model.Dependency
	alive bool
}

// Graph is a directed graph whose vertices carry Task payloads and whose
// edges carry Dependency labels.
type Graph struct {
	tasks []*model.Task
	edges []edgeRec

	out map[model.VertexID][]EdgeID
	in  map[model.VertexID][]EdgeID

	vertexOf map[*model.Task]model.VertexID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		out:      make(map[model.VertexID][]EdgeID),
		in:       make(map[model.VertexID][]EdgeID),
		vertexOf: make(map[*model.Task]model.VertexID),
	}
}

// AddVertex adds a task vertex and returns its handle.
func (g *Graph) AddVertex(t *model.Task) model.VertexID {
	v := model.VertexID(len(g.tasks))
	g.tasks = append(g.tasks, t)
	g.vertexOf[t] = v
	return v
}

// Task returns the payload of v, or nil when v was removed.
func (g *Graph) Task(v model.VertexID) *model.Task {
	if int(v) < 0 || int(v) >= len(g.tasks) {
		return nil
	}
	return g.tasks[v]
}

// Vertex returns the handle of a task previously added.
func (g *Graph) Vertex(t *model.Task) (model.VertexID, bool) {
	v, ok := g.vertexOf[t]
	return v, ok
}

// Vertices returns the live vertex handles in ascending order.
func (g *Graph) Vertices() []model.VertexID {
	out := make([]model.VertexID, 0, len(g.tasks))
	for i, t := range g.tasks {
		if t != nil {
			out = append(out, model.VertexID(i))
		}
	}
	return out
}

// VertexCount returns the number of live vertices.
func (g *Graph) VertexCount() int {
	n := 0
	for _, t := range g.tasks {
		if t != nil {
			n++
		}
	}
	return n
}

// AddEdge adds a labelled edge and returns its handle.
func (g *Graph) AddEdge(from, to model.VertexID, name string, kind model.DepKind) EdgeID {
	e := EdgeID(len(g.edges))
	g.edges = append(g.edges, edgeRec{
		from:  from,
		to:    to,
		dep:   &model.Dependency{Name: name, Kind: kind},
		alive: true,
	})
	g.out[from] = append(g.out[from], e)
	g.in[to] = append(g.in[to], e)
	return e
}

// RemoveEdge tombstones an edge.
func (g *Graph) RemoveEdge(e EdgeID) {
	if int(e) < 0 || int(e) >= len(g.edges) || !g.edges[e].alive {
		return
	}
	rec := &g.edges[e]
	rec.alive = false
	g.out[rec.from] = dropEdge(g.out[rec.from], e)
	g.in[rec.to] = dropEdge(g.in[rec.to], e)
}

func dropEdge(list []EdgeID, e EdgeID) []EdgeID {
	for i, id := range list {
		if id == e {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// RemoveVertex tombstones a vertex and every incident edge.
func (g *Graph) RemoveVertex(v model.VertexID) {
	t := g.Task(v)
	if t == nil {
		return
	}
	for _, e := range append([]EdgeID(nil), g.in[v]...) {
		g.RemoveEdge(e)
	}
	for _, e := range append([]EdgeID(nil), g.out[v]...) {
		g.RemoveEdge(e)
	}
	delete(g.vertexOf, t)
	g.tasks[v] = nil
}

// Edges returns the live edge handles in ascending order.
func (g *Graph) Edges() []EdgeID {
	out := make([]EdgeID, 0, len(g.edges))
	for i := range g.edges {
		if g.edges[i].alive {
			out = append(out, EdgeID(i))
		}
	}
	return out
}

// Source returns the edge's source vertex.
func (g *Graph) Source(e EdgeID) model.VertexID { return g.edges[e].from }

// Target returns the edge's target vertex.
func (g *Graph) Target(e EdgeID) model.VertexID { return g.edges[e].to }

// Dependency returns the edge's label.
func (g *Graph) Dependency(e EdgeID) *model.Dependency { return g.edges[e].dep }

// OutEdges returns the live out-edges of v, ordered by target handle so
// traversal is deterministic.
func (g *Graph) OutEdges(v model.VertexID) []EdgeID {
	out := append([]EdgeID(nil), g.out[v]...)
	sort.SliceStable(out, func(i, j int) bool { return g.edges[out[i]].to < g.edges[out[j]].to })
	return out
}

// InEdges returns the live in-edges of v, ordered by source handle.
func (g *Graph) InEdges(v model.VertexID) []EdgeID {
	in := append([]EdgeID(nil), g.in[v]...)
	sort.SliceStable(in, func(i, j int) bool { return g.edges[in[i]].from < g.edges[in[j]].from })
	return in
}

// OutDegree returns the number of live out-edges of v.
func (g *Graph) OutDegree(v model.VertexID) int { return len(g.out[v]) }

// InDegree returns the number of live in-edges of v.
func (g *Graph) InDegree(v model.VertexID) int { return len(g.in[v]) }

// Successors returns the distinct successor vertices of v in ascending
// order.
func (g *Graph) Successors(v model.VertexID) []model.VertexID {
	return g.neighbours(g.out[v], func(r *edgeRec) model.VertexID { return r.to })
}

// Predecessors returns the distinct predecessor vertices of v in
// ascending order.
func (g *Graph) Predecessors(v model.VertexID) []model.VertexID {
	return g.neighbours(g.in[v], func(r *edgeRec) model.VertexID { return r.from })
}

func (g *Graph) neighbours(list []EdgeID, pick func(*edgeRec) model.VertexID) []model.VertexID {
	seen := make(map[model.VertexID]struct{}, len(list))
	out := make([]model.VertexID, 0, len(list))
	for _, e := range list {
		n := pick(&g.edges[e])
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasEdge reports whether a live edge from → to exists.
func (g *Graph) HasEdge(from, to model.VertexID) bool {
	for _, e := range g.out[from] {
		if g.edges[e].to == to {
			return true
		}
	}
	return false
}

// FindTask returns the first live vertex whose task matches kind and
// name, scanning in insertion order.
func (g *Graph) FindTask(kind model.TaskKind, name string) (model.VertexID, bool) {
	for i, t := range g.tasks {
		if t != nil && t.Kind == kind && t.Name == name {
			return model.VertexID(i), true
		}
	}
	return 0, false
}

// DependencyExists reports whether an edge links a task matching
// (fromKind, fromName) to one matching (toKind, toName).
func (g *Graph) DependencyExists(fromKind model.TaskKind, fromName string,
	toKind model.TaskKind, toName string) bool {
	for i := range g.edges {
		if !g.edges[i].alive {
			continue
		}
		s, t := g.tasks[g.edges[i].from], g.tasks[g.edges[i].to]
		if s == nil || t == nil {
			continue
		}
		if s.Kind == fromKind && s.Name == fromName &&
			t.Kind == toKind && t.Name == toName {
			return true
		}
	}
	return false
}

// ContractVertices removes every vertex of the given kind, bridging each
// predecessor to each successor with an edge of the given dependency
// kind and an empty name.
func (g *Graph) ContractVertices(kind model.TaskKind, depKind model.DepKind) {
	var doomed []model.VertexID
	for _, v := range g.Vertices() {
		if g.Task(v).Kind != kind {
			continue
		}
		for _, p := range g.Predecessors(v) {
			for _, s := range g.Successors(v) {
				g.AddEdge(p, s, "", depKind)
			}
		}
		doomed = append(doomed, v)
	}
	for _, v := range doomed {
		g.RemoveVertex(v)
	}
}

// TopoSort returns the live vertices in topological order (producers
// first). Ties resolve by ascending vertex handle, so the order is
// stable across runs. Returns ErrCyclicModelGraph when no order exists.
func (g *Graph) TopoSort() ([]model.VertexID, error) {
	indeg := make(map[model.VertexID]int)
	for _, v := range g.Vertices() {
		indeg[v] = g.InDegree(v)
	}

	order := make([]model.VertexID, 0, len(indeg))
	ready := make([]model.VertexID, 0)
	for _, v := range g.Vertices() {
		if indeg[v] == 0 {
			ready = append(ready, v)
		}
	}

	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		v := ready[0]
		ready = ready[1:]
		order = append(order, v)
		for _, e := range g.OutEdges(v) {
			s := g.Target(e)
			indeg[s]--
			if indeg[s] == 0 {
				ready = append(ready, s)
			}
		}
	}

	if len(order) != len(indeg) {
		return nil, model.ErrCyclicModelGraph
	}
	return order, nil
}
