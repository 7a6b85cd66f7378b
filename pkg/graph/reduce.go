package graph

import "github.com/flame-sim/flame/pkg/model"

// RemoveRedundantDependencies replaces the graph contents with the
// transitive reduction: an edge u → w is dropped whenever another path
// u ⤳ w of length two or more exists. The arena is rebuilt, so every
// previously held EdgeID is invalid afterwards; VertexIDs are re-keyed
// densely and the vertex-to-task map rebuilt. The graph must be acyclic.
func (g *Graph) RemoveRedundantDependencies() error {
	order, err := g.TopoSort()
	if err != nil {
		return err
	}

	// Dense re-key in topological order.
	newID := make(map[model.VertexID]model.VertexID, len(order))
	for i, v := range order {
		newID[v] = model.VertexID(i)
	}
	n := len(order)

	succ := make([][]model.VertexID, n)
	deps := make([]map[model.VertexID]*model.Dependency, n)
	for _, v := range order {
		nv := newID[v]
		deps[nv] = make(map[model.VertexID]*model.Dependency)
		for _, e := range g.OutEdges(v) {
			nt := newID[g.Target(e)]
			if _, ok := deps[nv][nt]; !ok {
				succ[nv] = append(succ[nv], nt)
				deps[nv][nt] = g.Dependency(e)
			}
		}
	}

	// reach[v] holds every vertex reachable from v via one or more
	// edges. Computed in reverse topological order.
	reach := make([]map[model.VertexID]struct{}, n)
	for i := n - 1; i >= 0; i-- {
		r := make(map[model.VertexID]struct{})
		for _, s := range succ[i] {
			r[s] = struct{}{}
			for t := range reach[s] {
				r[t] = struct{}{}
			}
		}
		reach[i] = r
	}

	keep := make([]map[model.VertexID]bool, n)
	for i := 0; i < n; i++ {
		keep[i] = make(map[model.VertexID]bool, len(succ[i]))
		for _, s := range succ[i] {
			redundant := false
			for _, mid := range succ[i] {
				if mid == s {
					continue
				}
				if _, ok := reach[mid][s]; ok {
					redundant = true
					break
				}
			}
			keep[i][s] = !redundant
		}
	}

	// Rebuild the arena.
	tasks := make([]*model.Task, n)
	for _, v := range order {
		tasks[newID[v]] = g.Task(v)
	}

	g.tasks = g.tasks[:0]
	g.edges = g.edges[:0]
	g.out = make(map[model.VertexID][]EdgeID)
	g.in = make(map[model.VertexID][]EdgeID)
	g.vertexOf = make(map[*model.Task]model.VertexID)

	for _, t := range tasks {
		g.AddVertex(t)
	}
	for i := 0; i < n; i++ {
		for _, s := range succ[i] {
			if !keep[i][s] {
				continue
			}
			d := deps[model.VertexID(i)][s]
			g.AddEdge(model.VertexID(i), s, d.Name, d.Kind)
		}
	}
	return nil
}
