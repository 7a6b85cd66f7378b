package graph

import (
	"fmt"

	"github.com/flame-sim/flame/pkg/model"
)

// CheckCycles runs a depth-first search over the live vertices and
// returns a GraphError naming the first back edge found, or nil when
// the graph is acyclic. Vertices are explored in ascending handle order
// so the reported edge is stable.
func (g *Graph) CheckCycles(agentName string, err error) error {
	const (
		white = iota // undiscovered
		grey         // on the stack
		black        // finished
	)
	colour := make(map[model.VertexID]int)

	var visit func(v model.VertexID) error
	visit = func(v model.VertexID) error {
		colour[v] = grey
		for _, e := range g.OutEdges(v) {
			t := g.Target(e)
			switch colour[t] {
			case grey:
				return &model.GraphError{
					Agent: agentName,
					Edge:  g.describeEdge(e),
					Err:   err,
				}
			case white:
				if verr := visit(t); verr != nil {
					return verr
				}
			}
		}
		colour[v] = black
		return nil
	}

	for _, v := range g.Vertices() {
		if colour[v] == white {
			if verr := visit(v); verr != nil {
				return verr
			}
		}
	}
	return nil
}

func (g *Graph) describeEdge(e EdgeID) string {
	src := g.Task(g.Source(e))
	dst := g.Task(g.Target(e))
	return fmt.Sprintf("%s -> %s -> %s", src.Name, g.Dependency(e).GraphName(), dst.Name)
}
