package visualization

import (
	"fmt"
	"strings"

	"github.com/flame-sim/flame/pkg/graph"
	"github.com/flame-sim/flame/pkg/model"
)

// DotRenderer renders graphs as GraphViz dot documents. Agent functions
// are yellow rectangles, conditions yellow inverted houses, start and
// finish vertices red ellipses, message sync/clear light-blue
// parallelograms and population writes orange folders.
type DotRenderer struct{}

// NewDotRenderer creates a new dot renderer.
func NewDotRenderer() *DotRenderer {
	return &DotRenderer{}
}

// Format returns the format identifier.
func (r *DotRenderer) Format() string {
	return "dot"
}

// Render converts a graph into dot syntax.
func (r *DotRenderer) Render(g *graph.Graph, opts *RenderOptions) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph is nil")
	}
	if opts == nil {
		opts = DefaultRenderOptions()
	}

	var sb strings.Builder
	sb.WriteString("digraph ")
	if opts.Title != "" {
		sb.WriteString(quote(opts.Title))
		sb.WriteString(" ")
	}
	sb.WriteString("{\n")

	for _, v := range g.Vertices() {
		t := g.Task(v)
		sb.WriteString(fmt.Sprintf("\t%d [%s];\n", v, vertexAttributes(t)))
	}

	for _, e := range g.Edges() {
		d := g.Dependency(e)
		sb.WriteString(fmt.Sprintf("\t%d -> %d", g.Source(e), g.Target(e)))
		if d.Kind != model.DepBlank {
			sb.WriteString(fmt.Sprintf(" [label=%s]", quote(d.GraphName())))
		}
		sb.WriteString(";\n")
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}

func vertexAttributes(t *model.Task) string {
	switch t.Kind {
	case model.TaskIOPopWrite:
		var label strings.Builder
		for _, name := range t.WriteVars.Sorted() {
			label.WriteString(name)
			label.WriteString("\\n")
		}
		return fmt.Sprintf("label=%s shape=folder, style=filled, fillcolor=orange",
			quote(label.String()))
	case model.TaskMessageSync:
		return fmt.Sprintf("label=%s shape=parallelogram, style=filled, fillcolor=lightblue",
			quote("SYNC: "+t.Name))
	case model.TaskMessageClear:
		return fmt.Sprintf("label=%s shape=parallelogram, style=filled, fillcolor=lightblue",
			quote("CLEAR: "+t.Name))
	case model.TaskStartAgent, model.TaskStartModel:
		return fmt.Sprintf("label=%s shape=ellipse, style=filled, fillcolor=red",
			quote("Start\\n"+t.ParentName))
	case model.TaskFinishAgent, model.TaskFinishModel:
		return fmt.Sprintf("label=%s shape=ellipse, style=filled, fillcolor=red",
			quote("Finish\\n"+t.ParentName))
	case model.TaskCondition:
		return fmt.Sprintf("label=%s shape=invhouse, style=filled, fillcolor=yellow",
			quote(t.Name))
	case model.TaskFunction:
		return fmt.Sprintf("label=%s shape=rect, style=filled, fillcolor=yellow",
			quote(t.Name))
	default:
		// State and variable vertices only appear in intermediate dumps.
		return fmt.Sprintf("label=%s shape=ellipse, style=filled, fillcolor=white",
			quote(t.Name))
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
