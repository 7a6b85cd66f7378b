package visualization

import (
	"fmt"
	"strings"

	"github.com/flame-sim/flame/pkg/graph"
	"github.com/flame-sim/flame/pkg/model"
)

// MermaidRenderer renders graphs as Mermaid flowchart diagrams.
type MermaidRenderer struct{}

// NewMermaidRenderer creates a new Mermaid renderer.
func NewMermaidRenderer() *MermaidRenderer {
	return &MermaidRenderer{}
}

// Format returns the format identifier.
func (r *MermaidRenderer) Format() string {
	return "mermaid"
}

// Render converts a graph into Mermaid flowchart syntax.
func (r *MermaidRenderer) Render(g *graph.Graph, opts *RenderOptions) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph is nil")
	}
	if opts == nil {
		opts = DefaultRenderOptions()
	}

	var sb strings.Builder
	sb.WriteString("flowchart ")
	if opts.Direction != "" {
		sb.WriteString(opts.Direction)
	} else {
		sb.WriteString("TD")
	}
	sb.WriteString("\n")

	for _, v := range g.Vertices() {
		sb.WriteString("    ")
		sb.WriteString(r.renderVertex(v, g.Task(v)))
		sb.WriteString("\n")
	}

	if len(g.Edges()) > 0 {
		sb.WriteString("\n")
		for _, e := range g.Edges() {
			d := g.Dependency(e)
			sb.WriteString(fmt.Sprintf("    n%d", g.Source(e)))
			if d.Kind != model.DepBlank {
				sb.WriteString(fmt.Sprintf(" -->|%s|", escapeMermaid(d.GraphName())))
			} else {
				sb.WriteString(" -->")
			}
			sb.WriteString(fmt.Sprintf(" n%d\n", g.Target(e)))
		}
	}

	return sb.String(), nil
}

// renderVertex formats a single vertex based on its task kind.
func (r *MermaidRenderer) renderVertex(v model.VertexID, t *model.Task) string {
	label := escapeMermaid(mermaidLabel(t))
	switch t.Kind {
	case model.TaskCondition:
		// Diamond for decision points.
		return fmt.Sprintf(`n%d{"%s"}`, v, label)
	case model.TaskMessageSync, model.TaskMessageClear:
		// Trapezoid for board operations.
		return fmt.Sprintf(`n%d[/"%s"/]`, v, label)
	case model.TaskStartAgent, model.TaskStartModel,
		model.TaskFinishAgent, model.TaskFinishModel:
		// Stadium for framing vertices.
		return fmt.Sprintf(`n%d(["%s"])`, v, label)
	case model.TaskIOPopWrite:
		// Hexagon for population writes.
		return fmt.Sprintf(`n%d{{"%s"}}`, v, label)
	default:
		return fmt.Sprintf(`n%d["%s"]`, v, label)
	}
}

func mermaidLabel(t *model.Task) string {
	switch t.Kind {
	case model.TaskMessageSync:
		return "SYNC: " + t.Name
	case model.TaskMessageClear:
		return "CLEAR: " + t.Name
	case model.TaskStartAgent, model.TaskStartModel:
		return "Start " + t.ParentName
	case model.TaskFinishAgent, model.TaskFinishModel:
		return "Finish " + t.ParentName
	case model.TaskIOPopWrite:
		return strings.Join(t.WriteVars.Sorted(), ", ")
	default:
		return t.Name
	}
}

func escapeMermaid(s string) string {
	return strings.ReplaceAll(s, `"`, "&quot;")
}
