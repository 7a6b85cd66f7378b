package visualization

import (
	"fmt"
	"strings"

	"github.com/flame-sim/flame/pkg/graph"
	"github.com/flame-sim/flame/pkg/model"
)

// ASCIIRenderer renders graphs as ASCII tree diagrams for terminals.
type ASCIIRenderer struct{}

// NewASCIIRenderer creates a new ASCII renderer.
func NewASCIIRenderer() *ASCIIRenderer {
	return &ASCIIRenderer{}
}

// Format returns the format identifier.
func (r *ASCIIRenderer) Format() string {
	return "ascii"
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

// Box drawing characters
const (
	branchChar     = "├── "
	lastBranchChar = "└── "
	verticalChar   = "│   "
	emptyChar      = "    "
)

// Render converts a graph into ASCII tree format, starting from the
// vertices without predecessors.
func (r *ASCIIRenderer) Render(g *graph.Graph, opts *RenderOptions) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph is nil")
	}
	if opts == nil {
		opts = DefaultRenderOptions()
	}
	if opts.UseColor {
		opts.UseColor = isTerminal()
	}

	var sb strings.Builder
	if opts.Title != "" {
		sb.WriteString(r.colorize(opts.Title, colorCyan, opts.UseColor))
		sb.WriteString("\n\n")
	}

	var roots []model.VertexID
	for _, v := range g.Vertices() {
		if g.InDegree(v) == 0 {
			roots = append(roots, v)
		}
	}
	if len(roots) == 0 && g.VertexCount() > 0 {
		roots = g.Vertices()[:1]
	}

	visited := make(map[model.VertexID]bool)
	for i, root := range roots {
		r.renderVertex(&sb, g, root, "", i == len(roots)-1, visited, opts)
	}
	return sb.String(), nil
}

func (r *ASCIIRenderer) renderVertex(
	sb *strings.Builder,
	g *graph.Graph,
	v model.VertexID,
	prefix string,
	isLast bool,
	visited map[model.VertexID]bool,
	opts *RenderOptions,
) {
	writeBranch := func() {
		if prefix != "" {
			if isLast {
				sb.WriteString(prefix + lastBranchChar)
			} else {
				sb.WriteString(prefix + branchChar)
			}
		}
	}

	t := g.Task(v)
	if visited[v] {
		writeBranch()
		sb.WriteString(r.colorize("("+t.FullName()+")", colorBlue, opts.UseColor))
		sb.WriteString("\n")
		return
	}
	visited[v] = true

	writeBranch()
	sb.WriteString(r.formatTask(t, opts))
	sb.WriteString("\n")

	children := g.Successors(v)
	if len(children) == 0 {
		return
	}
	childPrefix := prefix
	if isLast {
		childPrefix += emptyChar
	} else {
		childPrefix += verticalChar
	}
	for i, c := range children {
		r.renderVertex(sb, g, c, childPrefix, i == len(children)-1, visited, opts)
	}
}

func (r *ASCIIRenderer) formatTask(t *model.Task, opts *RenderOptions) string {
	name := t.FullName()
	switch t.Kind {
	case model.TaskStartAgent, model.TaskStartModel,
		model.TaskFinishAgent, model.TaskFinishModel:
		return r.colorize(name, colorRed, opts.UseColor) +
			" " + r.colorize("("+t.Kind.String()+")", colorYellow, opts.UseColor)
	case model.TaskMessageSync, model.TaskMessageClear:
		return r.colorize(name, colorCyan, opts.UseColor) +
			" " + r.colorize("("+t.Kind.String()+")", colorYellow, opts.UseColor)
	default:
		return r.colorize(name, colorGreen, opts.UseColor) +
			" " + r.colorize("("+t.Kind.String()+")", colorYellow, opts.UseColor)
	}
}

// colorize applies ANSI color codes to text.
func (r *ASCIIRenderer) colorize(text, color string, enabled bool) string {
	if !enabled {
		return text
	}
	return color + text + colorReset
}
