// Package visualization renders compiled graphs for diagnostics: dot
// for GraphViz, mermaid for docs, and an ASCII tree for terminals.
package visualization

import (
	"os"

	"golang.org/x/term"

	"github.com/flame-sim/flame/pkg/graph"
)

// RenderOptions configures graph rendering.
type RenderOptions struct {
	// Title is printed above (ascii) or inside (dot) the graph.
	Title string

	// Direction is the mermaid flow direction (TD, LR, ...).
	Direction string

	// UseColor enables ANSI colors when the output is a terminal.
	UseColor bool
}

// DefaultRenderOptions returns the defaults used when opts is nil.
func DefaultRenderOptions() *RenderOptions {
	return &RenderOptions{Direction: "TD", UseColor: true}
}

// Renderer converts a graph into a textual diagram format.
type Renderer interface {
	Format() string
	Render(g *graph.Graph, opts *RenderOptions) (string, error)
}

// WriteFile renders the graph and writes it to the named file.
func WriteFile(r Renderer, g *graph.Graph, opts *RenderOptions, fileName string) error {
	out, err := r.Render(g, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(fileName, []byte(out), 0o644)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
