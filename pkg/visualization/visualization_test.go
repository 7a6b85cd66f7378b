package visualization

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flame-sim/flame/pkg/graph"
	"github.com/flame-sim/flame/pkg/model"
)

func sampleGraph() *graph.Graph {
	g := graph.New()
	start := g.AddVertex(model.NewTask("m", "Start", model.TaskStartModel))
	fn := g.AddVertex(model.NewTask("A", "move", model.TaskFunction))
	cond := g.AddVertex(model.NewTask("A", "0", model.TaskCondition))
	sync := g.AddVertex(model.NewTask("loc", "loc", model.TaskMessageSync))
	clr := g.AddVertex(model.NewTask("loc", "loc", model.TaskMessageClear))
	io := model.NewTask("A", "0", model.TaskIOPopWrite)
	io.WriteVars.Add("x")
	io.WriteVars.Add("y")
	ioV := g.AddVertex(io)
	finish := g.AddVertex(model.NewTask("m", "Finish", model.TaskFinishModel))

	g.AddEdge(start, cond, "", model.DepBlank)
	g.AddEdge(cond, fn, "Condition", model.DepCondition)
	g.AddEdge(fn, sync, "loc", model.DepCommunication)
	g.AddEdge(sync, clr, "loc", model.DepCommunication)
	g.AddEdge(fn, ioV, "Data", model.DepVariable)
	g.AddEdge(ioV, finish, "", model.DepInit)
	return g
}

func TestDotRenderer(t *testing.T) {
	r := NewDotRenderer()
	assert.Equal(t, "dot", r.Format())

	out, err := r.Render(sampleGraph(), &RenderOptions{Title: "sample"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "digraph \"sample\" {"))
	assert.Contains(t, out, "shape=rect, style=filled, fillcolor=yellow")
	assert.Contains(t, out, "shape=invhouse, style=filled, fillcolor=yellow")
	assert.Contains(t, out, "shape=ellipse, style=filled, fillcolor=red")
	assert.Contains(t, out, "shape=parallelogram, style=filled, fillcolor=lightblue")
	assert.Contains(t, out, "shape=folder, style=filled, fillcolor=orange")
	assert.Contains(t, out, `"SYNC: loc"`)
	assert.Contains(t, out, `"CLEAR: loc"`)
	assert.Contains(t, out, `"x\ny\n"`)
	assert.Contains(t, out, `label="Condition"`)
	// Blank edges carry no label.
	assert.NotContains(t, out, `label="blank"`)
}

func TestDotRenderer_NilGraph(t *testing.T) {
	_, err := NewDotRenderer().Render(nil, nil)
	assert.Error(t, err)
}

func TestMermaidRenderer(t *testing.T) {
	r := NewMermaidRenderer()
	assert.Equal(t, "mermaid", r.Format())

	out, err := r.Render(sampleGraph(), &RenderOptions{Direction: "LR"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "flowchart LR"))
	assert.Contains(t, out, `{"0"}`)
	assert.Contains(t, out, `["move"]`)
	assert.Contains(t, out, `[/"SYNC: loc"/]`)
	assert.Contains(t, out, `(["Start m"])`)
	assert.Contains(t, out, "-->|loc|")
}

func TestASCIIRenderer(t *testing.T) {
	r := NewASCIIRenderer()
	assert.Equal(t, "ascii", r.Format())

	out, err := r.Render(sampleGraph(), &RenderOptions{Title: "sample", UseColor: false})
	require.NoError(t, err)

	assert.Contains(t, out, "sample")
	assert.Contains(t, out, "m.Start")
	assert.Contains(t, out, "A.move")
	assert.Contains(t, out, branchChar[:3])
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "out.dot")
	require.NoError(t, WriteFile(NewDotRenderer(), sampleGraph(), nil, file))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")
}
