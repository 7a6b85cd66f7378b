// Package schedule turns a validated model graph into the ordered task
// list and dependency map consumed by the executor.
package schedule

import (
	"sort"

	"github.com/flame-sim/flame/pkg/graph"
	"github.com/flame-sim/flame/pkg/model"
)

// TaskList is the final, topologically ordered sequence of tasks.
// TaskIDs are dense (0…N−1) with producers before consumers; re-running
// the emitter on the same graph yields identical IDs.
type TaskList struct {
	Tasks []*model.Task
}

// Len returns the number of tasks.
func (tl *TaskList) Len() int { return len(tl.Tasks) }

// Task returns the task with the given ID, or nil.
func (tl *TaskList) Task(id model.TaskID) *model.Task {
	if int(id) >= len(tl.Tasks) {
		return nil
	}
	return tl.Tasks[id]
}

// TaskIDMap relates each task to its direct dependencies: child → the
// parents that must complete first in the current iteration.
type TaskIDMap map[model.TaskID][]model.TaskID

// EmitTaskList levels and orders the model graph into a TaskList plus
// its dependency map. Levels start at 1; within a level tasks order by
// priority (higher first). Reads that are also writes are reported as
// writes only.
func EmitTaskList(mg *graph.ModelGraph) (*TaskList, TaskIDMap, error) {
	g := mg.Graph()

	order, err := g.TopoSort()
	if err != nil {
		return nil, nil, err
	}

	// Smallest level such that every predecessor sits on a smaller one.
	level := make(map[model.VertexID]int, len(order))
	for _, v := range order {
		l := 1
		for _, p := range g.Predecessors(v) {
			if level[p] >= l {
				l = level[p] + 1
			}
		}
		level[v] = l
	}

	sorted := append([]model.VertexID(nil), order...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if level[a] != level[b] {
			return level[a] < level[b]
		}
		return g.Task(a).PriorityLevel > g.Task(b).PriorityLevel
	})

	tl := &TaskList{Tasks: make([]*model.Task, 0, len(sorted))}
	id := make(map[model.VertexID]model.TaskID, len(sorted))
	for i, v := range sorted {
		t := g.Task(v)
		t.ID = model.TaskID(i)
		t.Level = level[v]
		for name := range t.WriteVars {
			delete(t.ReadVars, name)
		}
		id[v] = t.ID
		tl.Tasks = append(tl.Tasks, t)
	}

	deps := make(TaskIDMap, len(sorted))
	seen := make(map[[2]model.TaskID]bool)
	for _, e := range g.Edges() {
		child := id[g.Target(e)]
		parent := id[g.Source(e)]
		// Vertex contraction can leave parallel edges; one dependency
		// per pair is enough.
		if seen[[2]model.TaskID{child, parent}] {
			continue
		}
		seen[[2]model.TaskID{child, parent}] = true
		deps[child] = append(deps[child], parent)
	}
	for child := range deps {
		parents := deps[child]
		sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })
		deps[child] = parents
	}

	return tl, deps, nil
}
