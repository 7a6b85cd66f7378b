package model

// VertexID is a dense handle into a graph's vertex arena. Task scratch
// state (last writers, last conditions) records vertices by handle so
// the dependency builder can run without back-pointers.
type VertexID int

// TaskID is the dense identifier assigned by the task emitter.
type TaskID uint64

// TaskKind labels a task with the queue it belongs to and the role it
// plays in the dependency graph.
type TaskKind int

const (
	TaskFunction TaskKind = iota
	TaskCondition
	TaskState
	TaskVariable
	TaskMessage
	TaskMessageSync
	TaskMessageClear
	TaskIOPopWrite
	TaskStartAgent
	TaskFinishAgent
	TaskStartModel
	TaskFinishModel
)

var taskKindNames = map[TaskKind]string{
	TaskFunction:     "function",
	TaskCondition:    "condition",
	TaskState:        "state",
	TaskVariable:     "variable",
	TaskMessage:      "message",
	TaskMessageSync:  "message_sync",
	TaskMessageClear: "message_clear",
	TaskIOPopWrite:   "io_pop_write",
	TaskStartAgent:   "start_agent",
	TaskFinishAgent:  "finish_agent",
	TaskStartModel:   "start_model",
	TaskFinishModel:  "finish_model",
}

func (k TaskKind) String() string {
	if s, ok := taskKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// QueueName maps a task kind to the executor queue consuming it.
func (k TaskKind) QueueName() string {
	switch k {
	case TaskFunction, TaskCondition:
		return "AGENT_FUNCTION"
	case TaskMessageSync, TaskMessageClear:
		return "MB_FUNCTION"
	default:
		return "IO_FUNCTION"
	}
}

// Task is a schedulable unit: an agent function, a promoted condition,
// a message board operation, a population write or a framing vertex.
// One uniform shape covers every kind; unused fields stay empty.
type Task struct {
	ID         TaskID
	ParentName string
	Name       string
	Kind       TaskKind

	Level         int
	PriorityLevel int

	ReadVars     StringSet
	ReadOnlyVars StringSet
	WriteVars    StringSet

	InputMessages  StringSet
	OutputMessages StringSet

	HasCondition bool

	// Builder scratch: per-variable last writing and last reading
	// vertices and the condition vertices dominating this task. Valid
	// only while the dependency graph is being built.
	LastWrites     map[string]VertexSet
	LastReads      map[string]VertexSet
	LastConditions VertexSet
}

// NewTask creates a task of the given kind with empty sets.
func NewTask(parentName, name string, kind TaskKind) *Task {
	return &Task{
		ParentName:     parentName,
		Name:           name,
		Kind:           kind,
		ReadVars:       make(StringSet),
		ReadOnlyVars:   make(StringSet),
		WriteVars:      make(StringSet),
		InputMessages:  make(StringSet),
		OutputMessages: make(StringSet),
		LastWrites:     make(map[string]VertexSet),
		LastReads:      make(map[string]VertexSet),
		LastConditions: make(VertexSet),
	}
}

// FullName is the task's qualified name: parent.name.
func (t *Task) FullName() string {
	return t.ParentName + "." + t.Name
}

// AddReadVariable records a variable this task reads.
func (t *Task) AddReadVariable(name string) { t.ReadVars.Add(name) }

// AddReadOnlyVariable records a variable this task reads but never writes.
func (t *Task) AddReadOnlyVariable(name string) { t.ReadOnlyVars.Add(name) }

// AddWriteVariable records a variable this task writes.
func (t *Task) AddWriteVariable(name string) { t.WriteVars.Add(name) }

// LastWritesFor returns (creating if absent) the vertex set of last
// writers of the named variable.
func (t *Task) LastWritesFor(name string) VertexSet {
	set, ok := t.LastWrites[name]
	if !ok {
		set = make(VertexSet)
		t.LastWrites[name] = set
	}
	return set
}

// ClearLastWrites empties the last-writer set of the named variable.
func (t *Task) ClearLastWrites(name string) {
	if set, ok := t.LastWrites[name]; ok {
		for v := range set {
			delete(set, v)
		}
	}
}

// MergeLastWrites unions another task's last-writer sets into this one.
func (t *Task) MergeLastWrites(from *Task) {
	for name, set := range from.LastWrites {
		t.LastWritesFor(name).AddAll(set)
	}
}

// LastReadsFor returns (creating if absent) the vertex set of last
// readers of the named variable.
func (t *Task) LastReadsFor(name string) VertexSet {
	set, ok := t.LastReads[name]
	if !ok {
		set = make(VertexSet)
		t.LastReads[name] = set
	}
	return set
}

// ClearLastReads empties the last-reader set of the named variable.
func (t *Task) ClearLastReads(name string) {
	if set, ok := t.LastReads[name]; ok {
		for v := range set {
			delete(set, v)
		}
	}
}

// MergeLastReads unions another task's last-reader sets into this one.
func (t *Task) MergeLastReads(from *Task) {
	for name, set := range from.LastReads {
		t.LastReadsFor(name).AddAll(set)
	}
}
