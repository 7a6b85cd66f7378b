package model

// DepKind labels a dependency edge with what induced it.
type DepKind int

const (
	DepState DepKind = iota
	DepCommunication
	DepData
	DepInit
	DepCondition
	DepVariable
	DepBlank
)

var depKindNames = map[DepKind]string{
	DepState:         "state",
	DepCommunication: "communication",
	DepData:          "data",
	DepInit:          "init",
	DepCondition:     "condition",
	DepVariable:      "variable",
	DepBlank:         "blank",
}

func (k DepKind) String() string {
	if s, ok := depKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Dependency is the payload of a graph edge: a name (state, message or
// variable) plus the kind of ordering it expresses.
type Dependency struct {
	Name string
	Kind DepKind
}

// GraphName returns the label used on rendered graph edges.
func (d *Dependency) GraphName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Kind.String()
}
