package model

// Agent is a finite state machine with memory: a name, a set of memory
// variables and a set of transition functions. The start state and end
// states are derived from the transition functions during validation.
type Agent struct {
	Name      string
	Variables []*Variable
	Functions []*Function

	StartState string
	EndStates  StringSet
}

// NewAgent creates an agent with the given name.
func NewAgent(name string) *Agent {
	return &Agent{Name: name, EndStates: make(StringSet)}
}

// Variable returns the named memory variable, or nil.
func (a *Agent) Variable(name string) *Variable {
	for _, v := range a.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// ValidVariableName reports whether name is a declared memory variable.
func (a *Agent) ValidVariableName(name string) bool {
	return a.Variable(name) != nil
}

// VariableNames returns the agent memory variable names in declaration
// order.
func (a *Agent) VariableNames() []string {
	names := make([]string, len(a.Variables))
	for i, v := range a.Variables {
		names[i] = v.Name
	}
	return names
}

// FindStartEndStates derives the start state and the end state set from
// the transition functions. The start state is the unique current-state
// label that never appears as a next state; end states are next-state
// labels that never appear as a current state. The returned slice holds
// every start candidate so callers can report multiples.
func (a *Agent) FindStartEndStates() []string {
	current := make(StringSet)
	next := make(StringSet)
	for _, f := range a.Functions {
		current.Add(f.CurrentState)
		next.Add(f.NextState)
	}

	candidates := make(StringSet)
	for s := range current {
		if !next.Has(s) {
			candidates.Add(s)
		}
	}

	a.EndStates = make(StringSet)
	for s := range next {
		if !current.Has(s) {
			a.EndStates.Add(s)
		}
	}

	sorted := candidates.Sorted()
	if len(sorted) == 1 {
		a.StartState = sorted[0]
	} else {
		a.StartState = ""
	}
	return sorted
}
