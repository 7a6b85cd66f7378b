package model

// Message is a model-wide message type. Message variables never hold
// dynamic arrays; boards are rebuilt every iteration.
type Message struct {
	Name      string
	Variables []*Variable
}

// Variable returns the named message variable, or nil.
func (m *Message) Variable(name string) *Variable {
	for _, v := range m.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// ValidVariableName reports whether name is a declared message variable.
func (m *Message) ValidVariableName(name string) bool {
	return m.Variable(name) != nil
}

// TimeUnit names an integer multiple of iterations for use in time
// conditions. Unit is either "iteration" or another declared time unit.
type TimeUnit struct {
	Name      string
	Unit      string
	PeriodRaw string
	Period    int
}
