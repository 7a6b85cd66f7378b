package model

// Model is the root container for a parsed simulation model. Entities
// are created during parse, mutated only by the validator and the graph
// builders, and are read-only once Validated returns true.
type Model struct {
	Name        string
	Version     string
	Author      string
	Description string

	// Path is the absolute path to the model document.
	Path string

	IncludedModels []string
	FunctionFiles  []string

	Constants []*Variable
	DataTypes []*DataType
	TimeUnits []*TimeUnit
	Agents    []*Agent
	Messages  []*Message

	allowedDataTypes []string
	validated        bool
}

// NewModel creates an empty model with the fundamental data types
// pre-registered.
func NewModel() *Model {
	m := &Model{}
	m.allowedDataTypes = append(m.allowedDataTypes, FundamentalTypes...)
	return m
}

// AddIncludedModel records a sub-model path; returns false when the
// path is already present.
func (m *Model) AddIncludedModel(path string) bool {
	for _, p := range m.IncludedModels {
		if p == path {
			return false
		}
	}
	m.IncludedModels = append(m.IncludedModels, path)
	return true
}

// AllowedDataTypes returns the currently registered type names:
// fundamentals plus every validated ADT.
func (m *Model) AllowedDataTypes() []string { return m.allowedDataTypes }

// AddAllowedDataType registers a validated ADT name as usable.
func (m *Model) AddAllowedDataType(name string) {
	m.allowedDataTypes = append(m.allowedDataTypes, name)
}

// IsAllowedDataType reports whether name is a registered type.
func (m *Model) IsAllowedDataType(name string) bool {
	for _, t := range m.allowedDataTypes {
		if t == name {
			return true
		}
	}
	return false
}

// Agent returns the named agent, or nil.
func (m *Model) Agent(name string) *Agent {
	for _, a := range m.Agents {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Message returns the named message, or nil.
func (m *Model) Message(name string) *Message {
	for _, msg := range m.Messages {
		if msg.Name == name {
			return msg
		}
	}
	return nil
}

// DataType returns the named ADT, or nil.
func (m *Model) DataType(name string) *DataType {
	for _, dt := range m.DataTypes {
		if dt.Name == name {
			return dt
		}
	}
	return nil
}

// Validated reports whether the model passed validation.
func (m *Model) Validated() bool { return m.validated }

// SetValidated marks the model read-only. Called by the validator once
// the report is clean.
func (m *Model) SetValidated() { m.validated = true }
