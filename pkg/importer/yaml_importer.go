// Package importer loads declarative model documents into the domain
// model. The document mirrors the model source tree: name, environment
// (constants, data types, time units, function files), messages and
// agents with their transition functions.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/flame-sim/flame/pkg/model"
)

// YAMLModel is the top-level model document.
type YAMLModel struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Includes    []string `yaml:"includes,omitempty"`

	Environment YAMLEnvironment `yaml:"environment,omitempty"`
	Messages    []YAMLMessage   `yaml:"messages,omitempty"`
	Agents      []YAMLAgent     `yaml:"agents,omitempty"`
}

// YAMLEnvironment groups the model-wide declarations.
type YAMLEnvironment struct {
	Constants     []YAMLVariable `yaml:"constants,omitempty"`
	DataTypes     []YAMLDataType `yaml:"data_types,omitempty"`
	TimeUnits     []YAMLTimeUnit `yaml:"time_units,omitempty"`
	FunctionFiles []string       `yaml:"function_files,omitempty"`
}

// YAMLVariable is a variable declaration. Type may carry an _array
// suffix and Name a [N] suffix; both are resolved by the validator.
type YAMLVariable struct {
	Type     string `yaml:"type"`
	Name     string `yaml:"name"`
	Constant string `yaml:"constant,omitempty"`
}

// YAMLDataType is a user ADT declaration.
type YAMLDataType struct {
	Name      string         `yaml:"name"`
	Variables []YAMLVariable `yaml:"variables,omitempty"`
}

// YAMLTimeUnit is a time unit declaration; period stays a string until
// validation.
type YAMLTimeUnit struct {
	Name   string `yaml:"name"`
	Unit   string `yaml:"unit"`
	Period string `yaml:"period"`
}

// YAMLMessage is a message type declaration.
type YAMLMessage struct {
	Name      string         `yaml:"name"`
	Variables []YAMLVariable `yaml:"variables,omitempty"`
}

// YAMLAgent is an agent declaration.
type YAMLAgent struct {
	Name      string         `yaml:"name"`
	Memory    []YAMLVariable `yaml:"memory,omitempty"`
	Functions []YAMLFunction `yaml:"functions,omitempty"`
}

// YAMLFunction is a transition function declaration.
type YAMLFunction struct {
	Name         string          `yaml:"name"`
	CurrentState string          `yaml:"current_state"`
	NextState    string          `yaml:"next_state"`
	Condition    *YAMLCondition  `yaml:"condition,omitempty"`
	Inputs       []YAMLIOput     `yaml:"inputs,omitempty"`
	Outputs      []YAMLIOput     `yaml:"outputs,omitempty"`
	MemoryAccess *YAMLMemoryInfo `yaml:"memory_access,omitempty"`
}

// YAMLMemoryInfo declares a function's memory access sets.
type YAMLMemoryInfo struct {
	ReadOnly  []string `yaml:"read_only,omitempty"`
	ReadWrite []string `yaml:"read_write,omitempty"`
}

// YAMLIOput is a message input or output.
type YAMLIOput struct {
	MessageName string         `yaml:"message_name"`
	Filter      *YAMLCondition `yaml:"filter,omitempty"`
	Sort        *YAMLSort      `yaml:"sort,omitempty"`
	Random      string         `yaml:"random,omitempty"`
}

// YAMLSort orders a message input.
type YAMLSort struct {
	Key   string `yaml:"key"`
	Order string `yaml:"order"`
}

// YAMLTime is a time condition.
type YAMLTime struct {
	Period   string `yaml:"period"`
	Phase    string `yaml:"phase"`
	Duration string `yaml:"duration,omitempty"`
}

// YAMLCondition is a condition node. Lhs and rhs are either both scalar
// operands or both nested condition mappings; the validator rejects
// mixed sides.
type YAMLCondition struct {
	Not  *YAMLCondition `yaml:"not,omitempty"`
	Time *YAMLTime      `yaml:"time,omitempty"`
	LHS  yaml.Node      `yaml:"lhs,omitempty"`
	Op   string         `yaml:"op,omitempty"`
	RHS  yaml.Node      `yaml:"rhs,omitempty"`
}

// Importer loads model documents from disk, resolving includes.
type Importer struct{}

// New creates an importer.
func New() *Importer {
	return &Importer{}
}

// Load reads the model document at path and every included model, and
// returns the merged domain model. The model is not yet validated.
func (i *Importer) Load(path string) (*model.Model, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving model path: %w", err)
	}

	m := model.NewModel()
	m.Path = abs
	if err := i.load(abs, m, true, map[string]bool{abs: true}); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse converts one document without touching the filesystem; includes
// are rejected.
func (i *Importer) Parse(data []byte) (*model.Model, error) {
	var doc YAMLModel
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse model document: %w", err)
	}
	if len(doc.Includes) > 0 {
		return nil, &model.ValidationError{
			Kind:    model.ErrIncludedModelProblem,
			Entity:  doc.Name,
			Message: "includes are not supported when parsing from memory",
		}
	}
	m := model.NewModel()
	mergeDocument(&doc, m, true)
	return m, nil
}

func (i *Importer) load(abs string, m *model.Model, root bool, seen map[string]bool) error {
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("reading model file: %w", err)
	}

	var doc YAMLModel
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse model document %s: %w", abs, err)
	}

	mergeDocument(&doc, m, root)

	dir := filepath.Dir(abs)
	for _, inc := range doc.Includes {
		incPath := inc
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(dir, incPath)
		}
		if !validIncludeExtension(incPath) {
			return &model.ValidationError{
				Kind:    model.ErrIncludedModelProblem,
				Entity:  inc,
				Message: "included model does not have a valid extension",
			}
		}
		if seen[incPath] || !m.AddIncludedModel(incPath) {
			return &model.ValidationError{
				Kind:    model.ErrIncludedModelProblem,
				Entity:  inc,
				Message: "duplicate included model",
			}
		}
		seen[incPath] = true
		if _, err := os.Stat(incPath); err != nil {
			return &model.ValidationError{
				Kind:    model.ErrIncludedModelProblem,
				Entity:  inc,
				Message: "included model file not found",
			}
		}
		if err := i.load(incPath, m, false, seen); err != nil {
			return err
		}
	}
	return nil
}

func validIncludeExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".yaml", ".yml":
		return true
	}
	return false
}

// mergeDocument appends a document's declarations to the model. Only
// the root document contributes the model identity.
func mergeDocument(doc *YAMLModel, m *model.Model, root bool) {
	if root {
		m.Name = doc.Name
		m.Version = doc.Version
		m.Author = doc.Author
		m.Description = doc.Description
	}

	m.FunctionFiles = append(m.FunctionFiles, doc.Environment.FunctionFiles...)

	for _, c := range doc.Environment.Constants {
		m.Constants = append(m.Constants, convertVariable(c))
	}
	for _, dt := range doc.Environment.DataTypes {
		converted := &model.DataType{Name: dt.Name}
		for _, v := range dt.Variables {
			converted.Variables = append(converted.Variables, convertVariable(v))
		}
		m.DataTypes = append(m.DataTypes, converted)
	}
	for _, tu := range doc.Environment.TimeUnits {
		m.TimeUnits = append(m.TimeUnits, &model.TimeUnit{
			Name:      tu.Name,
			Unit:      tu.Unit,
			PeriodRaw: tu.Period,
		})
	}
	for _, msg := range doc.Messages {
		converted := &model.Message{Name: msg.Name}
		for _, v := range msg.Variables {
			converted.Variables = append(converted.Variables, convertVariable(v))
		}
		m.Messages = append(m.Messages, converted)
	}
	for _, agent := range doc.Agents {
		m.Agents = append(m.Agents, convertAgent(agent))
	}
}

func convertVariable(v YAMLVariable) *model.Variable {
	return &model.Variable{
		Type:        v.Type,
		Name:        v.Name,
		ConstantRaw: v.Constant,
		ConstantSet: v.Constant != "",
	}
}

func convertAgent(a YAMLAgent) *model.Agent {
	agent := model.NewAgent(a.Name)
	for _, v := range a.Memory {
		agent.Variables = append(agent.Variables, convertVariable(v))
	}
	for _, f := range a.Functions {
		agent.Functions = append(agent.Functions, convertFunction(f))
	}
	return agent
}

func convertFunction(f YAMLFunction) *model.Function {
	fn := model.NewFunction(f.Name, f.CurrentState, f.NextState)
	if f.Condition != nil {
		fn.Condition = convertCondition(f.Condition)
	}
	for _, in := range f.Inputs {
		fn.Inputs = append(fn.Inputs, convertIOput(in))
	}
	for _, out := range f.Outputs {
		fn.Outputs = append(fn.Outputs, convertIOput(out))
	}
	if f.MemoryAccess != nil {
		fn.MemoryAccessInfoAvailable = true
		for _, name := range f.MemoryAccess.ReadOnly {
			fn.ReadOnlyVars.Add(name)
		}
		for _, name := range f.MemoryAccess.ReadWrite {
			fn.ReadWriteVars.Add(name)
		}
	}
	return fn
}

func convertIOput(io YAMLIOput) *model.IOput {
	converted := &model.IOput{
		MessageName: io.MessageName,
		RandomRaw:   io.Random,
		RandomSet:   io.Random != "",
	}
	if io.Filter != nil {
		converted.Filter = convertCondition(io.Filter)
	}
	if io.Sort != nil {
		converted.Sort = &model.Sort{Key: io.Sort.Key, Order: io.Sort.Order}
	}
	return converted
}

// convertCondition maps a YAML condition node onto the domain tree. A
// node with mismatched lhs/rhs shapes converts to an empty condition,
// which the validator reports.
func convertCondition(c *YAMLCondition) *model.Condition {
	if c.Not != nil {
		inner := convertCondition(c.Not)
		inner.Not = true
		return inner
	}
	if c.Time != nil {
		return &model.Condition{Time: &model.TimeCondition{
			Period:      c.Time.Period,
			PhaseRaw:    c.Time.Phase,
			DurationRaw: c.Time.Duration,
			HasDuration: c.Time.Duration != "",
		}}
	}

	lhsScalar := c.LHS.Kind == yaml.ScalarNode
	rhsScalar := c.RHS.Kind == yaml.ScalarNode
	lhsMapping := c.LHS.Kind == yaml.MappingNode
	rhsMapping := c.RHS.Kind == yaml.MappingNode

	switch {
	case lhsScalar && rhsScalar:
		return &model.Condition{Values: &model.ValuesCondition{
			Op:  c.Op,
			LHS: model.Operand{Raw: c.LHS.Value},
			RHS: model.Operand{Raw: c.RHS.Value},
		}}
	case lhsMapping && rhsMapping:
		var lhs, rhs YAMLCondition
		nested := &model.NestedCondition{Op: c.Op}
		if err := c.LHS.Decode(&lhs); err == nil {
			nested.LHS = convertCondition(&lhs)
		}
		if err := c.RHS.Decode(&rhs); err == nil {
			nested.RHS = convertCondition(&rhs)
		}
		return &model.Condition{Nested: nested}
	default:
		return &model.Condition{}
	}
}
