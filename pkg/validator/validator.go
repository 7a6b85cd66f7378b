// Package validator checks a parsed model against the naming, typing
// and structural rules, resolves symbolic condition operators, binds
// variable references and builds the per-agent state graphs. Errors are
// accumulated into a batch report; the validator never stops at the
// first problem.
package validator

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/flame-sim/flame/pkg/graph"
	"github.com/flame-sim/flame/pkg/model"
)

// Options tunes validation policy.
type Options struct {
	// StrictMemoryAccess refuses functions that declare no memory
	// access block instead of promoting every variable to read-write.
	StrictMemoryAccess bool

	Logger zerolog.Logger
}

// Validator runs the validation passes over one model.
type Validator struct {
	m      *model.Model
	opts   Options
	report *model.ValidationReport

	stateGraphs map[string]*graph.StateGraph
}

// New creates a validator for the given model.
func New(m *model.Model, opts Options) *Validator {
	return &Validator{
		m:           m,
		opts:        opts,
		report:      &model.ValidationReport{},
		stateGraphs: make(map[string]*graph.StateGraph),
	}
}

// StateGraph returns the validated state graph of the named agent.
func (v *Validator) StateGraph(agent string) *graph.StateGraph {
	return v.stateGraphs[agent]
}

// Validate runs every pass in order and returns the accumulated report,
// or nil when the model is clean. A clean model is marked validated and
// is read-only from then on.
func (v *Validator) Validate() *model.ValidationReport {
	if v.m.Validated() {
		return nil
	}

	v.validateFunctionFiles()
	v.validateDataTypes()
	v.validateConstants()
	v.validateTimeUnits()
	v.validateAgents()
	v.validateMessages()

	if v.report.HasErrors() {
		return v.report
	}
	v.m.SetValidated()
	return nil
}

func (v *Validator) validateFunctionFiles() {
	for _, name := range v.m.FunctionFiles {
		if !strings.HasSuffix(name, ".cpp") {
			v.report.Addf(model.ErrInvalidFunctionFile, name,
				"function file does not end in '.cpp'")
		}
	}
}

func (v *Validator) validateConstants() {
	v.validateVariables(v.m.Constants, "environment constants", false)
}

// nameIsAllowed accepts names built from letters, digits, underscore
// and dash.
func nameIsAllowed(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}
