// Package model defines the domain model and error types for the FLAME
// model compiler: variables, data types, messages, agents, transition
// functions, conditions, tasks and dependency labels.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Graph-level failures are fatal at first occurrence; validation errors
// are accumulated into a ValidationReport instead.
var (
	ErrCyclicStateGraph  = errors.New("cyclic state graph")
	ErrCyclicModelGraph  = errors.New("cyclic model graph")
	ErrModelNotValidated = errors.New("model has not been validated")
	ErrVertexNotFound    = errors.New("vertex not found")
	ErrEdgeNotFound      = errors.New("edge not found")
)

// ErrorKind classifies a validation error.
type ErrorKind string

const (
	ErrInvalidName           ErrorKind = "invalid name"
	ErrDuplicateName         ErrorKind = "duplicate name"
	ErrInvalidType           ErrorKind = "invalid type"
	ErrInvalidArraySize      ErrorKind = "invalid array size"
	ErrInvalidConstant       ErrorKind = "invalid constant"
	ErrInvalidTimeUnit       ErrorKind = "invalid time unit"
	ErrInvalidCondition      ErrorKind = "invalid condition"
	ErrInvalidIOput          ErrorKind = "invalid input/output"
	ErrMemoryAccessViolation ErrorKind = "memory access violation"
	ErrNoStartState          ErrorKind = "no start state"
	ErrMultipleStartStates   ErrorKind = "multiple start states"
	ErrUnconditionalBranch   ErrorKind = "unconditional branch"
	ErrIncludedModelProblem  ErrorKind = "included model problem"
	ErrInvalidFunctionFile   ErrorKind = "invalid function file"
	ErrGraphProblem          ErrorKind = "graph problem"
)

// ValidationError is a single validation diagnostic. Entity names the
// owning model element (agent, function triple, variable).
type ValidationError struct {
	Kind    ErrorKind
	Entity  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Entity, e.Message)
}

// ValidationReport is the batch of diagnostics produced by a validation
// run. A non-empty report means the model is unusable.
type ValidationReport struct {
	Errors []*ValidationError
}

// Addf appends a formatted diagnostic.
func (r *ValidationReport) Addf(kind ErrorKind, entity, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{
		Kind:    kind,
		Entity:  entity,
		Message: fmt.Sprintf(format, args...),
	})
}

// Add appends an existing diagnostic.
func (r *ValidationReport) Add(err *ValidationError) {
	r.Errors = append(r.Errors, err)
}

// Merge appends every diagnostic from other.
func (r *ValidationReport) Merge(other *ValidationReport) {
	r.Errors = append(r.Errors, other.Errors...)
}

// HasErrors reports whether any diagnostic was recorded.
func (r *ValidationReport) HasErrors() bool { return len(r.Errors) > 0 }

// Len returns the number of diagnostics.
func (r *ValidationReport) Len() int { return len(r.Errors) }

func (r *ValidationReport) Error() string {
	if len(r.Errors) == 0 {
		return "validation failed"
	}
	lines := make([]string, 0, len(r.Errors)+1)
	for _, e := range r.Errors {
		lines = append(lines, e.Error())
	}
	plural := ""
	if len(r.Errors) > 1 {
		plural = "s"
	}
	lines = append(lines, fmt.Sprintf("%d error%s found", len(r.Errors), plural))
	return strings.Join(lines, "\n")
}

// GraphError is a fatal graph-building failure naming the offending
// edge or vertex.
type GraphError struct {
	Agent string
	Edge  string
	Err   error
}

func (e *GraphError) Error() string {
	msg := e.Err.Error()
	if e.Agent != "" {
		msg = "agent " + e.Agent + ": " + msg
	}
	if e.Edge != "" {
		msg += ": " + e.Edge
	}
	return msg
}

func (e *GraphError) Unwrap() error { return e.Err }
