package validator

import (
	"fmt"

	"github.com/flame-sim/flame/pkg/model"
)

func functionEntity(agent *model.Agent, f *model.Function) string {
	return fmt.Sprintf("%s.%s (%s -> %s)", agent.Name, f.Name, f.CurrentState, f.NextState)
}

// processMemoryAccess checks the declared read-only and read-write sets
// against agent memory, or promotes every variable to read-write when
// no access block was declared. The promotion keeps the schedule safe
// but serialises the agent; strict mode refuses such functions instead.
func (v *Validator) processMemoryAccess(f *model.Function, agent *model.Agent, entity string) {
	if !f.MemoryAccessInfoAvailable {
		if v.opts.StrictMemoryAccess {
			v.report.Addf(model.ErrMemoryAccessViolation, entity,
				"function declares no memory access information")
			return
		}
		v.opts.Logger.Warn().
			Str("agent", agent.Name).
			Str("function", f.Name).
			Msg("no memory access information, promoting all variables to read-write")
		for _, variable := range agent.Variables {
			f.ReadWriteVars.Add(variable.Name)
		}
		return
	}

	used := make(model.StringSet)
	check := func(name string) {
		if !agent.ValidVariableName(name) {
			v.report.Addf(model.ErrMemoryAccessViolation, entity,
				"memory access variable name is not valid: %q", name)
			return
		}
		if used.Has(name) {
			v.report.Addf(model.ErrMemoryAccessViolation, entity,
				"memory access variable name is a duplicate: %q", name)
			return
		}
		used.Add(name)
	}
	for _, name := range f.ReadOnlyVars.Sorted() {
		check(name)
	}
	for _, name := range f.ReadWriteVars.Sorted() {
		check(name)
	}
}

func (v *Validator) validateIOput(io *model.IOput, agent *model.Agent, entity string) {
	msg := v.m.Message(io.MessageName)
	if msg == nil {
		v.report.Addf(model.ErrInvalidIOput, entity,
			"message name is not valid: %q", io.MessageName)
	}

	if io.Filter != nil {
		v.validateConditionOrFilter(io.Filter, agent, msg, entity)
	}

	if io.Sort != nil {
		if msg == nil {
			v.report.Addf(model.ErrInvalidIOput, entity,
				"cannot validate sort key as the message type is invalid: %q", io.Sort.Key)
		} else if !msg.ValidVariableName(io.Sort.Key) {
			v.report.Addf(model.ErrInvalidIOput, entity,
				"sort key is not a valid message variable: %q", io.Sort.Key)
		}
		if io.Sort.Order != model.SortAscend && io.Sort.Order != model.SortDescend {
			v.report.Addf(model.ErrInvalidIOput, entity,
				"sort order is not 'ascend' or 'descend': %q", io.Sort.Order)
		}
	}

	if io.RandomSet {
		switch io.RandomRaw {
		case "true":
			io.Random = true
		case "false":
			io.Random = false
		default:
			v.report.Addf(model.ErrInvalidIOput, entity,
				"random is not 'true' or 'false': %q", io.RandomRaw)
		}
	}

	if io.Sort != nil && io.Random {
		v.report.Addf(model.ErrInvalidIOput, entity,
			"input cannot be sorted and random too: %q", io.MessageName)
	}
}

func (v *Validator) validateFunction(f *model.Function, agent *model.Agent) {
	entity := functionEntity(agent, f)

	v.processMemoryAccess(f, agent, entity)

	if !nameIsAllowed(f.Name) {
		v.report.Addf(model.ErrInvalidName, entity,
			"function name is not valid: %q", f.Name)
	}
	if !nameIsAllowed(f.CurrentState) {
		v.report.Addf(model.ErrInvalidName, entity,
			"function current state name is not valid: %q", f.CurrentState)
	}
	if !nameIsAllowed(f.NextState) {
		v.report.Addf(model.ErrInvalidName, entity,
			"function next state name is not valid: %q", f.NextState)
	}

	if f.Condition != nil {
		v.validateConditionOrFilter(f.Condition, agent, nil, entity)
	}

	for _, in := range f.Inputs {
		v.validateIOput(in, agent, entity)
	}
	for _, out := range f.Outputs {
		v.validateIOput(out, agent, entity)
	}
}
