package validator

import (
	"strings"

	"github.com/flame-sim/flame/pkg/graph"
	"github.com/flame-sim/flame/pkg/model"
)

func (v *Validator) validateAgents() {
	for _, agent := range v.m.Agents {
		v.validateAgent(agent)
	}
}

func (v *Validator) validateAgent(agent *model.Agent) {
	if !nameIsAllowed(agent.Name) {
		v.report.Addf(model.ErrInvalidName, agent.Name,
			"agent name is not valid")
	}
	for _, other := range v.m.Agents {
		if other != agent && other.Name == agent.Name {
			v.report.Addf(model.ErrDuplicateName, agent.Name,
				"duplicate agent name")
		}
	}

	v.validateVariables(agent.Variables, "agent "+agent.Name, true)

	for _, f := range agent.Functions {
		v.validateFunction(f, agent)
	}

	v.validateAgentStateGraph(agent)
}

// validateAgentStateGraph derives the start and end states, builds the
// state graph and checks it for cycles and unconditional branches. The
// graph is kept for dependency analysis.
func (v *Validator) validateAgentStateGraph(agent *model.Agent) {
	candidates := agent.FindStartEndStates()
	switch {
	case len(candidates) == 0:
		v.report.Addf(model.ErrNoStartState, agent.Name,
			"agent doesn't have a start state")
		return
	case len(candidates) > 1:
		v.report.Addf(model.ErrMultipleStartStates, agent.Name,
			"agent has multiple possible start states: %s",
			strings.Join(candidates, ", "))
		return
	}

	sg := graph.NewStateGraph(agent.Name)
	sg.Generate(agent.Functions, agent.StartState, agent.EndStates)

	if err := sg.CheckCycles(); err != nil {
		v.report.Addf(model.ErrGraphProblem, agent.Name, "%s", err.Error())
		return
	}
	if verr := sg.CheckFunctionConditions(); verr != nil {
		v.report.Add(verr)
		return
	}

	v.stateGraphs[agent.Name] = sg
}

func (v *Validator) validateMessages() {
	for _, msg := range v.m.Messages {
		if !nameIsAllowed(msg.Name) {
			v.report.Addf(model.ErrInvalidName, msg.Name,
				"message name is not valid")
		}
		for _, other := range v.m.Messages {
			if other != msg && other.Name == msg.Name {
				v.report.Addf(model.ErrDuplicateName, msg.Name,
					"duplicate message name")
			}
		}
		v.validateVariables(msg.Variables, "message "+msg.Name, false)
	}
}
