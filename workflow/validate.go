// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate transforms a raw, parsed [WorkflowDefinition] into a fully
// validated one (spec §4.1). It runs, in order: a struct-tag shape pass
// (required fields, non-empty slices), kind-specific required-field checks,
// agent-name uniqueness, and all cross-references — including, for `dag`
// orchestration, Kahn's algorithm for acyclicity. The first problem
// encountered is reported as a [ValidationError] scoped to a field path like
// `orchestration.nodes[2].depends_on[0]`.
func Validate(def *WorkflowDefinition) (*WorkflowDefinition, error) {
	if err := structValidator.Struct(def); err != nil {
		return nil, &ValidationError{Path: "", Reason: err.Error()}
	}

	if len(def.Agents) == 0 {
		return nil, &ValidationError{Path: "agents", Reason: "must declare at least one agent"}
	}

	seen := make(map[string]struct{}, len(def.Agents))
	for i, a := range def.Agents {
		path := fmt.Sprintf("agents[%d]", i)
		if _, dup := seen[a.Name]; dup {
			return nil, &ValidationError{Path: path + ".name", Reason: fmt.Sprintf("duplicate agent name %q", a.Name)}
		}
		seen[a.Name] = struct{}{}

		if err := validateAgentKind(path, a); err != nil {
			return nil, err
		}
	}

	if err := validateOrchestration(def, seen); err != nil {
		return nil, err
	}

	return def, nil
}

// validateAgentKind enforces the kind-specific required fields named in
// spec §3 AgentConfig.
func validateAgentKind(path string, a AgentConfig) error {
	switch a.Kind {
	case KindModel:
		if a.ModelID == "" {
			return &ValidationError{Path: path + ".model_id", Reason: "model agent requires model_id"}
		}
		if a.Instruction == "" {
			return &ValidationError{Path: path + ".instruction", Reason: "model agent requires instruction"}
		}
		if a.OutputKey == "" {
			return &ValidationError{Path: path + ".output_key", Reason: "model agent requires output_key"}
		}

	case KindCode:
		if a.FunctionPath == "" {
			return &ValidationError{Path: path + ".function", Reason: "code agent requires function"}
		}
		if a.OutputKey == "" {
			return &ValidationError{Path: path + ".output_key", Reason: "code agent requires output_key"}
		}

	case KindExpression:
		if a.Expression == "" {
			return &ValidationError{Path: path + ".expression", Reason: "expression agent requires expression"}
		}
		if a.OutputKey == "" {
			return &ValidationError{Path: path + ".output_key", Reason: "expression agent requires output_key"}
		}

	case KindTool:
		if a.ToolName == "" {
			return &ValidationError{Path: path + ".tool", Reason: "tool agent requires tool"}
		}
		if a.OutputKey == "" {
			return &ValidationError{Path: path + ".output_key", Reason: "tool agent requires output_key"}
		}

	case KindSequential, KindParallel, KindLoop:
		if len(a.SubAgents) == 0 {
			return &ValidationError{Path: path + ".sub_agents", Reason: fmt.Sprintf("%s agent requires a non-empty sub_agents", a.Kind)}
		}

	default:
		return &ValidationError{Path: path + ".kind", Reason: fmt.Sprintf("unknown agent kind %q", a.Kind)}
	}

	return nil
}

// validateOrchestration enforces the mode-specific required fields, checks
// every referenced agent name exists, and (for dag mode) verifies
// acyclicity with Kahn's algorithm.
func validateOrchestration(def *WorkflowDefinition, names map[string]struct{}) error {
	orch := def.Orchestration
	const base = "orchestration"

	requireKnown := func(path, name string) error {
		if _, ok := names[name]; !ok {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("references undeclared agent %q", name)}
		}
		return nil
	}

	switch orch.Mode {
	case OrchestrationSequential, OrchestrationParallel, OrchestrationLoop, OrchestrationLLMRouted:
		if len(orch.Agents) == 0 {
			return &ValidationError{Path: base + ".agents", Reason: fmt.Sprintf("%s orchestration requires a non-empty agents list", orch.Mode)}
		}
		for i, name := range orch.Agents {
			if err := requireKnown(fmt.Sprintf("%s.agents[%d]", base, i), name); err != nil {
				return err
			}
		}
		if orch.Mode == OrchestrationLLMRouted && orch.Router == "" {
			return &ValidationError{Path: base + ".router", Reason: "llm_routed orchestration requires router"}
		}

	case OrchestrationReAct:
		if orch.Agent == "" {
			return &ValidationError{Path: base + ".agent", Reason: "react orchestration requires agent"}
		}
		if err := requireKnown(base+".agent", orch.Agent); err != nil {
			return err
		}

	case OrchestrationDAG:
		if len(orch.Nodes) == 0 {
			return &ValidationError{Path: base + ".nodes", Reason: "dag orchestration requires a non-empty nodes list"}
		}
		return validateDAG(base, orch.Nodes, names)

	default:
		return &ValidationError{Path: base + ".mode", Reason: fmt.Sprintf("unknown orchestration mode %q", orch.Mode)}
	}

	return nil
}

// validateDAG checks every node references a declared agent and every
// depends_on references a declared node, then runs Kahn's algorithm: if any
// node remains unprocessed once the queue of zero-in-degree nodes empties,
// a cycle exists (a self-referencing node is reported the same way — its
// in-degree can never reach zero). The first cycle/missing-dependency
// encountered is reported.
func validateDAG(base string, nodes []DAGNodeConfig, agentNames map[string]struct{}) error {
	nodeNames := make(map[string]struct{}, len(nodes))
	for i, n := range nodes {
		path := fmt.Sprintf("%s.nodes[%d]", base, i)
		if _, ok := agentNames[n.Agent]; !ok {
			return &ValidationError{Path: path + ".agent", Reason: fmt.Sprintf("references undeclared agent %q", n.Agent)}
		}
		if _, dup := nodeNames[n.Agent]; dup {
			return &ValidationError{Path: path + ".agent", Reason: fmt.Sprintf("duplicate dag node %q", n.Agent)}
		}
		nodeNames[n.Agent] = struct{}{}
	}

	for i, n := range nodes {
		for j, dep := range n.DependsOn {
			path := fmt.Sprintf("%s.nodes[%d].depends_on[%d]", base, i, j)
			if dep == n.Agent {
				return &ValidationError{Path: path, Reason: fmt.Sprintf("node %q depends on itself", n.Agent)}
			}
			if _, ok := nodeNames[dep]; !ok {
				return &ValidationError{Path: path, Reason: fmt.Sprintf("depends on undeclared dag node %q", dep)}
			}
		}
	}

	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		inDegree[n.Agent] += len(n.DependsOn)
		for _, dep := range n.DependsOn {
			dependents[dep] = append(dependents[dep], n.Agent)
		}
	}

	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n.Agent] == 0 {
			queue = append(queue, n.Agent)
		}
	}

	processed := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		processed++
		for _, next := range dependents[cur] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if processed != len(nodes) {
		return &ValidationError{Path: base + ".nodes", Reason: "dag contains a cycle"}
	}

	return nil
}
