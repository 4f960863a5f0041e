// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package workflow_test

import (
	"strings"
	"testing"

	"github.com/flowforge/workflowcore/workflow"
)

func diamondDAGDef() *workflow.WorkflowDefinition {
	agent := func(name string) workflow.AgentConfig {
		return workflow.AgentConfig{
			Name: name, Kind: workflow.KindExpression,
			Expression: "'" + name + "'", OutputKey: name,
		}
	}
	return &workflow.WorkflowDefinition{
		Name: "diamond",
		Agents: []workflow.AgentConfig{
			agent("A"), agent("B"), agent("C"), agent("D"),
		},
		Orchestration: workflow.OrchestrationConfig{
			Mode: workflow.OrchestrationDAG,
			Nodes: []workflow.DAGNodeConfig{
				{Agent: "A"},
				{Agent: "B", DependsOn: []string{"A"}},
				{Agent: "C", DependsOn: []string{"A"}},
				{Agent: "D", DependsOn: []string{"B", "C"}},
			},
		},
	}
}

func TestValidateAcceptsDiamondDAG(t *testing.T) {
	if _, err := workflow.Validate(diamondDAGDef()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsDAGCycle(t *testing.T) {
	def := diamondDAGDef()
	def.Orchestration.Nodes = []workflow.DAGNodeConfig{
		{Agent: "A", DependsOn: []string{"B"}},
		{Agent: "B", DependsOn: []string{"A"}},
		{Agent: "C"}, {Agent: "D"},
	}
	_, err := workflow.Validate(def)
	if err == nil {
		t.Fatal("Validate accepted a cyclic DAG")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Errorf("error %q does not mention a cycle", err.Error())
	}
}

func TestValidateRejectsSelfDependency(t *testing.T) {
	def := diamondDAGDef()
	def.Orchestration.Nodes = []workflow.DAGNodeConfig{
		{Agent: "A", DependsOn: []string{"A"}},
		{Agent: "B"}, {Agent: "C"}, {Agent: "D"},
	}
	if _, err := workflow.Validate(def); err == nil {
		t.Fatal("Validate accepted a self-dependent DAG node")
	}
}

func TestValidateRejectsUnknownDependency(t *testing.T) {
	def := diamondDAGDef()
	def.Orchestration.Nodes[1].DependsOn = []string{"does-not-exist"}
	_, err := workflow.Validate(def)
	if err == nil {
		t.Fatal("Validate accepted a dependency on an undeclared dag node")
	}
	var verr *workflow.ValidationError
	if !asValidationError(err, &verr) {
		t.Fatalf("expected *workflow.ValidationError, got %T", err)
	}
	if !strings.Contains(verr.Path, "depends_on") {
		t.Errorf("error path %q does not point at depends_on", verr.Path)
	}
}

func TestValidateRejectsUnknownOrchestrationReference(t *testing.T) {
	def := &workflow.WorkflowDefinition{
		Name: "w",
		Agents: []workflow.AgentConfig{
			{Name: "a", Kind: workflow.KindExpression, Expression: "1", OutputKey: "out"},
		},
		Orchestration: workflow.OrchestrationConfig{
			Mode:   workflow.OrchestrationSequential,
			Agents: []string{"missing"},
		},
	}
	if _, err := workflow.Validate(def); err == nil {
		t.Fatal("Validate accepted an orchestration referencing an undeclared agent")
	}
}

func TestValidateRejectsEmptyAgents(t *testing.T) {
	def := &workflow.WorkflowDefinition{
		Name:          "empty",
		Orchestration: workflow.OrchestrationConfig{Mode: workflow.OrchestrationSequential},
	}
	if _, err := workflow.Validate(def); err == nil {
		t.Fatal("Validate accepted a workflow with no agents")
	}
}

func TestValidateRejectsDuplicateAgentName(t *testing.T) {
	def := &workflow.WorkflowDefinition{
		Name: "dup",
		Agents: []workflow.AgentConfig{
			{Name: "a", Kind: workflow.KindExpression, Expression: "1", OutputKey: "out"},
			{Name: "a", Kind: workflow.KindExpression, Expression: "2", OutputKey: "out2"},
		},
		Orchestration: workflow.OrchestrationConfig{Mode: workflow.OrchestrationSequential, Agents: []string{"a"}},
	}
	if _, err := workflow.Validate(def); err == nil {
		t.Fatal("Validate accepted duplicate agent names")
	}
}

func TestValidateRejectsEmptyCompositeSubAgents(t *testing.T) {
	def := &workflow.WorkflowDefinition{
		Name: "empty-composite",
		Agents: []workflow.AgentConfig{
			{Name: "seq", Kind: workflow.KindSequential},
		},
		Orchestration: workflow.OrchestrationConfig{Mode: workflow.OrchestrationSequential, Agents: []string{"seq"}},
	}
	if _, err := workflow.Validate(def); err == nil {
		t.Fatal("Validate accepted a composite agent with no sub_agents")
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	def := &workflow.WorkflowDefinition{
		Name: "bad-kind",
		Agents: []workflow.AgentConfig{
			{Name: "a", Kind: "mystery"},
		},
		Orchestration: workflow.OrchestrationConfig{Mode: workflow.OrchestrationSequential, Agents: []string{"a"}},
	}
	if _, err := workflow.Validate(def); err == nil {
		t.Fatal("Validate accepted an unknown agent kind")
	}
}

func asValidationError(err error, target **workflow.ValidationError) bool {
	verr, ok := err.(*workflow.ValidationError)
	if !ok {
		return false
	}
	*target = verr
	return true
}
