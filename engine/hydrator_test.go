// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package engine_test

import (
	"testing"

	"github.com/flowforge/workflowcore/engine"
	"github.com/flowforge/workflowcore/workflow"
)

func twoStepSequentialDef() *workflow.WorkflowDefinition {
	return &workflow.WorkflowDefinition{
		Name: "greeter",
		Agents: []workflow.AgentConfig{
			{Name: "double", Kind: workflow.KindExpression, Expression: "n * 2", InputKeys: []string{"n"}, OutputKey: "doubled"},
			{Name: "format", Kind: workflow.KindExpression, Expression: "doubled", InputKeys: []string{"doubled"}, OutputKey: "formatted"},
		},
		Orchestration: workflow.OrchestrationConfig{
			Mode:   workflow.OrchestrationSequential,
			Agents: []string{"double", "format"},
		},
	}
}

func TestHydrateBuildsSequentialTree(t *testing.T) {
	hydrated, err := engine.Hydrate(twoStepSequentialDef())
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if hydrated.Root == nil {
		t.Fatal("expected a non-nil root agent")
	}
	if hydrated.Root.Name() != "greeter.root" {
		t.Errorf("root name = %q, want greeter.root", hydrated.Root.Name())
	}
	if len(hydrated.Agents) != 2 {
		t.Fatalf("got %d built agents, want 2", len(hydrated.Agents))
	}
	if _, ok := hydrated.Agents["double"]; !ok {
		t.Error("expected \"double\" in the built agent map")
	}
	if _, ok := hydrated.Agents["format"]; !ok {
		t.Error("expected \"format\" in the built agent map")
	}
	if len(hydrated.Root.SubAgents()) != 2 {
		t.Fatalf("root has %d sub-agents, want 2", len(hydrated.Root.SubAgents()))
	}
}

func TestHydrateResolvesSubAgentsRegardlessOfDeclarationOrder(t *testing.T) {
	def := &workflow.WorkflowDefinition{
		Name: "nested",
		Agents: []workflow.AgentConfig{
			// Declared before its dependency to exercise the hydrator's
			// fixed-point build loop.
			{Name: "outer", Kind: workflow.KindSequential, SubAgents: []string{"inner"}},
			{Name: "inner", Kind: workflow.KindExpression, Expression: "1", OutputKey: "one"},
		},
		Orchestration: workflow.OrchestrationConfig{
			Mode:   workflow.OrchestrationSequential,
			Agents: []string{"outer"},
		},
	}

	hydrated, err := engine.Hydrate(def)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	outer, ok := hydrated.Agents["outer"]
	if !ok {
		t.Fatal("expected \"outer\" to be built")
	}
	if len(outer.SubAgents()) != 1 || outer.SubAgents()[0].Name() != "inner" {
		t.Fatalf("outer's sub-agents = %v, want [inner]", outer.SubAgents())
	}
}

func TestHydrateRejectsUnresolvableSubAgentCycle(t *testing.T) {
	def := &workflow.WorkflowDefinition{
		Name: "cyclic",
		Agents: []workflow.AgentConfig{
			{Name: "a", Kind: workflow.KindSequential, SubAgents: []string{"b"}},
			{Name: "b", Kind: workflow.KindSequential, SubAgents: []string{"a"}},
		},
		Orchestration: workflow.OrchestrationConfig{Mode: workflow.OrchestrationSequential, Agents: []string{"a"}},
	}
	if _, err := engine.Hydrate(def); err == nil {
		t.Fatal("expected an error for a cyclic sub_agents dependency")
	}
}

func TestHydrateRejectsUnknownAgentKind(t *testing.T) {
	def := &workflow.WorkflowDefinition{
		Name: "bad",
		Agents: []workflow.AgentConfig{
			{Name: "x", Kind: "not_a_real_kind"},
		},
		Orchestration: workflow.OrchestrationConfig{Mode: workflow.OrchestrationSequential, Agents: []string{"x"}},
	}
	if _, err := engine.Hydrate(def); err == nil {
		t.Fatal("expected an error for an unknown agent kind")
	}
}

func TestHydrateRejectsUnknownOrchestrationMode(t *testing.T) {
	def := &workflow.WorkflowDefinition{
		Name: "bad",
		Agents: []workflow.AgentConfig{
			{Name: "x", Kind: workflow.KindExpression, Expression: "1", OutputKey: "one"},
		},
		Orchestration: workflow.OrchestrationConfig{Mode: "not_a_real_mode", Agents: []string{"x"}},
	}
	if _, err := engine.Hydrate(def); err == nil {
		t.Fatal("expected an error for an unknown orchestration mode")
	}
}

func TestHydrateBuildsDAGOrchestration(t *testing.T) {
	def := &workflow.WorkflowDefinition{
		Name: "pipeline",
		Agents: []workflow.AgentConfig{
			{Name: "fetch", Kind: workflow.KindExpression, Expression: "1", OutputKey: "fetched"},
			{Name: "process", Kind: workflow.KindExpression, Expression: "fetched", InputKeys: []string{"fetched"}, OutputKey: "processed"},
		},
		Orchestration: workflow.OrchestrationConfig{
			Mode: workflow.OrchestrationDAG,
			Nodes: []workflow.DAGNodeConfig{
				{Agent: "fetch"},
				{Agent: "process", DependsOn: []string{"fetch"}},
			},
		},
	}

	hydrated, err := engine.Hydrate(def)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if hydrated.Root.Name() != "pipeline.root" {
		t.Errorf("root name = %q, want pipeline.root", hydrated.Root.Name())
	}
	if len(hydrated.Root.SubAgents()) != 2 {
		t.Fatalf("DAG root has %d sub-agents, want 2", len(hydrated.Root.SubAgents()))
	}
}
