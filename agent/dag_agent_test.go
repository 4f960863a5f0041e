// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_test

import (
	"context"
	"testing"

	"github.com/flowforge/workflowcore/agent"
	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

// namedExpr builds an expression agent that writes its own name as a
// string literal to outputKey, independent of any input state.
func namedExpr(t *testing.T, name string) types.Agent {
	t.Helper()
	a, err := agent.NewExpressionAgent(name, "'"+name+"'", nil, name)
	if err != nil {
		t.Fatalf("NewExpressionAgent(%s): %v", name, err)
	}
	return a
}

// TestDAGAgentDiamondOrdering exercises spec S2: A, B/C depend on A, D
// depends on B and C. B and C must both arrive after A and before D; D must
// observe all three predecessor keys.
func TestDAGAgentDiamondOrdering(t *testing.T) {
	children := map[string]types.Agent{
		"A": namedExpr(t, "A"),
		"B": namedExpr(t, "B"),
		"C": namedExpr(t, "C"),
	}
	dAgent, err := agent.NewExpressionAgent("D", "A + B + C", []string{"A", "B", "C"}, "D")
	if err != nil {
		t.Fatalf("NewExpressionAgent(D): %v", err)
	}
	children["D"] = dAgent

	dependsOn := map[string][]string{
		"A": nil,
		"B": {"A"},
		"C": {"A"},
		"D": {"B", "C"},
	}
	order := []string{"A", "B", "C", "D"}

	dag := agent.NewDAGAgent("diamond", children, dependsOn, order)
	ictx := newInvocationContext(dag, map[string]any{})

	position := map[string]int{}
	i := 0
	for ev, runErr := range dag.Execute(context.Background(), ictx) {
		if runErr != nil {
			t.Fatalf("unexpected scheduling error: %v", runErr)
		}
		if ev.IsError() {
			t.Fatalf("unexpected error event from %s: %s", ev.Author, ev.ErrorMessage)
		}
		position[ev.Author] = i
		i++
		for k, v := range ev.Actions.StateDelta {
			ictx.Session.State()[k] = v
		}
	}

	if position["A"] >= position["B"] {
		t.Errorf("A (pos %d) did not precede B (pos %d)", position["A"], position["B"])
	}
	if position["A"] >= position["C"] {
		t.Errorf("A (pos %d) did not precede C (pos %d)", position["A"], position["C"])
	}
	if position["B"] >= position["D"] {
		t.Errorf("B (pos %d) did not precede D (pos %d)", position["B"], position["D"])
	}
	if position["C"] >= position["D"] {
		t.Errorf("C (pos %d) did not precede D (pos %d)", position["C"], position["D"])
	}

	if got := ictx.Session.State()["D"]; got != "ABC" {
		t.Errorf("state[D] = %v, want ABC (A's, B's, C's values concatenated)", got)
	}
}

// TestDAGAgentDeadlockSurfacesSchedulingError exercises a ready-set that
// empties before every node completes — the scheduler's runtime deadlock
// branch, distinct from (and only reachable because) validation's
// hydration-time Kahn check is bypassed when building the composite by hand.
func TestDAGAgentDeadlockSurfacesSchedulingError(t *testing.T) {
	children := map[string]types.Agent{
		"A": namedExpr(t, "A"),
		"B": namedExpr(t, "B"),
	}
	// A depends on B and B depends on A: both have in-degree 1, so the
	// initial ready set is empty and no wave can ever start.
	dependsOn := map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}
	order := []string{"A", "B"}

	dag := agent.NewDAGAgent("cyclic", children, dependsOn, order)
	ictx := newInvocationContext(dag, map[string]any{})

	var gotErr error
	for _, runErr := range dag.Execute(context.Background(), ictx) {
		if runErr != nil {
			gotErr = runErr
		}
	}

	var schedErr *workflow.SchedulingError
	if gotErr == nil {
		t.Fatal("expected a SchedulingError, got none")
	}
	if se, ok := gotErr.(*workflow.SchedulingError); ok {
		schedErr = se
	} else {
		t.Fatalf("expected *workflow.SchedulingError, got %T: %v", gotErr, gotErr)
	}
	if len(schedErr.StuckNodes) != 2 {
		t.Errorf("StuckNodes = %v, want both A and B listed", schedErr.StuckNodes)
	}
}
