// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_test

import (
	"context"
	"testing"

	"github.com/flowforge/workflowcore/agent"
)

func TestSequentialAgentHaltsOnFirstErrorByDefault(t *testing.T) {
	first, _ := agent.NewExpressionAgent("first", "1 / 0", nil, "first_out")
	second, _ := agent.NewExpressionAgent("second", "1 + 1", nil, "second_out")

	seq := agent.NewSequentialAgent("seq").WithAgents(first, second)
	ictx := newInvocationContext(seq, map[string]any{})

	events := collectEvents(t, seq.Execute(context.Background(), ictx))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (halt after first's error)", len(events))
	}
	if !events[0].IsError() {
		t.Fatal("expected first's event to be an error")
	}
	if events[0].Author != "first" {
		t.Errorf("author = %q, want first", events[0].Author)
	}
}

func TestSequentialAgentContinuesWhenHaltOnErrorDisabled(t *testing.T) {
	first, _ := agent.NewExpressionAgent("first", "1 / 0", nil, "first_out")
	second, _ := agent.NewExpressionAgent("second", "1 + 1", nil, "second_out")

	seq := agent.NewSequentialAgent("seq").WithAgents(first, second).WithHaltOnError(false)
	ictx := newInvocationContext(seq, map[string]any{})

	events := collectEvents(t, seq.Execute(context.Background(), ictx))
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (both sub-agents ran)", len(events))
	}
	if !events[0].IsError() {
		t.Error("expected first's event to be an error")
	}
	if events[1].IsError() {
		t.Error("expected second's event to succeed")
	}
}

func TestSequentialAgentPreservesDeclaredOrder(t *testing.T) {
	a1, _ := agent.NewExpressionAgent("a1", "'one'", nil, "a1_out")
	a2, _ := agent.NewExpressionAgent("a2", "'two'", nil, "a2_out")
	a3, _ := agent.NewExpressionAgent("a3", "'three'", nil, "a3_out")

	seq := agent.NewSequentialAgent("seq").WithAgents(a1, a2, a3)
	ictx := newInvocationContext(seq, map[string]any{})

	events := collectEvents(t, seq.Execute(context.Background(), ictx))
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	wantOrder := []string{"a1", "a2", "a3"}
	for i, want := range wantOrder {
		if events[i].Author != want {
			t.Errorf("events[%d].Author = %q, want %q", i, events[i].Author, want)
		}
	}
}
