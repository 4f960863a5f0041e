// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_test

import (
	"context"
	"testing"

	"github.com/flowforge/workflowcore/agent"
	"github.com/flowforge/workflowcore/workflow"
)

// TestLoopAgentExitsEarlyViaEscalate exercises spec S6: a loop whose body
// calls the built-in exit_loop tool terminates immediately on the first
// iteration it runs, even though max_iterations allows many more.
func TestLoopAgentExitsEarlyViaEscalate(t *testing.T) {
	workflow.Functions().RegisterFunction("test.loop_increment", func(_ context.Context, kwargs map[string]any) (map[string]any, error) {
		return map[string]any{"result": 1}, nil
	})

	counter, err := agent.NewCodeAgent("increment", "test.loop_increment", nil, "iterations")
	if err != nil {
		t.Fatalf("NewCodeAgent: %v", err)
	}

	checkAndExit, err := agent.NewToolAgent("maybe_exit", "exit_loop", nil, "exit_result")
	if err != nil {
		t.Fatalf("NewToolAgent: %v", err)
	}

	body := agent.NewSequentialAgent("body").WithAgents(counter, checkAndExit)
	loop := agent.NewLoopAgent("loop").WithMaxIterations(10).WithAgents(body)

	ictx := newInvocationContext(loop, map[string]any{"iterations": 0})
	events := collectEvents(t, loop.Execute(context.Background(), ictx))

	// Each full loop body run produces 2 events (increment, maybe_exit).
	// exit_loop escalates on the very first iteration it runs, so exactly
	// one body pass completes before the loop halts.
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (one full body pass before escalate halts the loop)", len(events))
	}
	if events[0].Author != "increment" || events[1].Author != "maybe_exit" {
		t.Fatalf("unexpected event order: %s, %s", events[0].Author, events[1].Author)
	}
	if !events[1].Actions.Escalate {
		t.Fatal("expected the exit_loop event to carry Escalate=true")
	}
}
