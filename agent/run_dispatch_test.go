// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_test

import (
	"context"
	"testing"

	"github.com/flowforge/workflowcore/agent"
)

// TestRunDispatchesToConcreteExecute guards against a regression where
// BaseAgent.Run, holding its owner only as a plain *BaseAgent field, calls
// back into BaseAgent's own unimplemented Execute instead of the concrete
// agent's override. Every composite (Sequential, Loop, DAG, Parallel,
// Router) invokes its children through Run, not Execute, so a dispatch
// failure here would make every real agent tree silently produce nothing.
func TestRunDispatchesToConcreteExecute(t *testing.T) {
	leaf, err := agent.NewExpressionAgent("leaf", "1 + 1", nil, "out")
	if err != nil {
		t.Fatalf("NewExpressionAgent: %v", err)
	}

	seq := agent.NewSequentialAgent("seq").WithAgents(leaf)
	ictx := newInvocationContext(seq, map[string]any{})

	events := collectEvents(t, seq.Run(context.Background(), ictx))
	if len(events) != 1 {
		t.Fatalf("got %d events via Run, want 1 from leaf's real Execute", len(events))
	}
	ev := events[0]
	if ev.IsError() {
		t.Fatalf("Run produced an error event (likely the BaseAgent Execute stub): %s", ev.ErrorMessage)
	}
	if ev.Author != "leaf" {
		t.Errorf("Author = %q, want leaf", ev.Author)
	}
	if ev.Actions.StateDelta["out"] != int64(2) {
		t.Errorf("StateDelta[out] = %v, want 2", ev.Actions.StateDelta["out"])
	}
}
