// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_test

import (
	"context"
	"testing"

	"github.com/flowforge/workflowcore/agent"
)

func TestExpressionAgentSuccess(t *testing.T) {
	a, err := agent.NewExpressionAgent("check", "rate > threshold", []string{"rate", "threshold"}, "exceeded")
	if err != nil {
		t.Fatalf("NewExpressionAgent: %v", err)
	}

	ictx := newInvocationContext(a, map[string]any{"rate": 4300.0, "threshold": 4200.0})
	events := collectEvents(t, a.Execute(context.Background(), ictx))
	if len(events) != 1 {
		t.Fatalf("got %d events, want exactly 1", len(events))
	}
	ev := events[0]
	if ev.IsError() {
		t.Fatalf("unexpected error event: %s", ev.ErrorMessage)
	}
	if ev.Actions.StateDelta["exceeded"] != true {
		t.Errorf("StateDelta[exceeded] = %v, want true", ev.Actions.StateDelta["exceeded"])
	}
}

func TestExpressionAgentRuntimeErrorLeavesEmptyStateDelta(t *testing.T) {
	a, err := agent.NewExpressionAgent("divider", "a / b", []string{"a", "b"}, "out")
	if err != nil {
		t.Fatalf("NewExpressionAgent: %v", err)
	}

	ictx := newInvocationContext(a, map[string]any{"a": int64(1), "b": int64(0)})
	events := collectEvents(t, a.Execute(context.Background(), ictx))
	if len(events) != 1 {
		t.Fatalf("got %d events, want exactly 1", len(events))
	}
	ev := events[0]
	if !ev.IsError() {
		t.Fatal("expected an error event for division by zero")
	}
	if len(ev.Actions.StateDelta) != 0 {
		t.Errorf("StateDelta = %v, want empty on error", ev.Actions.StateDelta)
	}
}

func TestExpressionAgentForbiddenConstructFailsAtHydration(t *testing.T) {
	if _, err := agent.NewExpressionAgent("bad", "__import__('os')", nil, "out"); err == nil {
		t.Fatal("NewExpressionAgent accepted a forbidden construct")
	}
}
