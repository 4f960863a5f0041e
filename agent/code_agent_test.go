// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/flowforge/workflowcore/agent"
	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

func TestCodeAgentSuccessWritesOutputKeyAndStateDelta(t *testing.T) {
	workflow.Functions().RegisterFunction("test.double", func(ctx context.Context, kwargs map[string]any) (map[string]any, error) {
		n := kwargs["n"].(int)
		return map[string]any{"result": n * 2}, nil
	})

	a, err := agent.NewCodeAgent("doubler", "test.double", []string{"n"}, "doubled")
	if err != nil {
		t.Fatalf("NewCodeAgent: %v", err)
	}

	ictx := newInvocationContext(a, map[string]any{"n": 21})

	events := collectEvents(t, a.Execute(context.Background(), ictx))
	if len(events) != 1 {
		t.Fatalf("got %d events, want exactly 1", len(events))
	}
	ev := events[0]
	if ev.IsError() {
		t.Fatalf("unexpected error event: %s", ev.ErrorMessage)
	}
	delta := ev.Actions.StateDelta["doubled"].(map[string]any)
	if delta["result"] != 42 {
		t.Errorf("StateDelta[doubled] = %v, want {result: 42}", delta)
	}
}

func TestCodeAgentErrorEventLeavesEmptyStateDelta(t *testing.T) {
	workflow.Functions().RegisterFunction("test.fails", func(ctx context.Context, kwargs map[string]any) (map[string]any, error) {
		return nil, errors.New("boom")
	})

	a, err := agent.NewCodeAgent("failer", "test.fails", nil, "out")
	if err != nil {
		t.Fatalf("NewCodeAgent: %v", err)
	}

	ictx := newInvocationContext(a, nil)

	events := collectEvents(t, a.Execute(context.Background(), ictx))
	if len(events) != 1 {
		t.Fatalf("got %d events, want exactly 1", len(events))
	}
	ev := events[0]
	if !ev.IsError() {
		t.Fatal("expected an error event")
	}
	if len(ev.Actions.StateDelta) != 0 {
		t.Errorf("StateDelta = %v, want empty on error", ev.Actions.StateDelta)
	}
}

func TestCodeAgentUnknownFunctionPathFailsAtHydration(t *testing.T) {
	if _, err := agent.NewCodeAgent("x", "no.such.function", nil, "out"); err == nil {
		t.Fatal("NewCodeAgent accepted an unregistered function path")
	}
}

// collectEvents drains a leaf agent's Execute sequence, failing the test on
// any Go-level error (not to be confused with an agent error event, which
// is a value, not an error return).
func collectEvents(t *testing.T, seq func(yield func(*types.Event, error) bool)) []*types.Event {
	t.Helper()
	var events []*types.Event
	seq(func(ev *types.Event, err error) bool {
		if err != nil {
			t.Fatalf("unexpected sequence error: %v", err)
		}
		events = append(events, ev)
		return true
	})
	return events
}
