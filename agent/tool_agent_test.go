// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_test

import (
	"context"
	"testing"

	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/agent"
	"github.com/flowforge/workflowcore/tool"
	"github.com/flowforge/workflowcore/types"
)

// echoTool returns its resolved args back as the result mapping, so tests
// can observe exactly what the tool agent resolved tool_config into.
type echoTool struct{ name string }

func (e *echoTool) Name() string        { return e.name }
func (e *echoTool) Description() string { return "echoes its arguments" }
func (e *echoTool) IsLongRunning() bool { return false }
func (e *echoTool) GetDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{Name: e.name}
}
func (e *echoTool) Run(ctx context.Context, args map[string]any, toolCtx *types.ToolContext) (any, error) {
	return args, nil
}
func (e *echoTool) ProcessLLMRequest(ctx context.Context, toolCtx *types.ToolContext, req *types.LLMRequest) error {
	return nil
}

func TestToolAgentTemplateTypePreservation(t *testing.T) {
	if err := tool.GetRegistry().Register(&echoTool{name: "test.echo"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	a, err := agent.NewToolAgent("echoer", "test.echo", map[string]string{
		"rate":    "{rate}",
		"message": "rate is {rate}",
	}, "echoed")
	if err != nil {
		t.Fatalf("NewToolAgent: %v", err)
	}

	ictx := newInvocationContext(a, map[string]any{"rate": 4321.5})
	events := collectEvents(t, a.Execute(context.Background(), ictx))
	if len(events) != 1 {
		t.Fatalf("got %d events, want exactly 1", len(events))
	}
	ev := events[0]
	if ev.IsError() {
		t.Fatalf("unexpected error event: %s", ev.ErrorMessage)
	}

	out := ev.Actions.StateDelta["echoed"].(map[string]any)
	if out["rate"] != 4321.5 {
		t.Errorf("out[rate] = %#v (%T), want the original float64 4321.5 preserved", out["rate"], out["rate"])
	}
	if out["message"] != "rate is 4321.5" {
		t.Errorf("out[message] = %q, want stringified embedded placeholder", out["message"])
	}
}

func TestToolAgentAbsentStateKeyPassesPlaceholderThrough(t *testing.T) {
	if err := tool.GetRegistry().Register(&echoTool{name: "test.echo2"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	a, err := agent.NewToolAgent("echoer2", "test.echo2", map[string]string{
		"missing": "{not_in_state}",
	}, "echoed")
	if err != nil {
		t.Fatalf("NewToolAgent: %v", err)
	}

	ictx := newInvocationContext(a, map[string]any{})
	events := collectEvents(t, a.Execute(context.Background(), ictx))
	ev := events[0]
	if ev.IsError() {
		t.Fatalf("unexpected error event: %s", ev.ErrorMessage)
	}
	out := ev.Actions.StateDelta["echoed"].(map[string]any)
	if out["missing"] != "{not_in_state}" {
		t.Errorf("out[missing] = %v, want literal placeholder passed through", out["missing"])
	}
}

func TestToolAgentUnknownToolFailsAtHydration(t *testing.T) {
	if _, err := agent.NewToolAgent("x", "no-such-tool", nil, "out"); err == nil {
		t.Fatal("NewToolAgent accepted an unregistered tool name")
	}
}
