// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package tool_test

import (
	"context"
	"testing"

	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/tool"
	"github.com/flowforge/workflowcore/types"
)

type fakeTool struct {
	name string
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "a fake tool for tests" }
func (f *fakeTool) IsLongRunning() bool  { return false }
func (f *fakeTool) GetDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{Name: f.name}
}
func (f *fakeTool) Run(ctx context.Context, args map[string]any, toolCtx *types.ToolContext) (any, error) {
	return map[string]any{"ok": true}, nil
}
func (f *fakeTool) ProcessLLMRequest(ctx context.Context, toolCtx *types.ToolContext, llmRequest *types.LLMRequest) error {
	return nil
}

func TestResolveBuiltinCatalog(t *testing.T) {
	r := tool.NewRegistry()
	r.Discover()

	resolved, err := r.Resolve([]string{"exit_loop"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resolved) != 1 || resolved[0].Name() != "exit_loop" {
		t.Fatalf("Resolve returned %v, want [exit_loop]", resolved)
	}
}

func TestResolveUnknownNameFails(t *testing.T) {
	r := tool.NewRegistry()
	r.Discover()

	if _, err := r.Resolve([]string{"does-not-exist"}); err == nil {
		t.Fatal("Resolve succeeded for an unregistered tool name")
	}
}

func TestCustomRegistrationShadowsBuiltin(t *testing.T) {
	r := tool.NewRegistry()
	r.Discover()

	custom := &fakeTool{name: "exit_loop"}
	if err := r.Register(custom); err != nil {
		t.Fatalf("Register: %v", err)
	}

	resolved, err := r.ResolveOne("exit_loop")
	if err != nil {
		t.Fatalf("ResolveOne: %v", err)
	}
	if resolved != types.Tool(custom) {
		t.Fatal("custom registration did not shadow the built-in")
	}
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := tool.NewRegistry()
	if err := r.Register(&fakeTool{name: ""}); err == nil {
		t.Fatal("Register accepted a tool with an empty name")
	}
}

func TestMetadataListsCustomAndBuiltins(t *testing.T) {
	r := tool.NewRegistry()
	r.Discover()
	if err := r.Register(&fakeTool{name: "my_custom_tool"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	meta := r.Metadata()
	names := make(map[string]bool, len(meta))
	for _, m := range meta {
		names[m.Name] = true
	}
	for _, want := range []string{"exit_loop", "my_custom_tool"} {
		if !names[want] {
			t.Errorf("Metadata() missing %q", want)
		}
	}
}
