// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/tool"
	"github.com/flowforge/workflowcore/types"
)

// Agent is a [tool.Tool] that wraps an agent, letting a model agent hand off
// a sub-task to another agent in the tree as an ordinary function call
// (agent_tools, spec §9 supplemented feature). The wrapped agent's args
// become its user content; its last event's text becomes the tool result.
type Agent struct {
	*tool.Tool

	wrapped            types.Agent
	inputSchema        *genai.Schema
	skipSummarization  bool
}

var _ types.Tool = (*Agent)(nil)

// NewAgent creates an [Agent] tool wrapping the given agent. name/description
// surface to the calling model; they need not match wrapped.Name().
func NewAgent(name, description string, wrapped types.Agent) *Agent {
	return &Agent{
		Tool:    tool.NewTool(name, description, false),
		wrapped: wrapped,
	}
}

// WithInputSchema constrains the declared call signature surfaced to the model.
func (t *Agent) WithInputSchema(schema *genai.Schema) *Agent {
	t.inputSchema = schema
	return t
}

// WithSkipSummarization marks the tool result as final, skipping any
// subsequent model pass to summarize it.
func (t *Agent) WithSkipSummarization(skip bool) *Agent {
	t.skipSummarization = skip
	return t
}

// Name implements [types.Tool].
func (t *Agent) Name() string {
	return t.Tool.Name()
}

// Description implements [types.Tool].
func (t *Agent) Description() string {
	return t.Tool.Description()
}

// IsLongRunning implements [types.Tool].
func (t *Agent) IsLongRunning() bool {
	return t.Tool.IsLongRunning()
}

// GetDeclaration implements [types.Tool].
func (t *Agent) GetDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.inputSchema,
	}
}

// Run implements [types.Tool]: runs the wrapped agent as a nested invocation
// sharing the caller's session and services, feeding args as JSON-encoded
// user content, and returns the wrapped agent's final response text.
func (t *Agent) Run(ctx context.Context, args map[string]any, toolCtx *types.ToolContext) (any, error) {
	argsText, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("agent tool %s: encode args: %w", t.Name(), err)
	}

	parent := toolCtx.InvocationContext()
	childCtx := types.NewInvocationContext(
		t.wrapped,
		parent.Session,
		parent.SessionService,
		types.WithArtifactService(parent.ArtifactService),
		types.WithMemoryService(parent.MemoryService),
		types.WithBranch(parent.Branch),
		types.WithUserContent(&genai.Content{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(string(argsText))},
		}),
	)
	childCtx.InvocationID = types.NewInvocationContextID()

	var lastEvent *types.Event
	for event, runErr := range t.wrapped.Run(ctx, childCtx) {
		if runErr != nil {
			return nil, fmt.Errorf("agent tool %s: %w", t.Name(), runErr)
		}
		lastEvent = event
	}

	if lastEvent == nil {
		return map[string]any{"result": ""}, nil
	}
	if lastEvent.IsError() {
		return nil, fmt.Errorf("agent tool %s: %s", t.Name(), lastEvent.ErrorMessage)
	}

	var text string
	if lastEvent.LLMResponse != nil {
		text = lastEvent.LLMResponse.GetText()
	}
	return map[string]any{"result": text}, nil
}

// ProcessLLMRequest implements [types.Tool].
func (t *Agent) ProcessLLMRequest(ctx context.Context, toolCtx *types.ToolContext, request *types.LLMRequest) error {
	return t.Tool.ProcessLLMRequest(ctx, toolCtx, request)
}
