// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"iter"

	"github.com/flowforge/workflowcore/internal/template"
	"github.com/flowforge/workflowcore/tool"
	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

// ToolAgent is the leaf agent that invokes a single resolved tool directly,
// bypassing a model call entirely (spec §4.4 Tool agent). tool_config values
// are `{key}` placeholders resolved against session state at invocation
// time: an absent key is passed through literally, not treated as an error
// (spec §4.4, matching [template.Resolve]'s contract).
type ToolAgent struct {
	base *types.BaseAgent

	toolName   string
	tool       types.Tool
	toolConfig map[string]string
	outputKey  string
}

var _ types.Agent = (*ToolAgent)(nil)

// NewToolAgent resolves toolName through the process-wide tool [tool.Registry]
// at construction (hydration) time.
func NewToolAgent(name, toolName string, toolConfig map[string]string, outputKey string, opts ...types.Option) (*ToolAgent, error) {
	t, err := tool.GetRegistry().ResolveOne(toolName)
	if err != nil {
		return nil, &workflow.HydrationError{Path: name + ".tool", Reason: err.Error()}
	}

	a := &ToolAgent{
		base:       types.NewBaseAgent(name, opts...),
		toolName:   toolName,
		tool:       t,
		toolConfig: toolConfig,
		outputKey:  outputKey,
	}
	a.base.SetSelf(a)
	return a, nil
}

// Name implements [types.Agent].
func (a *ToolAgent) Name() string { return a.base.Name() }

// Description implements [types.Agent].
func (a *ToolAgent) Description() string { return a.base.Description() }

// ParentAgent implements [types.Agent].
func (a *ToolAgent) ParentAgent() types.Agent { return a.base.ParentAgent() }

// SubAgents implements [types.Agent].
func (a *ToolAgent) SubAgents() []types.Agent { return a.base.SubAgents() }

// BeforeAgentCallbacks implements [types.Agent].
func (a *ToolAgent) BeforeAgentCallbacks() []types.AgentCallback { return a.base.BeforeAgentCallbacks() }

// AfterAgentCallbacks implements [types.Agent].
func (a *ToolAgent) AfterAgentCallbacks() []types.AgentCallback { return a.base.AfterAgentCallbacks() }

// RootAgent implements [types.Agent].
func (a *ToolAgent) RootAgent() types.Agent { return a.base.RootAgent() }

// FindAgent implements [types.Agent].
func (a *ToolAgent) FindAgent(name string) types.Agent { return a.base.FindAgent(name) }

// FindSubAgent implements [types.Agent].
func (a *ToolAgent) FindSubAgent(name string) types.Agent { return a.base.FindSubAgent(name) }

// AsLLMAgent implements [types.Agent].
func (a *ToolAgent) AsLLMAgent() (types.LLMAgent, bool) { return nil, false }

// OutputKey returns the session-state key this agent writes on success.
func (a *ToolAgent) OutputKey() string { return a.outputKey }

// Execute implements [types.Agent]: exactly one event per execution.
func (a *ToolAgent) Execute(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return func(yield func(*types.Event, error) bool) {
		yield(a.run(ctx, ictx))
	}
}

// ExecuteLive implements [types.Agent]. Tool agents have no streaming
// behavior distinct from a single call.
func (a *ToolAgent) ExecuteLive(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.Execute(ctx, ictx)
}

// Run implements [types.Agent].
func (a *ToolAgent) Run(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.Run(ctx, parentContext)
}

// RunLive implements [types.Agent].
func (a *ToolAgent) RunLive(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.RunLive(ctx, parentContext)
}

func (a *ToolAgent) run(ctx context.Context, ictx *types.InvocationContext) (event *types.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			event = a.errorEvent(ictx, &workflow.RuntimeError{Agent: a.Name(), Reason: fmt.Sprint(r)})
			err = nil
		}
	}()

	state := ictx.Session.State()
	args := make(map[string]any, len(a.toolConfig))
	for k, v := range a.toolConfig {
		args[k] = template.Resolve(v, state)
	}

	toolCtx := types.NewToolContext(ictx).WithEventActions(types.NewEventActions())
	result, runErr := a.tool.Run(ctx, args, toolCtx)
	if runErr != nil {
		return a.errorEvent(ictx, &workflow.RuntimeError{Agent: a.Name(), Reason: runErr.Error()}), nil
	}

	actions := toolCtx.Actions()
	actions.StateDelta[a.outputKey] = result

	return types.NewEvent().
		WithInvocationID(ictx.InvocationID).
		WithAuthor(a.Name()).
		WithActions(actions), nil
}

func (a *ToolAgent) errorEvent(ictx *types.InvocationContext, err *workflow.RuntimeError) *types.Event {
	return types.NewEvent().
		WithInvocationID(ictx.InvocationID).
		WithAuthor(a.Name()).
		WithLLMResponse(&types.LLMResponse{
			ErrorCode:    "RUNTIME_ERROR",
			ErrorMessage: err.Error(),
		}).
		WithActions(types.NewEventActions())
}
