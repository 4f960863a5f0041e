// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"iter"

	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

// CodeAgent is the leaf agent that invokes a [workflow.CodeFunc] resolved at
// hydration time from a dotted function path (spec §4.4 Code agent).
// input_keys name the state slots passed as keyword arguments; the
// function's returned mapping becomes output_key's value.
type CodeAgent struct {
	base *types.BaseAgent

	functionPath string
	fn           workflow.CodeFunc
	inputKeys    []string
	outputKey    string
}

var _ types.Agent = (*CodeAgent)(nil)

// NewCodeAgent resolves functionPath through [workflow.Functions] at
// construction (hydration) time: an unknown path fails loudly here, never
// at first invocation.
func NewCodeAgent(name, functionPath string, inputKeys []string, outputKey string, opts ...types.Option) (*CodeAgent, error) {
	fn, err := workflow.Functions().Resolve(functionPath)
	if err != nil {
		return nil, err
	}

	a := &CodeAgent{
		base:         types.NewBaseAgent(name, opts...),
		functionPath: functionPath,
		fn:           fn,
		inputKeys:    inputKeys,
		outputKey:    outputKey,
	}
	a.base.SetSelf(a)
	return a, nil
}

// Name implements [types.Agent].
func (a *CodeAgent) Name() string { return a.base.Name() }

// Description implements [types.Agent].
func (a *CodeAgent) Description() string { return a.base.Description() }

// ParentAgent implements [types.Agent].
func (a *CodeAgent) ParentAgent() types.Agent { return a.base.ParentAgent() }

// SubAgents implements [types.Agent].
func (a *CodeAgent) SubAgents() []types.Agent { return a.base.SubAgents() }

// BeforeAgentCallbacks implements [types.Agent].
func (a *CodeAgent) BeforeAgentCallbacks() []types.AgentCallback { return a.base.BeforeAgentCallbacks() }

// AfterAgentCallbacks implements [types.Agent].
func (a *CodeAgent) AfterAgentCallbacks() []types.AgentCallback { return a.base.AfterAgentCallbacks() }

// RootAgent implements [types.Agent].
func (a *CodeAgent) RootAgent() types.Agent { return a.base.RootAgent() }

// FindAgent implements [types.Agent].
func (a *CodeAgent) FindAgent(name string) types.Agent { return a.base.FindAgent(name) }

// FindSubAgent implements [types.Agent].
func (a *CodeAgent) FindSubAgent(name string) types.Agent { return a.base.FindSubAgent(name) }

// AsLLMAgent implements [types.Agent].
func (a *CodeAgent) AsLLMAgent() (types.LLMAgent, bool) { return nil, false }

// OutputKey returns the session-state key this agent writes on success.
func (a *CodeAgent) OutputKey() string { return a.outputKey }

// Execute implements [types.Agent]: exactly one event, success or error,
// with no exception ever escaping (spec §4.4).
func (a *CodeAgent) Execute(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return func(yield func(*types.Event, error) bool) {
		yield(a.run(ctx, ictx))
	}
}

// ExecuteLive implements [types.Agent]. Code agents have no live/streaming
// behavior distinct from a single call.
func (a *CodeAgent) ExecuteLive(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.Execute(ctx, ictx)
}

// Run implements [types.Agent].
func (a *CodeAgent) Run(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.Run(ctx, parentContext)
}

// RunLive implements [types.Agent].
func (a *CodeAgent) RunLive(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.RunLive(ctx, parentContext)
}

func (a *CodeAgent) run(ctx context.Context, ictx *types.InvocationContext) (event *types.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			event = a.errorEvent(ictx, fmt.Errorf("panic: %v", r))
			err = nil
		}
	}()

	state := ictx.Session.State()
	kwargs := make(map[string]any, len(a.inputKeys))
	for _, k := range a.inputKeys {
		kwargs[k] = state[k]
	}

	result, callErr := a.fn(ctx, kwargs)
	if callErr != nil {
		return a.errorEvent(ictx, callErr), nil
	}

	return a.successEvent(ictx, result), nil
}

func (a *CodeAgent) successEvent(ictx *types.InvocationContext, result map[string]any) *types.Event {
	actions := types.NewEventActions()
	actions.StateDelta[a.outputKey] = result

	return types.NewEvent().
		WithInvocationID(ictx.InvocationID).
		WithAuthor(a.Name()).
		WithActions(actions)
}

func (a *CodeAgent) errorEvent(ictx *types.InvocationContext, err error) *types.Event {
	return types.NewEvent().
		WithInvocationID(ictx.InvocationID).
		WithAuthor(a.Name()).
		WithLLMResponse(&types.LLMResponse{
			ErrorCode:    "RUNTIME_ERROR",
			ErrorMessage: (&workflow.RuntimeError{Agent: a.Name(), Reason: err.Error()}).Error(),
		}).
		WithActions(types.NewEventActions())
}
