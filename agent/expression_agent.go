// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"iter"

	"github.com/flowforge/workflowcore/sandbox"
	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

// ExpressionAgent is the leaf agent that evaluates a restricted expression
// against the state slots named by input_keys (spec §4.4 Expression agent).
// The expression is compiled once, at hydration time: a forbidden construct
// or type error is a [workflow.HydrationError] raised by [NewExpressionAgent],
// never something a run can observe.
type ExpressionAgent struct {
	base *types.BaseAgent

	expression string
	program    *sandbox.Program
	inputKeys  []string
	outputKey  string
}

var _ types.Agent = (*ExpressionAgent)(nil)

// NewExpressionAgent compiles expr against inputKeys and returns a ready
// [ExpressionAgent], or a [workflow.HydrationError] wrapping the compile
// failure.
func NewExpressionAgent(name, expr string, inputKeys []string, outputKey string, opts ...types.Option) (*ExpressionAgent, error) {
	program, err := sandbox.Compile(expr, inputKeys)
	if err != nil {
		return nil, &workflow.HydrationError{Path: name + ".expression", Reason: err.Error()}
	}

	a := &ExpressionAgent{
		base:       types.NewBaseAgent(name, opts...),
		expression: expr,
		program:    program,
		inputKeys:  inputKeys,
		outputKey:  outputKey,
	}
	a.base.SetSelf(a)
	return a, nil
}

// Name implements [types.Agent].
func (a *ExpressionAgent) Name() string { return a.base.Name() }

// Description implements [types.Agent].
func (a *ExpressionAgent) Description() string { return a.base.Description() }

// ParentAgent implements [types.Agent].
func (a *ExpressionAgent) ParentAgent() types.Agent { return a.base.ParentAgent() }

// SubAgents implements [types.Agent].
func (a *ExpressionAgent) SubAgents() []types.Agent { return a.base.SubAgents() }

// BeforeAgentCallbacks implements [types.Agent].
func (a *ExpressionAgent) BeforeAgentCallbacks() []types.AgentCallback {
	return a.base.BeforeAgentCallbacks()
}

// AfterAgentCallbacks implements [types.Agent].
func (a *ExpressionAgent) AfterAgentCallbacks() []types.AgentCallback {
	return a.base.AfterAgentCallbacks()
}

// RootAgent implements [types.Agent].
func (a *ExpressionAgent) RootAgent() types.Agent { return a.base.RootAgent() }

// FindAgent implements [types.Agent].
func (a *ExpressionAgent) FindAgent(name string) types.Agent { return a.base.FindAgent(name) }

// FindSubAgent implements [types.Agent].
func (a *ExpressionAgent) FindSubAgent(name string) types.Agent { return a.base.FindSubAgent(name) }

// AsLLMAgent implements [types.Agent].
func (a *ExpressionAgent) AsLLMAgent() (types.LLMAgent, bool) { return nil, false }

// OutputKey returns the session-state key this agent writes on success.
func (a *ExpressionAgent) OutputKey() string { return a.outputKey }

// Execute implements [types.Agent]: exactly one event per execution.
func (a *ExpressionAgent) Execute(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return func(yield func(*types.Event, error) bool) {
		yield(a.run(ictx))
	}
}

// ExecuteLive implements [types.Agent]. Expression evaluation has no
// streaming behavior distinct from a single call.
func (a *ExpressionAgent) ExecuteLive(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.Execute(ctx, ictx)
}

// Run implements [types.Agent].
func (a *ExpressionAgent) Run(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.Run(ctx, parentContext)
}

// RunLive implements [types.Agent].
func (a *ExpressionAgent) RunLive(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.RunLive(ctx, parentContext)
}

func (a *ExpressionAgent) run(ictx *types.InvocationContext) (event *types.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			event = a.errorEvent(ictx, &workflow.RuntimeError{Agent: a.Name(), Reason: fmt.Sprint(r)})
			err = nil
		}
	}()

	state := ictx.Session.State()
	vars := make(map[string]any, len(a.inputKeys))
	for _, k := range a.inputKeys {
		vars[k] = state[k]
	}

	result, evalErr := a.program.Eval(vars)
	if evalErr != nil {
		return a.errorEvent(ictx, &workflow.RuntimeError{Agent: a.Name(), Reason: evalErr.Error()}), nil
	}

	actions := types.NewEventActions()
	actions.StateDelta[a.outputKey] = result

	return types.NewEvent().
		WithInvocationID(ictx.InvocationID).
		WithAuthor(a.Name()).
		WithActions(actions), nil
}

func (a *ExpressionAgent) errorEvent(ictx *types.InvocationContext, err *workflow.RuntimeError) *types.Event {
	return types.NewEvent().
		WithInvocationID(ictx.InvocationID).
		WithAuthor(a.Name()).
		WithLLMResponse(&types.LLMResponse{
			ErrorCode:    "RUNTIME_ERROR",
			ErrorMessage: err.Error(),
		}).
		WithActions(types.NewEventActions())
}
