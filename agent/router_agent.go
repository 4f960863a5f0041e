// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/model"
	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

// RouterAgent is the composite backing `llm_routed` orchestration (spec §4.5
// DAG/ReAct/LLM-routed table): a small routing model call picks exactly one
// of its candidate sub-agents to run per invocation, by name.
type RouterAgent struct {
	base *types.BaseAgent

	routerModelID string
	candidates    map[string]types.Agent
	order         []string
}

var _ types.Agent = (*RouterAgent)(nil)

// routeSchema constrains the router call's output to a bare agent-name pick.
var routeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"agent": {Type: genai.TypeString},
	},
	Required: []string{"agent"},
}

// NewRouterAgent builds a [RouterAgent]. order fixes the candidate listing
// order presented to the router model.
func NewRouterAgent(name, routerModelID string, candidates map[string]types.Agent, order []string, opts ...types.Option) *RouterAgent {
	agents := make([]types.Agent, 0, len(order))
	for _, n := range order {
		agents = append(agents, candidates[n])
	}
	allOpts := append(append([]types.Option{}, opts...), types.WithSubAgents(agents...))
	a := &RouterAgent{
		base:          types.NewBaseAgent(name, allOpts...),
		routerModelID: routerModelID,
		candidates:    candidates,
		order:         order,
	}
	a.base.SetSelf(a)
	return a
}

// Name implements [types.Agent].
func (a *RouterAgent) Name() string { return a.base.Name() }

// Description implements [types.Agent].
func (a *RouterAgent) Description() string { return a.base.Description() }

// ParentAgent implements [types.Agent].
func (a *RouterAgent) ParentAgent() types.Agent { return a.base.ParentAgent() }

// SubAgents implements [types.Agent].
func (a *RouterAgent) SubAgents() []types.Agent { return a.base.SubAgents() }

// BeforeAgentCallbacks implements [types.Agent].
func (a *RouterAgent) BeforeAgentCallbacks() []types.AgentCallback { return a.base.BeforeAgentCallbacks() }

// AfterAgentCallbacks implements [types.Agent].
func (a *RouterAgent) AfterAgentCallbacks() []types.AgentCallback { return a.base.AfterAgentCallbacks() }

// RootAgent implements [types.Agent].
func (a *RouterAgent) RootAgent() types.Agent { return a.base.RootAgent() }

// FindAgent implements [types.Agent].
func (a *RouterAgent) FindAgent(name string) types.Agent { return a.base.FindAgent(name) }

// FindSubAgent implements [types.Agent].
func (a *RouterAgent) FindSubAgent(name string) types.Agent { return a.base.FindSubAgent(name) }

// AsLLMAgent implements [types.Agent].
func (a *RouterAgent) AsLLMAgent() (types.LLMAgent, bool) { return nil, false }

// Execute implements [types.Agent]: asks the router model which candidate to
// run, against the current session state and user content, then delegates
// entirely to that one candidate.
func (a *RouterAgent) Execute(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return func(yield func(*types.Event, error) bool) {
		invoker, err := model.Resolve(ctx, a.routerModelID)
		if err != nil {
			yield(a.errorEvent(ictx, err), nil)
			return
		}

		picked, err := a.route(ctx, invoker, ictx)
		if err != nil {
			yield(a.errorEvent(ictx, err), nil)
			return
		}

		child, ok := a.candidates[picked]
		if !ok {
			yield(a.errorEvent(ictx, fmt.Errorf("router selected unknown agent %q", picked)), nil)
			return
		}

		for event, runErr := range child.Run(ctx, ictx) {
			if !yield(event, runErr) {
				return
			}
		}
	}
}

func (a *RouterAgent) route(ctx context.Context, invoker types.Model, ictx *types.InvocationContext) (string, error) {
	var b strings.Builder
	b.WriteString("Pick exactly one of the following agents to handle the request. Respond with its name.\n\n")
	for _, name := range a.order {
		fmt.Fprintf(&b, "- %s: %s\n", name, a.candidates[name].Description())
	}

	var contents []*genai.Content
	if ictx.UserContent != nil {
		contents = append(contents, ictx.UserContent)
	}

	resp, err := invoker.GenerateContent(ctx, &types.LLMRequest{
		Model:    a.routerModelID,
		Contents: contents,
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(b.String())}},
			ResponseMIMEType:  "application/json",
			ResponseSchema:    routeSchema,
		},
	})
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("router call failed: %s", resp.ErrorMessage)
	}

	var picked struct {
		Agent string `json:"agent"`
	}
	if err := json.Unmarshal([]byte(resp.GetText()), &picked); err != nil {
		return "", fmt.Errorf("router response not valid json: %w", err)
	}
	return picked.Agent, nil
}

func (a *RouterAgent) errorEvent(ictx *types.InvocationContext, err error) *types.Event {
	return types.NewEvent().
		WithInvocationID(ictx.InvocationID).
		WithAuthor(a.Name()).
		WithLLMResponse(&types.LLMResponse{
			ErrorCode:    "RUNTIME_ERROR",
			ErrorMessage: (&workflow.RuntimeError{Agent: a.Name(), Reason: err.Error()}).Error(),
		}).
		WithActions(types.NewEventActions())
}

// ExecuteLive implements [types.Agent]. Routing has no live/streaming variant.
func (a *RouterAgent) ExecuteLive(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return func(yield func(*types.Event, error) bool) {
		yield(nil, types.NotImplementedError("ExecuteLive is not supported for RouterAgent"))
	}
}

// Run implements [types.Agent].
func (a *RouterAgent) Run(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.Run(ctx, parentContext)
}

// RunLive implements [types.Agent].
func (a *RouterAgent) RunLive(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.RunLive(ctx, parentContext)
}
