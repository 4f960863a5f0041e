// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"iter"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/flowforge/workflowcore/internal/logging"
	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

// DAGAgent is the composite that schedules its children by dependency wave
// instead of declared order (spec §4.5 DAG orchestration). Every node with a
// satisfied dependency set runs concurrently with its wave-mates; the next
// wave starts only once the current one fully completes. Acyclicity is
// already guaranteed by [workflow.Validate]'s Kahn check at load time — this
// scheduler re-derives in-degree from the same depends_on edges and treats a
// stalled ready-set as an unreachable [workflow.SchedulingError].
type DAGAgent struct {
	base *types.BaseAgent

	children  map[string]types.Agent
	dependsOn map[string][]string
	order     []string
}

var _ types.Agent = (*DAGAgent)(nil)

// NewDAGAgent builds a [DAGAgent] from the resolved child agents and their
// depends_on edges, keyed by agent name. order fixes the node names for
// deterministic iteration when computing the initial ready set.
func NewDAGAgent(name string, children map[string]types.Agent, dependsOn map[string][]string, order []string, opts ...types.Option) *DAGAgent {
	agents := make([]types.Agent, 0, len(order))
	for _, n := range order {
		agents = append(agents, children[n])
	}

	allOpts := append(append([]types.Option{}, opts...), types.WithSubAgents(agents...))
	a := &DAGAgent{
		base:      types.NewBaseAgent(name, allOpts...),
		children:  children,
		dependsOn: dependsOn,
		order:     order,
	}
	a.base.SetSelf(a)
	return a
}

// Name implements [types.Agent].
func (a *DAGAgent) Name() string { return a.base.Name() }

// Description implements [types.Agent].
func (a *DAGAgent) Description() string { return a.base.Description() }

// ParentAgent implements [types.Agent].
func (a *DAGAgent) ParentAgent() types.Agent { return a.base.ParentAgent() }

// SubAgents implements [types.Agent].
func (a *DAGAgent) SubAgents() []types.Agent { return a.base.SubAgents() }

// BeforeAgentCallbacks implements [types.Agent].
func (a *DAGAgent) BeforeAgentCallbacks() []types.AgentCallback { return a.base.BeforeAgentCallbacks() }

// AfterAgentCallbacks implements [types.Agent].
func (a *DAGAgent) AfterAgentCallbacks() []types.AgentCallback { return a.base.AfterAgentCallbacks() }

// RootAgent implements [types.Agent].
func (a *DAGAgent) RootAgent() types.Agent { return a.base.RootAgent() }

// FindAgent implements [types.Agent].
func (a *DAGAgent) FindAgent(name string) types.Agent { return a.base.FindAgent(name) }

// FindSubAgent implements [types.Agent].
func (a *DAGAgent) FindSubAgent(name string) types.Agent { return a.base.FindSubAgent(name) }

// AsLLMAgent implements [types.Agent].
func (a *DAGAgent) AsLLMAgent() (types.LLMAgent, bool) { return nil, false }

// Execute implements [types.Agent]: runs nodes wave by wave, each wave's
// members concurrently via an [errgroup.Group]. A wave's events are held
// until the whole wave completes, then yielded in the order they arrived
// (completion order within the wave). A node error
// event does not abort sibling nodes already in flight; it is surfaced like
// any other event and downstream waves observe it via a missing state key.
func (a *DAGAgent) Execute(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	logger := logging.FromContext(ctx)
	return func(yield func(*types.Event, error) bool) {
		inDegree := make(map[string]int, len(a.order))
		dependents := make(map[string][]string, len(a.order))
		for _, n := range a.order {
			inDegree[n] = len(a.dependsOn[n])
			for _, dep := range a.dependsOn[n] {
				dependents[dep] = append(dependents[dep], n)
			}
		}

		remaining := len(a.order)
		ready := make([]string, 0, len(a.order))
		for _, n := range a.order {
			if inDegree[n] == 0 {
				ready = append(ready, n)
			}
		}

		stopped := false
		for remaining > 0 {
			if len(ready) == 0 {
				stuck := make([]string, 0, remaining)
				for n, deg := range inDegree {
					if deg > 0 {
						stuck = append(stuck, n)
					}
				}
				logger.Error("dag scheduling stalled", slog.String("agent", a.Name()), slog.Any("stuck_nodes", stuck))
				yield(nil, &workflow.SchedulingError{StuckNodes: stuck})
				return
			}

			wave := ready
			ready = nil
			logger.Debug("dag wave starting", slog.String("agent", a.Name()), slog.Any("nodes", wave))

			type waveEvent struct {
				event *types.Event
				err   error
			}
			var mu sync.Mutex
			var collected []waveEvent

			g, gctx := errgroup.WithContext(ctx)
			for _, name := range wave {
				name := name
				child := a.children[name]
				g.Go(func() error {
					for event, err := range child.Run(gctx, ictx) {
						mu.Lock()
						collected = append(collected, waveEvent{event: event, err: err})
						mu.Unlock()
						if err != nil {
							return err
						}
					}
					return nil
				})
			}

			// errgroup's first error cancels gctx but does not stop sibling
			// event collection already queued; wait for the whole wave to
			// finish before streaming, so wave completion order is stable.
			waveErr := g.Wait()

			for _, we := range collected {
				if !yield(we.event, we.err) {
					stopped = true
					break
				}
			}
			if stopped {
				return
			}
			if waveErr != nil {
				return
			}

			for _, name := range wave {
				remaining--
				for _, next := range dependents[name] {
					inDegree[next]--
					if inDegree[next] == 0 {
						ready = append(ready, next)
					}
				}
			}
		}
	}
}

// ExecuteLive implements [types.Agent]. DAG scheduling has no live/streaming
// variant.
func (a *DAGAgent) ExecuteLive(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return func(yield func(*types.Event, error) bool) {
		yield(nil, types.NotImplementedError("ExecuteLive is not supported for DAGAgent"))
	}
}

// Run implements [types.Agent].
func (a *DAGAgent) Run(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.Run(ctx, parentContext)
}

// RunLive implements [types.Agent].
func (a *DAGAgent) RunLive(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.RunLive(ctx, parentContext)
}
