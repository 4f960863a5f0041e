// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent provides the concrete agent kinds that make up a hydrated
// workflow's execution tree.
//
// Four leaf kinds do work directly:
//
//   - ModelAgent: delegates to a resolved model invoker (native, `anthropic/`,
//     or `openai/` prefixed), with tool binding, planners, and before/after
//     model and tool callbacks.
//   - CodeAgent: invokes a dotted-path Go function resolved at hydration time.
//   - ExpressionAgent: evaluates a restricted, sandboxed expression against
//     session state.
//   - ToolAgent: invokes a single resolved tool directly, bypassing a model
//     call entirely.
//
// Five composite kinds arrange leaves (or other composites) into an
// orchestration:
//
//   - SequentialAgent: runs sub-agents in declared order, halting on the
//     first error event by default.
//   - ParallelAgent: runs sub-agents concurrently in isolated branches and
//     merges their event streams.
//   - LoopAgent: repeats its sub-agents until one escalates or a configured
//     iteration cap is reached.
//   - DAGAgent: schedules sub-agents by dependency wave rather than declared
//     order, running each wave's ready nodes concurrently.
//   - RouterAgent: a small routing model call picks exactly one candidate
//     sub-agent to run per invocation.
//
// Every kind embeds a *types.BaseAgent by named field for the structural
// parts of the types.Agent contract (name, parent/children, callback lists)
// and registers itself with the embedded BaseAgent via SetSelf so that
// Run/RunLive dispatch to its own Execute/ExecuteLive rather than
// BaseAgent's unimplemented stub. All agents stream results through
// iter.Seq2[*types.Event, error] iterators; a leaf yields exactly one event
// per execution, success or error.
//
// # Basic usage
//
// Creating a sequential composite over two leaves:
//
//	check, _ := agent.NewExpressionAgent("check", "rate > threshold", []string{"rate", "threshold"}, "exceeded")
//	notify, _ := agent.NewToolAgent("notify", "send_alert", nil, "sent")
//	coordinator := agent.NewSequentialAgent("coordinator").WithAgents(check, notify)
//
//	for event, err := range coordinator.Run(ctx, ictx) {
//		if err != nil {
//			log.Fatal(err)
//		}
//		// event.Actions.StateDelta carries whatever the agent wrote.
//	}
package agent
