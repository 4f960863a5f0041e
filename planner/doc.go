// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package planner implements types.Planner, letting a model agent generate
// a structured plan before acting on a request.
//
// Two implementations are provided:
//
//   - BuiltInPlanner: delegates to the model's own thinking feature via
//     genai.ThinkingConfig, for models with native reasoning support.
//   - PlanReActPlanner: a structured Reasoning-and-Acting framework using
//     explicit /*PLANNING*/, /*ACTION*/, /*REASONING*/, /*FINAL_ANSWER*/ tags,
//     for models without native thinking support.
//
// A workflow document selects one by name on a model agent:
//
//	planner: built_in     # or: plan_react
//
// which the hydrator resolves to:
//
//	agent.WithPlanner(planner.NewBuiltInPlanner(nil))
//	agent.WithPlanner(&planner.PlanReActPlanner{})
//
// PlanReActPlanner's tagged format looks like:
//
//	/*PLANNING*/
//	1. Look up the current weather for Paris.
//	2. Check for any active weather alerts.
//
//	/*ACTION*/
//	get_weather(location="Paris, France")
//
//	/*REASONING*/
//	Temperature is 18C with light rain; no alerts reported yet.
//
//	/*FINAL_ANSWER*/
//	18C with light rain in Paris; no active weather alerts.
//
// Text after the last /*FINAL_ANSWER*/ tag becomes the answer part; the text
// up to and including that tag, and any part that starts with one of the
// other tags, is marked as a thought.
//
// A custom planner just implements BuildPlanningInstruction (injects planning
// directives into the outgoing request) and ProcessPlanningResponse (extracts
// or rewrites the planned response parts).
package planner
