// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine wires a validated workflow definition into a live agent
// tree and drives its execution. It sits above both workflow (the
// declarative model) and agent (the runtime agent kinds): those two
// packages already depend on each other's error/function types, so the
// construction step that needs both lives here instead of inside either.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowforge/workflowcore/agent"
	"github.com/flowforge/workflowcore/internal/logging"
	"github.com/flowforge/workflowcore/tool"
	"github.com/flowforge/workflowcore/tool/tools"
	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

// Hydrated is the result of turning a validated [workflow.WorkflowDefinition]
// into a live agent tree: the root ready to run, plus every declared agent
// indexed by name (for CLI introspection and A2A card generation).
type Hydrated struct {
	Root   types.Agent
	Agents map[string]types.Agent
}

// Hydrate builds the agent tree for def (spec §4.3). It resolves model_id,
// planner, callbacks, and tools for every declared agent, wires sub_agents
// and depends_on edges, and wraps the whole tree per the orchestration
// block. Unknown names, kinds and references are reported as
// [workflow.HydrationError]s; a registered callback set that lacks the
// requested hook yields a plain error. A workflow that fails to hydrate
// never starts serving.
func Hydrate(def *workflow.WorkflowDefinition) (*Hydrated, error) {
	logger := logging.FromContext(context.Background())
	logger.Info("hydrating workflow", slog.String("workflow", def.Name), slog.Int("agents", len(def.Agents)))

	plugins, err := resolveGlobalPlugins(def.Runtime.Plugins)
	if err != nil {
		return nil, err
	}

	built := make(map[string]types.Agent, len(def.Agents))
	byName := make(map[string]workflow.AgentConfig, len(def.Agents))
	for _, cfg := range def.Agents {
		byName[cfg.Name] = cfg
	}

	pending := make([]workflow.AgentConfig, len(def.Agents))
	copy(pending, def.Agents)

	for len(pending) > 0 {
		progressed := false
		next := pending[:0]

		for _, cfg := range pending {
			if !dependenciesReady(cfg, built) {
				next = append(next, cfg)
				continue
			}

			a, err := buildAgent(cfg, built, plugins)
			if err != nil {
				return nil, err
			}
			built[cfg.Name] = a
			progressed = true
		}

		pending = next
		if !progressed && len(pending) > 0 {
			names := make([]string, 0, len(pending))
			for _, cfg := range pending {
				names = append(names, cfg.Name)
			}
			return nil, &workflow.HydrationError{Path: "agents", Reason: fmt.Sprintf("unresolvable sub_agents dependency among %v", names)}
		}
	}

	root, err := buildOrchestration(def, built)
	if err != nil {
		logger.Error("hydration failed", slog.String("workflow", def.Name), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("workflow hydrated", slog.String("workflow", def.Name), slog.String("orchestration", string(def.Orchestration.Mode)))
	return &Hydrated{Root: root, Agents: built}, nil
}

// dependenciesReady reports whether every sub_agents and agent_tools entry of
// cfg has already been built. A config with neither is always ready.
func dependenciesReady(cfg workflow.AgentConfig, built map[string]types.Agent) bool {
	for _, name := range cfg.SubAgents {
		if _, ok := built[name]; !ok {
			return false
		}
	}
	for _, name := range cfg.AgentTools {
		if _, ok := built[name]; !ok {
			return false
		}
	}
	return true
}

func buildAgent(cfg workflow.AgentConfig, built map[string]types.Agent, plugins []*workflow.GlobalPlugin) (types.Agent, error) {
	opts, err := resolveAgentCallbacks(cfg)
	if err != nil {
		return nil, err
	}
	for _, p := range plugins {
		if p.BeforeAgent != nil {
			opts = append(opts, types.WithBeforeAgentCallbacks(p.BeforeAgent))
		}
		if p.AfterAgent != nil {
			opts = append(opts, types.WithAfterAgentCallbacks(p.AfterAgent))
		}
	}

	switch cfg.Kind {
	case workflow.KindModel:
		return buildModelAgent(cfg, opts, built, plugins)

	case workflow.KindCode:
		return agent.NewCodeAgent(cfg.Name, cfg.FunctionPath, cfg.InputKeys, cfg.OutputKey, opts...)

	case workflow.KindExpression:
		return agent.NewExpressionAgent(cfg.Name, cfg.Expression, cfg.InputKeys, cfg.OutputKey, opts...)

	case workflow.KindTool:
		return agent.NewToolAgent(cfg.Name, cfg.ToolName, cfg.ToolConfig, cfg.OutputKey, opts...)

	case workflow.KindSequential:
		children, err := resolveChildren(cfg.SubAgents, built)
		if err != nil {
			return nil, err
		}
		return agent.NewSequentialAgent(cfg.Name, opts...).WithAgents(children...), nil

	case workflow.KindParallel:
		children, err := resolveChildren(cfg.SubAgents, built)
		if err != nil {
			return nil, err
		}
		return agent.NewParallelAgent(cfg.Name, children, opts...), nil

	case workflow.KindLoop:
		children, err := resolveChildren(cfg.SubAgents, built)
		if err != nil {
			return nil, err
		}
		loop := agent.NewLoopAgent(cfg.Name, opts...).WithAgents(children...)
		if cfg.MaxIterations > 0 {
			loop = loop.WithMaxIterations(cfg.MaxIterations)
		}
		return loop, nil

	default:
		return nil, &workflow.HydrationError{Path: cfg.Name + ".kind", Reason: fmt.Sprintf("unknown agent kind %q", cfg.Kind)}
	}
}

func buildModelAgent(cfg workflow.AgentConfig, opts []types.Option, built map[string]types.Agent, plugins []*workflow.GlobalPlugin) (types.Agent, error) {
	modelOpts := []agent.ModelAgentOption{
		agent.WithModelID(cfg.ModelID),
		agent.WithInstruction(cfg.Instruction),
		agent.WithOutputKey(cfg.OutputKey),
		agent.WithBaseOptions(opts...),
	}

	if gen := cfg.Generation; gen != nil {
		modelOpts = append(modelOpts, agent.WithGenerateContentConfig(generationConfig(gen)))
	}

	if cfg.InputSchema != nil {
		schema, err := jsonSchemaToGenai(cfg.InputSchema)
		if err != nil {
			return nil, &workflow.HydrationError{Path: cfg.Name + ".input_schema", Reason: err.Error()}
		}
		modelOpts = append(modelOpts, agent.WithInputSchema(schema))
	}
	if cfg.OutputSchema != nil {
		schema, err := jsonSchemaToGenai(cfg.OutputSchema)
		if err != nil {
			return nil, &workflow.HydrationError{Path: cfg.Name + ".output_schema", Reason: err.Error()}
		}
		modelOpts = append(modelOpts, agent.WithOutputSchema(schema))

		validator, err := compileOutputSchemaValidator(cfg.OutputSchema)
		if err != nil {
			return nil, &workflow.HydrationError{Path: cfg.Name + ".output_schema", Reason: err.Error()}
		}
		modelOpts = append(modelOpts, agent.WithOutputSchemaValidator(validator))
	}

	planner, err := resolvePlanner(cfg.PlannerKind)
	if err != nil {
		return nil, &workflow.HydrationError{Path: cfg.Name + ".planner", Reason: err.Error()}
	}
	if planner != nil {
		modelOpts = append(modelOpts, agent.WithPlanner(planner))
	}

	if len(cfg.Tools) > 0 {
		toolList, err := tool.GetRegistry().Resolve(cfg.Tools)
		if err != nil {
			return nil, &workflow.HydrationError{Path: cfg.Name + ".tools", Reason: err.Error()}
		}
		modelOpts = append(modelOpts, agent.WithTools(toolList...))
	}

	for _, agentToolName := range cfg.AgentTools {
		target, ok := built[agentToolName]
		if !ok {
			return nil, &workflow.HydrationError{Path: cfg.Name + ".agent_tools", Reason: fmt.Sprintf("references unbuilt agent %q", agentToolName)}
		}
		modelOpts = append(modelOpts, agent.WithTools(tools.NewAgent(
			agentToolName,
			fmt.Sprintf("Delegates to the %s agent.", agentToolName),
			target,
		)))
	}

	for i, oa := range cfg.OpenAPITools {
		scheme, credential := resolveOpenAPIAuth(oa.Auth)
		headerName := ""
		if oa.Auth != nil {
			headerName = oa.Auth.HeaderName
		}
		toolName := fmt.Sprintf("%s_openapi_%d", cfg.Name, i)
		modelOpts = append(modelOpts, agent.WithTools(tools.NewOpenAPITool(
			toolName, oa.Spec, string(scheme), credential, headerName,
		)))
	}

	before, after, err := resolveModelCallbacks(cfg)
	if err != nil {
		return nil, err
	}
	if before != nil {
		modelOpts = append(modelOpts, agent.WithBeforeModelCallbacks(before))
	}
	if after != nil {
		modelOpts = append(modelOpts, agent.WithAfterModelCallbacks(after))
	}

	if name, ok := cfg.Callbacks[hookBeforeTool]; ok {
		cb, err := workflow.Callbacks().ResolveBeforeTool(name)
		if err != nil {
			return nil, err
		}
		modelOpts = append(modelOpts, agent.WithBeforeToolCallbacks(cb))
	}
	if name, ok := cfg.Callbacks[hookAfterTool]; ok {
		cb, err := workflow.Callbacks().ResolveAfterTool(name)
		if err != nil {
			return nil, err
		}
		modelOpts = append(modelOpts, agent.WithAfterToolCallbacks(cb))
	}

	for _, p := range plugins {
		if p.BeforeModel != nil {
			modelOpts = append(modelOpts, agent.WithBeforeModelCallbacks(p.BeforeModel))
		}
		if p.AfterModel != nil {
			modelOpts = append(modelOpts, agent.WithAfterModelCallbacks(p.AfterModel))
		}
		if p.BeforeTool != nil {
			modelOpts = append(modelOpts, agent.WithBeforeToolCallbacks(p.BeforeTool))
		}
		if p.AfterTool != nil {
			modelOpts = append(modelOpts, agent.WithAfterToolCallbacks(p.AfterTool))
		}
	}

	return agent.NewModelAgent(cfg.Name, modelOpts...)
}

func resolveChildren(names []string, built map[string]types.Agent) ([]types.Agent, error) {
	children := make([]types.Agent, 0, len(names))
	for _, name := range names {
		a, ok := built[name]
		if !ok {
			return nil, &workflow.HydrationError{Path: "sub_agents", Reason: fmt.Sprintf("references unbuilt agent %q", name)}
		}
		children = append(children, a)
	}
	return children, nil
}

// buildOrchestration wraps the built agent map per the workflow's root
// orchestration policy (spec §4.5).
func buildOrchestration(def *workflow.WorkflowDefinition, built map[string]types.Agent) (types.Agent, error) {
	orch := def.Orchestration

	switch orch.Mode {
	case workflow.OrchestrationSequential:
		children, err := resolveChildren(orch.Agents, built)
		if err != nil {
			return nil, err
		}
		return agent.NewSequentialAgent(def.Name + ".root").WithAgents(children...), nil

	case workflow.OrchestrationParallel:
		children, err := resolveChildren(orch.Agents, built)
		if err != nil {
			return nil, err
		}
		return agent.NewParallelAgent(def.Name+".root", children), nil

	case workflow.OrchestrationLoop:
		children, err := resolveChildren(orch.Agents, built)
		if err != nil {
			return nil, err
		}
		loop := agent.NewLoopAgent(def.Name + ".root").WithAgents(children...)
		if orch.MaxIterations > 0 {
			loop = loop.WithMaxIterations(orch.MaxIterations)
		}
		return loop, nil

	case workflow.OrchestrationDAG:
		children := make(map[string]types.Agent, len(orch.Nodes))
		dependsOn := make(map[string][]string, len(orch.Nodes))
		order := make([]string, 0, len(orch.Nodes))
		for _, n := range orch.Nodes {
			a, ok := built[n.Agent]
			if !ok {
				return nil, &workflow.HydrationError{Path: "orchestration.nodes", Reason: fmt.Sprintf("references unbuilt agent %q", n.Agent)}
			}
			children[n.Agent] = a
			dependsOn[n.Agent] = n.DependsOn
			order = append(order, n.Agent)
		}
		return agent.NewDAGAgent(def.Name+".root", children, dependsOn, order), nil

	case workflow.OrchestrationReAct:
		a, ok := built[orch.Agent]
		if !ok {
			return nil, &workflow.HydrationError{Path: "orchestration.agent", Reason: fmt.Sprintf("references unbuilt agent %q", orch.Agent)}
		}
		return a, nil

	case workflow.OrchestrationLLMRouted:
		children, err := resolveChildren(orch.Agents, built)
		if err != nil {
			return nil, err
		}
		candidates := make(map[string]types.Agent, len(orch.Agents))
		for i, name := range orch.Agents {
			candidates[name] = children[i]
		}
		return agent.NewRouterAgent(def.Name+".root", orch.Router, candidates, orch.Agents), nil

	default:
		return nil, &workflow.HydrationError{Path: "orchestration.mode", Reason: fmt.Sprintf("unknown orchestration mode %q", orch.Mode)}
	}
}
