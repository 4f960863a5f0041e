// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"encoding/json"
	"os"

	"github.com/kaptinlin/jsonschema"
	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/planner"
	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

// compileOutputSchemaValidator compiles a raw output_schema document (parsed
// from YAML as plain Go values) with github.com/kaptinlin/jsonschema, for an
// independent re-check of structured model output beyond what the
// provider-facing genai.Schema translation can express (spec §4.4 Model
// agent: "constrains the model's output to the schema and records the
// structured value").
func compileOutputSchemaValidator(raw map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	return compiler.Compile(b)
}

// resolveOpenAPIAuth implements the hydrator's resolve_openapi_auth
// operation (spec §4.3): maps an `openapi_tools` entry's auth block to the
// downstream auth shape. Environment-variable lookups fail soft — a missing
// variable yields an empty credential so the failure surfaces when the
// tool is actually called, not at hydration time.
func resolveOpenAPIAuth(cfg *workflow.OpenAPIAuthConfig) (scheme workflow.AuthScheme, credential string) {
	if cfg == nil || cfg.Scheme == "" || cfg.Scheme == workflow.AuthNone {
		return workflow.AuthNone, ""
	}
	switch cfg.Scheme {
	case workflow.AuthBearer, workflow.AuthAPIKey:
		return cfg.Scheme, os.Getenv(cfg.EnvVar)
	case workflow.AuthOAuth2:
		return cfg.Scheme, os.Getenv(cfg.ClientIDVar) + ":" + os.Getenv(cfg.ClientSecVar)
	default:
		return workflow.AuthNone, ""
	}
}

// generationConfig translates a [workflow.GenerationConfig] into the
// [genai.GenerateContentConfig] the model invokers expect.
func generationConfig(gen *workflow.GenerationConfig) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if gen.Temperature != nil {
		t := float32(*gen.Temperature)
		config.Temperature = &t
	}
	if gen.MaxTokens != nil {
		config.MaxOutputTokens = int32(*gen.MaxTokens)
	}
	if gen.TopP != nil {
		p := float32(*gen.TopP)
		config.TopP = &p
	}
	if gen.TopK != nil {
		k := float32(*gen.TopK)
		config.TopK = &k
	}
	return config
}

// jsonSchemaToGenai round-trips a raw `input_schema`/`output_schema` map
// (parsed from YAML as plain Go values) through JSON into a [genai.Schema].
func jsonSchemaToGenai(raw map[string]any) (*genai.Schema, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var schema genai.Schema
	if err := json.Unmarshal(b, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// resolvePlanner implements the hydrator's resolve_planner operation
// (spec §4.3): an AgentConfig's planner field selects a [types.Planner]
// implementation, or none.
func resolvePlanner(kind workflow.Planner) (types.Planner, error) {
	switch kind {
	case workflow.PlannerNone:
		return nil, nil
	case workflow.PlannerPlanReAct:
		return &planner.PlanReActPlanner{}, nil
	case workflow.PlannerBuiltIn:
		return planner.NewBuiltInPlanner(nil), nil
	default:
		return nil, &workflow.HydrationError{Reason: "unknown planner kind " + string(kind)}
	}
}

// hookNames are the six callback hook points a workflow document can bind
// per agent (spec §4.6).
const (
	hookBeforeAgent = "before_agent"
	hookAfterAgent  = "after_agent"
	hookBeforeModel = "before_model"
	hookAfterModel  = "after_model"
	hookBeforeTool  = "before_tool"
	hookAfterTool   = "after_tool"
)

// resolveAgentCallbacks implements the before_agent/after_agent slice of the
// hydrator's resolve_callbacks operation, returning the [types.Option]s to
// forward into the agent's [types.BaseAgent].
func resolveAgentCallbacks(cfg workflow.AgentConfig) ([]types.Option, error) {
	var opts []types.Option

	if name, ok := cfg.Callbacks[hookBeforeAgent]; ok {
		cb, err := workflow.Callbacks().ResolveBeforeAgent(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, types.WithBeforeAgentCallbacks(cb))
	}
	if name, ok := cfg.Callbacks[hookAfterAgent]; ok {
		cb, err := workflow.Callbacks().ResolveAfterAgent(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, types.WithAfterAgentCallbacks(cb))
	}

	return opts, nil
}

// resolveGlobalPlugins builds every runtime.plugins entry via the named
// plugin registry (spec §6 Plugin registry). A plugin whose configuration
// is absent is silently skipped, not an error.
func resolveGlobalPlugins(names []string) ([]*workflow.GlobalPlugin, error) {
	plugins := make([]*workflow.GlobalPlugin, 0, len(names))
	for _, name := range names {
		p, err := workflow.ResolvePlugin(name, workflow.DefaultSecrets())
		if err != nil {
			return nil, err
		}
		if p != nil {
			plugins = append(plugins, p)
		}
	}
	return plugins, nil
}

// resolveModelCallbacks implements the before_model/after_model slice of
// resolve_callbacks, for model-kind agents only.
func resolveModelCallbacks(cfg workflow.AgentConfig) (types.BeforeModelCallback, types.AfterModelCallback, error) {
	var before types.BeforeModelCallback
	var after types.AfterModelCallback

	if name, ok := cfg.Callbacks[hookBeforeModel]; ok {
		cb, err := workflow.Callbacks().ResolveBeforeModel(name)
		if err != nil {
			return nil, nil, err
		}
		before = cb
	}
	if name, ok := cfg.Callbacks[hookAfterModel]; ok {
		cb, err := workflow.Callbacks().ResolveAfterModel(name)
		if err != nil {
			return nil, nil, err
		}
		after = cb
	}

	return before, after, nil
}
