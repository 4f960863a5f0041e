// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package tool provides the base infrastructure for creating and managing
// tools that extend agent capabilities: the Tool base type, the process-wide
// Registry that resolves tool names to implementations, and the built-in
// tool catalog.
//
// # Implementing a tool
//
//	type WeatherTool struct {
//		*tool.Tool
//		apiKey string
//	}
//
//	func NewWeatherTool(apiKey string) *WeatherTool {
//		return &WeatherTool{
//			Tool:   tool.NewTool("get_weather", "Get current weather for a location", false),
//			apiKey: apiKey,
//		}
//	}
//
//	func (t *WeatherTool) GetDeclaration() *genai.FunctionDeclaration {
//		return &genai.FunctionDeclaration{
//			Name:        t.Name(),
//			Description: t.Description(),
//			Parameters: &genai.Schema{
//				Type:       genai.TypeObject,
//				Properties: map[string]*genai.Schema{"location": {Type: genai.TypeString}},
//				Required:   []string{"location"},
//			},
//		}
//	}
//
//	func (t *WeatherTool) Run(ctx context.Context, args map[string]any, toolCtx *types.ToolContext) (any, error) {
//		return t.fetch(args["location"].(string))
//	}
//
// # Registration and resolution
//
// Tools used by a workflow document (as a tool agent's tool_name, or a model
// agent's tools list) are looked up by name through the process-wide
// Registry:
//
//	tool.GetRegistry().Register(NewWeatherTool(apiKey))
//	t, err := tool.GetRegistry().ResolveOne("get_weather")
//
// Custom registrations shadow built-ins of the same name; Discover seeds the
// built-in catalog (exit_loop, google_search, load_memory) on first use.
//
// # Long-running tools
//
// A tool marked long-running (the third NewTool argument) should return a
// job handle immediately rather than blocking until work completes:
//
//	return map[string]any{"job_id": jobID, "status": "started"}, nil
package tool
