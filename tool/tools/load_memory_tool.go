// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"

	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/tool"
	"github.com/flowforge/workflowcore/types"
)

// LoadMemoryResponse represents a response from the LoadMemory tool.
type LoadMemoryResponse struct {
	memories []*types.MemoryEntry
}

// LoadMemory loads the memory for the current user.
func LoadMemory(ctx context.Context, query string, toolCtx *types.ToolContext) (*LoadMemoryResponse, error) {
	searchMemoryResponse, err := toolCtx.SearchMemory(ctx, query)
	if err != nil {
		return nil, err
	}

	return &LoadMemoryResponse{
		memories: searchMemoryResponse.Memories,
	}, nil
}

// LoadMemoryTool represents a tool that loads the memory for the current user.
//
// NOTE(adk-python): Currently this tool only uses text part from the memory.
type LoadMemoryTool struct {
	*tool.Tool
}

var _ types.Tool = (*LoadMemoryTool)(nil)

// NewLoadMemoryTool returns the `load_memory` built-in tool.
func NewLoadMemoryTool() *LoadMemoryTool {
	return &LoadMemoryTool{
		Tool: tool.NewTool("load_memory", "Loads the memory for the current user matching a query.", false),
	}
}

// GetDeclaration implements [types.Tool].
func (t *LoadMemoryTool) GetDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {Type: genai.TypeString},
			},
			Required: []string{"query"},
		},
	}
}

// Run implements [types.Tool]. A failed memory search surfaces via the `error`
// field in the returned mapping rather than a raised error, per the
// tool-invocation contract (spec §4.2).
func (t *LoadMemoryTool) Run(ctx context.Context, args map[string]any, toolCtx *types.ToolContext) (any, error) {
	query, _ := args["query"].(string)

	resp, err := LoadMemory(ctx, query, toolCtx)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}

	texts := make([]string, 0, len(resp.memories))
	for _, m := range resp.memories {
		if m == nil || m.Content == nil {
			continue
		}
		for _, part := range m.Content.Parts {
			if part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
	}

	return map[string]any{"memories": texts}, nil
}
