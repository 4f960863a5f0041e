// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"

	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/tool"
	"github.com/flowforge/workflowcore/types"
)

// ExitLoop exits the loop.
//
// Call this function only when you are instructed to do so.
func ExitLoop(toolCtx *types.ToolContext) {
	toolCtx.Actions().Escalate = true
}

// ExitLoopTool is the built-in `exit_loop` tool: invoking it sets the
// loop-termination flag on the invoking tool context's action carrier
// (spec §4.5 Loop, §4.10 tool-name catalog).
type ExitLoopTool struct {
	*tool.Tool
}

var _ types.Tool = (*ExitLoopTool)(nil)

// NewExitLoopTool returns the `exit_loop` built-in tool.
func NewExitLoopTool() *ExitLoopTool {
	return &ExitLoopTool{
		Tool: tool.NewTool("exit_loop", "Exits the current loop composite agent.", false),
	}
}

// GetDeclaration implements [types.Tool].
func (t *ExitLoopTool) GetDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
	}
}

// Run implements [types.Tool]. It never fails: setting the flag is the only
// effect, per the built-in tool's invocation semantics.
func (t *ExitLoopTool) Run(ctx context.Context, args map[string]any, toolCtx *types.ToolContext) (any, error) {
	ExitLoop(toolCtx)
	return map[string]any{"exited": true}, nil
}
