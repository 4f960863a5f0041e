// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowforge/workflowcore/engine"
	"github.com/flowforge/workflowcore/workflow"
)

func newRunCmd() *cobra.Command {
	var message, userID, sessionID string

	cmd := &cobra.Command{
		Use:   "run <workflow-dir>",
		Short: "Load, hydrate, and run a workflow against one message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, args[0], message, userID, sessionID)
		},
	}

	cmd.Flags().StringVar(&message, "message", "", "user message to send (required)")
	cmd.Flags().StringVar(&userID, "user", "cli-user", "user id the session is scoped to")
	cmd.Flags().StringVar(&sessionID, "session", "", "existing session id to resume, or empty for a new session")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func runWorkflow(cmd *cobra.Command, dir, message, userID, sessionID string) error {
	ctx := cmd.Context()

	def, err := loadAndValidate(dir)
	if err != nil {
		return classifyExit(err)
	}

	hydrated, err := engine.Hydrate(def)
	if err != nil {
		return classifyExit(err)
	}

	runner, err := engine.BuildRunner(hydrated, def.Runtime)
	if err != nil {
		return classifyExit(err)
	}

	result, err := runner.Run(ctx, def.Name, userID, message, sessionID)
	if err != nil {
		return classifyExit(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", result.Content)
	fmt.Fprintf(cmd.OutOrStdout(), "session: %s\n", result.SessionID)
	fmt.Fprintf(cmd.OutOrStdout(), "usage: model=%s llm_calls=%d tool_calls=%d tokens=%d duration_ms=%d\n",
		result.Usage.Model, result.Usage.LLMCalls, result.Usage.ToolCalls, result.Usage.TotalTokens, result.Usage.DurationMS)
	return nil
}

// loadAndValidate is the shared run/validate prefix: parse workflow.yaml,
// then run it through [workflow.Validate].
func loadAndValidate(dir string) (*workflow.WorkflowDefinition, error) {
	def, err := workflow.Load(dir)
	if err != nil {
		return nil, &workflow.ValidationError{Reason: err.Error()}
	}
	return workflow.Validate(def)
}
