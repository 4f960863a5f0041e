// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// starterWorkflow is the workflow.yaml body `init` writes: the smallest
// definition that hydrates and runs, a single model agent as its own root.
const starterWorkflow = `name: %s
description: Scaffolded workflow, ready to edit.

runtime:
  session_service: in_memory
  memory_service: none
  artifact_service: none

agents:
  - name: assistant
    kind: model
    model_id: gemini-2.0-flash
    instruction: You are a helpful assistant.
    output_key: response

orchestration:
  mode: react
  agent: assistant
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <name>",
		Short: "Scaffold a new workflow package directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initWorkflow(cmd, args[0])
		},
	}
}

func initWorkflow(cmd *cobra.Command, name string) error {
	dir := filepath.Clean(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return classifyExit(fmt.Errorf("creating %s: %w", dir, err))
	}

	path := filepath.Join(dir, "workflow.yaml")
	if _, err := os.Stat(path); err == nil {
		return classifyExit(fmt.Errorf("%s already exists", path))
	}

	body := fmt.Sprintf(starterWorkflow, filepath.Base(dir))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return classifyExit(fmt.Errorf("writing %s: %w", path, err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "scaffolded %s\n", path)
	return nil
}
