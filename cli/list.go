// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowforge/workflowcore/tool"
	"github.com/flowforge/workflowcore/workflow"
)

func newListCmd() *cobra.Command {
	var listTools, listWorkflows bool
	var workflowsDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered tools or discovered workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case listTools:
				return listToolsCmd(cmd)
			case listWorkflows:
				return listWorkflowsCmd(cmd, workflowsDir)
			default:
				return &ExitError{Code: 1, Err: fmt.Errorf("list requires --tools or --workflows")}
			}
		},
	}

	cmd.Flags().BoolVar(&listTools, "tools", false, "list every registered tool")
	cmd.Flags().BoolVar(&listWorkflows, "workflows", false, "list every discovered workflow package")
	cmd.Flags().StringVar(&workflowsDir, "dir", "workflows", "directory of workflow packages, for --workflows")

	return cmd
}

func listToolsCmd(cmd *cobra.Command) error {
	for _, m := range tool.GetRegistry().Metadata() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", m.Name, m.Description)
	}
	return nil
}

func listWorkflowsCmd(cmd *cobra.Command, dir string) error {
	defs, err := workflow.LoadAll(dir)
	if err != nil {
		return classifyExit(err)
	}
	for _, def := range defs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", def.Name, def.Description)
	}
	return nil
}
