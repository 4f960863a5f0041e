// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workflow-dir>",
		Short: "Parse and validate a workflow package without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadAndValidate(args[0])
			if err != nil {
				return classifyExit(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d agents, orchestration=%s)\n",
				def.Name, len(def.Agents), def.Orchestration.Mode)
			return nil
		},
	}
}
