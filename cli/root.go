// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the workflowcore command-line surface (spec §6 CLI
// surface): run, validate, list, init, serve. Exit codes are carried back to
// main via [ExitError] rather than decided here, so every subcommand's
// RunE stays a plain function returning a plain error.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/flowforge/workflowcore/workflow"
)

// ExitError tags an error with the process exit code main should use
// (spec §6: "Exit codes: 0 success, 1 validation failure, 2 runtime
// error"). A RunE that returns a plain error (e.g. a cobra usage error)
// falls back to exit code 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// classifyExit wraps err as an exit-1 [ExitError] when it is a
// [workflow.ValidationError] or [workflow.HydrationError], the two failure
// kinds a boot never recovers from; anything else is treated as a runtime
// error (exit 2).
func classifyExit(err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *workflow.ValidationError, *workflow.HydrationError:
		return &ExitError{Code: 1, Err: err}
	default:
		return &ExitError{Code: 2, Err: err}
	}
}

// RootCmd assembles the workflowcore root command and its subcommands.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "workflowcore",
		Short:         "Run and manage declarative agent workflows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newListCmd(),
		newInitCmd(),
		newServeCmd(),
	)
	return root
}
