// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_test

import (
	"time"

	"github.com/flowforge/workflowcore/session"
	"github.com/flowforge/workflowcore/types"
)

// newInvocationContext builds a minimal [*types.InvocationContext] backed by
// an in-memory session seeded with state, for exercising a single leaf
// agent's Execute method in isolation.
func newInvocationContext(a types.Agent, state map[string]any) *types.InvocationContext {
	ses := session.NewSession("test-app", "test-user", "test-session", state, time.Now())
	ictx := types.NewInvocationContext(a, ses, nil)
	ictx.InvocationID = types.NewInvocationContextID()
	return ictx
}
