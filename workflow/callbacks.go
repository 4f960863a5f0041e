// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"
	"sync"

	"github.com/flowforge/workflowcore/types"
)

// CallbackSet bundles one named callback implementation for each of the six
// hook points a workflow document can bind an agent to (spec §4.6).
// Every field is optional; a registration only needs to fill the hooks it
// actually implements.
type CallbackSet struct {
	BeforeAgent types.AgentCallback
	AfterAgent  types.AgentCallback

	BeforeModel types.BeforeModelCallback
	AfterModel  types.AfterModelCallback

	BeforeTool types.BeforeToolCallback
	AfterTool  types.AfterToolCallback
}

// CallbackRegistry resolves callback names used in workflow documents
// (`before_agent: audit_log`) to concrete implementations. Go has no
// dynamic-import equivalent, so named callbacks are registered up front by
// the embedding program, mirroring [FunctionRegistry] for code agents.
type CallbackRegistry struct {
	mu  sync.RWMutex
	set map[string]CallbackSet
}

var callbacks = &CallbackRegistry{set: make(map[string]CallbackSet)}

// Callbacks returns the process-wide callback registry.
func Callbacks() *CallbackRegistry { return callbacks }

// Register adds or replaces the named callback set. Last registration wins,
// matching [FunctionRegistry.RegisterFunction] and the tool registry's override
// policy.
func (r *CallbackRegistry) Register(name string, set CallbackSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set[name] = set
}

// ResolveBeforeAgent resolves a before_agent callback name.
func (r *CallbackRegistry) ResolveBeforeAgent(name string) (types.AgentCallback, error) {
	set, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if set.BeforeAgent == nil {
		return nil, fmt.Errorf("callback %q has no before_agent implementation", name)
	}
	return set.BeforeAgent, nil
}

// ResolveAfterAgent resolves an after_agent callback name.
func (r *CallbackRegistry) ResolveAfterAgent(name string) (types.AgentCallback, error) {
	set, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if set.AfterAgent == nil {
		return nil, fmt.Errorf("callback %q has no after_agent implementation", name)
	}
	return set.AfterAgent, nil
}

// ResolveBeforeModel resolves a before_model callback name.
func (r *CallbackRegistry) ResolveBeforeModel(name string) (types.BeforeModelCallback, error) {
	set, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if set.BeforeModel == nil {
		return nil, fmt.Errorf("callback %q has no before_model implementation", name)
	}
	return set.BeforeModel, nil
}

// ResolveAfterModel resolves an after_model callback name.
func (r *CallbackRegistry) ResolveAfterModel(name string) (types.AfterModelCallback, error) {
	set, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if set.AfterModel == nil {
		return nil, fmt.Errorf("callback %q has no after_model implementation", name)
	}
	return set.AfterModel, nil
}

// ResolveBeforeTool resolves a before_tool callback name.
func (r *CallbackRegistry) ResolveBeforeTool(name string) (types.BeforeToolCallback, error) {
	set, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if set.BeforeTool == nil {
		return nil, fmt.Errorf("callback %q has no before_tool implementation", name)
	}
	return set.BeforeTool, nil
}

// ResolveAfterTool resolves an after_tool callback name.
func (r *CallbackRegistry) ResolveAfterTool(name string) (types.AfterToolCallback, error) {
	set, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if set.AfterTool == nil {
		return nil, fmt.Errorf("callback %q has no after_tool implementation", name)
	}
	return set.AfterTool, nil
}

func (r *CallbackRegistry) lookup(name string) (CallbackSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.set[name]
	if !ok {
		return CallbackSet{}, &HydrationError{Path: "callbacks." + name, Reason: "no callback registered under this name"}
	}
	return set, nil
}
