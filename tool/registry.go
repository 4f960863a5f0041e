// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/flowforge/workflowcore/internal/logging"
	"github.com/flowforge/workflowcore/tool/tools"
	"github.com/flowforge/workflowcore/types"
)

// ToolNotFoundError reports that neither a custom registration nor a
// built-in tool exists under the requested name (spec §4.2 resolve).
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q: not found", e.Name)
}

// Metadata describes a registered tool for CLI listing and A2A surfaces.
type Metadata struct {
	Name        string
	Description string
}

// Registry is the process-wide table of named tools: custom registrations
// self-registered at process start, plus a fixed built-in catalog. Last
// registration under a given name wins, deterministically by module-load
// order (spec §4.2); callers must not otherwise rely on registration order.
type Registry struct {
	mu       sync.RWMutex
	custom   map[string]types.Tool
	builtins map[string]types.Tool
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// GetRegistry returns the process-wide [Registry] singleton, discovering
// built-ins on first use.
func GetRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.Discover()
	})
	return defaultRegistry
}

// NewRegistry creates an empty [Registry]. Most callers want [GetRegistry].
func NewRegistry() *Registry {
	return &Registry{
		custom:   make(map[string]types.Tool),
		builtins: make(map[string]types.Tool),
	}
}

// Register adds a tool under t.Name(). A non-empty name is required;
// duplicate names overwrite silently (last-registration-wins).
func (r *Registry) Register(t types.Tool) error {
	if t == nil || t.Name() == "" {
		return fmt.Errorf("tool registration requires a non-empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[t.Name()] = t
	logging.FromContext(context.Background()).Debug("tool registered", slog.String("tool", t.Name()))
	return nil
}

// Discover triggers the one-time self-registration of every bundled
// built-in tool. Bundled tools are not overridable by Discover itself (a
// later custom Register with the same name still shadows the built-in at
// resolve time); this only seeds the fixed catalog described in §4.10.
func (r *Registry) Discover() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range []types.Tool{
		tools.NewExitLoopTool(),
		tools.NewGoogleSearchTool(),
		tools.NewLoadMemoryTool(),
	} {
		r.builtins[t.Name()] = t
	}
	logging.FromContext(context.Background()).Info("built-in tools discovered", slog.Int("count", len(r.builtins)))
}

// Resolve returns the invocables named names. For each name, a custom
// registration takes priority; otherwise a built-in from the fixed catalog;
// otherwise [ToolNotFoundError].
func (r *Registry) Resolve(names []string) ([]types.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := make([]types.Tool, 0, len(names))
	for _, name := range names {
		if t, ok := r.custom[name]; ok {
			resolved = append(resolved, t)
			continue
		}
		if t, ok := r.builtins[name]; ok {
			resolved = append(resolved, t)
			continue
		}
		logging.FromContext(context.Background()).Warn("tool not found", slog.String("tool", name))
		return nil, &ToolNotFoundError{Name: name}
	}
	return resolved, nil
}

// ResolveOne resolves a single tool name, for the tool-agent kind (§4.4).
func (r *Registry) ResolveOne(name string) (types.Tool, error) {
	resolved, err := r.Resolve([]string{name})
	if err != nil {
		return nil, err
	}
	return resolved[0], nil
}

// Metadata lists every registered tool's name and description, custom
// registrations first, for CLI `list --tools` and A2A surfaces.
func (r *Registry) Metadata() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta := make([]Metadata, 0, len(r.custom)+len(r.builtins))
	for name, t := range r.custom {
		meta = append(meta, Metadata{Name: name, Description: t.Description()})
	}
	for name, t := range r.builtins {
		if _, shadowed := r.custom[name]; shadowed {
			continue
		}
		meta = append(meta, Metadata{Name: name, Description: t.Description()})
	}
	return meta
}
