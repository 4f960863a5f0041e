// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/flowforge/workflowcore/types"
)

// Provider prefixes recognized in a `model_id`. Any model_id without one of
// these prefixes is treated as a native (Gemini) model name.
const (
	AnthropicPrefix = "anthropic/"
	OpenAIPrefix    = "openai/"
)

// Registry resolves a workflow's `model_id` strings into [types.Model]
// invokers, memoizing constructed invokers so repeated hydration of the same
// model_id across agents doesn't re-dial a fresh client each time.
type Registry struct {
	mu    sync.Mutex
	cache *lru.Cache[string, types.Model]
}

// NewRegistry creates a [Registry] with an LRU cache bounded to size entries.
func NewRegistry(size int) *Registry {
	cache, _ := lru.New[string, types.Model](size)
	return &Registry{cache: cache}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// GetRegistry returns the process-wide [Registry] singleton.
func GetRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(64)
	})
	return defaultRegistry
}

// Resolve returns the [types.Model] invoker for modelID, constructing and
// caching one if this is the first resolution of that exact string.
//
// A modelID with no recognized provider prefix resolves to the native Gemini
// invoker; `anthropic/` and `openai/` prefixes select the corresponding
// cross-provider adapter. This is the hydrator's `resolve_model` operation.
func (r *Registry) Resolve(ctx context.Context, modelID string) (types.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.cache.Get(modelID); ok {
		return m, nil
	}

	m, err := r.construct(ctx, modelID)
	if err != nil {
		return nil, err
	}

	r.cache.Add(modelID, m)
	return m, nil
}

func (r *Registry) construct(ctx context.Context, modelID string) (types.Model, error) {
	switch {
	case strings.HasPrefix(modelID, AnthropicPrefix):
		name := strings.TrimPrefix(modelID, AnthropicPrefix)
		return NewClaude(ctx, name, ClaudeModeAnthropic)

	case strings.HasPrefix(modelID, OpenAIPrefix):
		name := strings.TrimPrefix(modelID, OpenAIPrefix)
		return NewOpenAI(ctx, name)

	default:
		return NewGemini(ctx, "", modelID)
	}
}

// Resolve is a convenience wrapper around [GetRegistry].Resolve.
func Resolve(ctx context.Context, modelID string) (types.Model, error) {
	m, err := GetRegistry().Resolve(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("resolve model %q: %w", modelID, err)
	}
	return m, nil
}
