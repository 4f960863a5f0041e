// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/genai"
)

// MetricsCollector accumulates the per-invocation counters of [UsageSummary]
// via callback hooks bound to one runner instance (spec §4.8). It is
// constructed fresh per invocation and must never be shared across
// invocations: two concurrent runs of the same workflow hold independent
// collectors.
type MetricsCollector struct {
	mu      sync.Mutex
	summary UsageSummary
	started time.Time
	logger  *slog.Logger
}

// NewMetricsCollector constructs an empty collector. logger receives the
// structured before_tool and after_run log lines the spec requires; a nil
// logger discards them.
func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MetricsCollector{logger: logger}
}

// BeforeRun stamps the monotonic start time.
func (m *MetricsCollector) BeforeRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = time.Now()
}

// AfterModel folds one model call's reported usage into the running totals
// and increments llm_calls. usage may be nil when the provider does not
// report it.
func (m *MetricsCollector) AfterModel(modelID string, usage *genai.GenerateContentResponseUsageMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary.LLMCalls++
	m.summary.Model = modelID
	if usage == nil {
		return
	}
	m.summary.InputTokens += int(usage.PromptTokenCount)
	m.summary.OutputTokens += int(usage.CandidatesTokenCount)
	m.summary.CachedTokens += int(usage.CachedContentTokenCount)
	m.summary.TotalTokens += int(usage.TotalTokenCount)
}

// BeforeTool increments tool_calls and emits a structured log with the tool
// name.
func (m *MetricsCollector) BeforeTool(ctx context.Context, name string) {
	m.mu.Lock()
	m.summary.ToolCalls++
	m.mu.Unlock()
	m.logger.InfoContext(ctx, "tool call", slog.String("tool", name))
}

// OnEvent increments steps. Called by the driver once per event observed on
// the root agent's event stream.
func (m *MetricsCollector) OnEvent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary.Steps++
}

// AfterRun stamps the end time, computes duration, emits a completion log
// with the full summary, and returns it.
func (m *MetricsCollector) AfterRun(ctx context.Context) UsageSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started.IsZero() {
		m.summary.DurationMS = time.Since(m.started).Milliseconds()
	}
	m.logger.InfoContext(ctx, "invocation complete",
		slog.Int("input_tokens", m.summary.InputTokens),
		slog.Int("output_tokens", m.summary.OutputTokens),
		slog.Int("total_tokens", m.summary.TotalTokens),
		slog.Int64("duration_ms", m.summary.DurationMS),
		slog.Int("steps", m.summary.Steps),
		slog.Int("llm_calls", m.summary.LLMCalls),
		slog.Int("tool_calls", m.summary.ToolCalls),
	)
	return m.summary
}

// metricsContextKey is how a [*MetricsCollector] rides a [context.Context]
// down into the model-agent callback chain, mirroring internal/logging's
// context-carrier pattern.
type metricsContextKey struct{}

// ContextWithMetrics returns a context carrying collector, for model/tool
// agents to report into via [MetricsFromContext].
func ContextWithMetrics(ctx context.Context, collector *MetricsCollector) context.Context {
	return context.WithValue(ctx, metricsContextKey{}, collector)
}

// MetricsFromContext returns the collector bound to ctx, or a no-op discard
// collector if none was installed (e.g. in tests that construct agents
// directly without a driver).
func MetricsFromContext(ctx context.Context) *MetricsCollector {
	if v := ctx.Value(metricsContextKey{}); v != nil {
		return v.(*MetricsCollector)
	}
	return NewMetricsCollector(nil)
}
