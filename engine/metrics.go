// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowforge/workflowcore/workflow"
)

// PrometheusExporter mirrors each invocation's [workflow.UsageSummary] into
// process-wide counters, alongside the in-process summary the driver
// already returns to the caller (SPEC_FULL §DOMAIN STACK Prometheus
// export).
type PrometheusExporter struct {
	registry    *prometheus.Registry
	llmCalls    prometheus.Counter
	toolCalls   prometheus.Counter
	steps       prometheus.Counter
	tokensTotal prometheus.Counter
	runDuration prometheus.Histogram
}

// NewPrometheusExporter builds an exporter with its own registry, so
// multiple workflow processes in the same binary (tests) never collide on
// the default global registry.
func NewPrometheusExporter() *PrometheusExporter {
	e := &PrometheusExporter{
		registry: prometheus.NewRegistry(),
		llmCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workflowcore_llm_calls_total",
			Help: "Total model invocations across all runs.",
		}),
		toolCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workflowcore_tool_calls_total",
			Help: "Total tool invocations across all runs.",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workflowcore_steps_total",
			Help: "Total events observed across all runs.",
		}),
		tokensTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workflowcore_tokens_total",
			Help: "Total tokens (prompt + completion) across all runs.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "workflowcore_run_duration_seconds",
			Help:    "Invocation wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	e.registry.MustRegister(e.llmCalls, e.toolCalls, e.steps, e.tokensTotal, e.runDuration)
	return e
}

// Observe folds one completed invocation's summary into the exporter's
// counters.
func (e *PrometheusExporter) Observe(summary workflow.UsageSummary) {
	e.llmCalls.Add(float64(summary.LLMCalls))
	e.toolCalls.Add(float64(summary.ToolCalls))
	e.steps.Add(float64(summary.Steps))
	e.tokensTotal.Add(float64(summary.TotalTokens))
	e.runDuration.Observe(float64(summary.DurationMS) / 1000)
}

// Handler returns the HTTP handler the `serve` CLI command mounts at
// `/metrics`.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
