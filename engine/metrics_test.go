// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package engine_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flowforge/workflowcore/engine"
	"github.com/flowforge/workflowcore/workflow"
)

func TestPrometheusExporterObserveAndHandler(t *testing.T) {
	exporter := engine.NewPrometheusExporter()
	exporter.Observe(workflow.UsageSummary{
		InputTokens:  10,
		OutputTokens: 5,
		TotalTokens:  15,
		DurationMS:   250,
		Steps:        3,
		LLMCalls:     2,
		ToolCalls:    1,
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"workflowcore_llm_calls_total 2",
		"workflowcore_tool_calls_total 1",
		"workflowcore_steps_total 3",
		"workflowcore_tokens_total 15",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q, got:\n%s", want, body)
		}
	}
}

func TestPrometheusExporterAccumulatesAcrossObservations(t *testing.T) {
	exporter := engine.NewPrometheusExporter()
	exporter.Observe(workflow.UsageSummary{LLMCalls: 1})
	exporter.Observe(workflow.UsageSummary{LLMCalls: 4})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "workflowcore_llm_calls_total 5") {
		t.Errorf("expected accumulated llm_calls_total of 5, got:\n%s", rec.Body.String())
	}
}
