// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"testing"

	"github.com/kaptinlin/jsonschema"
	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/types"
)

func mustCompile(t *testing.T, schemaJSON string) *jsonschema.Schema {
	t.Helper()
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile([]byte(schemaJSON))
	if err != nil {
		t.Fatalf("compiling schema: %v", err)
	}
	return schema
}

func responseWithText(text string) *types.LLMResponse {
	return &types.LLMResponse{
		Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
	}
}

func TestModelAgentValidateStructuredOutput(t *testing.T) {
	schema := mustCompile(t, `{
		"type": "object",
		"properties": {"threshold_exceeded": {"type": "boolean"}},
		"required": ["threshold_exceeded"]
	}`)

	a := &ModelAgent{outputValidator: schema}

	t.Run("conforming output passes", func(t *testing.T) {
		resp := responseWithText(`{"threshold_exceeded": true}`)
		if err := a.validateStructuredOutput(resp); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("missing required field fails", func(t *testing.T) {
		resp := responseWithText(`{}`)
		if err := a.validateStructuredOutput(resp); err == nil {
			t.Fatal("expected a validation error, got nil")
		}
	})

	t.Run("non-JSON text passes through untouched", func(t *testing.T) {
		resp := responseWithText("not json at all")
		if err := a.validateStructuredOutput(resp); err != nil {
			t.Fatalf("expected no error for non-JSON text, got %v", err)
		}
	})

	t.Run("no validator configured is a no-op", func(t *testing.T) {
		bare := &ModelAgent{}
		resp := responseWithText(`{}`)
		if err := bare.validateStructuredOutput(resp); err != nil {
			t.Fatalf("expected no error without a validator, got %v", err)
		}
	})
}
