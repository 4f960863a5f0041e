// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"os"
	"testing"

	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/types"
)

func TestClaude_Generate(t *testing.T) {
	if os.Getenv(EnvAnthropicAPIKey) == "" {
		t.Skip("requires " + EnvAnthropicAPIKey)
	}

	claude, err := NewClaude(t.Context(), "", ClaudeModeAnthropic)
	if err != nil {
		t.Fatalf("NewClaude: %v", err)
	}

	req := &types.LLMRequest{
		Contents: []*genai.Content{
			{
				Role: RoleUser,
				Parts: []*genai.Part{
					genai.NewPartFromText(`Handle the requests as specified in the System Instruction.`),
				},
			},
		},
	}
	got, err := claude.GenerateContent(t.Context(), req)
	if err != nil {
		t.Fatalf("unexpected error on GenerateContent: %v", err)
	}
	if len(got.Content.Parts) == 0 || got.Content.Parts[0].Text == "" {
		t.Fatalf("want non-empty text, got %#v", got)
	}
}

func TestClaude_StreamGenerate(t *testing.T) {
	if os.Getenv(EnvAnthropicAPIKey) == "" {
		t.Skip("requires " + EnvAnthropicAPIKey)
	}

	claude, err := NewClaude(t.Context(), "", ClaudeModeAnthropic)
	if err != nil {
		t.Fatalf("NewClaude: %v", err)
	}

	req := &types.LLMRequest{
		Contents: []*genai.Content{
			{
				Role: RoleUser,
				Parts: []*genai.Part{
					genai.NewPartFromText(`Handle the requests as specified in the System Instruction.`),
				},
			},
		},
	}

	var got []*types.LLMResponse
	for r, err := range claude.StreamGenerateContent(t.Context(), req) {
		if err != nil {
			t.Fatalf("unexpected error on StreamGenerateContent: %v", err)
		}
		got = append(got, r)
	}
	if len(got) == 0 {
		t.Fatalf("got %d responses, want at least 1", len(got))
	}
}

func TestDetectClaudeDefaultModel(t *testing.T) {
	tests := []struct {
		mode ClaudeMode
		want bool
	}{
		{ClaudeModeAnthropic, true},
		{ClaudeModeBedrock, true},
	}
	for _, tt := range tests {
		if got := detectClaudeDefaultModel(tt.mode); (got != "") != tt.want {
			t.Errorf("detectClaudeDefaultModel(%v) = %q", tt.mode, got)
		}
	}
}
