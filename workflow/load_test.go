// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package workflow_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flowforge/workflowcore/workflow"
)

const sampleWorkflowYAML = `
name: rate-tracker
description: converts currency and checks a threshold
runtime:
  session_service: in_memory
agents:
  - name: parser
    kind: model
    model_id: anthropic/claude
    instruction: "parse {user_message}"
    output_key: parsed
  - name: build_url
    kind: expression
    expression: "'https://open.er-api.com/v6/latest/' + parsed.base"
    input_keys: [parsed]
    output_key: url
orchestration:
  mode: sequential
  agents: [parser, build_url]
`

func TestLoadParsesWorkflowYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "workflow.yaml"), []byte(sampleWorkflowYAML), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	def, err := workflow.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if def.Name != "rate-tracker" {
		t.Errorf("Name = %q, want rate-tracker", def.Name)
	}
	if len(def.Agents) != 2 {
		t.Fatalf("len(Agents) = %d, want 2", len(def.Agents))
	}
	if def.Runtime.MemoryService != workflow.MemoryNone {
		t.Errorf("MemoryService = %q, want default %q", def.Runtime.MemoryService, workflow.MemoryNone)
	}
	if def.Runtime.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want default UTC", def.Runtime.Timezone)
	}
	if def.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", def.BaseDir, dir)
	}

	if _, err := workflow.Validate(def); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := workflow.Load(t.TempDir()); err == nil {
		t.Fatal("Load succeeded against a directory with no workflow.yaml")
	}
}

func TestLoadAllSkipsDirsWithoutWorkflowFile(t *testing.T) {
	root := t.TempDir()

	wfDir := filepath.Join(root, "rate-tracker")
	if err := os.MkdirAll(wfDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wfDir, "workflow.yaml"), []byte(sampleWorkflowYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	scratchDir := filepath.Join(root, "specs")
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		t.Fatal(err)
	}

	defs, err := workflow.LoadAll(root)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("len(defs) = %d, want 1", len(defs))
	}
	if defs[0].Name != "rate-tracker" {
		t.Errorf("defs[0].Name = %q, want rate-tracker", defs[0].Name)
	}
}
