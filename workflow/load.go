// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// workflowFile is the on-disk name of a workflow package's definition
// (spec §6 "Workflow definition file (YAML)").
const workflowFile = "workflow.yaml"

// LoadEnv loads a `.env` file by walking upward from dir to the filesystem
// root, stopping at the first one found (spec §6 Environment variables). A
// missing `.env` anywhere in the walk is not an error: boot proceeds with
// whatever the process environment already provides.
func LoadEnv(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("workflow: resolving env search dir: %w", err)
	}

	for {
		candidate := filepath.Join(abs, ".env")
		if _, statErr := os.Stat(candidate); statErr == nil {
			return godotenv.Load(candidate)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return nil
		}
		abs = parent
	}
}

// Load parses one workflow package directory (containing workflow.yaml and
// optionally a specs/ subdirectory) into a raw, not-yet-validated
// [WorkflowDefinition]. Callers must pass the result through [Validate]
// before hydrating it.
func Load(dir string) (*WorkflowDefinition, error) {
	path := filepath.Join(dir, workflowFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflow: reading %s: %w", path, err)
	}

	var def WorkflowDefinition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("workflow: parsing %s: %w", path, err)
	}

	defaults := defaultRuntimeConfig()
	if err := mergo.Merge(&def.Runtime, defaults); err != nil {
		return nil, fmt.Errorf("workflow: applying runtime defaults: %w", err)
	}

	def.BaseDir = dir
	return &def, nil
}

// LoadAll parses every workflow package directory found directly under
// workflowsDir (spec §6: "Loaded from a directory of per-workflow
// packages"). A subdirectory without a workflow.yaml is skipped, not an
// error — it may be scratch space or a specs/ directory belonging to a
// sibling package.
func LoadAll(workflowsDir string) ([]*WorkflowDefinition, error) {
	entries, err := os.ReadDir(workflowsDir)
	if err != nil {
		return nil, fmt.Errorf("workflow: reading %s: %w", workflowsDir, err)
	}

	var defs []*WorkflowDefinition
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(workflowsDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, workflowFile)); err != nil {
			continue
		}
		def, err := Load(dir)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
