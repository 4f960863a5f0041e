// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"log/slog"
)

// BaseLLM carries the fields shared by every concrete model invoker
// (Gemini, Claude, OpenAI): the resolved model name and the generation
// [Config] applied via functional [Option]s.
type BaseLLM struct {
	modelName string

	Config
}

// NewBaseLLM creates a new [BaseLLM] for the given model name.
func NewBaseLLM(modelName string) *BaseLLM {
	return &BaseLLM{
		modelName: modelName,
		Config:    newConfig(),
	}
}

// ModelName returns the resolved model name.
func (b *BaseLLM) ModelName() string {
	return b.modelName
}

// Logger returns the configured logger, defaulting to [slog.Default] if unset.
func (b *BaseLLM) Logger() *slog.Logger {
	if b.logger == nil {
		return slog.Default()
	}
	return b.logger
}
