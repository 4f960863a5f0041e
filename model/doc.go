// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package model provides the [types.Model] invokers for every provider a
// workflow's `model_id` can name, plus the [Registry] that resolves a
// `model_id` string into the right one.
//
// # Providers
//
//   - [Gemini]: native Google Gemini, selected when model_id carries no
//     provider prefix.
//   - [Claude]: Anthropic Claude, selected by the `anthropic/` prefix,
//     reachable either directly or through AWS Bedrock ([ClaudeMode]).
//   - [OpenAI]: OpenAI chat completions, selected by the `openai/` prefix.
//
// # Resolution
//
// [Resolve] (backed by the process-wide [Registry]) dispatches on the
// model_id's prefix and memoizes the constructed invoker in an LRU cache, so
// repeated hydration of the same model_id across agents reuses one client:
//
//	m, err := model.Resolve(ctx, "anthropic/claude-3-5-sonnet-20241022")
//	resp, err := m.GenerateContent(ctx, request)
//
// # Configuration
//
// Generation parameters (safety settings, a custom logger) are applied at
// construction time via the functional [Option] type:
//
//	gemini, err := model.NewGemini(ctx, apiKey, "gemini-2.5-flash",
//		model.WithSafetySettings(settings),
//		model.WithLogger(logger),
//	)
//
// # Credentials
//
// [NewGemini] falls back to [EnvGoogleAPIKey] when its apiKey argument is
// empty. [NewClaude] and [NewOpenAI] take no key argument: in
// [ClaudeModeAnthropic] the Anthropic SDK's default client options read
// [EnvAnthropicAPIKey], and NewOpenAI reads [EnvOpenAIAPIKey].
package model
