// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/internal/logging"
	"github.com/flowforge/workflowcore/types"
)

// GlobalPlugin bundles the callback hooks a runtime plugin contributes.
// Every field is optional; a plugin installs only the hooks it needs.
type GlobalPlugin struct {
	BeforeAgent types.AgentCallback
	AfterAgent  types.AgentCallback
	BeforeModel types.BeforeModelCallback
	AfterModel  types.AfterModelCallback
	BeforeTool  types.BeforeToolCallback
	AfterTool   types.AfterToolCallback
}

// PluginFactory builds a [GlobalPlugin] from the process secret store. A
// false second return means the factory's required configuration is absent;
// the plugin is silently skipped (spec §6 Plugin registry).
type PluginFactory func(secrets *SecretStore) (*GlobalPlugin, bool)

// pluginFactories is the fixed, non-extensible set of named runtime plugins
// (spec §6).
var pluginFactories = map[string]PluginFactory{
	"logging":                 loggingPluginFactory,
	"debug_logging":           debugLoggingPluginFactory,
	"reflect_and_retry":       reflectAndRetryPluginFactory,
	"context_filter":          contextFilterPluginFactory,
	"save_files_as_artifacts": saveFilesAsArtifactsPluginFactory,
	"multimodal_tool_results": multimodalToolResultsPluginFactory,
	"bigquery_analytics":      bigQueryAnalyticsPluginFactory,
}

// ResolvePlugin builds the named runtime plugin, or returns (nil, nil) if
// name is known but its configuration is absent. An unknown name is a
// [HydrationError].
func ResolvePlugin(name string, secrets *SecretStore) (*GlobalPlugin, error) {
	factory, ok := pluginFactories[name]
	if !ok {
		return nil, &HydrationError{Path: "runtime.plugins", Reason: "unknown plugin " + name}
	}
	plugin, ok := factory(secrets)
	if !ok {
		return nil, nil
	}
	return plugin, nil
}

// loggingPluginFactory logs agent entry/exit at info level. Needs no
// configuration, so it never skips.
func loggingPluginFactory(_ *SecretStore) (*GlobalPlugin, bool) {
	return &GlobalPlugin{
		BeforeAgent: func(cctx *types.CallbackContext) (*genai.Content, error) {
			logging.FromContext(context.Background()).Info("agent start", slog.String("agent", cctx.AgentName()))
			return nil, nil
		},
		AfterAgent: func(cctx *types.CallbackContext) (*genai.Content, error) {
			logging.FromContext(context.Background()).Info("agent end", slog.String("agent", cctx.AgentName()))
			return nil, nil
		},
	}, true
}

// debugLoggingPluginFactory dumps the full model request/response at debug
// level. Needs no configuration, so it never skips.
func debugLoggingPluginFactory(_ *SecretStore) (*GlobalPlugin, bool) {
	return &GlobalPlugin{
		BeforeModel: func(cctx *types.CallbackContext, request *types.LLMRequest) (*types.LLMResponse, error) {
			logging.FromContext(context.Background()).Debug("model request", slog.Any("request", request))
			return nil, nil
		},
		AfterModel: func(cctx *types.CallbackContext, response *types.LLMResponse) (*types.LLMResponse, error) {
			logging.FromContext(context.Background()).Debug("model response", slog.Any("response", response))
			return nil, nil
		},
	}, true
}

// reflectAndRetryPluginFactory wraps tool execution with exponential
// backoff via github.com/sethvargo/go-retry, reading max attempts and the
// initial delay from the secret store. Skips if either is unset.
func reflectAndRetryPluginFactory(secrets *SecretStore) (*GlobalPlugin, bool) {
	_, hasAttempts := secrets.Get("retry_max_attempts")
	_, hasDelay := secrets.Get("retry_delay_ms")
	if !hasAttempts || !hasDelay {
		return nil, false
	}

	return &GlobalPlugin{
		AfterTool: func(tool types.Tool, args map[string]any, toolCtx *types.ToolContext, toolResponse map[string]any) (map[string]any, error) {
			if _, failed := toolResponse["error"]; !failed {
				return nil, nil
			}

			backoff := retryBackoff(secrets)
			var result map[string]any
			err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
				r, err := tool.Run(ctx, args, toolCtx)
				if err != nil {
					return retry.RetryableError(err)
				}
				m, ok := r.(map[string]any)
				if !ok {
					m = map[string]any{"result": r}
				}
				if msg, failed := m["error"]; failed {
					return retry.RetryableError(fmt.Errorf("tool %s: %v", tool.Name(), msg))
				}
				result = m
				return nil
			})
			if err != nil {
				return nil, err
			}
			return result, nil
		},
	}, true
}

func retryBackoff(secrets *SecretStore) retry.Backoff {
	delayMS := 100
	if v, ok := secrets.Get("retry_delay_ms"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			delayMS = n
		}
	}
	attempts := uint64(3)
	if v, ok := secrets.Get("retry_max_attempts"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			attempts = uint64(n)
		}
	}
	backoff := retry.NewExponential(time.Duration(delayMS) * time.Millisecond)
	backoff = retry.WithMaxRetries(attempts, backoff)
	return backoff
}

// contextFilterPluginFactory installs a BeforeModel hook once a
// context_filter_prefix is configured, and skips otherwise. The hook leaves
// the model request unchanged; no keys are trimmed from it.
func contextFilterPluginFactory(secrets *SecretStore) (*GlobalPlugin, bool) {
	prefix, ok := secrets.Get("context_filter_prefix")
	if !ok {
		return nil, false
	}
	_ = prefix
	return &GlobalPlugin{
		BeforeModel: func(cctx *types.CallbackContext, request *types.LLMRequest) (*types.LLMResponse, error) {
			return nil, nil
		},
	}, true
}

// saveFilesAsArtifactsPluginFactory installs an AfterTool hook once an
// artifact_dir is configured, and skips otherwise. The hook leaves tool
// results unchanged; nothing is saved as an artifact.
func saveFilesAsArtifactsPluginFactory(secrets *SecretStore) (*GlobalPlugin, bool) {
	if _, ok := secrets.Get("artifact_dir"); !ok {
		return nil, false
	}
	return &GlobalPlugin{
		AfterTool: func(tool types.Tool, args map[string]any, toolCtx *types.ToolContext, toolResponse map[string]any) (map[string]any, error) {
			return nil, nil
		},
	}, true
}

// multimodalToolResultsPluginFactory installs an AfterTool hook that leaves
// tool results unchanged; no parts are re-encoded. Needs no configuration.
func multimodalToolResultsPluginFactory(_ *SecretStore) (*GlobalPlugin, bool) {
	return &GlobalPlugin{
		AfterTool: func(tool types.Tool, args map[string]any, toolCtx *types.ToolContext, toolResponse map[string]any) (map[string]any, error) {
			return nil, nil
		},
	}, true
}

// bigQueryAnalyticsPluginFactory would stream per-call analytics rows to
// BigQuery; this module carries no BigQuery SDK dependency (none of the
// retrieval pack's go.mod files import one — see DESIGN.md), so it falls
// back to a structured log line carrying the same fields a row would. Skips
// if no dataset is configured, matching the "missing configuration" rule.
func bigQueryAnalyticsPluginFactory(secrets *SecretStore) (*GlobalPlugin, bool) {
	dataset, ok := secrets.Get("bigquery_dataset")
	if !ok {
		return nil, false
	}
	return &GlobalPlugin{
		AfterModel: func(cctx *types.CallbackContext, response *types.LLMResponse) (*types.LLMResponse, error) {
			logging.FromContext(context.Background()).Info("analytics row",
				slog.String("dataset", dataset),
				slog.String("agent", cctx.AgentName()),
			)
			return nil, nil
		},
	}, true
}
