// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"iter"
	"time"

	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/artifact"
	"github.com/flowforge/workflowcore/internal/logging"
	"github.com/flowforge/workflowcore/memory"
	"github.com/flowforge/workflowcore/session"
	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

// Runner bundles the per-invocation services a single run needs: the
// hydrated agent tree plus its session/memory/artifact backing stores
// (spec §4.7 build_runner, §5 Shared-resource policy). A Runner is never
// shared across invocations — constructing one is cheap, so the driver
// builds a fresh Runner per call to [Run]/[RunStreaming].
type Runner struct {
	Root            types.Agent
	SessionService  types.SessionService
	MemoryService   types.MemoryService
	ArtifactService types.ArtifactService
	Timezone        string
}

// RunResult is the caller-facing outcome of one invocation (spec §4.7 run).
type RunResult struct {
	Content   string
	Author    string
	Usage     workflow.UsageSummary
	SessionID string
}

// BuildRunner assembles per-run services for hydrated per rt (spec §4.7
// build_runner): selects the session/memory/artifact backing stores named
// by rt, leaving the metrics collector to be installed fresh by Run per
// invocation (one collector per invocation, never per runner instance, per
// §5's isolation requirement).
func BuildRunner(hydrated *Hydrated, rt workflow.RuntimeConfig) (*Runner, error) {
	sessionSvc, err := buildSessionService(rt)
	if err != nil {
		return nil, err
	}

	memorySvc, err := buildMemoryService(rt)
	if err != nil {
		return nil, err
	}

	artifactSvc, err := buildArtifactService(rt)
	if err != nil {
		return nil, err
	}

	timezone := rt.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	return &Runner{
		Root:            hydrated.Root,
		SessionService:  sessionSvc,
		MemoryService:   memorySvc,
		ArtifactService: artifactSvc,
		Timezone:        timezone,
	}, nil
}

func buildSessionService(rt workflow.RuntimeConfig) (types.SessionService, error) {
	switch rt.SessionService {
	case "", workflow.SessionInMemory:
		return session.NewInMemoryService(), nil
	case workflow.SessionSQLite:
		path := rt.SessionDBPath
		if path == "" {
			path = "workflowcore.db"
		}
		return session.NewSQLiteService(path)
	case workflow.SessionDatabase:
		if rt.SessionDBURL == "" {
			return nil, &workflow.HydrationError{Path: "runtime.session_db_url", Reason: "required when session_service is database"}
		}
		return session.NewSQLiteService(rt.SessionDBURL)
	default:
		return nil, &workflow.HydrationError{Path: "runtime.session_service", Reason: fmt.Sprintf("unknown session service %q", rt.SessionService)}
	}
}

func buildMemoryService(rt workflow.RuntimeConfig) (types.MemoryService, error) {
	switch rt.MemoryService {
	case "", workflow.MemoryNone:
		return nil, nil
	case workflow.MemoryInMemory:
		return memory.NewInMemoryService(), nil
	default:
		return nil, &workflow.HydrationError{Path: "runtime.memory_service", Reason: fmt.Sprintf("unknown memory service %q", rt.MemoryService)}
	}
}

func buildArtifactService(rt workflow.RuntimeConfig) (types.ArtifactService, error) {
	switch rt.ArtifactService {
	case "", workflow.ArtifactNone:
		return nil, nil
	case workflow.ArtifactInMemory:
		return artifact.NewInMemoryService(), nil
	case workflow.ArtifactFile:
		dir := rt.ArtifactDir
		if dir == "" {
			dir = "artifacts"
		}
		return artifact.NewFileService(dir)
	default:
		return nil, &workflow.HydrationError{Path: "runtime.artifact_service", Reason: fmt.Sprintf("unknown artifact service %q", rt.ArtifactService)}
	}
}

// initialSessionState builds the three keys every session always carries
// (spec §6 Session initial state): current_date, current_datetime,
// timezone, resolved against loc.
func initialSessionState(loc *time.Location) map[string]any {
	now := time.Now().In(loc)
	return map[string]any{
		"current_date":     now.Format("2006-01-02"),
		"current_datetime": now.Format(time.RFC3339),
		"timezone":         loc.String(),
	}
}

// resolveOrCreateSession implements the driver's session creation semantics
// (spec §4.7): reuse sessionID if present, else create a session carrying
// the three always-available keys.
func (r *Runner) resolveOrCreateSession(ctx context.Context, appName, userID, sessionID string) (types.Session, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		loc = time.UTC
	}

	if sessionID != "" {
		ses, err := r.SessionService.GetSession(ctx, appName, userID, sessionID, nil)
		if err == nil {
			return ses, nil
		}
	}

	return r.SessionService.CreateSession(ctx, appName, userID, sessionID, initialSessionState(loc))
}

// Run drives hydrated to completion against one caller message (spec §4.7
// run). It resolves or creates a session, builds a fresh metrics collector,
// drives the agent tree, appending every event to the session as it is
// produced, and assembles the result from the last event.
func (r *Runner) Run(ctx context.Context, appName, userID, message, sessionID string) (*RunResult, error) {
	ses, err := r.resolveOrCreateSession(ctx, appName, userID, sessionID)
	if err != nil {
		return nil, &workflow.TransportError{Op: "resolve_session", Reason: err.Error()}
	}

	collector := workflow.NewMetricsCollector(logging.FromContext(ctx))
	collector.BeforeRun()
	ctx = workflow.ContextWithMetrics(ctx, collector)

	ictx := types.NewInvocationContext(r.Root, ses, r.SessionService,
		types.WithArtifactService(r.ArtifactService),
		types.WithMemoryService(r.MemoryService),
		types.WithUserContent(&genai.Content{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(message)}}),
	)
	ictx.InvocationID = types.NewInvocationContextID()

	var last *types.Event
	for event, runErr := range r.Root.Run(ctx, ictx) {
		if runErr != nil {
			return nil, &workflow.TransportError{Op: "agent_run", Reason: runErr.Error()}
		}
		collector.OnEvent()
		if _, err := r.SessionService.AppendEvent(ctx, ses, event); err != nil {
			return nil, &workflow.TransportError{Op: "append_event", Reason: err.Error()}
		}
		last = event
	}

	usage := collector.AfterRun(ctx)

	result := &RunResult{Usage: usage, SessionID: ses.ID()}
	if last != nil {
		result.Author = last.Author
		if last.LLMResponse != nil {
			result.Content = last.GetText()
		}
	}
	return result, nil
}

// RunStreaming has the same lifecycle as [Runner.Run] but yields events to
// the caller as they arrive (spec §4.7 run_streaming). Session creation and
// metrics-collector construction happen eagerly so a failure there surfaces
// before the stream starts; per-event bookkeeping happens lazily as the
// sequence is drained.
func (r *Runner) RunStreaming(ctx context.Context, appName, userID, message, sessionID string) (iter.Seq2[*types.Event, error], error) {
	ses, err := r.resolveOrCreateSession(ctx, appName, userID, sessionID)
	if err != nil {
		return nil, &workflow.TransportError{Op: "resolve_session", Reason: err.Error()}
	}

	collector := workflow.NewMetricsCollector(logging.FromContext(ctx))
	collector.BeforeRun()
	ctx = workflow.ContextWithMetrics(ctx, collector)

	ictx := types.NewInvocationContext(r.Root, ses, r.SessionService,
		types.WithArtifactService(r.ArtifactService),
		types.WithMemoryService(r.MemoryService),
		types.WithUserContent(&genai.Content{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(message)}}),
	)
	ictx.InvocationID = types.NewInvocationContextID()

	return func(yield func(*types.Event, error) bool) {
		defer collector.AfterRun(ctx)
		for event, runErr := range r.Root.Run(ctx, ictx) {
			if runErr != nil {
				yield(nil, &workflow.TransportError{Op: "agent_run", Reason: runErr.Error()})
				return
			}
			collector.OnEvent()
			if _, err := r.SessionService.AppendEvent(ctx, ses, event); err != nil {
				yield(nil, &workflow.TransportError{Op: "append_event", Reason: err.Error()})
				return
			}
			if !yield(event, nil) {
				return
			}
		}
	}, nil
}
