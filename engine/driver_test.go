// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package engine_test

import (
	"context"
	"testing"

	"github.com/flowforge/workflowcore/agent"
	"github.com/flowforge/workflowcore/engine"
	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

// echoHydrated builds a minimal [*engine.Hydrated] around a single
// expression agent that copies the `greeting` input key to `echoed`,
// standing in for a real hydrated workflow so driver tests don't need a
// model backend.
func echoHydrated(t *testing.T) *engine.Hydrated {
	t.Helper()
	leaf, err := agent.NewExpressionAgent("echo", "greeting", []string{"greeting"}, "echoed")
	if err != nil {
		t.Fatalf("NewExpressionAgent: %v", err)
	}
	root := agent.NewSequentialAgent("echo.root").WithAgents(leaf)
	return &engine.Hydrated{Root: root, Agents: map[string]types.Agent{"echo": leaf}}
}

func TestBuildRunnerDefaultsToInMemoryServices(t *testing.T) {
	runner, err := engine.BuildRunner(echoHydrated(t), workflow.RuntimeConfig{})
	if err != nil {
		t.Fatalf("BuildRunner: %v", err)
	}
	if runner.SessionService == nil {
		t.Fatal("expected a default in-memory session service")
	}
	if runner.MemoryService != nil {
		t.Error("expected no memory service when runtime.memory_service is unset")
	}
	if runner.ArtifactService != nil {
		t.Error("expected no artifact service when runtime.artifact_service is unset")
	}
	if runner.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", runner.Timezone)
	}
}

func TestBuildRunnerRejectsDatabaseWithoutURL(t *testing.T) {
	_, err := engine.BuildRunner(echoHydrated(t), workflow.RuntimeConfig{SessionService: workflow.SessionDatabase})
	if err == nil {
		t.Fatal("expected an error when session_db_url is missing for the database backend")
	}
}

func TestBuildRunnerRejectsUnknownServiceKinds(t *testing.T) {
	cases := []workflow.RuntimeConfig{
		{SessionService: "bogus"},
		{MemoryService: "bogus"},
		{ArtifactService: "bogus"},
	}
	for _, rt := range cases {
		if _, err := engine.BuildRunner(echoHydrated(t), rt); err == nil {
			t.Errorf("BuildRunner(%+v): expected error for unknown service kind", rt)
		}
	}
}

func TestRunnerRunAppendsEventsAndReturnsLastAuthor(t *testing.T) {
	runner, err := engine.BuildRunner(echoHydrated(t), workflow.RuntimeConfig{})
	if err != nil {
		t.Fatalf("BuildRunner: %v", err)
	}

	result, err := runner.Run(context.Background(), "myapp", "user1", "hello", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Author != "echo" {
		t.Errorf("Author = %q, want echo", result.Author)
	}
	if result.SessionID == "" {
		t.Error("expected a generated session ID")
	}

	ses, err := runner.SessionService.GetSession(context.Background(), "myapp", "user1", result.SessionID, nil)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(ses.Events()) != 1 {
		t.Fatalf("got %d appended events, want 1", len(ses.Events()))
	}
}

func TestRunnerRunReusesExistingSession(t *testing.T) {
	runner, err := engine.BuildRunner(echoHydrated(t), workflow.RuntimeConfig{})
	if err != nil {
		t.Fatalf("BuildRunner: %v", err)
	}

	first, err := runner.Run(context.Background(), "myapp", "user1", "hello", "")
	if err != nil {
		t.Fatalf("Run (first): %v", err)
	}

	second, err := runner.Run(context.Background(), "myapp", "user1", "hello again", first.SessionID)
	if err != nil {
		t.Fatalf("Run (second): %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("SessionID changed across calls: %q -> %q", first.SessionID, second.SessionID)
	}

	ses, err := runner.SessionService.GetSession(context.Background(), "myapp", "user1", first.SessionID, nil)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(ses.Events()) != 2 {
		t.Fatalf("got %d events after two runs, want 2", len(ses.Events()))
	}
}

func TestRunnerRunStreamingYieldsEventsAsTheyArrive(t *testing.T) {
	runner, err := engine.BuildRunner(echoHydrated(t), workflow.RuntimeConfig{})
	if err != nil {
		t.Fatalf("BuildRunner: %v", err)
	}

	seq, err := runner.RunStreaming(context.Background(), "myapp", "user1", "hello", "")
	if err != nil {
		t.Fatalf("RunStreaming: %v", err)
	}

	var events []*types.Event
	for event, err := range seq {
		if err != nil {
			t.Fatalf("streaming error: %v", err)
		}
		events = append(events, event)
	}
	if len(events) != 1 {
		t.Fatalf("got %d streamed events, want 1", len(events))
	}
	if events[0].Author != "echo" {
		t.Errorf("Author = %q, want echo", events[0].Author)
	}
}
