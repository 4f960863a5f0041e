// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package types defines the core interfaces and shared data structures that
// every other package in this module builds on: agents, models, tools,
// sessions, events, and the contexts that thread through a run.
//
// # Agent
//
// Agent is the contract every concrete agent kind in package agent
// implements, plus BaseAgent, the struct they each hold as a named field for
// the structural parts of the contract (name, parent/sub-agents, callback
// lists):
//
//	type Agent interface {
//		Name() string
//		Description() string
//		ParentAgent() Agent
//		SubAgents() []Agent
//		Execute(ctx context.Context, ictx *InvocationContext) iter.Seq2[*Event, error]
//		Run(ctx context.Context, ictx *InvocationContext) iter.Seq2[*Event, error]
//		RunLive(ctx context.Context, ictx *InvocationContext) iter.Seq2[*Event, error]
//		// ... additional methods
//	}
//
// Execute holds an agent's own logic; Run wraps Execute with before/after
// callbacks and state-delta reconciliation. Because BaseAgent is stored by
// named field rather than embedded interface, each concrete agent must
// register itself with BaseAgent.SetSelf so Run dispatches back to its own
// Execute instead of BaseAgent's stub — see the agent package for the
// rationale.
//
// # Model
//
//	type Model interface {
//		GenerateContent(ctx context.Context, request *LLMRequest) (*LLMResponse, error)
//		StreamGenerateContent(ctx context.Context, request *LLMRequest) iter.Seq2[*LLMResponse, error]
//		Connect(ctx context.Context, request *LLMRequest) (ModelConnection, error)
//	}
//
// Package model provides the Gemini, Claude, and OpenAI invokers and the
// registry that resolves a model_id string to one of them.
//
// # Tool and Toolset
//
//	type Tool interface {
//		Name() string
//		Description() string
//		IsLongRunning() bool
//		GetDeclaration() *genai.FunctionDeclaration
//		Run(ctx context.Context, args map[string]any, toolCtx *ToolContext) (any, error)
//		ProcessLLMRequest(ctx context.Context, toolCtx *ToolContext, request *LLMRequest) error
//	}
//
//	type Toolset interface {
//		GetTools(rctx *ReadOnlyContext) []Tool
//		Close()
//	}
//
// # Event
//
// Event is the unit every agent yields: an LLM response plus the actions it
// produced.
//
//	type Event struct {
//		*LLMResponse
//		InvocationID string
//		Author       string
//		Actions      *EventActions
//		Branch       string
//		ID           string
//		Timestamp    time.Time
//	}
//
//	type EventActions struct {
//		StateDelta      map[string]any
//		TransferToAgent string
//		Escalate        bool
//		// ... additional fields
//	}
//
// # Session and SessionService
//
// Sessions are organized {appName} -> {userID} -> {sessionID}. State keys
// prefixed app:, user:, and temp: control how a StateDelta propagates when
// SessionService.AppendEvent reconciles an event into session state.
//
//	type Session interface {
//		ID() string
//		AppName() string
//		UserID() string
//		State() map[string]any
//		Events() []*Event
//		LastUpdateTime() time.Time
//		AddEvent(events ...*Event)
//		SetLastUpdateTime(time.Time)
//	}
//
//	type SessionService interface {
//		CreateSession(ctx context.Context, appName, userID, sessionID string, state map[string]any) (Session, error)
//		GetSession(ctx context.Context, appName, userID, sessionID string, config *GetSessionConfig) (Session, error)
//		ListSessions(ctx context.Context, appName, userID string) ([]Session, error)
//		DeleteSession(ctx context.Context, appName, userID, sessionID string) error
//		AppendEvent(ctx context.Context, ses Session, event *Event) (*Event, error)
//	}
//
// # InvocationContext
//
// InvocationContext is a plain struct threaded through a run, carrying the
// session, the services available to it, and the agent currently executing:
//
//	type InvocationContext struct {
//		ArtifactService ArtifactService
//		SessionService  SessionService
//		MemoryService   MemoryService
//		InvocationID    string
//		Branch          string
//		Agent           Agent
//		UserContent     *genai.Content
//		Session         Session
//		// ... additional fields
//	}
//
// NewInvocationContext builds one from an agent, a session, and a
// SessionService, configured with functional InvocationContextOptions
// (WithArtifactService, WithMemoryService, and so on). ReadOnlyContext and
// CallbackContext wrap an *InvocationContext to expose a narrower view to
// tools, planners, and agent/model/tool callbacks.
//
// # Errors
//
// NotImplementedError marks a method deliberately left unimplemented for a
// given concrete type (for example BaseAgent's own Execute/ExecuteLive,
// reached only if a constructor forgot to call SetSelf).
//
// # Iterators
//
// Streaming results use Go 1.23+ range-over-func iterators throughout:
//
//	for event, err := range agent.Run(ctx, ictx) {
//		if err != nil {
//			// handle and usually stop ranging
//			break
//		}
//		// process event
//	}
//
// # Python-compatibility helpers
//
// The types/py subpackage documents the set shape (implemented in
// pkg/py) used internally where an interface needs Python-style set
// semantics.
package types
