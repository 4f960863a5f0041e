// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflow holds the declarative data model for a workflow
// definition (spec §3 DATA MODEL), its loader and cross-reference validator,
// the function, callback and plugin registries, the secret store, and the
// metrics collector. Hydration, execution and the A2A card live in package
// engine.
package workflow

// AgentKind tags the variant a given [AgentConfig] carries. Go has no
// subclass hierarchy; kind dispatch replaces it, per the redesign note in
// spec §9 ("Deep polymorphism across agents").
type AgentKind string

const (
	KindModel      AgentKind = "model"
	KindCode       AgentKind = "code"
	KindExpression AgentKind = "expression"
	KindTool       AgentKind = "tool"
	KindSequential AgentKind = "sequential"
	KindParallel   AgentKind = "parallel"
	KindLoop       AgentKind = "loop"
)

// Planner names the planner strategy an [AgentConfig] of kind model may opt
// into (spec §4.3 resolve_planner).
type Planner string

const (
	PlannerNone     Planner = ""
	PlannerPlanReAct Planner = "plan_react"
	PlannerBuiltIn  Planner = "built_in"
)

// AuthScheme names the downstream auth shape an openapi_tools entry resolves
// to (spec §4.3 resolve_openapi_auth).
type AuthScheme string

const (
	AuthNone   AuthScheme = "none"
	AuthBearer AuthScheme = "bearer"
	AuthAPIKey AuthScheme = "apikey"
	AuthOAuth2 AuthScheme = "oauth2"
)

// GenerationConfig carries the optional per-model-agent generation settings.
type GenerationConfig struct {
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty"`
	TopP        *float64 `yaml:"top_p,omitempty"`
	TopK        *int     `yaml:"top_k,omitempty"`
}

// OpenAPIAuthConfig configures how an `openapi_tools` entry authenticates.
type OpenAPIAuthConfig struct {
	Scheme       AuthScheme `yaml:"scheme,omitempty"`
	EnvVar       string     `yaml:"env_var,omitempty"`
	HeaderName   string     `yaml:"header_name,omitempty"`
	TokenURL     string     `yaml:"token_url,omitempty"`
	ClientIDVar  string     `yaml:"client_id_var,omitempty"`
	ClientSecVar string     `yaml:"client_secret_var,omitempty"`
}

// OpenAPIToolConfig is one `openapi_tools` entry: a spec reference plus how
// calls against it authenticate.
type OpenAPIToolConfig struct {
	Spec string             `yaml:"spec" validate:"required"`
	Auth *OpenAPIAuthConfig `yaml:"auth,omitempty"`
}

// AgentConfig is the tagged-variant record for one node in the agent tree
// (spec §3 AgentConfig). Only the fields relevant to Kind are populated;
// [Validate] enforces kind-specific required fields.
type AgentConfig struct {
	Name        string    `yaml:"name" validate:"required"`
	Kind        AgentKind `yaml:"kind" validate:"required"`
	Description string    `yaml:"description,omitempty"`

	InputKeys []string `yaml:"input_keys,omitempty"`
	OutputKey string   `yaml:"output_key,omitempty"`
	Callbacks map[string]string `yaml:"callbacks,omitempty"`

	// model
	ModelID      string              `yaml:"model_id,omitempty"`
	Instruction  string              `yaml:"instruction,omitempty"`
	Generation   *GenerationConfig   `yaml:"generation,omitempty"`
	Tools        []string            `yaml:"tools,omitempty"`
	AgentTools   []string            `yaml:"agent_tools,omitempty"`
	OpenAPITools []OpenAPIToolConfig `yaml:"openapi_tools,omitempty"`
	OutputSchema map[string]any      `yaml:"output_schema,omitempty"`
	InputSchema  map[string]any      `yaml:"input_schema,omitempty"`
	PlannerKind  Planner             `yaml:"planner,omitempty"`

	// code
	FunctionPath string `yaml:"function,omitempty"`

	// expression
	Expression string `yaml:"expression,omitempty"`

	// tool
	ToolName   string            `yaml:"tool,omitempty"`
	ToolConfig map[string]string `yaml:"tool_config,omitempty"`

	// sequential | parallel | loop
	SubAgents     []string `yaml:"sub_agents,omitempty"`
	MaxIterations int      `yaml:"max_iterations,omitempty"`
}

// OrchestrationMode tags the variant [OrchestrationConfig] carries.
type OrchestrationMode string

const (
	OrchestrationSequential OrchestrationMode = "sequential"
	OrchestrationParallel   OrchestrationMode = "parallel"
	OrchestrationLoop       OrchestrationMode = "loop"
	OrchestrationDAG        OrchestrationMode = "dag"
	OrchestrationReAct      OrchestrationMode = "react"
	OrchestrationLLMRouted  OrchestrationMode = "llm_routed"
)

// DAGNodeConfig is one node of a `dag` orchestration: an agent plus the
// names of the nodes it depends on.
type DAGNodeConfig struct {
	Agent     string   `yaml:"agent" validate:"required"`
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// OrchestrationConfig is the tagged-variant record describing how a
// workflow's root is scheduled (spec §3 OrchestrationConfig).
type OrchestrationConfig struct {
	Mode OrchestrationMode `yaml:"mode" validate:"required"`

	Agents        []string        `yaml:"agents,omitempty"`
	Nodes         []DAGNodeConfig `yaml:"nodes,omitempty"`
	Agent         string          `yaml:"agent,omitempty"`
	Router        string          `yaml:"router,omitempty"`
	Planner       Planner         `yaml:"planner,omitempty"`
	MaxIterations int             `yaml:"max_iterations,omitempty"`
}

// SessionServiceKind selects the session backing store (spec §4.7 table).
type SessionServiceKind string

const (
	SessionInMemory SessionServiceKind = "in_memory"
	SessionSQLite   SessionServiceKind = "sqlite"
	SessionDatabase SessionServiceKind = "database"
)

// MemoryServiceKind selects the memory backing store.
type MemoryServiceKind string

const (
	MemoryNone     MemoryServiceKind = "none"
	MemoryInMemory MemoryServiceKind = "in_memory"
)

// ArtifactServiceKind selects the artifact backing store.
type ArtifactServiceKind string

const (
	ArtifactNone     ArtifactServiceKind = "none"
	ArtifactInMemory ArtifactServiceKind = "in_memory"
	ArtifactFile     ArtifactServiceKind = "file"
)

// ContextCacheConfig carries the snapshot-cache size and compaction
// threshold named but left unspecified by spec §3 RuntimeConfig. The values
// are validated, but no package reads them. See DESIGN.md Open Questions.
type ContextCacheConfig struct {
	Size                int `yaml:"size,omitempty" validate:"omitempty,min=1"`
	CompactionThreshold int `yaml:"compaction_threshold,omitempty" validate:"omitempty,min=1"`
}

// RuntimeConfig is the per-workflow service selection (spec §3 RuntimeConfig).
type RuntimeConfig struct {
	SessionService  SessionServiceKind  `yaml:"session_service,omitempty"`
	SessionDBPath   string              `yaml:"session_db_path,omitempty"`
	SessionDBURL    string              `yaml:"session_db_url,omitempty"`
	MemoryService   MemoryServiceKind   `yaml:"memory_service,omitempty"`
	ArtifactService ArtifactServiceKind `yaml:"artifact_service,omitempty"`
	ArtifactDir     string              `yaml:"artifact_dir,omitempty"`
	Plugins         []string            `yaml:"plugins,omitempty"`
	ContextCache    *ContextCacheConfig `yaml:"context_cache,omitempty"`
	Resumable       bool                `yaml:"resumable,omitempty"`
	Timezone        string              `yaml:"timezone,omitempty"`
}

// defaultRuntimeConfig is merged (via dario.cat/mergo) against a parsed
// RuntimeConfig so unset fields fall back to sane zero-configuration
// defaults, instead of a chain of hand-written if-empty checks.
func defaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		SessionService:  SessionInMemory,
		MemoryService:   MemoryNone,
		ArtifactService: ArtifactNone,
		Timezone:        "UTC",
	}
}

// SkillDef is one declarative capability descriptor on an A2A agent card.
type SkillDef struct {
	ID          string   `yaml:"id" validate:"required"`
	Name        string   `yaml:"name" validate:"required"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// A2AConfig is the opt-in block that produces an agent discovery card
// (spec §3 A2AConfig, §4.9).
type A2AConfig struct {
	Version string     `yaml:"version,omitempty"`
	Skills  []SkillDef `yaml:"skills,omitempty"`
}

// WorkflowDefinition is the fully parsed, not-yet-validated declarative
// workflow (spec §3 WorkflowDefinition). [Validate] turns one of these into
// a usable definition; [Load] parses one straight from YAML.
type WorkflowDefinition struct {
	Name        string               `yaml:"name" validate:"required"`
	Description string               `yaml:"description,omitempty"`
	Runtime     RuntimeConfig        `yaml:"runtime,omitempty"`
	Agents      []AgentConfig        `yaml:"agents" validate:"required,min=1,dive"`
	Orchestration OrchestrationConfig `yaml:"orchestration" validate:"required"`
	A2A         *A2AConfig           `yaml:"a2a,omitempty"`

	// BaseDir is the directory workflow.yaml was loaded from; `specs/`
	// relative to it holds OpenAPI specs referenced by openapi_tools.
	// Not part of the YAML shape; set by [Load].
	BaseDir string `yaml:"-"`
}

// AgentByName returns the AgentConfig named name, or false if absent.
func (d *WorkflowDefinition) AgentByName(name string) (AgentConfig, bool) {
	for _, a := range d.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentConfig{}, false
}

// UsageSummary accumulates per-invocation telemetry (spec §3 UsageSummary,
// §4.8 Metrics collector). Created empty at run start, mutated by the
// metrics plugin's callback hooks, finalized when the run ends.
type UsageSummary struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	CachedTokens int `json:"cached_tokens"`
	TotalTokens  int `json:"total_tokens"`
	DurationMS   int64 `json:"duration_ms"`
	Steps        int `json:"steps"`
	LLMCalls     int `json:"llm_calls"`
	ToolCalls    int `json:"tool_calls"`
	Model        string `json:"model,omitempty"`
}
