// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/kaptinlin/jsonschema"
	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/internal/template"
	"github.com/flowforge/workflowcore/model"
	"github.com/flowforge/workflowcore/types"
	"github.com/flowforge/workflowcore/workflow"
)

// maxToolRounds bounds the number of model↔tool round trips a single
// [ModelAgent] execution will perform before giving up and folding the
// situation into a [workflow.RuntimeError] event. A model that keeps
// requesting tool calls forever must not hang an invocation.
const maxToolRounds = 8

// InstructionProvider resolves an agent's instruction from read-only context,
// for instructions that need more than `{key}` templating.
type InstructionProvider func(rctx *types.ReadOnlyContext) string

// ModelAgent is the leaf agent that delegates to a resolved model invoker.
//
// It accepts an instruction with `{key}` placeholders resolved against
// session state at invocation time, plus optional tool bindings, and writes
// exactly one event per execution: a success event with `state_delta`
// carrying `output_key`, or an error event with an empty `state_delta`.
type ModelAgent struct {
	base *types.BaseAgent

	// modelID selects the invoker: no prefix resolves to the native model,
	// `anthropic/`/`openai/` prefixes select a cross-provider adapter.
	//
	// When empty, the agent inherits the resolved model from its nearest
	// ModelAgent ancestor.
	modelID string

	instruction any // string | InstructionProvider

	tools []types.Tool

	generateContentConfig *genai.GenerateContentConfig

	inputSchema  *genai.Schema
	outputSchema *genai.Schema

	// outputValidator re-checks the model's structured output against the
	// original JSON-Schema document (as opposed to outputSchema, which only
	// constrains what the model provider generates): a provider can still
	// emit a value that satisfies its own reduced genai.Schema translation
	// but violates a constraint genai.Schema can't express (e.g. a regex
	// pattern or multipleOf). Set by WithOutputSchema; nil means no
	// independent re-check is performed.
	outputValidator *jsonschema.Schema

	// outputKey is the session-state key the agent's result is written to.
	outputKey string

	planner types.Planner

	beforeModelCallbacks []types.BeforeModelCallback
	afterModelCallbacks  []types.AfterModelCallback
	beforeToolCallbacks  []types.BeforeToolCallback
	afterToolCallbacks   []types.AfterToolCallback

	baseOpts []types.Option
}

var _ types.Agent = (*ModelAgent)(nil)
var _ types.LLMAgent = (*ModelAgent)(nil)

// ModelAgentOption configures a [ModelAgent].
type ModelAgentOption func(*ModelAgent)

// WithModelID sets the model_id to resolve for this agent.
func WithModelID(modelID string) ModelAgentOption {
	return func(a *ModelAgent) {
		a.modelID = modelID
	}
}

// WithInstruction sets the instruction for the agent.
func WithInstruction[T string | InstructionProvider](instruction T) ModelAgentOption {
	return func(a *ModelAgent) {
		a.instruction = instruction
	}
}

// WithTools binds resolved tools to the agent.
func WithTools(tools ...types.Tool) ModelAgentOption {
	return func(a *ModelAgent) {
		a.tools = append(a.tools, tools...)
	}
}

// WithToolset expands a [types.Toolset] at construction time and binds its tools.
func WithToolset(rctx *types.ReadOnlyContext, toolset types.Toolset) ModelAgentOption {
	return func(a *ModelAgent) {
		a.tools = append(a.tools, toolset.GetTools(rctx)...)
	}
}

// WithGenerateContentConfig sets per-agent generation settings (temperature,
// max_tokens, top_p, top_k, safety settings, etc).
func WithGenerateContentConfig(config *genai.GenerateContentConfig) ModelAgentOption {
	return func(a *ModelAgent) {
		a.generateContentConfig = config
	}
}

// WithInputSchema sets the input schema for structured input.
func WithInputSchema(schema *genai.Schema) ModelAgentOption {
	return func(a *ModelAgent) {
		a.inputSchema = schema
	}
}

// WithOutputSchema constrains the model's output to schema and records the
// structured value under output_key instead of raw text.
func WithOutputSchema(schema *genai.Schema) ModelAgentOption {
	return func(a *ModelAgent) {
		a.outputSchema = schema
	}
}

// WithOutputSchemaValidator attaches an independent JSON-Schema re-check of
// the structured output, compiled by the hydrator from the original
// output_schema document. A model response that fails this check becomes
// an error event rather than a successful one with a non-conforming value.
func WithOutputSchemaValidator(schema *jsonschema.Schema) ModelAgentOption {
	return func(a *ModelAgent) {
		a.outputValidator = schema
	}
}

// WithOutputKey sets the session-state key the agent's result is written to.
func WithOutputKey(key string) ModelAgentOption {
	return func(a *ModelAgent) {
		a.outputKey = key
	}
}

// WithPlanner sets the planner (plan_react | built_in) for the agent.
func WithPlanner(p types.Planner) ModelAgentOption {
	return func(a *ModelAgent) {
		a.planner = p
	}
}

// WithBeforeModelCallbacks registers callbacks run before each model call, in
// order, until one returns a non-nil response that short-circuits the call.
func WithBeforeModelCallbacks(callbacks ...types.BeforeModelCallback) ModelAgentOption {
	return func(a *ModelAgent) {
		a.beforeModelCallbacks = append(a.beforeModelCallbacks, callbacks...)
	}
}

// WithAfterModelCallbacks registers callbacks run after each model response,
// in order, each one seeing the previous callback's (possibly rewritten)
// response.
func WithAfterModelCallbacks(callbacks ...types.AfterModelCallback) ModelAgentOption {
	return func(a *ModelAgent) {
		a.afterModelCallbacks = append(a.afterModelCallbacks, callbacks...)
	}
}

// WithBeforeToolCallbacks registers callbacks run before each tool call.
func WithBeforeToolCallbacks(callbacks ...types.BeforeToolCallback) ModelAgentOption {
	return func(a *ModelAgent) {
		a.beforeToolCallbacks = append(a.beforeToolCallbacks, callbacks...)
	}
}

// WithAfterToolCallbacks registers callbacks run after each tool call.
func WithAfterToolCallbacks(callbacks ...types.AfterToolCallback) ModelAgentOption {
	return func(a *ModelAgent) {
		a.afterToolCallbacks = append(a.afterToolCallbacks, callbacks...)
	}
}

// WithBaseOptions forwards [types.Option]s (before/after_agent callbacks,
// parent agent, logger) to the agent's underlying [types.BaseAgent].
func WithBaseOptions(opts ...types.Option) ModelAgentOption {
	return func(a *ModelAgent) {
		a.baseOpts = append(a.baseOpts, opts...)
	}
}

// NewModelAgent creates a new [ModelAgent] with the given name and options.
func NewModelAgent(name string, opts ...ModelAgentOption) (*ModelAgent, error) {
	a := &ModelAgent{}
	for _, opt := range opts {
		opt(a)
	}
	a.base = types.NewBaseAgent(name, a.baseOpts...)
	a.base.SetSelf(a)

	if a.outputSchema != nil && len(a.tools) > 0 {
		return nil, errors.New("invalid config: if output_schema is set, tools must be empty")
	}
	if a.outputSchema != nil && len(a.base.SubAgents()) > 0 {
		return nil, errors.New("invalid config: if output_schema is set, sub_agents must be empty")
	}

	return a, nil
}

// Name implements [types.Agent].
func (a *ModelAgent) Name() string { return a.base.Name() }

// Description implements [types.Agent].
func (a *ModelAgent) Description() string { return a.base.Description() }

// ParentAgent implements [types.Agent].
func (a *ModelAgent) ParentAgent() types.Agent { return a.base.ParentAgent() }

// SubAgents implements [types.Agent].
func (a *ModelAgent) SubAgents() []types.Agent { return a.base.SubAgents() }

// BeforeAgentCallbacks implements [types.Agent].
func (a *ModelAgent) BeforeAgentCallbacks() []types.AgentCallback { return a.base.BeforeAgentCallbacks() }

// AfterAgentCallbacks implements [types.Agent].
func (a *ModelAgent) AfterAgentCallbacks() []types.AgentCallback { return a.base.AfterAgentCallbacks() }

// RootAgent implements [types.Agent].
func (a *ModelAgent) RootAgent() types.Agent { return a.base.RootAgent() }

// FindAgent implements [types.Agent].
func (a *ModelAgent) FindAgent(name string) types.Agent { return a.base.FindAgent(name) }

// FindSubAgent implements [types.Agent].
func (a *ModelAgent) FindSubAgent(name string) types.Agent { return a.base.FindSubAgent(name) }

// AsLLMAgent implements [types.Agent].
func (a *ModelAgent) AsLLMAgent() (types.LLMAgent, bool) { return a, true }

// CanonicalModel resolves this agent's model_id, or, when unset, walks up to
// the nearest ancestor [ModelAgent] and resolves its model_id instead.
func (a *ModelAgent) CanonicalModel(ctx context.Context) (types.Model, error) {
	if a.modelID != "" {
		return model.Resolve(ctx, a.modelID)
	}

	for ancestor := a.base.ParentAgent(); ancestor != nil; ancestor = ancestor.ParentAgent() {
		if ma, ok := ancestor.(*ModelAgent); ok {
			return ma.CanonicalModel(ctx)
		}
	}

	return nil, fmt.Errorf("model agent %q has no model_id and no ancestor provides one", a.Name())
}

// CanonicalInstructions resolves the configured instruction to text.
func (a *ModelAgent) CanonicalInstructions(rctx *types.ReadOnlyContext) string {
	switch inst := a.instruction.(type) {
	case string:
		return template.ResolveString(inst, rctx.State())
	case InstructionProvider:
		return inst(rctx)
	default:
		return ""
	}
}

// CanonicalGlobalInstruction is unused by [ModelAgent]: only root agents in a
// larger agent tree carry a global instruction, and that is composed by the
// hydrator, not by each leaf.
func (a *ModelAgent) CanonicalGlobalInstruction(*types.ReadOnlyContext) (string, bool) {
	return "", false
}

// CanonicalTool returns the resolved tools bound to this agent.
func (a *ModelAgent) CanonicalTool(*types.ReadOnlyContext) []types.Tool {
	return a.tools
}

// GenerateContentConfig returns the per-agent generation settings.
func (a *ModelAgent) GenerateContentConfig() *genai.GenerateContentConfig {
	return a.generateContentConfig
}

// DisallowTransferToParent always reports true: this core has no
// LLM-controlled agent-transfer mechanism, only explicit composite scheduling.
func (a *ModelAgent) DisallowTransferToParent() bool { return true }

// DisallowTransferToPeers always reports true, for the same reason as
// [ModelAgent.DisallowTransferToParent].
func (a *ModelAgent) DisallowTransferToPeers() bool { return true }

// InputSchema returns the structured input schema, if any.
func (a *ModelAgent) InputSchema() *genai.Schema { return a.inputSchema }

// OutputSchema returns the structured output schema, if any.
func (a *ModelAgent) OutputSchema() *genai.Schema { return a.outputSchema }

// OutputKey returns the session-state key the agent's result is written to.
func (a *ModelAgent) OutputKey() string { return a.outputKey }

// Planner returns the configured planner, if any.
func (a *ModelAgent) Planner() types.Planner { return a.planner }

// IncludeContents always reports the default mode: this core has no
// workflow-level knob for trimming conversation history from the request.
func (a *ModelAgent) IncludeContents() types.IncludeContents { return types.IncludeContentsDefault }

// BeforeModelCallbacks returns the callbacks run before each model call.
func (a *ModelAgent) BeforeModelCallbacks() []types.BeforeModelCallback {
	return a.beforeModelCallbacks
}

// AfterModelCallbacks returns the callbacks run after each model response.
func (a *ModelAgent) AfterModelCallbacks() []types.AfterModelCallback {
	return a.afterModelCallbacks
}

// BeforeToolCallback returns the callbacks run before each tool call.
func (a *ModelAgent) BeforeToolCallback() []types.BeforeToolCallback {
	return a.beforeToolCallbacks
}

// AfterToolCallbacks returns the callbacks run after each tool call.
func (a *ModelAgent) AfterToolCallbacks() []types.AfterToolCallback {
	return a.afterToolCallbacks
}

// Execute implements [types.Agent]. It performs exactly one model_agent
// contract execution and yields exactly one event.
func (a *ModelAgent) Execute(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return func(yield func(*types.Event, error) bool) {
		yield(a.run(ctx, ictx))
	}
}

// ExecuteLive implements [types.Agent] by running the same single call as
// [ModelAgent.Execute] and yielding its one event; no partial text events
// are streamed.
func (a *ModelAgent) ExecuteLive(ctx context.Context, ictx *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return func(yield func(*types.Event, error) bool) {
		yield(a.run(ctx, ictx))
	}
}

// Run implements [types.Agent].
func (a *ModelAgent) Run(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.Run(ctx, parentContext)
}

// RunLive implements [types.Agent].
func (a *ModelAgent) RunLive(ctx context.Context, parentContext *types.InvocationContext) iter.Seq2[*types.Event, error] {
	return a.base.RunLive(ctx, parentContext)
}

// run performs the model_agent contract: recovers from any panic raised by
// tool code or model marshaling and folds it into an error event, so no
// exception ever escapes Execute (spec §4.4).
func (a *ModelAgent) run(ctx context.Context, ictx *types.InvocationContext) (event *types.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			event = a.errorEvent(ictx, &workflow.RuntimeError{Agent: a.Name(), Reason: fmt.Sprint(r)})
			err = nil
		}
	}()

	invoker, resolveErr := a.CanonicalModel(ctx)
	if resolveErr != nil {
		return a.errorEvent(ictx, &workflow.RuntimeError{Agent: a.Name(), Reason: resolveErr.Error()}), nil
	}

	rctx := types.NewReadOnlyContext(ictx)
	request := a.buildRequest(rctx)

	resp, genErr := a.generateWithTools(ctx, ictx, invoker, request)
	if genErr != nil {
		return a.errorEvent(ictx, &workflow.RuntimeError{Agent: a.Name(), Reason: genErr.Error()}), nil
	}

	if validErr := a.validateStructuredOutput(resp); validErr != nil {
		return a.errorEvent(ictx, &workflow.RuntimeError{Agent: a.Name(), Reason: validErr.Error()}), nil
	}

	return a.successEvent(ictx, resp), nil
}

// validateStructuredOutput re-checks a structured response against
// outputValidator, if one was attached. Non-JSON or schema-conforming
// responses pass silently; outputValue performs the same parse again when
// building state_delta.
func (a *ModelAgent) validateStructuredOutput(resp *types.LLMResponse) error {
	if a.outputValidator == nil {
		return nil
	}
	var structured any
	if err := json.Unmarshal([]byte(resp.GetText()), &structured); err != nil {
		return nil
	}
	result := a.outputValidator.Validate(structured)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("structured output violates output_schema: %v", result.Errors)
}

// buildRequest assembles the [types.LLMRequest] for this agent's model call:
// the templated instruction as system instruction, the user content, bound
// tool declarations, and per-agent generation settings.
func (a *ModelAgent) buildRequest(rctx *types.ReadOnlyContext) *types.LLMRequest {
	config := a.generateContentConfig
	if config == nil {
		config = &genai.GenerateContentConfig{}
	} else {
		cp := *config
		config = &cp
	}

	if instruction := a.CanonicalInstructions(rctx); instruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(instruction)},
		}
	}

	if a.outputSchema != nil {
		config.ResponseSchema = a.outputSchema
		config.ResponseMIMEType = "application/json"
	}

	toolMap := make(map[string]types.Tool, len(a.tools))
	if len(a.tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(a.tools))
		for _, t := range a.tools {
			toolMap[t.Name()] = t
			if decl := t.GetDeclaration(); decl != nil {
				decls = append(decls, decl)
			}
		}
		if len(decls) > 0 {
			config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		}
	}

	var contents []*genai.Content
	if rctx.UserContent() != nil {
		contents = append(contents, rctx.UserContent())
	}

	return &types.LLMRequest{
		Model:   a.modelID,
		Contents: contents,
		Config:  config,
		ToolMap: toolMap,
	}
}

// generateWithTools calls invoker, executing any requested function calls and
// feeding their results back until the model produces a final response or
// [maxToolRounds] is exceeded.
func (a *ModelAgent) generateWithTools(ctx context.Context, ictx *types.InvocationContext, invoker types.Model, request *types.LLMRequest) (*types.LLMResponse, error) {
	cctx := types.NewCallbackContext(ictx)

	for round := 0; ; round++ {
		resp, err := a.callModel(ctx, cctx, invoker, request)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, errors.New(resp.ErrorMessage)
		}

		calls := functionCallsOf(resp)
		if len(calls) == 0 {
			return resp, nil
		}
		if round >= maxToolRounds {
			return nil, fmt.Errorf("exceeded %d model/tool round trips without a final response", maxToolRounds)
		}

		request.Contents = append(request.Contents, resp.Content)
		responseParts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			result, toolErr := a.runTool(ctx, ictx, request.ToolMap, call)
			if toolErr != nil {
				result = map[string]any{"error": toolErr.Error()}
			}
			responseParts = append(responseParts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     call.Name,
					Response: result,
				},
			})
		}
		request.Contents = append(request.Contents, &genai.Content{
			Role:  model.RoleUser,
			Parts: responseParts,
		})
	}
}

// callModel runs the before_model callback chain (short-circuiting on the
// first non-nil response), the actual model call, then the after_model
// callback chain (each seeing the previous callback's rewritten response).
func (a *ModelAgent) callModel(ctx context.Context, cctx *types.CallbackContext, invoker types.Model, request *types.LLMRequest) (*types.LLMResponse, error) {
	for _, cb := range a.beforeModelCallbacks {
		resp, err := cb(cctx, request)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}
	}

	resp, err := invoker.GenerateContent(ctx, request)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		workflow.MetricsFromContext(ctx).AfterModel(request.Model, resp.UsageMetadata)
	}

	for _, cb := range a.afterModelCallbacks {
		rewritten, err := cb(cctx, resp)
		if err != nil {
			return nil, err
		}
		if rewritten != nil {
			resp = rewritten
		}
	}

	return resp, nil
}

// runTool invokes a single requested function call against the bound tool
// map, running the before_tool/after_tool callback chains around it.
func (a *ModelAgent) runTool(ctx context.Context, ictx *types.InvocationContext, toolMap map[string]types.Tool, call *genai.FunctionCall) (map[string]any, error) {
	t, ok := toolMap[call.Name]
	if !ok {
		return nil, fmt.Errorf("unbound tool %q requested by model", call.Name)
	}

	toolCtx := types.NewToolContext(ictx).WithEventActions(types.NewEventActions())
	args := call.Args

	workflow.MetricsFromContext(ctx).BeforeTool(ctx, t.Name())

	for _, cb := range a.beforeToolCallbacks {
		override, err := cb(t, args, toolCtx)
		if err != nil {
			return nil, err
		}
		if override != nil {
			return override, nil
		}
	}

	result, err := t.Run(ctx, args, toolCtx)
	if err != nil {
		return nil, err
	}

	response, ok := result.(map[string]any)
	if !ok {
		response = map[string]any{"result": result}
	}

	for _, cb := range a.afterToolCallbacks {
		rewritten, err := cb(t, args, toolCtx, response)
		if err != nil {
			return nil, err
		}
		if rewritten != nil {
			response = rewritten
		}
	}

	return response, nil
}

// successEvent builds the single success event: state_delta carries
// output_key, text or structured output depending on output_schema.
func (a *ModelAgent) successEvent(ictx *types.InvocationContext, resp *types.LLMResponse) *types.Event {
	actions := types.NewEventActions()

	if a.outputKey != "" {
		actions.StateDelta[a.outputKey] = a.outputValue(resp)
	}

	return types.NewEvent().
		WithInvocationID(ictx.InvocationID).
		WithAuthor(a.Name()).
		WithLLMResponse(resp).
		WithActions(actions)
}

// outputValue extracts the value recorded under output_key: the parsed
// structured value when output_schema is set, otherwise the joined text.
func (a *ModelAgent) outputValue(resp *types.LLMResponse) any {
	text := resp.GetText()

	if a.outputSchema == nil {
		return text
	}

	var structured any
	if err := json.Unmarshal([]byte(text), &structured); err != nil {
		return text
	}
	return structured
}

// errorEvent builds the single error event for a failed execution: non-empty
// error text, empty state_delta (state is left untouched).
func (a *ModelAgent) errorEvent(ictx *types.InvocationContext, err error) *types.Event {
	var agentName string
	var reason string
	var rerr *workflow.RuntimeError
	if errors.As(err, &rerr) {
		agentName, reason = rerr.Agent, rerr.Reason
	} else {
		agentName, reason = a.Name(), err.Error()
	}

	a.base.Logger().ErrorContext(context.Background(), "model agent execution failed",
		slog.String("agent", agentName), slog.String("reason", reason))

	return types.NewEvent().
		WithInvocationID(ictx.InvocationID).
		WithAuthor(a.Name()).
		WithLLMResponse(&types.LLMResponse{
			ErrorCode:    "RUNTIME_ERROR",
			ErrorMessage: reason,
		}).
		WithActions(types.NewEventActions())
}

// functionCallsOf extracts the function calls requested in a model response,
// mirroring [types.Event.GetFunctionCalls] for a bare [types.LLMResponse].
func functionCallsOf(resp *types.LLMResponse) []*genai.FunctionCall {
	if resp.Content == nil {
		return nil
	}
	var calls []*genai.FunctionCall
	for _, part := range resp.Content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}
