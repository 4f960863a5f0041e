// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/types"
)

const (
	// OpenAIDefaultModel is the default model name for [OpenAI].
	OpenAIDefaultModel = openai.GPT4o

	// EnvOpenAIAPIKey is the environment variable name for the OpenAI API key.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// OpenAI is a cross-provider [types.Model] invoker backed by OpenAI's chat
// completions API, selected by the `openai/` model_id prefix.
type OpenAI struct {
	*BaseLLM

	client *openai.Client
}

var _ types.Model = (*OpenAI)(nil)

// NewOpenAI creates a new [OpenAI] invoker for modelName, falling back to
// [OpenAIDefaultModel] when empty. The API key is always read from the
// [EnvOpenAIAPIKey] environment variable; an unset variable is an error.
func NewOpenAI(ctx context.Context, modelName string, opts ...Option) (*OpenAI, error) {
	if modelName == "" {
		modelName = OpenAIDefaultModel
	}

	apiKey := os.Getenv(EnvOpenAIAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable must be set", EnvOpenAIAPIKey)
	}

	o := &OpenAI{
		BaseLLM: NewBaseLLM(modelName),
		client:  openai.NewClient(apiKey),
	}
	for _, opt := range opts {
		o.Config = opt.apply(o.Config)
	}

	return o, nil
}

// Name returns the name of the [OpenAI] model.
func (m *OpenAI) Name() string {
	return m.modelName
}

// SupportedModels returns a list of supported models in the [OpenAI].
func (m *OpenAI) SupportedModels() []string {
	return []string{
		openai.GPT4o,
		openai.GPT4oMini,
		openai.O3,
		openai.O3Mini,
		openai.O4Mini,
		openai.GPT4Dot1,
		openai.GPT4Dot1Mini,
	}
}

// Connect is unsupported: OpenAI's chat completions API has no bidirectional
// live-connection transport comparable to Gemini's.
func (m *OpenAI) Connect(_ context.Context, _ *types.LLMRequest) (types.ModelConnection, error) {
	return nil, errors.New("openai: live connect is not supported")
}

// GenerateContent generates content from the model.
func (m *OpenAI) GenerateContent(ctx context.Context, request *types.LLMRequest) (*types.LLMResponse, error) {
	req, err := m.toChatCompletionRequest(request)
	if err != nil {
		return nil, fmt.Errorf("build openai request: %w", err)
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}

	return m.toLLMResponse(resp), nil
}

// StreamGenerateContent streams generated content from the model.
func (m *OpenAI) StreamGenerateContent(ctx context.Context, request *types.LLMRequest) iter.Seq2[*types.LLMResponse, error] {
	return func(yield func(*types.LLMResponse, error) bool) {
		req, err := m.toChatCompletionRequest(request)
		if err != nil {
			yield(nil, fmt.Errorf("build openai request: %w", err))
			return
		}
		req.Stream = true

		stream, err := m.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield(nil, fmt.Errorf("openai API error: %w", err))
			return
		}
		defer stream.Close()

		var buf strings.Builder
		for {
			chunk, err := stream.Recv()
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			if err != nil {
				if isStreamEOF(err) {
					break
				}
				if !yield(nil, err) {
					return
				}
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			buf.WriteString(delta)

			partial := &types.LLMResponse{
				Content: &genai.Content{
					Role:  RoleModel,
					Parts: []*genai.Part{genai.NewPartFromText(delta)},
				},
				Partial: true,
			}
			if !yield(partial, nil) {
				return
			}
		}

		if buf.Len() > 0 {
			if !yield(newAggregateText(buf.String()), nil) {
				return
			}
		}
	}
}

// isStreamEOF reports whether err is the sentinel the OpenAI SDK returns at
// the end of a server-sent-events stream.
func isStreamEOF(err error) bool {
	return err != nil && strings.Contains(err.Error(), "EOF")
}

// toChatCompletionRequest converts a [types.LLMRequest] to an
// [openai.ChatCompletionRequest], mapping genai content roles/parts to
// OpenAI chat messages and genai generation config to request parameters.
func (m *OpenAI) toChatCompletionRequest(request *types.LLMRequest) (openai.ChatCompletionRequest, error) {
	req := openai.ChatCompletionRequest{
		Model: m.modelName,
	}

	if request.Config != nil && request.Config.SystemInstruction != nil {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: joinTextParts(request.Config.SystemInstruction.Parts),
		})
	}

	for _, content := range request.Contents {
		msg := openai.ChatCompletionMessage{
			Role:    toOpenAIRole(content.Role),
			Content: joinTextParts(content.Parts),
		}
		req.Messages = append(req.Messages, msg)
	}

	if request.Config != nil {
		if request.Config.Temperature != nil {
			req.Temperature = *request.Config.Temperature
		}
		if request.Config.TopP != nil {
			req.TopP = *request.Config.TopP
		}
		if request.Config.MaxOutputTokens > 0 {
			req.MaxTokens = int(request.Config.MaxOutputTokens)
		}
		if request.Config.ResponseSchema != nil {
			schemaJSON, err := json.Marshal(request.Config.ResponseSchema)
			if err != nil {
				return req, fmt.Errorf("marshal response schema: %w", err)
			}
			req.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   "output",
					Schema: json.RawMessage(schemaJSON),
					Strict: true,
				},
			}
		}
	}

	return req, nil
}

func toOpenAIRole(role string) string {
	switch role {
	case RoleModel, RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

func joinTextParts(parts []*genai.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Text != "" {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func (m *OpenAI) toLLMResponse(resp openai.ChatCompletionResponse) *types.LLMResponse {
	if len(resp.Choices) == 0 {
		return &types.LLMResponse{
			ErrorCode:    "UNKNOWN_ERROR",
			ErrorMessage: "openai response has no choices",
		}
	}

	choice := resp.Choices[0]
	return &types.LLMResponse{
		Content: &genai.Content{
			Role:  RoleModel,
			Parts: []*genai.Part{genai.NewPartFromText(choice.Message.Content)},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		},
	}
}
