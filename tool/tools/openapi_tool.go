// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/tool"
	"github.com/flowforge/workflowcore/types"
)

// OpenAPITool exposes one `openapi_tools` entry (spec §3 AgentConfig, model
// kind) as a callable tool. Ingestion of the referenced OpenAPI document —
// and MCP spec ingestion generally — is named in spec §1 as an external
// collaborator's job ("external spec ingestion (OpenAPI/MCP)... specified
// only as configuration passthroughs"): this core only carries the spec
// reference and resolved auth through to an MCP call against the gateway
// that actually understands the document, it does not parse OpenAPI itself.
type OpenAPITool struct {
	*tool.Tool

	endpoint   string
	scheme     string
	credential string
	headerName string

	mu     sync.Mutex
	client *client.Client
}

var _ types.Tool = (*OpenAPITool)(nil)

// NewOpenAPITool wraps a single openapi_tools entry. name is synthesized by
// the hydrator (agent name + index); endpoint is the entry's `spec`
// reference, used here as the MCP gateway's base URL; scheme/credential
// come from resolveOpenAPIAuth (spec §4.3); headerName overrides the
// default X-API-Key header for apikey auth.
func NewOpenAPITool(name, endpoint, scheme, credential, headerName string) *OpenAPITool {
	return &OpenAPITool{
		Tool:       tool.NewTool(name, fmt.Sprintf("OpenAPI-backed tool proxied through %s.", endpoint), false),
		endpoint:   endpoint,
		scheme:     scheme,
		credential: credential,
		headerName: headerName,
	}
}

// GetDeclaration implements [types.Tool]. Parameters are left unconstrained
// (a free-form object) since the schema lives in the OpenAPI document this
// core never parses.
func (t *OpenAPITool) GetDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
		},
	}
}

func (t *OpenAPITool) authHeaders() map[string]string {
	if t.credential == "" {
		return nil
	}
	switch t.scheme {
	case "bearer":
		return map[string]string{"Authorization": "Bearer " + t.credential}
	case "apikey":
		name := t.headerName
		if name == "" {
			name = "X-API-Key"
		}
		return map[string]string{name: t.credential}
	case "oauth2":
		return map[string]string{"Authorization": "Bearer " + t.credential}
	default:
		return nil
	}
}

// connect lazily establishes the MCP session on first use rather than at
// hydration time, so a workflow with an unreachable gateway still boots
// (spec §7: only hydration-time errors fail loudly; a dead endpoint is a
// runtime concern surfaced on first call).
func (t *OpenAPITool) connect(ctx context.Context) (*client.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		return t.client, nil
	}

	var opts []transport.ClientOption
	if headers := t.authHeaders(); len(headers) > 0 {
		opts = append(opts, transport.WithHeaders(headers))
	}
	c, err := client.NewSSEMCPClient(t.endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("openapi tool %q: dial %s: %w", t.Name(), t.endpoint, err)
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("openapi tool %q: start session: %w", t.Name(), err)
	}
	if _, err := c.Initialize(ctx, mcp.InitializeRequest{}); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("openapi tool %q: initialize: %w", t.Name(), err)
	}
	t.client = c
	return c, nil
}

// remoteToolName derives the tool name called on the MCP gateway from the
// spec reference's base filename, e.g. "specs/weather.yaml" -> "weather".
func remoteToolName(endpoint string) string {
	base := filepath.Base(endpoint)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Run implements [types.Tool]. Recoverable failures (dial, initialize, or a
// remote tool error) are folded into the returned mapping's `error` field
// per spec §4.2's "tools never fail by exception" contract; only a context
// cancellation propagates as a Go error.
func (t *OpenAPITool) Run(ctx context.Context, args map[string]any, toolCtx *types.ToolContext) (any, error) {
	c, err := t.connect(ctx)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = remoteToolName(t.endpoint)
	req.Params.Arguments = args

	result, err := c.CallTool(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return map[string]any{"error": err.Error()}, nil
	}
	if result.IsError {
		return map[string]any{"error": extractText(result)}, nil
	}
	return map[string]any{"result": extractText(result)}, nil
}

func extractText(result *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// Close releases the underlying MCP session, if one was ever established.
func (t *OpenAPITool) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}
