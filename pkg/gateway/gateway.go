// Package gateway implements the aggregation engine (§4.5): the gateway
// behaves as an MCP server to the client and as an MCP client to every
// active backend, fanning out list calls and routing call/read/get
// invocations by prefixed name.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/metamcp/metamcp/pkg/logger"
	"github.com/metamcp/metamcp/pkg/metrics"
	"github.com/metamcp/metamcp/pkg/model"
	"github.com/metamcp/metamcp/pkg/transport"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "metamcp"

	forwardTimeout = 30 * time.Second
)

// JSON-RPC error codes from §4.5's error taxonomy.
const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// backendLister is the subset of pkg/store.BackendRepository the engine
// depends on, kept narrow so tests can supply an in-memory fake.
type backendLister interface {
	ListActive(ctx context.Context) ([]*model.BackendDescriptor, error)
	Get(ctx context.Context, id uuid.UUID) (*model.BackendDescriptor, error)
}

// Engine is the aggregation engine. It holds no state across calls: every
// operation re-lists active backends from the store.
type Engine struct {
	backends  backendLister
	transport transport.Transport
}

// NewEngine builds an Engine over a backend lister and a transport
// dispatcher.
func NewEngine(backends backendLister, t transport.Transport) *Engine {
	return &Engine{backends: backends, transport: t}
}

// Handle dispatches one inbound JSON-RPC envelope per §4.5's method
// table. A notification (no id) returns (nil, nil); the caller is
// expected to reply with HTTP 202 and no body in that case.
func (e *Engine) Handle(ctx context.Context, req *model.Envelope) (*model.Envelope, error) {
	if req.IsNotification() {
		logger.Debugf("ignoring notification %q", req.Method)
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		return e.handleInitialize(req.ID), nil
	case "ping":
		return model.NewResult(req.ID, map[string]any{}), nil
	case "tools/list":
		return e.handleList(ctx, req.ID, "tools/list", "tools", func(b *model.BackendDescriptor, item map[string]any) (string, string, bool) {
			name, ok := item["name"].(string)
			if !ok {
				return "", "", false
			}
			return prefixedToolName(b.Name, name), name, true
		})
	case "resources/list":
		return e.handleList(ctx, req.ID, "resources/list", "resources", func(b *model.BackendDescriptor, item map[string]any) (string, string, bool) {
			uri, ok := item["uri"].(string)
			if !ok {
				return "", "", false
			}
			return prefixedResourceURI(b.Name, uri), uri, true
		})
	case "prompts/list":
		return e.handleList(ctx, req.ID, "prompts/list", "prompts", func(b *model.BackendDescriptor, item map[string]any) (string, string, bool) {
			name, ok := item["name"].(string)
			if !ok {
				return "", "", false
			}
			return prefixedToolName(b.Name, name), name, true
		})
	case "tools/call":
		return e.handleInvoke(ctx, req, "name", toolSeparator, "tools/call", "tool")
	case "resources/read":
		return e.handleInvoke(ctx, req, "uri", resourceSeparator, "resources/read", "resource")
	case "prompts/get":
		return e.handleInvoke(ctx, req, "name", toolSeparator, "prompts/get", "prompt")
	default:
		return model.NewRPCError(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method)), nil
	}
}

func (e *Engine) handleInitialize(id any) *model.Envelope {
	return model.NewResult(id, map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{"listChanged": false},
			"resources": map[string]any{"listChanged": false, "subscribe": false},
			"prompts":   map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    serverName,
			"version": "1.0.0",
		},
	})
}

func forwardID(backendID uuid.UUID, base any) string {
	return fmt.Sprintf("metamcp-%s-%v", backendID, base)
}
