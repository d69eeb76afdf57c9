package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/metamcp/metamcp/pkg/logger"
	"github.com/metamcp/metamcp/pkg/metrics"
	"github.com/metamcp/metamcp/pkg/model"
)

// handleInvoke implements the shared routing logic for tools/call,
// resources/read, and prompts/get (§4.5): the prefixed token arrives
// under paramKey, is matched against active backend names by sep, and
// the unprefixed call is forwarded to exactly one backend.
func (e *Engine) handleInvoke(ctx context.Context, req *model.Envelope, paramKey, sep, forwardMethod, kind string) (*model.Envelope, error) {
	params, _ := req.Params.(map[string]any)
	token, _ := params[paramKey].(string)
	if token == "" {
		return model.NewRPCError(req.ID, codeInvalidParams, fmt.Sprintf("Missing required parameter: %s", paramKey)), nil
	}

	backends, err := e.backends.ListActive(ctx)
	if err != nil {
		return model.NewRPCError(req.ID, codeServerError, "Database error: "+err.Error()), nil
	}

	names := make([]string, len(backends))
	byName := make(map[string]*model.BackendDescriptor, len(backends))
	for i, b := range backends {
		names[i] = b.Name
		byName[b.Name] = b
	}

	backendName, original, ok := splitPrefixed(token, sep, names)
	if !ok {
		return model.NewRPCError(req.ID, codeInvalidParams, fmt.Sprintf("Unknown %s: %s", kind, token)), nil
	}
	backend := byName[backendName]

	fwdParams := map[string]any{paramKey: original}
	for k, v := range params {
		if k == paramKey {
			continue
		}
		fwdParams[k] = v
	}

	ctx, cancel := context.WithTimeout(ctx, forwardTimeout)
	defer cancel()

	fwdReq := &model.Envelope{JSONRPC: model.RPCVersion, ID: forwardID(backend.ID, forwardMethod), Method: forwardMethod, Params: fwdParams}
	resp, err := e.transport.Forward(ctx, backend, fwdReq)
	if err != nil {
		metrics.ToolCallsTotal.WithLabelValues(backend.Name, "error").Inc()
		logger.Warnf("backend %q %s failed: %v", backend.Name, forwardMethod, err)
		return model.NewRPCError(req.ID, codeServerError, fmt.Sprintf("Tool call failed: %v", err)), nil
	}

	if resp.Error != nil {
		metrics.ToolCallsTotal.WithLabelValues(backend.Name, "rpc_error").Inc()
		return model.NewRPCError(req.ID, resp.Error.Code, resp.Error.Message), nil
	}

	metrics.ToolCallsTotal.WithLabelValues(backend.Name, "success").Inc()
	return model.NewResult(req.ID, resp.Result), nil
}

// InvokeTool forwards a tools/call directly to backendID, bypassing
// prefix routing. It backs the REST convenience endpoint
// POST /api/v1/mcp/servers/{id}/tools/{tool}/execute, where the backend
// is already identified by id rather than by a prefixed name (§9).
func (e *Engine) InvokeTool(ctx context.Context, backendID uuid.UUID, toolName string, arguments any) (*model.Envelope, error) {
	backend, err := e.backends.Get(ctx, backendID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, forwardTimeout)
	defer cancel()

	req := &model.Envelope{
		JSONRPC: model.RPCVersion,
		ID:      forwardID(backend.ID, "tools/call"),
		Method:  "tools/call",
		Params:  map[string]any{"name": toolName, "arguments": arguments},
	}
	resp, err := e.transport.Forward(ctx, backend, req)
	if err != nil {
		metrics.ToolCallsTotal.WithLabelValues(backend.Name, "error").Inc()
		return nil, fmt.Errorf("tool call failed: %w", err)
	}
	if resp.Error != nil {
		metrics.ToolCallsTotal.WithLabelValues(backend.Name, "rpc_error").Inc()
		return resp, nil
	}
	metrics.ToolCallsTotal.WithLabelValues(backend.Name, "success").Inc()
	return resp, nil
}
