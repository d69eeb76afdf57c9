package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/metamcp/metamcp/pkg/api/apierrors"
	"github.com/metamcp/metamcp/pkg/credential"
	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/gateway"
	"github.com/metamcp/metamcp/pkg/model"
)

const (
	protocolVersionHeader = "mcp-protocol-version"
	mcpProtocolVersion    = "2024-11-05"
	sseKeepAlive          = 15 * time.Second
)

// McpRoutes serves the single public MCP endpoint and its SSE/health
// companions (spec §6).
type McpRoutes struct {
	engine *gateway.Engine
}

// McpRouter builds the chi router for /mcp and /mcp/health. Per spec §6's
// error table, POST / and GET / require a valid bearer token (401 on
// failure); GET /health does not.
func McpRouter(engine *gateway.Engine, credentials *credential.Service) http.Handler {
	routes := &McpRoutes{engine: engine}
	r := chi.NewRouter()
	r.Get("/health", routes.handleHealth)
	r.Group(func(protected chi.Router) {
		protected.Use(RequireBearer(credentials))
		protected.Post("/", apierrors.ErrorHandler(routes.handleRPC))
		protected.Get("/", routes.handleSSE)
	})
	return r
}

func (m *McpRoutes) handleRPC(w http.ResponseWriter, r *http.Request) error {
	var req model.Envelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errors.NewProtocolError("malformed JSON-RPC request", err)
	}

	resp, err := m.engine.Handle(r.Context(), &req)
	if err != nil {
		return err
	}

	w.Header().Set(protocolVersionHeader, mcpProtocolVersion)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(resp)
}

// handleSSE sends a single "endpoint" event and then 15s keep-alive
// comments until the client disconnects, matching Claude Code's HTTP
// transport expectations for the MCP SSE fallback.
func (m *McpRoutes) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set(protocolVersionHeader, mcpProtocolVersion)
	w.WriteHeader(http.StatusOK)

	endpoint := model.Envelope{JSONRPC: model.RPCVersion, Method: "endpoint", Params: map[string]any{"uri": "/mcp"}}
	data, _ := json.Marshal(endpoint)
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func (m *McpRoutes) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": mcpProtocolVersion})
}

// ExecuteToolRoutes serves the REST tool-execution convenience endpoint,
// forwarding to the same aggregation engine as /mcp tools/call (spec §9's
// design note resolved in favor of forwarding over a dead-end placeholder).
type ExecuteToolRoutes struct {
	engine *gateway.Engine
}

// NewExecuteToolRoutes builds the execute-tool route handler.
func NewExecuteToolRoutes(engine *gateway.Engine) *ExecuteToolRoutes {
	return &ExecuteToolRoutes{engine: engine}
}

// Execute handles POST /api/v1/mcp/servers/{id}/tools/{tool}/execute.
func (e *ExecuteToolRoutes) Execute(w http.ResponseWriter, r *http.Request) error {
	backendID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return errors.NewValidationError("invalid backend id", err)
	}
	toolParam := chi.URLParam(r, "tool")

	var body struct {
		Arguments map[string]any `json:"arguments"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	resp, err := e.engine.InvokeTool(r.Context(), backendID, toolParam, body.Arguments)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(resp)
}
