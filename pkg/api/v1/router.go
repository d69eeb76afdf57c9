package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/metamcp/metamcp/pkg/api/apierrors"
	"github.com/metamcp/metamcp/pkg/credential"
	"github.com/metamcp/metamcp/pkg/gateway"
	"github.com/metamcp/metamcp/pkg/metrics"
	"github.com/metamcp/metamcp/pkg/security"
	"github.com/metamcp/metamcp/pkg/store"
)

// Deps bundles everything the admin and MCP routers need, assembled once
// at startup by cmd/metamcp.
type Deps struct {
	Backends       *store.BackendRepository
	Credentials    *credential.Service
	Engine         *gateway.Engine
	AllowedOrigins []string
}

// NewRouter assembles the full chi.Router: ambient middleware, security
// headers, CORS, and every route from spec §6's table.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(security.SecurityHeaders)
	r.Use(security.CORS(deps.AllowedOrigins))

	r.NotFound(apierrors.NotFoundHandler)

	r.Mount("/health", HealthRouter())
	r.Mount("/metrics", metrics.Handler())
	r.Mount("/mcp", McpRouter(deps.Engine, deps.Credentials))

	auth := NewAuthRoutes(deps.Credentials)
	r.Post("/api/v1/auth/token", apierrors.ErrorHandler(auth.IssueToken))

	r.Route("/api/v1/mcp/servers", func(sub chi.Router) {
		sub.Use(RequireBearer(deps.Credentials))
		sub.Mount("/", BackendRouter(deps.Backends, deps.Engine))
	})

	return r
}
