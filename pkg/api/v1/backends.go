package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/metamcp/metamcp/pkg/api/apierrors"
	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/gateway"
	"github.com/metamcp/metamcp/pkg/model"
	"github.com/metamcp/metamcp/pkg/security"
	"github.com/metamcp/metamcp/pkg/store"
)

// BackendRoutes serves the admin CRUD surface for backend descriptors
// (spec §6's /api/v1/mcp/servers table) plus the REST tool-execution
// convenience endpoint nested under the same backend id.
type BackendRoutes struct {
	backends *store.BackendRepository
	execute  *ExecuteToolRoutes
}

// BackendRouter builds the chi router for /api/v1/mcp/servers, mounted
// behind RequireBearer by the caller.
func BackendRouter(backends *store.BackendRepository, engine *gateway.Engine) http.Handler {
	routes := &BackendRoutes{backends: backends, execute: NewExecuteToolRoutes(engine)}
	r := chi.NewRouter()
	r.Get("/", apierrors.ErrorHandler(routes.list))
	r.Post("/", apierrors.ErrorHandler(routes.create))
	r.Get("/{id}", apierrors.ErrorHandler(routes.get))
	r.Put("/{id}", apierrors.ErrorHandler(routes.update))
	r.Delete("/{id}", apierrors.ErrorHandler(routes.delete))
	r.Post("/{id}/tools/{tool}/execute", apierrors.ErrorHandler(routes.execute.Execute))
	return r
}

func (b *BackendRoutes) list(w http.ResponseWriter, r *http.Request) error {
	servers, err := b.backends.List(r.Context())
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{"servers": servers})
}

func (b *BackendRoutes) create(w http.ResponseWriter, r *http.Request) error {
	var d model.BackendDescriptor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		return errors.NewValidationError("invalid request body", err)
	}
	if d.Name == "" {
		return errors.NewValidationError("name is required", nil)
	}
	if d.Transport == model.TransportHTTP || d.Transport == model.TransportSSE {
		if err := security.ValidateBackendURL(d.URL); err != nil {
			return err
		}
	}

	if err := b.backends.Create(r.Context(), &d); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(d)
}

func (b *BackendRoutes) get(w http.ResponseWriter, r *http.Request) error {
	id, err := parseBackendID(r)
	if err != nil {
		return err
	}
	d, err := b.backends.Get(r.Context(), id)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(d)
}

func (b *BackendRoutes) update(w http.ResponseWriter, r *http.Request) error {
	id, err := parseBackendID(r)
	if err != nil {
		return err
	}
	var patch model.BackendPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return errors.NewValidationError("invalid request body", err)
	}
	if patch.URL != nil {
		transport := model.TransportHTTP
		if patch.Transport != nil {
			transport = *patch.Transport
		}
		if transport == model.TransportHTTP || transport == model.TransportSSE {
			if err := security.ValidateBackendURL(*patch.URL); err != nil {
				return err
			}
		}
	}

	d, err := b.backends.Update(r.Context(), id, &patch)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(d)
}

func (b *BackendRoutes) delete(w http.ResponseWriter, r *http.Request) error {
	id, err := parseBackendID(r)
	if err != nil {
		return err
	}
	if err := b.backends.Delete(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func parseBackendID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.NewValidationError("invalid backend id", err)
	}
	return id, nil
}
