package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/model"
)

// BackendRepository persists BackendDescriptor rows.
type BackendRepository struct {
	store *Store
}

// NewBackendRepository builds a repository over the given store.
func NewBackendRepository(s *Store) *BackendRepository {
	return &BackendRepository{store: s}
}

// Create inserts a new backend descriptor, rejecting a name collision
// against another active descriptor per §3's uniqueness invariant.
func (r *BackendRepository) Create(ctx context.Context, d *model.BackendDescriptor) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now

	argsJSON, envJSON, err := marshalArgsEnv(d.Args, d.Env)
	if err != nil {
		return err
	}

	_, err = r.store.db.ExecContext(ctx, `
		INSERT INTO mcp_servers (id, name, url, protocol, command, args, env, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.Name, d.URL, string(d.Transport), d.Command, argsJSON, envJSON, d.Active, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return errors.NewConflictError("a backend named "+d.Name+" already exists", err)
		}
		return errors.NewInternalError("failed to create backend", err)
	}
	return nil
}

// Get fetches one backend descriptor by id.
func (r *BackendRepository) Get(ctx context.Context, id uuid.UUID) (*model.BackendDescriptor, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	row := r.store.db.QueryRowContext(ctx, `
		SELECT id, name, url, protocol, command, args, env, is_active, created_at, updated_at
		FROM mcp_servers WHERE id = ?`, id.String())
	return scanBackend(row)
}

// List returns every backend descriptor, active and inactive.
func (r *BackendRepository) List(ctx context.Context) ([]*model.BackendDescriptor, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, name, url, protocol, command, args, env, is_active, created_at, updated_at
		FROM mcp_servers ORDER BY created_at`)
	if err != nil {
		return nil, errors.NewInternalError("failed to list backends", err)
	}
	defer rows.Close()

	var out []*model.BackendDescriptor
	for rows.Next() {
		d, err := scanBackend(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListActive returns only active backend descriptors, the set the
// aggregation engine fans out to.
func (r *BackendRepository) ListActive(ctx context.Context) ([]*model.BackendDescriptor, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var active []*model.BackendDescriptor
	for _, d := range all {
		if d.Active {
			active = append(active, d)
		}
	}
	return active, nil
}

// Update applies a partial patch to the backend named by id: only fields
// present (non-nil) in patch are changed, satisfying §4.1's partial-update
// contract. Each field is applied directly from its patch pointer rather
// than through a zero-value merge, so an explicit falsy value — notably
// `{"is_active": false}`, the only way to soft-disable a backend per §3 —
// is not indistinguishable from "field absent".
func (r *BackendRepository) Update(ctx context.Context, id uuid.UUID, patch *model.BackendPatch) (*model.BackendDescriptor, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patched := *existing
	if patch.Name != nil {
		patched.Name = *patch.Name
	}
	if patch.Transport != nil {
		patched.Transport = *patch.Transport
	}
	if patch.URL != nil {
		patched.URL = *patch.URL
	}
	if patch.Command != nil {
		patched.Command = *patch.Command
	}
	if patch.Args != nil {
		patched.Args = patch.Args
	}
	if patch.Env != nil {
		patched.Env = patch.Env
	}
	if patch.Active != nil {
		patched.Active = *patch.Active
	}
	patched.UpdatedAt = time.Now().UTC()

	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	argsJSON, envJSON, err := marshalArgsEnv(patched.Args, patched.Env)
	if err != nil {
		return nil, err
	}

	_, err = r.store.db.ExecContext(ctx, `
		UPDATE mcp_servers SET name=?, url=?, protocol=?, command=?, args=?, env=?, is_active=?, updated_at=?
		WHERE id=?`,
		patched.Name, patched.URL, string(patched.Transport), patched.Command, argsJSON, envJSON, patched.Active, patched.UpdatedAt, id.String(),
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, errors.NewConflictError("a backend named "+patched.Name+" already exists", err)
		}
		return nil, errors.NewInternalError("failed to update backend", err)
	}
	return &patched, nil
}

// Delete permanently removes a backend descriptor.
func (r *BackendRepository) Delete(ctx context.Context, id uuid.UUID) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	res, err := r.store.db.ExecContext(ctx, `DELETE FROM mcp_servers WHERE id = ?`, id.String())
	if err != nil {
		return errors.NewInternalError("failed to delete backend", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errors.NewNotFoundError("backend not found", nil)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBackend(row rowScanner) (*model.BackendDescriptor, error) {
	var d model.BackendDescriptor
	var idStr, transport string
	var url, command, argsJSON, envJSON sql.NullString
	if err := row.Scan(&idStr, &d.Name, &url, &transport, &command, &argsJSON, &envJSON, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("backend not found", nil)
		}
		return nil, errors.NewInternalError("failed to scan backend", err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, errors.NewInternalError("corrupt backend id", err)
	}
	d.ID = id
	d.Transport = model.Transport(transport)
	d.URL = url.String
	d.Command = command.String
	if argsJSON.Valid && argsJSON.String != "" {
		if err := json.Unmarshal([]byte(argsJSON.String), &d.Args); err != nil {
			return nil, errors.NewInternalError("corrupt backend args", err)
		}
	}
	if envJSON.Valid && envJSON.String != "" {
		if err := json.Unmarshal([]byte(envJSON.String), &d.Env); err != nil {
			return nil, errors.NewInternalError("corrupt backend env", err)
		}
	}
	return &d, nil
}

func marshalArgsEnv(args []string, env map[string]string) (string, string, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return "", "", errors.NewInternalError("failed to marshal args", err)
	}
	envJSON, err := json.Marshal(env)
	if err != nil {
		return "", "", errors.NewInternalError("failed to marshal env", err)
	}
	return string(argsJSON), string(envJSON), nil
}

func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "constraint")
}
