package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/model"
)

// CredentialRepository persists Credential rows.
type CredentialRepository struct {
	store *Store
}

// NewCredentialRepository builds a repository over the given store.
func NewCredentialRepository(s *Store) *CredentialRepository {
	return &CredentialRepository{store: s}
}

// Create inserts a new credential record. The caller supplies the
// already-hashed and already-encrypted material; the plaintext never
// reaches this layer.
func (r *CredentialRepository) Create(ctx context.Context, c *model.Credential) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()

	_, err = r.store.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, name, key_hash, encrypted_key, is_active, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.KeyHash, c.EncryptedKey, c.Active, c.CreatedAt, c.LastUsedAt,
	)
	if err != nil {
		return errors.NewInternalError("failed to create credential", err)
	}
	return nil
}

// Get fetches one credential by id.
func (r *CredentialRepository) Get(ctx context.Context, id uuid.UUID) (*model.Credential, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	row := r.store.db.QueryRowContext(ctx, `
		SELECT id, name, key_hash, encrypted_key, is_active, created_at, last_used_at
		FROM api_keys WHERE id = ?`, id.String())
	return scanCredential(row)
}

// ListActive returns every active credential, the enumeration set the
// credential subsystem authenticates a presented plaintext against (§4.1,
// §4.2).
func (r *CredentialRepository) ListActive(ctx context.Context) ([]*model.Credential, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, name, key_hash, encrypted_key, is_active, created_at, last_used_at
		FROM api_keys WHERE is_active = 1`)
	if err != nil {
		return nil, errors.NewInternalError("failed to list credentials", err)
	}
	defer rows.Close()

	var out []*model.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// List returns every credential, active and inactive, for admin listings.
func (r *CredentialRepository) List(ctx context.Context) ([]*model.Credential, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, name, key_hash, encrypted_key, is_active, created_at, last_used_at
		FROM api_keys ORDER BY created_at`)
	if err != nil {
		return nil, errors.NewInternalError("failed to list credentials", err)
	}
	defer rows.Close()

	var out []*model.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TouchLastUsed updates a credential's last-used timestamp after a
// successful authentication.
func (r *CredentialRepository) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	now := time.Now().UTC()
	_, err = r.store.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = ? WHERE id = ?`, now, id.String())
	if err != nil {
		return errors.NewInternalError("failed to touch credential", err)
	}
	return nil
}

// SetActive flips a credential's active flag (§3's activate/deactivate
// lifecycle).
func (r *CredentialRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	res, err := r.store.db.ExecContext(ctx, `UPDATE api_keys SET is_active = ? WHERE id = ?`, active, id.String())
	if err != nil {
		return errors.NewInternalError("failed to update credential", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errors.NewNotFoundError("credential not found", nil)
	}
	return nil
}

// Delete permanently removes a credential.
func (r *CredentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	res, err := r.store.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id.String())
	if err != nil {
		return errors.NewInternalError("failed to delete credential", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errors.NewNotFoundError("credential not found", nil)
	}
	return nil
}

func scanCredential(row rowScanner) (*model.Credential, error) {
	var c model.Credential
	var idStr string
	var lastUsed sql.NullTime
	if err := row.Scan(&idStr, &c.Name, &c.KeyHash, &c.EncryptedKey, &c.Active, &c.CreatedAt, &lastUsed); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("credential not found", nil)
		}
		return nil, errors.NewInternalError("failed to scan credential", err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, errors.NewInternalError("corrupt credential id", err)
	}
	c.ID = id
	if lastUsed.Valid {
		c.LastUsedAt = &lastUsed.Time
	}
	return &c, nil
}
