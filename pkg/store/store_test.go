package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/metamcp/metamcp/pkg/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "metamcp.db")
	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBackendRepository_CreateGetListUpdateDelete(t *testing.T) {
	s := newTestStore(t)
	repo := NewBackendRepository(s)
	ctx := context.Background()

	d := &model.BackendDescriptor{Name: "alpha", Transport: model.TransportHTTP, URL: "http://backend-a:3001", Active: true}
	require.NoError(t, repo.Create(ctx, d))
	require.NotEmpty(t, d.ID)

	fetched, err := repo.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "alpha", fetched.Name)
	require.True(t, fetched.Active)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	newURL := "http://backend-a:4002"
	patched, err := repo.Update(ctx, d.ID, &model.BackendPatch{URL: &newURL})
	require.NoError(t, err)
	want := *fetched
	want.URL = newURL
	if diff := cmp.Diff(want, *patched, cmpopts.IgnoreFields(model.BackendDescriptor{}, "UpdatedAt")); diff != "" {
		t.Errorf("patched descriptor mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, repo.Delete(ctx, d.ID))
	_, err = repo.Get(ctx, d.ID)
	require.Error(t, err)
}

// TestBackendRepository_UpdateCanDeactivate exercises the one API path
// that can soft-disable a backend (§3's active=false lifecycle): a patch
// carrying is_active=false must actually persist false, not be silently
// dropped as a zero value.
func TestBackendRepository_UpdateCanDeactivate(t *testing.T) {
	s := newTestStore(t)
	repo := NewBackendRepository(s)
	ctx := context.Background()

	d := &model.BackendDescriptor{Name: "alpha", Transport: model.TransportHTTP, URL: "http://a", Active: true}
	require.NoError(t, repo.Create(ctx, d))

	inactive := false
	patched, err := repo.Update(ctx, d.ID, &model.BackendPatch{Active: &inactive})
	require.NoError(t, err)
	require.False(t, patched.Active)

	fetched, err := repo.Get(ctx, d.ID)
	require.NoError(t, err)
	require.False(t, fetched.Active)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestBackendRepository_DuplicateNameConflicts(t *testing.T) {
	s := newTestStore(t)
	repo := NewBackendRepository(s)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.BackendDescriptor{Name: "alpha", Transport: model.TransportHTTP, URL: "http://a", Active: true}))
	err := repo.Create(ctx, &model.BackendDescriptor{Name: "alpha", Transport: model.TransportHTTP, URL: "http://b", Active: true})
	require.Error(t, err)
}

func TestBackendRepository_ListActiveExcludesInactive(t *testing.T) {
	s := newTestStore(t)
	repo := NewBackendRepository(s)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.BackendDescriptor{Name: "alpha", Transport: model.TransportHTTP, URL: "http://a", Active: true}))
	require.NoError(t, repo.Create(ctx, &model.BackendDescriptor{Name: "beta", Transport: model.TransportHTTP, URL: "http://b", Active: false}))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "alpha", active[0].Name)
}

func TestCredentialRepository_CreateListActiveTouchSetActive(t *testing.T) {
	s := newTestStore(t)
	repo := NewCredentialRepository(s)
	ctx := context.Background()

	c := &model.Credential{Name: "k1", KeyHash: "$argon2id$fakehash", Active: true}
	require.NoError(t, repo.Create(ctx, c))
	require.NotEmpty(t, c.ID)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, repo.TouchLastUsed(ctx, c.ID))
	fetched, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.LastUsedAt)

	require.NoError(t, repo.SetActive(ctx, c.ID, false))
	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	require.Empty(t, active)
}
