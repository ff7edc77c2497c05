package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/authkit"
)

func newTempFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "session", "authkit.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	return s, path
}

func sampleCredential() authkit.Credential {
	return authkit.Credential{
		AccessToken:  "tok-1",
		RefreshToken: "ref-1",
		UserID:       "u1",
		Email:        "a@b.co",
		FullName:     "Test User",
		Role:         authkit.RoleStudent,
		IssuedAt:     time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestFileStoreCredentialRoundTrip(t *testing.T) {
	s, path := newTempFileStore(t)
	ctx := context.Background()

	cred, err := s.Credential(ctx)
	require.NoError(t, err)
	assert.False(t, cred.Valid())

	require.NoError(t, s.SaveCredential(ctx, sampleCredential()))

	// A fresh store over the same path sees the persisted credential.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	cred, err = reopened.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", cred.AccessToken)
	assert.Equal(t, "u1", cred.UserID)
	assert.True(t, cred.IssuedAt.Equal(sampleCredential().IssuedAt))

	require.NoError(t, reopened.ClearCredential(ctx))
	cred, err = reopened.Credential(ctx)
	require.NoError(t, err)
	assert.False(t, cred.Valid())
}

func TestFileStoreRememberedAccounts(t *testing.T) {
	s, path := newTempFileStore(t)
	ctx := context.Background()

	account := authkit.RememberedAccount{
		Email:         "A@B.CO",
		FullName:      "Test User",
		Role:          authkit.RoleStudent,
		Provider:      "password",
		LastLoginAt:   time.Now().UTC().Truncate(time.Second),
		QuickLoginKey: "qk-1",
	}
	require.NoError(t, s.UpsertRememberedAccount(ctx, account))

	// Upsert by case-insensitive email replaces, not duplicates.
	account.Email = "a@b.co"
	account.QuickLoginKey = "qk-2"
	require.NoError(t, s.UpsertRememberedAccount(ctx, account))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	accounts, err := reopened.RememberedAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "qk-2", accounts[0].QuickLoginKey)

	require.NoError(t, reopened.RemoveRememberedAccount(ctx, "A@b.Co"))
	accounts, err = reopened.RememberedAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestFileStoreRememberMeMarker(t *testing.T) {
	s, path := newTempFileStore(t)
	ctx := context.Background()

	enabled, email, err := s.RememberMe(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Empty(t, email)

	require.NoError(t, s.SetRememberMe(ctx, true, "a@b.co"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	enabled, email, err = reopened.RememberMe(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, "a@b.co", email)
}

func TestFileStoreCorruptDocumentResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authkit.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	cred, err := s.Credential(context.Background())
	require.NoError(t, err)
	assert.False(t, cred.Valid())
}

func TestFileStoreRequiresPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestFileStoreNoTempFileLeftBehind(t *testing.T) {
	s, path := newTempFileStore(t)
	require.NoError(t, s.SaveCredential(context.Background(), sampleCredential()))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
