package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/studyhall/authkit"
)

// fileDocument is the on-disk layout. One document holds everything so a
// write is a single atomic rename.
type fileDocument struct {
	Credential    *authkit.Credential                  `json:"credential,omitempty"`
	Accounts      map[string]authkit.RememberedAccount `json:"accounts,omitempty"`
	RememberMe    bool                                 `json:"remember_me"`
	RememberEmail string                               `json:"remember_email,omitempty"`
}

// FileStore persists session state as one JSON file. Writes go through a
// temp file and rename, so a crash mid-write never corrupts the document.
// Concurrent processes are last-write-wins.
type FileStore struct {
	path string

	mu  sync.Mutex
	doc fileDocument
}

// NewFileStore loads (or initializes) the document at path. The parent
// directory is created with owner-only permissions; the file holds tokens.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.doc = fileDocument{}
	case err != nil:
		return nil, fmt.Errorf("store: %w", err)
	default:
		if err := json.Unmarshal(data, &s.doc); err != nil {
			// A corrupt document is treated as signed-out rather than
			// bricking the app.
			s.doc = fileDocument{}
		}
	}
	if s.doc.Accounts == nil {
		s.doc.Accounts = make(map[string]authkit.RememberedAccount)
	}
	return s, nil
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func (s *FileStore) Credential(context.Context) (authkit.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.Credential == nil {
		return authkit.Credential{}, nil
	}
	return *s.doc.Credential, nil
}

func (s *FileStore) SaveCredential(_ context.Context, cred authkit.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Credential = &cred
	return s.flushLocked()
}

func (s *FileStore) ClearCredential(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.Credential == nil {
		return nil
	}
	s.doc.Credential = nil
	return s.flushLocked()
}

func (s *FileStore) RememberedAccounts(context.Context) ([]authkit.RememberedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]authkit.RememberedAccount, 0, len(s.doc.Accounts))
	for _, account := range s.doc.Accounts {
		out = append(out, account)
	}
	return out, nil
}

func (s *FileStore) UpsertRememberedAccount(_ context.Context, account authkit.RememberedAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Accounts[emailKey(account.Email)] = account
	return s.flushLocked()
}

func (s *FileStore) RemoveRememberedAccount(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(email)
	if _, ok := s.doc.Accounts[key]; !ok {
		return nil
	}
	delete(s.doc.Accounts, key)
	return s.flushLocked()
}

func (s *FileStore) RememberMe(context.Context) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc.RememberMe, s.doc.RememberEmail, nil
}

func (s *FileStore) SetRememberMe(_ context.Context, enabled bool, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.RememberMe = enabled
	s.doc.RememberEmail = email
	return s.flushLocked()
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
