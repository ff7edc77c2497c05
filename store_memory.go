package authkit

import (
	"context"
	"strings"
	"sync"
)

// memoryStore is the default CredentialStore: process-local, no persistence
// across restarts. File and Redis backends live in the store sub-package.
type memoryStore struct {
	mu sync.RWMutex

	credential    Credential
	hasCredential bool

	accounts map[string]RememberedAccount

	rememberMe    bool
	rememberEmail string
}

// NewMemoryStore returns an in-memory CredentialStore. Useful as the
// default backend and in tests.
func NewMemoryStore() CredentialStore {
	return &memoryStore{
		accounts: make(map[string]RememberedAccount),
	}
}

func (s *memoryStore) Credential(context.Context) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasCredential {
		return Credential{}, nil
	}
	return s.credential, nil
}

func (s *memoryStore) SaveCredential(_ context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credential = cred
	s.hasCredential = true
	return nil
}

func (s *memoryStore) ClearCredential(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credential = Credential{}
	s.hasCredential = false
	return nil
}

func (s *memoryStore) RememberedAccounts(context.Context) ([]RememberedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RememberedAccount, 0, len(s.accounts))
	for _, account := range s.accounts {
		out = append(out, account)
	}
	return out, nil
}

func (s *memoryStore) UpsertRememberedAccount(_ context.Context, account RememberedAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[accountKey(account.Email)] = account
	return nil
}

func (s *memoryStore) RemoveRememberedAccount(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, accountKey(email))
	return nil
}

func (s *memoryStore) RememberMe(context.Context) (bool, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rememberMe, s.rememberEmail, nil
}

func (s *memoryStore) SetRememberMe(_ context.Context, enabled bool, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rememberMe = enabled
	s.rememberEmail = email
	return nil
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
