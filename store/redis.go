package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/studyhall/authkit"
)

// RedisStore keeps session state in Redis, for kiosk and shared-terminal
// deployments where the device has no trustworthy local disk. Layout:
//
//	<prefix>:credential  string, JSON credential
//	<prefix>:accounts    hash, email -> JSON remembered account
//	<prefix>:remember    string, JSON remember-me marker
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

type rememberMarker struct {
	Enabled bool   `json:"enabled"`
	Email   string `json:"email,omitempty"`
}

// NewRedisStore wraps an existing client. The prefix namespaces one device
// or terminal; it must be non-empty.
func NewRedisStore(client redis.UniversalClient, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("store: redis client required")
	}
	if prefix == "" {
		return nil, errors.New("store: prefix required")
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(suffix string) string {
	return s.prefix + ":" + suffix
}

func (s *RedisStore) Credential(ctx context.Context) (authkit.Credential, error) {
	data, err := s.client.Get(ctx, s.key("credential")).Bytes()
	if errors.Is(err, redis.Nil) {
		return authkit.Credential{}, nil
	}
	if err != nil {
		return authkit.Credential{}, fmt.Errorf("store: %w", err)
	}

	var cred authkit.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return authkit.Credential{}, fmt.Errorf("store: %w", err)
	}
	return cred, nil
}

func (s *RedisStore) SaveCredential(ctx context.Context, cred authkit.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := s.client.Set(ctx, s.key("credential"), data, 0).Err(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearCredential(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key("credential")).Err(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func (s *RedisStore) RememberedAccounts(ctx context.Context) ([]authkit.RememberedAccount, error) {
	entries, err := s.client.HGetAll(ctx, s.key("accounts")).Result()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	out := make([]authkit.RememberedAccount, 0, len(entries))
	for _, raw := range entries {
		var account authkit.RememberedAccount
		if err := json.Unmarshal([]byte(raw), &account); err != nil {
			continue
		}
		out = append(out, account)
	}
	return out, nil
}

func (s *RedisStore) UpsertRememberedAccount(ctx context.Context, account authkit.RememberedAccount) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := s.client.HSet(ctx, s.key("accounts"), emailKey(account.Email), data).Err(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func (s *RedisStore) RemoveRememberedAccount(ctx context.Context, email string) error {
	if err := s.client.HDel(ctx, s.key("accounts"), emailKey(email)).Err(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func (s *RedisStore) RememberMe(ctx context.Context) (bool, string, error) {
	data, err := s.client.Get(ctx, s.key("remember")).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("store: %w", err)
	}

	var marker rememberMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return false, "", fmt.Errorf("store: %w", err)
	}
	return marker.Enabled, marker.Email, nil
}

func (s *RedisStore) SetRememberMe(ctx context.Context, enabled bool, email string) error {
	data, err := json.Marshal(rememberMarker{Enabled: enabled, Email: email})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := s.client.Set(ctx, s.key("remember"), data, 0).Err(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}
