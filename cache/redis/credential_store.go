// Package redis provides the redis-backed credential store used when the
// portal runs with more than one replica: a credential refreshed on one
// replica must be visible to the others, or each replica rotates the
// refresh token on its own and invalidates its peers.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zensoft-hr/basegate/cache"
	"github.com/zensoft-hr/basegate/domain"
	"github.com/zensoft-hr/basegate/internal/basesso"
)

// CredentialStore implements cache.CredentialStore on redis.
type CredentialStore struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewCredentialStore creates a redis-backed store. prefix namespaces the
// keys when the redis instance is shared.
func NewCredentialStore(client *redis.Client, prefix string, defaultTTL time.Duration) *CredentialStore {
	return &CredentialStore{client: client, prefix: prefix, defaultTTL: defaultTTL}
}

type storedCredential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAtMS  int64  `json:"expires_at_ms,omitempty"`
}

func (s *CredentialStore) key(sessionID string) string {
	return fmt.Sprintf("%s:cred:%s", s.prefix, sessionID)
}

// Get implements cache.CredentialStore.Get. Redis errors surface as a
// cache miss; the caller falls back to the session-embedded credential.
func (s *CredentialStore) Get(ctx context.Context, sessionID string) (*domain.Credential, bool) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, false
	}

	var stored storedCredential
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, false
	}

	cred := &domain.Credential{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
	}
	if stored.ExpiresAtMS > 0 {
		cred.ExpiresAt = time.UnixMilli(stored.ExpiresAtMS)
	}
	return cred, true
}

// Set implements cache.CredentialStore.Set.
func (s *CredentialStore) Set(ctx context.Context, sessionID string, cred *domain.Credential) error {
	ttl := cache.EntryTTL(cred, s.defaultTTL, basesso.RefreshWindow)
	if ttl <= 0 {
		return s.Delete(ctx, sessionID)
	}

	raw, err := json.Marshal(storedCredential{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAtMS:  cred.ExpiresAtMS(),
	})
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sessionID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("storing credential in redis: %w", err)
	}
	return nil
}

// Delete implements cache.CredentialStore.Delete.
func (s *CredentialStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting credential from redis: %w", err)
	}
	return nil
}

// Close closes the underlying redis client.
func (s *CredentialStore) Close() error {
	return s.client.Close()
}

var _ cache.CredentialStore = (*CredentialStore)(nil)
