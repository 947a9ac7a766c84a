package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/zensoft-hr/basegate/domain"
	"github.com/zensoft-hr/basegate/internal/basesso"
)

// MemoryCredentialStore implements CredentialStore with ttlcache.
// Suitable for single-replica deployments; multi-replica deployments use
// the redis store so a refresh on one replica is visible on the others.
type MemoryCredentialStore struct {
	cache      *ttlcache.Cache[string, *domain.Credential]
	defaultTTL time.Duration
}

// NewMemoryCredentialStore creates an in-memory store with automatic
// expiry cleanup.
func NewMemoryCredentialStore(defaultTTL time.Duration) *MemoryCredentialStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *domain.Credential](defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, *domain.Credential](),
	)
	go cache.Start()

	return &MemoryCredentialStore{cache: cache, defaultTTL: defaultTTL}
}

// Get implements CredentialStore.Get.
func (s *MemoryCredentialStore) Get(_ context.Context, sessionID string) (*domain.Credential, bool) {
	item := s.cache.Get(sessionID)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Set implements CredentialStore.Set.
func (s *MemoryCredentialStore) Set(_ context.Context, sessionID string, cred *domain.Credential) error {
	ttl := EntryTTL(cred, s.defaultTTL, basesso.RefreshWindow)
	if ttl <= 0 {
		// Already stale; caching it would only delay the refresh.
		s.cache.Delete(sessionID)
		return nil
	}
	s.cache.Set(sessionID, cred, ttl)
	return nil
}

// Delete implements CredentialStore.Delete.
func (s *MemoryCredentialStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryCredentialStore) Close() error {
	s.cache.Stop()
	return nil
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)
