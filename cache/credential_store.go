// Package cache provides the short-TTL per-session credential cache that
// sits in front of the session-embedded Base credential. It exists so
// nested data fetches inside one request, and request bursts from one
// session, do not each run the refresh call. Entries are cheap to
// regenerate; overwrite-on-write is the only eviction policy besides TTL.
package cache

import (
	"context"
	"time"

	"github.com/zensoft-hr/basegate/domain"
)

// CredentialStore caches Base credentials keyed by session id.
type CredentialStore interface {
	// Get returns the cached credential for the session, if any.
	Get(ctx context.Context, sessionID string) (*domain.Credential, bool)
	// Set stores the credential. Implementations cap the entry TTL at the
	// credential's own expiry minus the refresh window.
	Set(ctx context.Context, sessionID string, cred *domain.Credential) error
	// Delete drops the session's cached credential (sign-out).
	Delete(ctx context.Context, sessionID string) error
	// Close releases background resources.
	Close() error
}

// EntryTTL bounds a cache entry's lifetime: never longer than defaultTTL,
// and never past the point where the credential would need a refresh
// anyway. A credential with unknown expiry gets the default.
func EntryTTL(cred *domain.Credential, defaultTTL, refreshWindow time.Duration) time.Duration {
	ttl := defaultTTL
	if !cred.ExpiresAt.IsZero() {
		untilStale := time.Until(cred.ExpiresAt) - refreshWindow
		if untilStale < ttl {
			ttl = untilStale
		}
	}
	return ttl
}
