package domain

import "time"

// Identity holds the user profile established through the identity
// provider sign-in, together with the provider's own token pair. It lives
// only inside the signed session token.
type Identity struct {
	Email              string
	Name               string
	Picture            string
	GoogleAccessToken  string
	GoogleRefreshToken string
}

// Credential is the Base access/refresh token pair obtained through the
// SSO exchange. It is never persisted beyond the session that owns it:
// it is either embedded in the session token or held in a short-TTL
// per-session cache, and regenerated on demand.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // decoded from the access token's exp claim
}

// ExpiresAtMS returns the expiry as unix milliseconds, or 0 when unknown.
func (c Credential) ExpiresAtMS() int64 {
	if c.ExpiresAt.IsZero() {
		return 0
	}
	return c.ExpiresAt.UnixMilli()
}
