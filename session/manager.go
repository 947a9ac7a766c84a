// Package session issues and verifies the portal's signed session token.
// The token is the single source of truth for a signed-in user: it embeds
// the Google identity and the Base credential, so there is no server-side
// session store to keep consistent. Refreshing the Base credential means
// reissuing the token.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zensoft-hr/basegate/domain"
)

// CookieName is the browser cookie carrying the session token.
const CookieName = "bg_session"

// Claims are the session token claims. Short names keep the cookie small;
// the token never leaves the first-party cookie, so embedding provider
// tokens is equivalent to any other encrypted-at-rest session payload.
type Claims struct {
	Name               string `json:"name,omitempty"`
	Picture            string `json:"picture,omitempty"`
	GoogleAccessToken  string `json:"gat,omitempty"`
	GoogleRefreshToken string `json:"grt,omitempty"`
	BaseAccessToken    string `json:"bat"`
	BaseRefreshToken   string `json:"brt"`
	BaseExpiresAtMS    int64  `json:"bexp,omitempty"`
	jwt.RegisteredClaims
}

// Identity rebuilds the domain identity from the claims. The user's email
// is the registered subject.
func (c *Claims) Identity() *domain.Identity {
	return &domain.Identity{
		Email:              c.Subject,
		Name:               c.Name,
		Picture:            c.Picture,
		GoogleAccessToken:  c.GoogleAccessToken,
		GoogleRefreshToken: c.GoogleRefreshToken,
	}
}

// Credential rebuilds the embedded Base credential.
func (c *Claims) Credential() *domain.Credential {
	cred := &domain.Credential{
		AccessToken:  c.BaseAccessToken,
		RefreshToken: c.BaseRefreshToken,
	}
	if c.BaseExpiresAtMS > 0 {
		cred.ExpiresAt = time.UnixMilli(c.BaseExpiresAtMS)
	}
	return cred
}

// SessionID returns the token's unique id (the jti claim).
func (c *Claims) SessionID() string { return c.ID }

// Manager signs and verifies session tokens with a shared HS256 secret.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewManager creates a session Manager. ttl bounds the browser session;
// the embedded Base credential rotates independently via reissue.
func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Issue mints a fresh session token for the identity/credential pair.
func (m *Manager) Issue(id *domain.Identity, cred *domain.Credential) (string, error) {
	now := time.Now()
	claims := &Claims{
		Name:               id.Name,
		Picture:            id.Picture,
		GoogleAccessToken:  id.GoogleAccessToken,
		GoogleRefreshToken: id.GoogleRefreshToken,
		BaseAccessToken:    cred.AccessToken,
		BaseRefreshToken:   cred.RefreshToken,
		BaseExpiresAtMS:    cred.ExpiresAtMS(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Reissue mints a token that keeps the session's identity and id but
// carries a rotated Base credential. The session deadline is preserved so
// credential rotation does not extend the browser session.
func (m *Manager) Reissue(old *Claims, cred *domain.Credential) (string, error) {
	claims := &Claims{
		Name:               old.Name,
		Picture:            old.Picture,
		GoogleAccessToken:  old.GoogleAccessToken,
		GoogleRefreshToken: old.GoogleRefreshToken,
		BaseAccessToken:    cred.AccessToken,
		BaseRefreshToken:   cred.RefreshToken,
		BaseExpiresAtMS:    cred.ExpiresAtMS(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        old.ID,
			Issuer:    m.issuer,
			Subject:   old.Subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: old.ExpiresAt,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a session token. Only HS256 is accepted.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, domain.ErrSessionExpired
	}
	return claims, nil
}
