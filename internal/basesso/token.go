package basesso

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshWindow is how far ahead of expiry a credential counts as stale.
// Refreshing inside this window keeps server-rendered pages from racing
// an expiry mid-request.
const RefreshWindow = 5 * time.Minute

// TokenExpiry decodes the exp claim from a Base access token without
// verifying the signature. Verification is Base's job; the portal only
// needs the expiry to schedule refreshes. The second return is false when
// the token is not a decodable JWT or carries no exp claim.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// NeedsRefresh reports whether a credential must be refreshed before use.
// A positive expiresAtMS (unix milliseconds) takes precedence over the
// expiry decoded from the token itself. When no expiry can be determined
// at all, the answer is true: an undecodable credential is treated as
// expired, never trusted.
func NeedsRefresh(token string, expiresAtMS int64, now time.Time) bool {
	expiry := time.UnixMilli(expiresAtMS)
	if expiresAtMS <= 0 {
		decoded, ok := TokenExpiry(token)
		if !ok {
			return true
		}
		expiry = decoded
	}
	return now.Add(RefreshWindow).After(expiry) || now.Add(RefreshWindow).Equal(expiry)
}
