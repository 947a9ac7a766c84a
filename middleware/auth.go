// Package middleware holds the echo middleware that gates routes behind
// a session and threads the Base credential through the request context.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zensoft-hr/basegate/cache"
	"github.com/zensoft-hr/basegate/domain"
	"github.com/zensoft-hr/basegate/errors"
	"github.com/zensoft-hr/basegate/internal/basesso"
	"github.com/zensoft-hr/basegate/log"
	"github.com/zensoft-hr/basegate/session"
)

// AuthConfig carries the dependencies of the session middleware.
type AuthConfig struct {
	Sessions    *session.Manager
	SSO         *basesso.Client
	Credentials cache.CredentialStore
	Logger      log.Logger
	// SecureCookies marks reissued session cookies Secure.
	SecureCookies bool
	// Now is the clock used for freshness checks; defaults to time.Now.
	Now func() time.Time
}

// RequireSession verifies the session cookie, ensures a fresh Base
// credential, and stores identity plus credential on the request context.
//
// The credential is resolved once per request, cache first, then the
// session-embedded copy. When it is within the refresh window, it is
// rotated via the refresh endpoint, falling back to a full SSO exchange
// with the embedded Google token. Any failure ends in a redirect to
// sign-in with an error code; the middleware never serves a gated page
// with a stale credential.
func RequireSession(cfg AuthConfig) echo.MiddlewareFunc {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			cookie, err := c.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				return redirectToLogin(c, errors.SessionExpired)
			}

			claims, err := cfg.Sessions.Verify(cookie.Value)
			if err != nil {
				cfg.Logger.Debug(ctx, "session verification failed", map[string]any{"cause": err.Error()})
				session.ClearCookie(c, cfg.SecureCookies)
				return redirectToLogin(c, errors.SessionExpired)
			}

			sid := claims.SessionID()
			cred, cached := cfg.Credentials.Get(ctx, sid)
			if !cached {
				cred = claims.Credential()
			}

			if basesso.NeedsRefresh(cred.AccessToken, cred.ExpiresAtMS(), now()) {
				rotated, errCode := rotateCredential(ctx, cfg, claims, cred)
				if rotated == nil {
					session.ClearCookie(c, cfg.SecureCookies)
					_ = cfg.Credentials.Delete(ctx, sid)
					return redirectToLogin(c, errCode)
				}
				cred = rotated

				if err := cfg.Credentials.Set(ctx, sid, cred); err != nil {
					cfg.Logger.Warn(ctx, "failed to cache rotated credential", map[string]any{"cause": err.Error()})
				}
				// Re-embed the rotated pair so the next request works even
				// on a cold cache.
				if token, err := cfg.Sessions.Reissue(claims, cred); err == nil {
					session.SetCookie(c, token, claims.ExpiresAt.Time, cfg.SecureCookies)
				} else {
					cfg.Logger.Error(ctx, "failed to reissue session token", err)
				}
			} else if !cached {
				if err := cfg.Credentials.Set(ctx, sid, cred); err != nil {
					cfg.Logger.Warn(ctx, "failed to cache credential", map[string]any{"cause": err.Error()})
				}
			}

			ctx = domain.WithIdentity(ctx, claims.Identity())
			ctx = domain.WithCredential(ctx, cred)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// rotateCredential refreshes the credential, falling back to a fresh SSO
// exchange. Returns the error code for the sign-in redirect on failure.
func rotateCredential(ctx context.Context, cfg AuthConfig, claims *session.Claims, cred *domain.Credential) (*domain.Credential, string) {
	if cred.RefreshToken != "" {
		if rotated, err := cfg.SSO.Refresh(ctx, cred.RefreshToken); err == nil {
			return rotated, ""
		}
	}

	id := claims.Identity()
	if id.GoogleAccessToken == "" {
		return nil, errors.RefreshFailed
	}
	rotated, err := cfg.SSO.Exchange(ctx, id.Email, id.GoogleAccessToken)
	if err != nil {
		return nil, errors.ExchangeFailed
	}
	return rotated, ""
}

func redirectToLogin(c echo.Context, errorCode string) error {
	return c.Redirect(http.StatusFound, "/auth/login?error="+errorCode)
}
