package echo

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"github.com/zensoft-hr/basegate/domain"
	"github.com/zensoft-hr/basegate/errors"
	"github.com/zensoft-hr/basegate/session"
)

// stateCookieName carries the OAuth CSRF state between the login redirect
// and the provider callback.
const stateCookieName = "bg_auth_state"

const stateTTL = 10 * time.Minute

func (a *PortalAPI) callbackURL() string {
	return a.publicURL + "/auth/callback"
}

// LoginHandler starts the Google sign-in flow. The error query parameter,
// when present, is the code a previous failed attempt redirected with; it
// is logged and passed through for the sign-in page to display.
func (a *PortalAPI) LoginHandler(c echo.Context) error {
	ctx := c.Request().Context()
	if code := c.QueryParam("error"); code != "" {
		a.logger.Info(ctx, "sign-in page shown after failure", map[string]any{"error_code": code})
	}

	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		Expires:  time.Now().Add(stateTTL),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})

	// Offline access so Google issues a refresh token for later exchanges.
	authURL, err := a.provider.AuthCodeURL(state, a.callbackURL(), oauth2.AccessTypeOffline)
	if err != nil {
		a.logger.Error(ctx, "failed to build auth code url", err)
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("sign-in unavailable"))
	}
	return c.Redirect(http.StatusFound, authURL)
}

// CallbackHandler finishes the sign-in flow: state check, code exchange,
// userinfo fetch, Base SSO exchange, session issue. Every failure ends at
// the sign-in page with an error code; a session is never established
// without a Base credential.
func (a *PortalAPI) CallbackHandler(c echo.Context) error {
	ctx := c.Request().Context()

	if errParam := c.QueryParam("error"); errParam != "" {
		a.logger.Warn(ctx, "provider returned error on callback", map[string]any{"provider_error": errParam})
		return a.failLogin(c, errors.AccessDenied)
	}

	stateCookie, err := c.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		a.logger.Warn(ctx, "auth state mismatch on callback")
		return a.failLogin(c, errors.InvalidRequest)
	}
	clearStateCookie(c, a.secure)

	code := c.QueryParam("code")
	if code == "" {
		return a.failLogin(c, errors.InvalidRequest)
	}

	googleToken, err := a.provider.ExchangeCode(ctx, a.callbackURL(), code)
	if err != nil {
		a.logger.Error(ctx, "authorization code exchange failed", err)
		return a.failLogin(c, errors.AccessDenied)
	}

	info, err := a.provider.FetchUserInfo(ctx, googleToken)
	if err != nil {
		a.logger.Error(ctx, "userinfo fetch failed", err)
		return a.failLogin(c, errors.AccessDenied)
	}

	cred, err := a.sso.Exchange(ctx, info.Email, googleToken.AccessToken)
	if err != nil {
		a.logger.Error(ctx, "base sso exchange failed during sign-in", err, map[string]any{"email": info.Email})
		return a.failLogin(c, errors.ExchangeFailed)
	}

	identity := &domain.Identity{
		Email:              info.Email,
		Name:               info.Name,
		Picture:            info.PictureURL,
		GoogleAccessToken:  googleToken.AccessToken,
		GoogleRefreshToken: googleToken.RefreshToken,
	}
	token, err := a.sessions.Issue(identity, cred)
	if err != nil {
		a.logger.Error(ctx, "failed to issue session token", err)
		return a.failLogin(c, errors.ServerError)
	}

	session.SetCookie(c, token, time.Now().Add(a.sessionTTL), a.secure)
	a.logger.Info(ctx, "user signed in", map[string]any{"email": info.Email})
	return c.Redirect(http.StatusFound, "/")
}

// LogoutHandler drops the session cookie and the cached credential.
func (a *PortalAPI) LogoutHandler(c echo.Context) error {
	ctx := c.Request().Context()
	if cookie, err := c.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if claims, err := a.sessions.Verify(cookie.Value); err == nil {
			if err := a.credentials.Delete(ctx, claims.SessionID()); err != nil {
				a.logger.Warn(ctx, "failed to drop cached credential on logout", map[string]any{"cause": err.Error()})
			}
		}
	}
	session.ClearCookie(c, a.secure)
	return c.Redirect(http.StatusFound, "/auth/login")
}

func (a *PortalAPI) failLogin(c echo.Context, code string) error {
	return c.Redirect(http.StatusFound, "/auth/login?error="+code)
}

func clearStateCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
