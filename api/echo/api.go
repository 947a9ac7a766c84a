// Package echo exposes the portal's HTTP surface: the Google sign-in
// flow, the session-gated dashboard API, and the automation platform's
// webhook endpoint.
package echo

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zensoft-hr/basegate/cache"
	"github.com/zensoft-hr/basegate/internal/basehr"
	"github.com/zensoft-hr/basegate/internal/basesso"
	"github.com/zensoft-hr/basegate/internal/federation"
	"github.com/zensoft-hr/basegate/log"
	"github.com/zensoft-hr/basegate/middleware"
	"github.com/zensoft-hr/basegate/session"
	"github.com/zensoft-hr/basegate/webhook"
)

// PortalAPI holds the handlers' dependencies.
type PortalAPI struct {
	provider    federation.Provider
	sso         *basesso.Client
	hr          *basehr.Client
	sessions    *session.Manager
	credentials cache.CredentialStore
	dispatcher  *webhook.Dispatcher
	logger      log.Logger

	publicURL  string
	sessionTTL time.Duration
	secure     bool
}

// NewPortalAPI initializes the portal API. publicURL is the externally
// visible origin used to build the OAuth callback URL; cookies are marked
// Secure when it is https.
func NewPortalAPI(
	provider federation.Provider,
	sso *basesso.Client,
	hr *basehr.Client,
	sessions *session.Manager,
	credentials cache.CredentialStore,
	dispatcher *webhook.Dispatcher,
	logger log.Logger,
	publicURL string,
	sessionTTL time.Duration,
) *PortalAPI {
	return &PortalAPI{
		provider:    provider,
		sso:         sso,
		hr:          hr,
		sessions:    sessions,
		credentials: credentials,
		dispatcher:  dispatcher,
		logger:      logger,
		publicURL:   strings.TrimRight(publicURL, "/"),
		sessionTTL:  sessionTTL,
		secure:      strings.HasPrefix(publicURL, "https://"),
	}
}

// RegisterRoutes registers all portal routes.
func (a *PortalAPI) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", a.HealthHandler)

	e.GET("/auth/login", a.LoginHandler)
	e.GET("/auth/callback", a.CallbackHandler)
	e.GET("/auth/logout", a.LogoutHandler)

	gated := e.Group("/api", middleware.RequireSession(middleware.AuthConfig{
		Sessions:      a.sessions,
		SSO:           a.sso,
		Credentials:   a.credentials,
		Logger:        a.logger,
		SecureCookies: a.secure,
	}))
	gated.GET("/timeoff", a.TimeoffListHandler)
	gated.GET("/me", a.MeHandler)

	// The webhook endpoint authenticates by obscurity of the flow URL on
	// the automation platform side, not by session.
	e.GET("/api/webhook", a.WebhookLivenessHandler)
	e.POST("/api/webhook", a.WebhookHandler)
}

// HealthHandler reports process liveness.
func (a *PortalAPI) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
