package echo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/zensoft-hr/basegate/cache"
	"github.com/zensoft-hr/basegate/domain"
	"github.com/zensoft-hr/basegate/internal/basehr"
	"github.com/zensoft-hr/basegate/internal/basesso"
	"github.com/zensoft-hr/basegate/internal/federation"
	"github.com/zensoft-hr/basegate/log"
	"github.com/zensoft-hr/basegate/session"
	"github.com/zensoft-hr/basegate/webhook"
)

func testLogger() log.Logger {
	return log.NewZerologAdapter(zerolog.Disabled, false)
}

// stubProvider fakes Google for handler tests.
type stubProvider struct {
	exchangeErr error
	userInfoErr error
	token       *oauth2.Token
	info        *federation.UserInfo
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) AuthCodeURL(state, redirectURL string, _ ...oauth2.AuthCodeOption) (string, error) {
	return "https://idp.example/auth?state=" + url.QueryEscape(state) +
		"&redirect_uri=" + url.QueryEscape(redirectURL), nil
}

func (p *stubProvider) ExchangeCode(context.Context, string, string) (*oauth2.Token, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return p.token, nil
}

func (p *stubProvider) FetchUserInfo(context.Context, *oauth2.Token) (*federation.UserInfo, error) {
	if p.userInfoErr != nil {
		return nil, p.userInfoErr
	}
	return p.info, nil
}

func (p *stubProvider) HTTPClient(ctx context.Context, token *oauth2.Token) *http.Client {
	return http.DefaultClient
}

func defaultStubProvider() *stubProvider {
	return &stubProvider{
		token: &oauth2.Token{AccessToken: "google-access", RefreshToken: "google-refresh"},
		info: &federation.UserInfo{
			ProviderUserID: "112233",
			Email:          "jane@zensoft.example",
			Name:           "Jane Admin",
		},
	}
}

// newBaseStub serves both Base SSO endpoints and the timeoff list.
func newBaseStub(t *testing.T) *httptest.Server {
	t.Helper()
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("base-secret"))
	require.NoError(t, err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/sso", "/api/auth/refresh":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"` + accessToken + `","refresh_token":"base-refresh"}`))
		case "/api/timeoff/list":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[{"id":"t1","requester":"Anna","status":"approved","startDate":"2026-03-02","endDate":"2026-03-04"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

type apiEnv struct {
	e        *echo.Echo
	api      *PortalAPI
	provider *stubProvider
	manager  *session.Manager
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	base := newBaseStub(t)
	t.Cleanup(base.Close)

	logger := testLogger()
	provider := defaultStubProvider()
	manager := session.NewManager("test-secret", "basegate", time.Hour)
	store := cache.NewMemoryCredentialStore(5 * time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	dispatcher := webhook.NewDispatcher(logger)
	webhook.RegisterBuiltins(dispatcher)

	api := NewPortalAPI(
		provider,
		basesso.NewClient(base.URL, "", 5*time.Second, logger),
		basehr.NewClient(base.URL, 5*time.Second, logger),
		manager,
		store,
		dispatcher,
		logger,
		"http://portal.zensoft.example",
		time.Hour,
	)

	e := echo.New()
	api.RegisterRoutes(e)
	return &apiEnv{e: e, api: api, provider: provider, manager: manager}
}

func (env *apiEnv) sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	token, err := env.manager.Issue(&domain.Identity{
		Email:             "jane@zensoft.example",
		Name:              "Jane Admin",
		GoogleAccessToken: "google-access",
	}, &domain.Credential{
		AccessToken:  "base-access",
		RefreshToken: "base-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLogin_RedirectsToProviderWithState(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.Contains(t, location, "https://idp.example/auth")
	assert.Contains(t, location, "auth%2Fcallback")

	var stateCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == stateCookieName {
			stateCookie = ck
		}
	}
	require.NotNil(t, stateCookie, "login must set the state cookie")
	assert.Contains(t, location, "state="+stateCookie.Value)
}

func TestCallback_StateMismatchFailsClosed(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=evil&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "good"})
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?error=invalid_request", rec.Header().Get("Location"))
}

func TestCallback_ProviderErrorFailsClosed(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?error=access_denied", rec.Header().Get("Location"))
}

func TestCallback_HappyPathIssuesSession(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=xyz&code=authcode", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "xyz"})
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	var sessionCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			sessionCookie = ck
		}
	}
	require.NotNil(t, sessionCookie, "callback must set the session cookie")
	assert.True(t, sessionCookie.HttpOnly)

	claims, err := env.manager.Verify(sessionCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "jane@zensoft.example", claims.Subject)
	assert.Equal(t, "base-refresh", claims.Credential().RefreshToken)
	assert.Equal(t, "google-access", claims.Identity().GoogleAccessToken)
}

func TestCallback_BaseExchangeFailureBlocksSession(t *testing.T) {
	// A dedicated env whose Base stub always fails the exchange.
	base := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer base.Close()

	logger := testLogger()
	store := cache.NewMemoryCredentialStore(5 * time.Minute)
	defer store.Close()
	dispatcher := webhook.NewDispatcher(logger)

	api := NewPortalAPI(
		defaultStubProvider(),
		basesso.NewClient(base.URL, "", 5*time.Second, logger),
		basehr.NewClient(base.URL, 5*time.Second, logger),
		session.NewManager("test-secret", "basegate", time.Hour),
		store,
		dispatcher,
		logger,
		"http://portal.zensoft.example",
		time.Hour,
	)
	e := echo.New()
	api.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=xyz&code=authcode", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "xyz"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?error=exchange_failed", rec.Header().Get("Location"))

	for _, ck := range rec.Result().Cookies() {
		assert.NotEqual(t, session.CookieName, ck.Name, "no session cookie may be set when the exchange fails")
	}
}

func TestTimeoffList_RequiresSession(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/timeoff", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/auth/login?error=session_expired")
}

func TestTimeoffList_ReturnsRecords(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/timeoff?status=approved", nil)
	req.AddCookie(env.sessionCookie(t))
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []domain.TimeoffRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "t1", body.Data[0].ID)
	assert.Equal(t, "approved", body.Data[0].Status)
}

func TestMe_ReturnsIdentity(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(env.sessionCookie(t))
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"jane@zensoft.example","name":"Jane Admin","picture":""}`, rec.Body.String())
}

func TestLogout_ClearsSession(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(env.sessionCookie(t))
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			cleared = ck.Value == "" && ck.MaxAge < 0
		}
	}
	assert.True(t, cleared, "logout must expire the session cookie")
}
