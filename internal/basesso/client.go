// Package basesso implements the credential side of the Base HR
// integration: the SSO exchange that turns a verified Google identity
// into a Base access/refresh token pair, the refresh call that rotates
// the pair, and the freshness check that decides when to refresh.
package basesso

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zensoft-hr/basegate/domain"
	"github.com/zensoft-hr/basegate/log"
	"github.com/zensoft-hr/basegate/tracing"
)

const (
	ssoPath     = "/api/auth/sso"
	refreshPath = "/api/auth/refresh"
)

// Client talks to the Base SSO endpoints. All calls are single attempts
// guarded by the HTTP client timeout; a failed call is the caller's
// problem (ultimately a redirect to sign-in), never a retry loop.
type Client struct {
	baseURL       string
	clientSession string
	httpClient    *http.Client
	logger        log.Logger
}

// NewClient creates a Base SSO client. baseURL is the configured Base
// domain; clientSession is the optional downstream session identifier
// sent with every exchange.
func NewClient(baseURL, clientSession string, timeout time.Duration, logger log.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		clientSession: clientSession,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

// tokenResponse is the JSON body Base returns from both SSO endpoints.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Exchange trades a verified email plus Google access token for a Base
// credential. Network errors, non-2xx statuses, and schema mismatches all
// fail the exchange; a session must not be established without it.
func (c *Client) Exchange(ctx context.Context, email, googleAccessToken string) (*domain.Credential, error) {
	ctx, span := tracing.Tracer.Start(ctx, "base.sso_exchange")
	defer span.End()

	form := url.Values{}
	form.Set("email", email)
	form.Set("access_token", googleAccessToken)
	if c.clientSession != "" {
		form.Set("client_session", c.clientSession)
	}

	cred, err := c.postForm(ctx, c.baseURL+ssoPath, form)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn(ctx, "base sso exchange failed", map[string]any{"email": email, "cause": err.Error()})
		return nil, fmt.Errorf("%w: %w", domain.ErrExchangeFailed, err)
	}
	return cred, nil
}

// Refresh rotates a Base credential using its refresh token. Both tokens
// are replaced on success. On failure the caller falls back to a fresh
// Exchange instead of retrying.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.Credential, error) {
	ctx, span := tracing.Tracer.Start(ctx, "base.token_refresh")
	defer span.End()

	form := url.Values{}
	form.Set("refresh_token", refreshToken)
	if c.clientSession != "" {
		form.Set("client_session", c.clientSession)
	}

	cred, err := c.postForm(ctx, c.baseURL+refreshPath, form)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn(ctx, "base token refresh failed", map[string]any{"cause": err.Error()})
		return nil, fmt.Errorf("%w: %w", domain.ErrRefreshFailed, err)
	}
	return cred, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (*domain.Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if tr.AccessToken == "" || tr.RefreshToken == "" {
		return nil, fmt.Errorf("response missing token fields")
	}

	cred := &domain.Credential{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}
	if expiry, ok := TokenExpiry(tr.AccessToken); ok {
		cred.ExpiresAt = expiry
	}
	return cred, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
