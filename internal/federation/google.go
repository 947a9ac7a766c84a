package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	googleoauth2 "golang.org/x/oauth2/google"
)

// GoogleUserInfoEndpoint is a variable so tests can point it at a stub.
var GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"

// googleScopes are the scopes required for the portal's sign-in: identity
// plus basic profile. Offline access is requested separately via an auth
// code option so Google issues a refresh token.
var googleScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
}

// GoogleConfig carries the OAuth client registered with Google.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

// GoogleProvider implements Provider for Google sign-in.
type GoogleProvider struct {
	cfg GoogleConfig
}

// NewGoogleProvider creates a GoogleProvider. The client id and secret
// must be non-empty; endpoint discovery is not needed since Google's
// endpoints ship with the oauth2 package.
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrProviderMisconfigured
	}
	return &GoogleProvider{cfg: cfg}, nil
}

func (g *GoogleProvider) Name() string { return "google" }

func (g *GoogleProvider) oauth2Config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.cfg.ClientID,
		ClientSecret: g.cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       googleScopes,
		Endpoint:     googleoauth2.Endpoint,
	}
}

// AuthCodeURL builds the Google authorization URL for the given state.
func (g *GoogleProvider) AuthCodeURL(state, redirectURL string, opts ...oauth2.AuthCodeOption) (string, error) {
	return g.oauth2Config(redirectURL).AuthCodeURL(state, opts...), nil
}

// ExchangeCode exchanges the authorization code for a Google token pair.
func (g *GoogleProvider) ExchangeCode(ctx context.Context, redirectURL, code string) (*oauth2.Token, error) {
	token, err := g.oauth2Config(redirectURL).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExchangeCodeFailed, err)
	}
	return token, nil
}

// FetchUserInfo retrieves the user's Google profile from the userinfo
// endpoint with the given token.
func (g *GoogleProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	resp, err := g.HTTPClient(ctx, token).Get(GoogleUserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchUserInfoFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrFetchUserInfoFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrFetchUserInfoFailed, resp.StatusCode, string(body))
	}

	var raw struct {
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrFetchUserInfoFailed, err)
	}
	if raw.Email == "" {
		return nil, fmt.Errorf("%w: response carries no email", ErrFetchUserInfoFailed)
	}

	var rawData map[string]any
	if err := json.Unmarshal(body, &rawData); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrFetchUserInfoFailed, err)
	}

	return &UserInfo{
		ProviderUserID: raw.Sub,
		Email:          raw.Email,
		EmailVerified:  raw.EmailVerified,
		Name:           raw.Name,
		PictureURL:     raw.Picture,
		RawData:        rawData,
	}, nil
}

// HTTPClient returns a client that authenticates requests with the token.
func (g *GoogleProvider) HTTPClient(ctx context.Context, token *oauth2.Token) *http.Client {
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
}

var _ Provider = (*GoogleProvider)(nil)
