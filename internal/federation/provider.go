package federation

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// UserInfo holds the standardized profile returned by an identity provider.
type UserInfo struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	PictureURL     string
	RawData        map[string]any
}

// Provider is an external OAuth2 identity provider. The portal only ships
// a Google implementation, but sign-in flows are written against this
// interface so the provider stays swappable in tests.
type Provider interface {
	// Name returns the provider's unique identifier, e.g. "google".
	Name() string

	// AuthCodeURL builds the authorization URL the browser is redirected
	// to. state is the CSRF state parameter, redirectURL the callback
	// registered with the provider.
	AuthCodeURL(state, redirectURL string, opts ...oauth2.AuthCodeOption) (string, error)

	// ExchangeCode exchanges an authorization code for a token pair.
	ExchangeCode(ctx context.Context, redirectURL, code string) (*oauth2.Token, error)

	// FetchUserInfo retrieves the signed-in user's profile with the token.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error)

	// HTTPClient returns a client authenticated with the given token.
	HTTPClient(ctx context.Context, token *oauth2.Token) *http.Client
}
