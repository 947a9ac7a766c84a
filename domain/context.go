package domain

import "context"

type contextKey int

const (
	credentialContextKey contextKey = iota
	identityContextKey
)

// WithCredential returns a context carrying the resolved Base credential
// for the current request. The auth middleware sets it once per request;
// nested data fetches read it back instead of re-running the exchange.
func WithCredential(ctx context.Context, cred *Credential) context.Context {
	return context.WithValue(ctx, credentialContextKey, cred)
}

// CredentialFromContext retrieves the request-scoped Base credential.
func CredentialFromContext(ctx context.Context) (*Credential, bool) {
	cred, ok := ctx.Value(credentialContextKey).(*Credential)
	return cred, ok
}

// WithIdentity returns a context carrying the signed-in user's identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext retrieves the signed-in user's identity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	return id, ok
}
