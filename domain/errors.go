package domain

import "errors"

var (
	ErrSessionExpired = errors.New("session expired or invalid")
	ErrNoCredential   = errors.New("no downstream credential available")
	ErrExchangeFailed = errors.New("downstream sso exchange failed")
	ErrRefreshFailed  = errors.New("downstream token refresh failed")
)
