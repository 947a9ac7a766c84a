package errors

import "fmt"

// PortalError is the JSON error payload returned by API routes and the
// code carried on sign-in redirects (`/auth/login?error=<code>`).
type PortalError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *PortalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Stable error codes. API clients and the sign-in page match on these.
const (
	InvalidRequest  = "invalid_request"
	AccessDenied    = "access_denied"
	SessionExpired  = "session_expired"
	ExchangeFailed  = "exchange_failed"
	RefreshFailed   = "refresh_failed"
	UpstreamFailure = "upstream_failure"
	ServerError     = "server_error"
)

// Constructors exist only for the codes that are returned as JSON
// payloads; the rest travel as bare redirect codes.

func NewUpstreamFailure(description string) *PortalError {
	return &PortalError{Code: UpstreamFailure, Description: description}
}

func NewServerError(description string) *PortalError {
	return &PortalError{Code: ServerError, Description: description}
}
