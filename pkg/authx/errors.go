package authx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/seuss/pkg/httpx"
	"github.com/aussiebroadwan/seuss/pkg/redfish"
)

// Domain errors returned by identity and session backends.
var (
	ErrMalformedCredential   = errors.New("authx: malformed credential")
	ErrInvalidCredentials    = errors.New("authx: invalid credentials")
	ErrSessionNotFound       = errors.New("authx: session not found")
	ErrSessionExpired        = errors.New("authx: session expired")
	ErrOriginMismatch        = errors.New("authx: origin mismatch")
	ErrInsufficientPrivilege = errors.New("authx: insufficient privilege")
	ErrBackendUnavailable    = errors.New("authx: backend unavailable")
	ErrSessionLimitExceeded  = errors.New("authx: session limit exceeded")
)

// Diagnosable is implemented by backend errors that carry their own registry
// message. Diagnose prefers it over the sentinel mapping.
type Diagnosable interface {
	Diagnostic() redfish.Registry
}

// Diagnose maps a domain error to the registry message rendered to callers.
// uri is the request path, used by messages that name the target resource.
func Diagnose(err error, uri string) redfish.Registry {
	var d Diagnosable
	if errors.As(err, &d) {
		return d.Diagnostic()
	}

	switch {
	case errors.Is(err, ErrSessionNotFound):
		return redfish.NoValidSession.With()
	case errors.Is(err, ErrSessionExpired):
		return redfish.SessionExpired.With()
	case errors.Is(err, ErrOriginMismatch):
		return redfish.OriginMismatch.With()
	case errors.Is(err, ErrInsufficientPrivilege):
		return redfish.InsufficientPrivilege.With()
	case errors.Is(err, ErrSessionLimitExceeded):
		return redfish.SessionLimitExceeded.With()
	case errors.Is(err, ErrMalformedCredential), errors.Is(err, ErrInvalidCredentials):
		return redfish.AccessDenied.With(uri)
	default:
		return redfish.GeneralError.With()
	}
}

// AuthError is a rejection that is ready to be written to the wire. Every
// failure leaving this package is an *AuthError.
type AuthError struct {
	Status    int
	Challenge []string
	Body      redfish.Error

	cause error
}

func (e *AuthError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Body.Error.Code, e.cause)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Body.Error.Code)
}

// Unwrap exposes the domain error for errors.Is checks and logging. The cause
// is never rendered to the caller.
func (e *AuthError) Unwrap() error { return e.cause }

// WriteError writes the status, one WWW-Authenticate value per challenge
// scheme and the Redfish error body.
func (e *AuthError) WriteError(w http.ResponseWriter) {
	for _, scheme := range e.Challenge {
		w.Header().Add(HeaderChallenge, scheme)
	}
	httpx.WriteError(w, e.Status, e.Body)
}

func newAuthError(status int, challenge []string, msg redfish.Registry, cause error) *AuthError {
	return &AuthError{
		Status:    status,
		Challenge: append([]string(nil), challenge...),
		Body:      redfish.ErrorFrom(msg),
		cause:     cause,
	}
}

// Unauthorized is the generic 401 rejection. It names no reason beyond access
// being denied to uri; cause is kept for server-side logging only.
func Unauthorized(challenge []string, uri string, cause error) *AuthError {
	if cause == nil {
		cause = ErrInvalidCredentials
	}
	return newAuthError(http.StatusUnauthorized, challenge, redfish.AccessDenied.With(uri), cause)
}

// UnauthorizedWithError rejects with the diagnostic for err preserved in the
// body. Backend unavailability becomes a 500 without a challenge.
func UnauthorizedWithError(err error, challenge []string, uri string) *AuthError {
	if errors.Is(err, ErrBackendUnavailable) {
		return Internal(err)
	}
	return newAuthError(http.StatusUnauthorized, challenge, Diagnose(err, uri), err)
}

// Forbidden is the privilege denial for an authenticated caller. It carries no
// challenge.
func Forbidden() *AuthError {
	return newAuthError(http.StatusForbidden, nil, redfish.InsufficientPrivilege.With(), ErrInsufficientPrivilege)
}

// Internal reports a backend failure as a server error.
func Internal(cause error) *AuthError {
	return newAuthError(http.StatusInternalServerError, nil, redfish.GeneralError.With(), cause)
}

// AsAuthError returns err as an *AuthError, converting anything else into an
// internal error.
func AsAuthError(err error) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
