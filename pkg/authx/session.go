package authx

import (
	"context"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/aussiebroadwan/seuss/pkg/redfish"
)

// SessionManagement is the lifecycle contract a session backend satisfies.
// Each operation must be atomic and safe for concurrent use; the proxies add
// no locking of their own.
type SessionManagement interface {
	// SessionIsValid resolves a token to its owner. origin is nil when the
	// request carried no Origin header; only a supplied origin can mismatch.
	// Failures are ErrSessionNotFound, ErrSessionExpired, ErrOriginMismatch or
	// ErrBackendUnavailable.
	SessionIsValid(ctx context.Context, token string, origin *string) (*AuthenticatedUser, error)

	// Sessions lists live sessions as references, in a stable order.
	Sessions(ctx context.Context) ([]redfish.IDRef, error)

	// CreateSession assigns a unique id and token and persists the session.
	// The returned session is addressed under basePath and carries the token.
	CreateSession(ctx context.Context, s redfish.Session, basePath string) (redfish.Session, error)

	// GetSession fails with ErrSessionNotFound unless id is a live session.
	GetSession(ctx context.Context, id string) (redfish.Session, error)

	// DeleteSession fails with ErrSessionNotFound when id is not live, so a
	// second delete of the same id fails.
	DeleteSession(ctx context.Context, id string) error
}

// SessionAuthenticationProxy authenticates X-Auth-Token requests against a
// SessionManagement backend. Unlike Basic, backend errors are preserved in the
// response body because they are actionable (expired vs. unknown session).
type SessionAuthenticationProxy struct {
	backend SessionManagement
}

func NewSessionAuthenticationProxy(backend SessionManagement) *SessionAuthenticationProxy {
	return &SessionAuthenticationProxy{backend: backend}
}

func (p *SessionAuthenticationProxy) Challenge() []string {
	return []string{SchemeSession}
}

// HasCredentials reports whether an X-Auth-Token header is present.
func (p *SessionAuthenticationProxy) HasCredentials(r *http.Request) bool {
	return len(r.Header.Values(HeaderAuthToken)) > 0
}

func (p *SessionAuthenticationProxy) AuthenticateRequest(r *http.Request) (*AuthenticatedUser, error) {
	token := r.Header.Get(HeaderAuthToken)
	if token == "" || !utf8.ValidString(token) {
		return nil, newAuthError(http.StatusUnauthorized, p.Challenge(), redfish.NoValidSession.With(),
			fmt.Errorf("%w: missing or unreadable %s", ErrMalformedCredential, HeaderAuthToken))
	}

	var origin *string
	if values := r.Header.Values(HeaderOrigin); len(values) > 0 {
		if !utf8.ValidString(values[0]) {
			return nil, Unauthorized(p.Challenge(), r.URL.Path,
				fmt.Errorf("%w: unreadable %s", ErrMalformedCredential, HeaderOrigin))
		}
		origin = &values[0]
	}

	user, err := p.backend.SessionIsValid(r.Context(), token, origin)
	if err != nil {
		return nil, UnauthorizedWithError(err, p.Challenge(), r.URL.Path)
	}
	if user == nil {
		return nil, UnauthorizedWithError(ErrSessionNotFound, p.Challenge(), r.URL.Path)
	}

	user.Scheme = SchemeSession
	return user, nil
}
