// Package authx is the Redfish authentication and authorization core. It
// defines the strategy contract every credential scheme implements, the Basic
// and Session strategies, and privilege enforcement. Identity and session
// storage are supplied by the host through the BasicAuthentication and
// SessionManagement interfaces.
package authx

import (
	"context"
	"net/http"
	"slices"

	"github.com/aussiebroadwan/seuss/pkg/privilege"
)

// Scheme names reported in WWW-Authenticate challenges.
const (
	SchemeBasic   = "Basic"
	SchemeSession = "Session"
)

// Request headers consumed by the built-in strategies.
const (
	HeaderAuthorization = "Authorization"
	HeaderAuthToken     = "X-Auth-Token"
	HeaderOrigin        = "Origin"
	HeaderChallenge     = "WWW-Authenticate"
)

// AuthenticatedUser is the identity produced by a successful authentication.
// It lives in the request context for a single request and is never stored.
type AuthenticatedUser struct {
	Username   string
	Roles      []string
	Privileges []privilege.Privilege

	// Scheme is the strategy that authenticated the request.
	Scheme string

	// SessionID is set when the request was authenticated by a session token.
	SessionID string
}

// Has reports whether the user was granted p.
func (u *AuthenticatedUser) Has(p privilege.Privilege) bool {
	return u != nil && slices.Contains(u.Privileges, p)
}

// Authenticator is the contract every credential scheme implements.
//
// AuthenticateRequest inspects request metadata only and must not read the
// body. It returns:
//   - a user on success,
//   - (nil, nil) when the scheme found no credential material it applies to,
//   - a *AuthError when credential material was present but rejected.
type Authenticator interface {
	AuthenticateRequest(r *http.Request) (*AuthenticatedUser, error)

	// Challenge lists the scheme names announced when this strategy rejects.
	Challenge() []string
}

// CredentialProber is implemented by strategies that can tell cheaply whether
// a request carries material for them. Chain skips strategies reporting false.
type CredentialProber interface {
	HasCredentials(r *http.Request) bool
}

type userCtxKey struct{}

// WithUser attaches u to ctx.
func WithUser(ctx context.Context, u *AuthenticatedUser) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the authenticated user, or nil for anonymous
// requests.
func UserFromContext(ctx context.Context) *AuthenticatedUser {
	u, _ := ctx.Value(userCtxKey{}).(*AuthenticatedUser)
	return u
}
