package authx

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/seuss/pkg/httpx"
	"github.com/aussiebroadwan/seuss/pkg/privilege"
	"github.com/aussiebroadwan/seuss/pkg/slogx"
)

// Authentication outcomes reported to an Observer.
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
	OutcomeAnonymous = "anonymous"
)

// Observer receives authentication and authorization outcomes, typically to
// feed metrics.
type Observer interface {
	AuthnAttempt(scheme, outcome string)
	AuthzDenied(entity string, op privilege.Operation)
}

type nopObserver struct{}

func (nopObserver) AuthnAttempt(string, string)             {}
func (nopObserver) AuthzDenied(string, privilege.Operation) {}

type options struct {
	observer Observer
}

// Option configures Middleware and RequirePrivileges.
type Option func(*options)

// WithObserver reports outcomes to o.
func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

func buildOptions(opts []Option) options {
	o := options{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Middleware runs a on every request. Rejections are written immediately;
// otherwise the user (if any) is attached to the request context.
func Middleware(a Authenticator, opts ...Option) httpx.Middleware {
	o := buildOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.AuthenticateRequest(r)
			if err != nil {
				ae := AsAuthError(err)
				scheme := "unknown"
				if len(ae.Challenge) > 0 {
					scheme = ae.Challenge[0]
				}

				logger := slogx.FromContext(r.Context())
				if ae.Status >= http.StatusInternalServerError {
					o.observer.AuthnAttempt(scheme, OutcomeError)
					logger.Error("authentication backend failed", "err", ae.Unwrap())
				} else {
					o.observer.AuthnAttempt(scheme, OutcomeRejected)
					logger.Info("authentication rejected", "scheme", scheme, "reason", ae.Unwrap())
				}

				ae.WriteError(w)
				return
			}

			if user == nil {
				o.observer.AuthnAttempt("none", OutcomeAnonymous)
				next.ServeHTTP(w, r)
				return
			}

			o.observer.AuthnAttempt(user.Scheme, OutcomeSuccess)

			ctx := WithUser(r.Context(), user)
			ctx = httpx.WithPrincipal(ctx, user.Username)
			ctx = slogx.WithUser(ctx, user.Username, user.Scheme)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize checks user against m for op. Operations open to anonymous
// callers are allowed for everyone. Otherwise an anonymous caller gets a 401
// carrying challenge and an authenticated caller lacking privileges gets a
// 403 with no challenge.
func Authorize(user *AuthenticatedUser, m privilege.OperationMap, op privilege.Operation, challenge []string, uri string) (privilege.Decision, error) {
	if m.Anonymous(op) {
		return privilege.Decision{Allowed: true}, nil
	}
	if user == nil {
		return privilege.Decision{}, Unauthorized(challenge, uri, fmt.Errorf("%w: anonymous %s", ErrInsufficientPrivilege, op))
	}

	d := m.Decide(op, user.Privileges)
	if !d.Allowed {
		return d, Forbidden()
	}
	return d, nil
}

type decisionCtxKey struct{}

// DecisionFromContext returns the privilege decision made for the request.
func DecisionFromContext(ctx context.Context) privilege.Decision {
	d, _ := ctx.Value(decisionCtxKey{}).(privilege.Decision)
	return d
}

// RequirePrivileges enforces the table entry for entity on every request.
// challenge is announced to anonymous callers that are denied. It panics when
// entity has no mapping, which is a wiring error.
func RequirePrivileges(table privilege.Table, entity string, challenge []string, opts ...Option) httpx.Middleware {
	m, ok := table.Lookup(entity)
	if !ok {
		panic(fmt.Sprintf("authx: no privilege mapping for entity %q", entity))
	}
	o := buildOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())

			op, known := privilege.OperationFor(r.Method)
			if !known {
				op = privilege.Operation(r.Method)
			}

			d, err := Authorize(user, m, op, challenge, r.URL.Path)
			if err != nil {
				o.observer.AuthzDenied(entity, op)

				ae := AsAuthError(err)
				slogx.FromContext(r.Context()).Info("authorization denied",
					"entity", entity, "operation", string(op), "status", ae.Status)
				ae.WriteError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), decisionCtxKey{}, d)))
		})
	}
}
