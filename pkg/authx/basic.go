package authx

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// BasicAuthentication verifies a username and password pair.
type BasicAuthentication interface {
	Authenticate(ctx context.Context, username, password string) (*AuthenticatedUser, error)
}

// BasicAuthenticationProxy authenticates "Authorization: Basic" credentials
// against a BasicAuthentication backend.
//
// Every rejection is the same 401 AccessDenied with challenge "Basic" so that
// callers cannot tell which step failed. Only backend unavailability differs.
type BasicAuthenticationProxy struct {
	backend BasicAuthentication
}

func NewBasicAuthenticationProxy(backend BasicAuthentication) *BasicAuthenticationProxy {
	return &BasicAuthenticationProxy{backend: backend}
}

func (p *BasicAuthenticationProxy) Challenge() []string {
	return []string{SchemeBasic}
}

// HasCredentials reports whether the Authorization header uses the Basic
// scheme, compared case-insensitively.
func (p *BasicAuthenticationProxy) HasCredentials(r *http.Request) bool {
	scheme, _, _ := strings.Cut(r.Header.Get(HeaderAuthorization), " ")
	return strings.EqualFold(scheme, SchemeBasic)
}

func (p *BasicAuthenticationProxy) AuthenticateRequest(r *http.Request) (*AuthenticatedUser, error) {
	username, password, err := parseBasic(r.Header.Get(HeaderAuthorization))
	if err != nil {
		return nil, p.reject(r, err)
	}

	user, err := p.backend.Authenticate(r.Context(), username, password)
	if errors.Is(err, ErrBackendUnavailable) {
		return nil, Internal(err)
	}
	if err != nil {
		return nil, p.reject(r, err)
	}
	if user == nil {
		return nil, p.reject(r, ErrInvalidCredentials)
	}

	user.Scheme = SchemeBasic
	return user, nil
}

func (p *BasicAuthenticationProxy) reject(r *http.Request, cause error) *AuthError {
	return Unauthorized(p.Challenge(), r.URL.Path, cause)
}

// parseBasic decodes "Basic base64(user:pass)". The prefix is case-sensitive
// and the payload must split into exactly two fields on ':', so passwords
// containing a colon are rejected.
func parseBasic(header string) (username, password string, err error) {
	if header == "" {
		return "", "", fmt.Errorf("%w: missing authorization header", ErrMalformedCredential)
	}

	encoded, ok := strings.CutPrefix(header, "Basic ")
	if !ok {
		return "", "", fmt.Errorf("%w: not a basic credential", ErrMalformedCredential)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("%w: bad base64", ErrMalformedCredential)
	}
	if !utf8.Valid(raw) {
		return "", "", fmt.Errorf("%w: not utf-8", ErrMalformedCredential)
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: expected 2 fields, got %d", ErrMalformedCredential, len(parts))
	}
	return parts[0], parts[1], nil
}
