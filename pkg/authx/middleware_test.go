package authx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/seuss/pkg/authx"
	"github.com/aussiebroadwan/seuss/pkg/httpx"
	"github.com/aussiebroadwan/seuss/pkg/privilege"
	"github.com/aussiebroadwan/seuss/pkg/redfish"
	"github.com/stretchr/testify/require"
)

type captured struct {
	user     *authx.AuthenticatedUser
	decision privilege.Decision
	called   bool
}

func newProtected(t *testing.T, entity string, obs authx.Observer) (http.Handler, *captured, string) {
	t.Helper()
	chain, token := newChain(t)
	got := &captured{}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.called = true
		got.user = authx.UserFromContext(r.Context())
		got.decision = authx.DecisionFromContext(r.Context())
		require.Equal(t, httpx.PrincipalFromContext(r.Context()), usernameOf(got.user))
		w.WriteHeader(http.StatusNoContent)
	})

	h := httpx.Chain(final,
		authx.Middleware(chain, authx.WithObserver(obs)),
		authx.RequirePrivileges(privilege.DefaultTable(), entity, chain.Challenge(), authx.WithObserver(obs)),
	)
	return h, got, token
}

func usernameOf(u *authx.AuthenticatedUser) string {
	if u == nil {
		return ""
	}
	return u.Username
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) redfish.Error {
	t.Helper()
	var body redfish.Error
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestMiddlewareRejectionWritesChallenge(t *testing.T) {
	obs := &recordingObserver{}
	h, got, _ := newProtected(t, privilege.EntitySessionService, obs)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newBasicRequest(basicHeader("admin:wrong")))

	require.False(t, got.called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, []string{"Basic"}, rec.Header().Values(authx.HeaderChallenge))
	require.Equal(t, redfish.AccessDenied.ID(), decodeError(t, rec).Error.Code)
	require.Equal(t, []string{"Basic/rejected"}, obs.authn)
}

func TestMiddlewareAnonymousDeniedGetsAllChallenges(t *testing.T) {
	obs := &recordingObserver{}
	h, got, _ := newProtected(t, privilege.EntitySessionService, obs)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/redfish/v1/SessionService", nil))

	require.False(t, got.called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, []string{"Session", "Basic"}, rec.Header().Values(authx.HeaderChallenge))
	require.Equal(t, []string{"none/anonymous"}, obs.authn)
	require.Equal(t, []string{"SessionService/GET"}, obs.denials)
}

func TestMiddlewareAnonymousAllowed(t *testing.T) {
	h, got, _ := newProtected(t, privilege.EntityServiceRoot, &recordingObserver{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/redfish/v1/", nil))

	require.True(t, got.called)
	require.Nil(t, got.user)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddlewareInsufficientPrivilege(t *testing.T) {
	obs := &recordingObserver{}
	h, got, _ := newProtected(t, privilege.EntitySessionService, obs)

	r := newBasicRequest(basicHeader("admin:hunter2"))
	r.Method = http.MethodPatch
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	require.False(t, got.called)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, rec.Header().Values(authx.HeaderChallenge))

	body := decodeError(t, rec)
	require.Equal(t, redfish.InsufficientPrivilege.ID(), body.Error.Code)
	require.NotEqual(t, redfish.AccessDenied.ID(), body.Error.Code)
	require.NotEqual(t, redfish.NoValidSession.ID(), body.Error.Code)
	require.Equal(t, []string{"SessionService/PATCH"}, obs.denials)
}

func TestMiddlewareSelfScopedDecision(t *testing.T) {
	h, got, token := newProtected(t, privilege.EntitySession, &recordingObserver{})

	r := httptest.NewRequest(http.MethodDelete, "/redfish/v1/SessionService/Sessions/1", nil)
	r.Header.Set(authx.HeaderAuthToken, token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	require.True(t, got.called)
	require.Equal(t, "operator", got.user.Username)
	require.True(t, got.decision.Allowed)
	require.True(t, got.decision.SelfOnly)
}

func TestAuthorize(t *testing.T) {
	m, _ := privilege.DefaultTable().Lookup(privilege.EntitySessionService)
	admin := &authx.AuthenticatedUser{Username: "admin", Privileges: privilege.StandardRoles()[0].Privileges}
	readOnly := &authx.AuthenticatedUser{Username: "ro", Privileges: privilege.StandardRoles()[2].Privileges}

	d, err := authx.Authorize(admin, m, privilege.OpPatch, []string{"Basic"}, "/x")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	_, err = authx.Authorize(readOnly, m, privilege.OpPatch, []string{"Basic"}, "/x")
	ae := requireAuthError(t, err, http.StatusForbidden, redfish.InsufficientPrivilege.ID())
	require.Empty(t, ae.Challenge)
	require.ErrorIs(t, err, authx.ErrInsufficientPrivilege)

	_, err = authx.Authorize(nil, m, privilege.OpGet, []string{"Basic"}, "/x")
	ae = requireAuthError(t, err, http.StatusUnauthorized, redfish.AccessDenied.ID())
	require.Equal(t, []string{"Basic"}, ae.Challenge)
}

func TestAuthorizeAnonymousOperation(t *testing.T) {
	m, _ := privilege.DefaultTable().Lookup(privilege.EntitySessionCollection)

	d, err := authx.Authorize(nil, m, privilege.OpPost, []string{"Session"}, "/x")
	require.NoError(t, err)
	require.Equal(t, privilege.Decision{Allowed: true}, d)

	// A caller without any privileges may still use an open operation.
	d, err = authx.Authorize(&authx.AuthenticatedUser{Username: "nobody"}, m, privilege.OpPost, nil, "/x")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.False(t, d.SelfOnly)

	_, err = authx.Authorize(nil, m, privilege.OpGet, []string{"Session"}, "/x")
	requireAuthError(t, err, http.StatusUnauthorized, redfish.AccessDenied.ID())
}

func TestRequirePrivilegesPanicsOnUnknownEntity(t *testing.T) {
	require.Panics(t, func() {
		authx.RequirePrivileges(privilege.DefaultTable(), "Chassis", nil)
	})
}

func TestAsAuthError(t *testing.T) {
	ae := authx.AsAuthError(authx.ErrBackendUnavailable)
	require.Equal(t, http.StatusInternalServerError, ae.Status)

	orig := authx.Forbidden()
	require.Same(t, orig, authx.AsAuthError(orig))
}
