package authx_test

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/seuss/pkg/authx"
	"github.com/aussiebroadwan/seuss/pkg/redfish"
	"github.com/stretchr/testify/require"
)

func basicHeader(raw string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

func newBasicRequest(header string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/redfish/v1/Systems", nil)
	if header != "" {
		r.Header.Set(authx.HeaderAuthorization, header)
	}
	return r
}

func TestBasicAuthenticationAccepts(t *testing.T) {
	proxy := authx.NewBasicAuthenticationProxy(&fakeAccounts{users: map[string]string{
		"admin": "hunter2",
		"bob":   "",
	}})

	for user, pw := range map[string]string{"admin": "hunter2", "bob": ""} {
		got, err := proxy.AuthenticateRequest(newBasicRequest(basicHeader(user + ":" + pw)))
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, user, got.Username)
		require.Equal(t, authx.SchemeBasic, got.Scheme)
	}
}

func TestBasicAuthenticationRejectsUniformly(t *testing.T) {
	proxy := authx.NewBasicAuthenticationProxy(&fakeAccounts{users: map[string]string{
		"admin": "hunter2",
		"bob":   "a:b",
	}})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"lowercase prefix", "basic " + base64.StdEncoding.EncodeToString([]byte("admin:hunter2"))},
		{"bearer scheme", "Bearer abc"},
		{"prefix without space", "Basic" + base64.StdEncoding.EncodeToString([]byte("admin:hunter2"))},
		{"invalid base64", "Basic !!!not-base64!!!"},
		{"non utf-8 payload", "Basic " + base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, ':', 'x'})},
		{"no colon", basicHeader("adminhunter2")},
		{"two colons", basicHeader("admin:hunter2:extra")},
		{"wrong password", basicHeader("admin:wrong")},
		{"unknown user", basicHeader("mallory:hunter2")},
		// Strict splitting: a colon inside a password is rejected even when
		// the credentials are otherwise correct.
		{"colon in password", basicHeader("bob:a:b")},
	}

	want := redfish.ErrorFrom(redfish.AccessDenied.With("/redfish/v1/Systems"))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := proxy.AuthenticateRequest(newBasicRequest(tt.header))
			require.Nil(t, user)

			var ae *authx.AuthError
			require.ErrorAs(t, err, &ae)
			require.Equal(t, http.StatusUnauthorized, ae.Status)
			require.Equal(t, []string{"Basic"}, ae.Challenge)
			require.Equal(t, want, ae.Body)
		})
	}
}

func TestBasicAuthenticationBackendUnavailable(t *testing.T) {
	proxy := authx.NewBasicAuthenticationProxy(&fakeAccounts{
		err: errors.Join(authx.ErrBackendUnavailable, errors.New("dial tcp: refused")),
	})

	_, err := proxy.AuthenticateRequest(newBasicRequest(basicHeader("admin:hunter2")))

	var ae *authx.AuthError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, http.StatusInternalServerError, ae.Status)
	require.Empty(t, ae.Challenge)
	require.Equal(t, redfish.GeneralError.ID(), ae.Body.Error.Code)
	require.ErrorIs(t, err, authx.ErrBackendUnavailable)
}

func TestBasicHasCredentials(t *testing.T) {
	proxy := authx.NewBasicAuthenticationProxy(&fakeAccounts{})

	require.True(t, proxy.HasCredentials(newBasicRequest("Basic abc")))
	require.True(t, proxy.HasCredentials(newBasicRequest("basic abc")))
	require.False(t, proxy.HasCredentials(newBasicRequest("Bearer abc")))
	require.False(t, proxy.HasCredentials(newBasicRequest("")))
}
