package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/seuss/pkg/authx"
	"github.com/aussiebroadwan/seuss/pkg/cryptox"
	"github.com/aussiebroadwan/seuss/pkg/redfish"
)

func login(username, password string) redfish.Session {
	return redfish.Session{UserName: username, Password: password}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, SessionSettings{Timeout: 30 * time.Minute})

	req := login("operator", operatorPassword)
	req.Context = "ci-run-42"
	req.ClientOriginIPAddress = "10.0.0.7"
	created, err := f.sessions.CreateSession(ctx, req, sessionsPath+"/")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Len(t, created.Token, 43)
	require.Empty(t, created.Password)
	require.Equal(t, sessionsPath+"/"+created.ID, created.ODataID)
	require.Equal(t, redfish.SessionODataType, created.ODataType)
	require.Equal(t, redfish.SessionTypeRedfish, created.SessionType)
	require.Equal(t, "operator", created.UserName)
	require.Equal(t, 1, f.observer.created)

	t.Run("token is stored as a fingerprint only", func(t *testing.T) {
		stored, err := f.store.Sessions().GetSessionByID(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, cryptox.FingerprintToken(created.Token), stored.TokenHash)
		require.NotEqual(t, created.Token, stored.TokenHash)
	})

	t.Run("token authenticates its owner", func(t *testing.T) {
		user, err := f.sessions.SessionIsValid(ctx, created.Token, nil)
		require.NoError(t, err)
		require.Equal(t, "operator", user.Username)
		require.Equal(t, created.ID, user.SessionID)
	})

	t.Run("get and list", func(t *testing.T) {
		got, err := f.sessions.GetSession(ctx, created.ID)
		require.NoError(t, err)
		require.Empty(t, got.Token)
		require.Equal(t, "ci-run-42", got.Context)
		require.Equal(t, "10.0.0.7", got.ClientOriginIPAddress)
		require.Equal(t, created.ODataID, got.ODataID)

		refs, err := f.sessions.Sessions(ctx)
		require.NoError(t, err)
		require.Equal(t, []redfish.IDRef{{ODataID: created.ODataID}}, refs)
	})

	t.Run("delete twice", func(t *testing.T) {
		require.NoError(t, f.sessions.DeleteSession(ctx, created.ID))
		require.ErrorIs(t, f.sessions.DeleteSession(ctx, created.ID), authx.ErrSessionNotFound)

		_, err := f.sessions.SessionIsValid(ctx, created.Token, nil)
		require.ErrorIs(t, err, authx.ErrSessionNotFound)
		_, err = f.sessions.GetSession(ctx, created.ID)
		require.ErrorIs(t, err, authx.ErrSessionNotFound)
		require.Equal(t, 1, f.observer.deleted[DeleteReasonLogout])
	})
}

func TestCreateSessionRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, SessionSettings{})

	t.Run("missing properties", func(t *testing.T) {
		_, err := f.sessions.CreateSession(ctx, login("", "pw"), sessionsPath)
		var missing *PropertyMissingError
		require.True(t, errors.As(err, &missing))
		require.Equal(t, "UserName", missing.Property)
		require.Equal(t, redfish.PropertyMissing.ID(), authx.Diagnose(err, sessionsPath).ID())

		_, err = f.sessions.CreateSession(ctx, login("admin", ""), sessionsPath)
		require.True(t, errors.As(err, &missing))
		require.Equal(t, "Password", missing.Property)
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, err := f.sessions.CreateSession(ctx, login("admin", "wrong"), sessionsPath)
		require.ErrorIs(t, err, authx.ErrInvalidCredentials)

		n, err := f.store.Sessions().CountSessions(ctx)
		require.NoError(t, err)
		require.Zero(t, n)
	})
}

func TestSessionIsValidUnknownToken(t *testing.T) {
	f := newFixture(t, SessionSettings{})
	_, err := f.sessions.SessionIsValid(context.Background(), "not-a-token", nil)
	require.ErrorIs(t, err, authx.ErrSessionNotFound)
}

func origin(s string) *string { return &s }

func TestSessionOriginBinding(t *testing.T) {
	ctx := context.Background()

	bound := func(t *testing.T, bind bool) (*fixture, redfish.Session) {
		f := newFixture(t, SessionSettings{BindOrigin: bind})
		req := login("admin", adminPassword)
		req.Origin = "https://bmc.example"
		s, err := f.sessions.CreateSession(ctx, req, sessionsPath)
		require.NoError(t, err)
		return f, s
	}

	t.Run("enforced", func(t *testing.T) {
		f, s := bound(t, true)

		_, err := f.sessions.SessionIsValid(ctx, s.Token, origin("https://bmc.example"))
		require.NoError(t, err)

		_, err = f.sessions.SessionIsValid(ctx, s.Token, origin("https://evil.example"))
		require.ErrorIs(t, err, authx.ErrOriginMismatch)

		_, err = f.sessions.SessionIsValid(ctx, s.Token, origin(""))
		require.ErrorIs(t, err, authx.ErrOriginMismatch, "an empty Origin is still a supplied one")

		// Requests without an Origin header are not bound.
		_, err = f.sessions.SessionIsValid(ctx, s.Token, nil)
		require.NoError(t, err)

		// A mismatch does not end the session.
		_, err = f.sessions.GetSession(ctx, s.ID)
		require.NoError(t, err)
	})

	t.Run("disabled", func(t *testing.T) {
		f, s := bound(t, false)
		_, err := f.sessions.SessionIsValid(ctx, s.Token, origin("https://evil.example"))
		require.NoError(t, err)
	})

	t.Run("session without origin accepts any", func(t *testing.T) {
		f := newFixture(t, SessionSettings{BindOrigin: true})
		s, err := f.sessions.CreateSession(ctx, login("admin", adminPassword), sessionsPath)
		require.NoError(t, err)

		_, err = f.sessions.SessionIsValid(ctx, s.Token, origin("https://anywhere.example"))
		require.NoError(t, err)
	})
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, SessionSettings{Timeout: 30 * time.Minute})

	s, err := f.sessions.CreateSession(ctx, login("admin", adminPassword), sessionsPath)
	require.NoError(t, err)

	t.Run("use extends the idle window", func(t *testing.T) {
		f.clock.Advance(20 * time.Minute)
		_, err := f.sessions.SessionIsValid(ctx, s.Token, nil)
		require.NoError(t, err)

		f.clock.Advance(20 * time.Minute)
		_, err = f.sessions.SessionIsValid(ctx, s.Token, nil)
		require.NoError(t, err)
	})

	t.Run("idle session expires then disappears", func(t *testing.T) {
		f.clock.Advance(31 * time.Minute)
		_, err := f.sessions.SessionIsValid(ctx, s.Token, nil)
		require.ErrorIs(t, err, authx.ErrSessionExpired)
		require.Equal(t, redfish.SessionExpired.ID(), authx.Diagnose(err, sessionsPath).ID())

		_, err = f.sessions.SessionIsValid(ctx, s.Token, nil)
		require.ErrorIs(t, err, authx.ErrSessionNotFound)
		require.Equal(t, 1, f.observer.deleted[DeleteReasonExpired])
	})

	t.Run("expired sessions are not live", func(t *testing.T) {
		other, err := f.sessions.CreateSession(ctx, login("admin", adminPassword), sessionsPath)
		require.NoError(t, err)
		f.clock.Advance(time.Hour)

		refs, err := f.sessions.Sessions(ctx)
		require.NoError(t, err)
		require.Empty(t, refs)

		require.ErrorIs(t, f.sessions.DeleteSession(ctx, other.ID), authx.ErrSessionNotFound)
		_, err = f.store.Sessions().GetSessionByID(ctx, other.ID)
		require.Error(t, err)
	})
}

func TestSessionLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, SessionSettings{Timeout: 30 * time.Minute, MaxSessions: 2})

	for range 2 {
		_, err := f.sessions.CreateSession(ctx, login("admin", adminPassword), sessionsPath)
		require.NoError(t, err)
	}

	_, err := f.sessions.CreateSession(ctx, login("admin", adminPassword), sessionsPath)
	require.ErrorIs(t, err, authx.ErrSessionLimitExceeded)
	require.Equal(t, redfish.SessionLimitExceeded.ID(), authx.Diagnose(err, sessionsPath).ID())

	// Expired sessions stop counting against the limit.
	f.clock.Advance(time.Hour)
	_, err = f.sessions.CreateSession(ctx, login("admin", adminPassword), sessionsPath)
	require.NoError(t, err)
	require.Equal(t, 2, f.observer.deleted[DeleteReasonExpired])
}

func TestConcurrentCreatesAreUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, SessionSettings{})

	const n = 1000
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ids    = make(map[string]struct{}, n)
		tokens = make(map[string]struct{}, n)
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := f.sessions.CreateSession(ctx, login("operator", operatorPassword), sessionsPath)
			if err != nil {
				t.Errorf("create session: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[s.ID] = struct{}{}
			tokens[s.Token] = struct{}{}
		}()
	}
	wg.Wait()

	require.Len(t, ids, n)
	require.Len(t, tokens, n)

	refs, err := f.sessions.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, refs, n)
}

func TestConcurrentDeleteSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, SessionSettings{})

	s, err := f.sessions.CreateSession(ctx, login("admin", adminPassword), sessionsPath)
	require.NoError(t, err)

	const n = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		notFound int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.sessions.DeleteSession(ctx, s.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, authx.ErrSessionNotFound):
				notFound++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, ok)
	require.Equal(t, n-1, notFound)
}
