package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/seuss/internal/seuss/domain"
	"github.com/aussiebroadwan/seuss/internal/seuss/store"
	"github.com/aussiebroadwan/seuss/pkg/authx"
	"github.com/aussiebroadwan/seuss/pkg/cryptox"
	"github.com/aussiebroadwan/seuss/pkg/idx"
	"github.com/aussiebroadwan/seuss/pkg/redfish"
	"github.com/aussiebroadwan/seuss/pkg/slogx"
)

// Reasons reported to SessionObserver.SessionsDeleted.
const (
	DeleteReasonLogout  = "logout"
	DeleteReasonExpired = "expired"
	DeleteReasonIdle    = "idle"
)

// SessionObserver receives session lifecycle events.
type SessionObserver interface {
	SessionCreated()
	SessionsDeleted(reason string, n int)
}

type nopSessionObserver struct{}

func (nopSessionObserver) SessionCreated()             {}
func (nopSessionObserver) SessionsDeleted(string, int) {}

// PropertyMissingError rejects a session create request lacking a required
// property. It renders as Base PropertyMissing.
type PropertyMissingError struct {
	Property string
}

func (e *PropertyMissingError) Error() string {
	return fmt.Sprintf("required property %s is missing", e.Property)
}

func (e *PropertyMissingError) Diagnostic() redfish.Registry {
	return redfish.PropertyMissing.With(e.Property)
}

// SessionSettings tune the session lifecycle.
type SessionSettings struct {
	// Timeout is the idle timeout. Zero disables expiry.
	Timeout time.Duration

	// MaxSessions caps live sessions. Zero means unlimited.
	MaxSessions int

	// BindOrigin rejects requests whose Origin differs from the one the
	// session was created from.
	BindOrigin bool
}

// SessionService implements authx.SessionManagement over a session
// repository. Only token fingerprints are persisted.
type SessionService struct {
	Store    store.Sessions
	Accounts *AccountService
	Settings SessionSettings
	Observer SessionObserver

	// Now defaults to time.Now.
	Now func() time.Time
}

var _ authx.SessionManagement = (*SessionService)(nil)

func NewSessionService(sessions store.Sessions, accounts *AccountService, settings SessionSettings) *SessionService {
	return &SessionService{
		Store:    sessions,
		Accounts: accounts,
		Settings: settings,
		Observer: nopSessionObserver{},
		Now:      time.Now,
	}
}

func (s *SessionService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *SessionService) observer() SessionObserver {
	if s.Observer == nil {
		return nopSessionObserver{}
	}
	return s.Observer
}

func (s *SessionService) expired(sess domain.Session, now time.Time) bool {
	return s.Settings.Timeout > 0 && sess.IdleSince(now.Add(-s.Settings.Timeout))
}

// SessionIsValid resolves token to the identity of its owner and records the
// use. A nil origin means the request did not supply one and is never a
// mismatch.
func (s *SessionService) SessionIsValid(ctx context.Context, token string, origin *string) (*authx.AuthenticatedUser, error) {
	sess, err := s.Store.GetSessionByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		return nil, s.mapLookup(err)
	}

	now := s.now()
	if s.expired(sess, now) {
		s.purge(ctx, sess.ID)
		return nil, authx.ErrSessionExpired
	}

	if s.Settings.BindOrigin && sess.Origin != "" && origin != nil && *origin != sess.Origin {
		slogx.FromContext(ctx).Warn("session used from a different origin",
			slog.String("session_id", sess.ID),
			slog.String("origin", *origin),
		)
		return nil, authx.ErrOriginMismatch
	}

	user, err := s.Accounts.Identity(ctx, sess.AccountID)
	if errors.Is(err, authx.ErrInvalidCredentials) {
		return nil, authx.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.Store.TouchSession(ctx, sess.ID, now); err != nil {
		return nil, s.mapLookup(err)
	}

	user.SessionID = sess.ID
	return user, nil
}

// Sessions lists live sessions ordered by id.
func (s *SessionService) Sessions(ctx context.Context) ([]redfish.IDRef, error) {
	sessions, err := s.Store.ListSessions(ctx)
	if err != nil {
		return nil, unavailable(err)
	}

	now := s.now()
	refs := make([]redfish.IDRef, 0, len(sessions))
	for _, sess := range sessions {
		if s.expired(sess, now) {
			continue
		}
		refs = append(refs, redfish.IDRef{ODataID: sess.BasePath + "/" + sess.ID})
	}
	return refs, nil
}

// CreateSession logs in with the request's UserName and Password and
// persists a new session addressed under basePath. The returned session
// carries the bearer token; nothing else ever sees it.
func (s *SessionService) CreateSession(ctx context.Context, req redfish.Session, basePath string) (redfish.Session, error) {
	l := slogx.FromContext(ctx)

	if req.UserName == "" {
		return redfish.Session{}, &PropertyMissingError{Property: "UserName"}
	}
	if req.Password == "" {
		return redfish.Session{}, &PropertyMissingError{Property: "Password"}
	}

	acct, _, err := s.Accounts.authenticate(ctx, req.UserName, req.Password)
	if err != nil {
		return redfish.Session{}, err
	}

	token, fingerprint, err := cryptox.NewSessionToken()
	if err != nil {
		return redfish.Session{}, unavailable(err)
	}

	now := s.now()
	if s.Settings.Timeout > 0 {
		n, err := s.Store.DeleteIdleSessions(ctx, now.Add(-s.Settings.Timeout))
		if err != nil {
			return redfish.Session{}, unavailable(err)
		}
		if n > 0 {
			s.observer().SessionsDeleted(DeleteReasonExpired, n)
		}
	}

	sessionType := req.SessionType
	if sessionType == "" {
		sessionType = redfish.SessionTypeRedfish
	}

	sess := domain.Session{
		ID:          idx.NewAt(now).String(),
		TokenHash:   fingerprint,
		AccountID:   acct.ID,
		Username:    acct.Username,
		BasePath:    strings.TrimSuffix(basePath, "/"),
		Origin:      req.Origin,
		ClientIP:    req.ClientOriginIPAddress,
		Context:     req.Context,
		SessionType: string(sessionType),
		CreatedAt:   now,
		LastUsedAt:  now,
	}

	if err := s.Store.CreateSession(ctx, sess, s.Settings.MaxSessions); err != nil {
		if errors.Is(err, store.ErrLimitExceeded) {
			l.Warn("session limit reached", slog.Int("max_sessions", s.Settings.MaxSessions))
			return redfish.Session{}, authx.ErrSessionLimitExceeded
		}
		return redfish.Session{}, unavailable(err)
	}

	s.observer().SessionCreated()
	l.Info("session created",
		slog.String("session_id", sess.ID),
		slog.String("username", sess.Username),
	)

	out := toRedfishSession(sess)
	out.Token = token
	return out, nil
}

// GetSession returns a live session without its token.
func (s *SessionService) GetSession(ctx context.Context, id string) (redfish.Session, error) {
	sess, err := s.live(ctx, id)
	if err != nil {
		return redfish.Session{}, err
	}
	return toRedfishSession(sess), nil
}

// DeleteSession ends a live session. Deleting an expired session purges it
// but still reports authx.ErrSessionNotFound.
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.live(ctx, id); err != nil {
		return err
	}

	if err := s.Store.DeleteSession(ctx, id); err != nil {
		return s.mapLookup(err)
	}

	s.observer().SessionsDeleted(DeleteReasonLogout, 1)
	slogx.FromContext(ctx).Info("session deleted", slog.String("session_id", id))
	return nil
}

// live loads a session by id, purging it when it has expired.
func (s *SessionService) live(ctx context.Context, id string) (domain.Session, error) {
	sess, err := s.Store.GetSessionByID(ctx, id)
	if err != nil {
		return domain.Session{}, s.mapLookup(err)
	}
	if s.expired(sess, s.now()) {
		s.purge(ctx, sess.ID)
		return domain.Session{}, authx.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionService) purge(ctx context.Context, id string) {
	err := s.Store.DeleteSession(ctx, id)
	switch {
	case err == nil:
		s.observer().SessionsDeleted(DeleteReasonExpired, 1)
	case !errors.Is(err, store.ErrNotFound):
		slogx.FromContext(ctx).Error("failed to purge expired session",
			slog.String("session_id", id),
			slog.Any("error", err),
		)
	}
}

func (s *SessionService) mapLookup(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return authx.ErrSessionNotFound
	}
	return unavailable(err)
}

func toRedfishSession(sess domain.Session) redfish.Session {
	created := sess.CreatedAt
	return redfish.Session{
		ODataID:               sess.BasePath + "/" + sess.ID,
		ODataType:             redfish.SessionODataType,
		ID:                    sess.ID,
		Name:                  "User Session",
		Description:           "Manager User Session",
		UserName:              sess.Username,
		Context:               sess.Context,
		ClientOriginIPAddress: sess.ClientIP,
		SessionType:           redfish.SessionType(sess.SessionType),
		CreatedTime:           &created,
	}
}
