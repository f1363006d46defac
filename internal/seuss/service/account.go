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
	"github.com/aussiebroadwan/seuss/pkg/slogx"
)

var (
	ErrAccountExists  = errors.New("account already exists")
	ErrUnknownRole    = errors.New("unknown role")
	ErrInvalidAccount = errors.New("username and password are required")
	ErrUnknownAccount = errors.New("unknown account")
)

// AccountService verifies account credentials. It is the Basic
// authentication backend and the credential check behind session login.
type AccountService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

var _ authx.BasicAuthentication = (*AccountService)(nil)

// Authenticate verifies a username and password. Unknown users, wrong
// passwords, and disabled or locked accounts all fail with
// authx.ErrInvalidCredentials after the same amount of hashing work.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*authx.AuthenticatedUser, error) {
	_, user, err := s.authenticate(ctx, username, password)
	return user, err
}

func (s *AccountService) authenticate(ctx context.Context, username, password string) (domain.Account, *authx.AuthenticatedUser, error) {
	l := slogx.FromContext(ctx)

	acct, err := s.Store.Accounts().GetAccountByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		s.Hasher.VerifyDummy(password)
		return domain.Account{}, nil, authx.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Account{}, nil, unavailable(err)
	}

	if err := s.Hasher.Verify(password, acct.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrMalformedHash) {
			l.Error("stored password hash is malformed", slog.String("account_id", acct.ID), slog.Any("error", err))
		}
		return domain.Account{}, nil, authx.ErrInvalidCredentials
	}

	if !acct.CanLogin() {
		l.Warn("login attempt on inactive account",
			slog.String("account_id", acct.ID),
			slog.Bool("enabled", acct.Enabled),
			slog.Bool("locked", acct.Locked),
		)
		return domain.Account{}, nil, authx.ErrInvalidCredentials
	}

	user, err := s.identity(ctx, acct)
	if err != nil {
		return domain.Account{}, nil, err
	}
	return acct, user, nil
}

// Identity resolves the current privileges of an account. It fails with
// authx.ErrInvalidCredentials when the account is gone or may no longer log in.
func (s *AccountService) Identity(ctx context.Context, accountID string) (*authx.AuthenticatedUser, error) {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, authx.ErrInvalidCredentials
	}
	if err != nil {
		return nil, unavailable(err)
	}
	if !acct.CanLogin() {
		return nil, authx.ErrInvalidCredentials
	}
	return s.identity(ctx, acct)
}

func (s *AccountService) identity(ctx context.Context, acct domain.Account) (*authx.AuthenticatedUser, error) {
	role, err := s.Store.Roles().GetRoleByID(ctx, acct.RoleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, authx.ErrInvalidCredentials
	}
	if err != nil {
		return nil, unavailable(err)
	}

	return &authx.AuthenticatedUser{
		Username:   acct.Username,
		Roles:      []string{role.Name},
		Privileges: append(role.Privileges[:0:0], role.Privileges...),
	}, nil
}

// AccountOption adjusts a new account before it is stored.
type AccountOption func(*domain.Account)

// Disabled creates the account disabled.
func Disabled() AccountOption {
	return func(a *domain.Account) { a.Enabled = false }
}

// Locked creates the account locked.
func Locked() AccountOption {
	return func(a *domain.Account) { a.Locked = true }
}

// CreateAccount hashes password and stores a new account holding the named
// role. Accounts are enabled and unlocked unless opts say otherwise.
func (s *AccountService) CreateAccount(ctx context.Context, username, password, roleName string, opts ...AccountOption) (domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Account{}, ErrInvalidAccount
	}

	role, err := s.Store.Roles().GetRoleByName(ctx, roleName)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, fmt.Errorf("%w: %s", ErrUnknownRole, roleName)
	}
	if err != nil {
		return domain.Account{}, err
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	acct := domain.Account{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
		RoleID:       role.ID,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(&acct)
	}
	if err := s.Store.Accounts().CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, fmt.Errorf("%w: %s", ErrAccountExists, username)
		}
		return domain.Account{}, err
	}

	slogx.FromContext(ctx).Info("account created",
		slog.String("account_id", acct.ID),
		slog.String("username", acct.Username),
		slog.String("role", role.Name),
		slog.Bool("enabled", acct.Enabled),
		slog.Bool("locked", acct.Locked),
	)
	return acct, nil
}

// SetPassword replaces the password of the named account. Existing sessions
// are kept.
func (s *AccountService) SetPassword(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrInvalidAccount
	}

	acct, err := s.Store.Accounts().GetAccountByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, username)
	}
	if err != nil {
		return err
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.Store.Accounts().UpdatePasswordHash(ctx, acct.ID, hash); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("account password changed", slog.String("account_id", acct.ID))
	return nil
}

// unavailable marks a storage failure as a backend outage so the auth layer
// reports a server error instead of a credential rejection.
func unavailable(err error) error {
	return fmt.Errorf("%w: %w", authx.ErrBackendUnavailable, err)
}
