package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/seuss/internal/seuss/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrLimitExceeded = errors.New("store: limit exceeded")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so transactions cannot be nested by accident.
type Store interface {
	Accounts() Accounts
	Roles() Roles
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByUsername is used during Basic and session login.
	GetAccountByUsername(ctx context.Context, username string) (domain.Account, error)

	// CreateAccount inserts a new account; ErrAlreadyExists on a taken username.
	CreateAccount(ctx context.Context, a domain.Account) error

	UpdatePasswordHash(ctx context.Context, id, hash string) error

	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)
	ListAll(ctx context.Context) ([]domain.Role, error)

	// CreateRole inserts a new role; ErrAlreadyExists on a taken name.
	CreateRole(ctx context.Context, r domain.Role) error

	IsEmpty(ctx context.Context) (bool, error)
}

// Sessions persists session grants. Every method is a single atomic
// operation and is safe for concurrent use.
type Sessions interface {
	// CreateSession inserts s. It never overwrites: an id or token hash that
	// already exists fails with ErrAlreadyExists. When limit > 0 and limit
	// sessions already exist the insert fails with ErrLimitExceeded; the
	// count and the insert happen atomically.
	CreateSession(ctx context.Context, s domain.Session, limit int) error

	CountSessions(ctx context.Context) (int, error)
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)
	GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error)

	// ListSessions returns all sessions ordered by id.
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// TouchSession records a use at time at; ErrNotFound if absent.
	TouchSession(ctx context.Context, id string, at time.Time) error

	// DeleteSession removes one session; ErrNotFound if absent.
	DeleteSession(ctx context.Context, id string) error

	// DeleteIdleSessions removes sessions last used before cutoff and reports
	// how many were removed.
	DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int, error)
}
