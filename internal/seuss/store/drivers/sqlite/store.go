package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/seuss/internal/seuss/domain"
	"github.com/aussiebroadwan/seuss/internal/seuss/store"
	"github.com/aussiebroadwan/seuss/internal/seuss/store/drivers/sqlite/gen"
	"github.com/aussiebroadwan/seuss/pkg/privilege"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Store struct {
	db  *sql.DB
	q   *gen.Queries
	dsn string
}

// NewStore opens the database at dsn. A single connection is used so that
// writers queue in-process instead of failing with SQLITE_BUSY, and so that
// ":memory:" databases are shared by every caller.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		q:   gen.New(db),
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx, s.q), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Accounts() store.Accounts { return &accountsRepo{q: s.q} }
func (s *Store) Roles() store.Roles       { return &rolesRepo{q: s.q} }
func (s *Store) Sessions() store.Sessions { return &sessionsRepo{q: s.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint turns unique and primary key violations into
// store.ErrAlreadyExists.
func mapConstraint(err error) error {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return err
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return errors.Join(store.ErrAlreadyExists, err)
	case sqlite3.SQLITE_CONSTRAINT:
		// Extended result codes are off on some connections.
		if strings.Contains(serr.Error(), "UNIQUE constraint failed") {
			return errors.Join(store.ErrAlreadyExists, err)
		}
	}
	return err
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func joinPrivileges(ps []privilege.Privilege) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = string(p)
	}
	return strings.Join(parts, " ")
}

func splitPrivileges(s string) []privilege.Privilege {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	out := make([]privilege.Privilege, len(fields))
	for i, f := range fields {
		out[i] = privilege.Privilege(f)
	}
	return out
}

func mapRole(row gen.Role) domain.Role {
	return domain.Role{
		ID:         row.ID,
		Name:       row.Name,
		Privileges: splitPrivileges(row.Privileges),
		CreatedAt:  fromMillis(row.CreatedAt),
		UpdatedAt:  fromMillis(row.UpdatedAt),
	}
}

func mapAccount(row gen.Account) domain.Account {
	return domain.Account{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		RoleID:       row.RoleID,
		Enabled:      row.Enabled,
		Locked:       row.Locked,
		CreatedAt:    fromMillis(row.CreatedAt),
		UpdatedAt:    fromMillis(row.UpdatedAt),
	}
}

func mapSession(row gen.Session) domain.Session {
	return domain.Session{
		ID:          row.ID,
		TokenHash:   row.TokenHash,
		AccountID:   row.AccountID,
		Username:    row.Username,
		BasePath:    row.BasePath,
		Origin:      row.Origin,
		ClientIP:    row.ClientIp,
		Context:     row.Context,
		SessionType: row.SessionType,
		CreatedAt:   fromMillis(row.CreatedAt),
		LastUsedAt:  fromMillis(row.LastUsedAt),
	}
}
