package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/seuss/internal/seuss/domain"
	"github.com/aussiebroadwan/seuss/internal/seuss/store"
	"github.com/aussiebroadwan/seuss/internal/seuss/store/drivers/sqlite/gen"
)

type accountsRepo struct {
	q *gen.Queries
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row, err := r.q.GetAccountByID(ctx, id)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	row, err := r.q.GetAccountByUsername(ctx, username)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	err := r.q.CreateAccount(ctx, gen.CreateAccountParams{
		ID:           a.ID,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		RoleID:       a.RoleID,
		Enabled:      a.Enabled,
		Locked:       a.Locked,
		Now:          toMillis(time.Now()),
	})
	return mapConstraint(err)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	n, err := r.q.UpdateAccountPasswordHash(ctx, gen.UpdateAccountPasswordHashParams{
		PasswordHash: hash,
		Now:          toMillis(time.Now()),
		ID:           id,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.q.CountAccounts(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
