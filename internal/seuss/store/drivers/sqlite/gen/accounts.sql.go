package gen

import "context"

const accountColumns = `id, username, password_hash, role_id, enabled, locked, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var i Account
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.PasswordHash,
		&i.RoleID,
		&i.Enabled,
		&i.Locked,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByID = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

func (q *Queries) GetAccountByID(ctx context.Context, id string) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccountByID, id))
}

const getAccountByUsername = `SELECT ` + accountColumns + ` FROM accounts WHERE username = ?`

func (q *Queries) GetAccountByUsername(ctx context.Context, username string) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccountByUsername, username))
}

const createAccount = `INSERT INTO accounts (
    id, username, password_hash, role_id, enabled, locked, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type CreateAccountParams struct {
	ID           string
	Username     string
	PasswordHash string
	RoleID       string
	Enabled      bool
	Locked       bool
	Now          int64
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.ExecContext(ctx, createAccount,
		arg.ID,
		arg.Username,
		arg.PasswordHash,
		arg.RoleID,
		arg.Enabled,
		arg.Locked,
		arg.Now,
		arg.Now,
	)
	return err
}

const updateAccountPasswordHash = `UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`

type UpdateAccountPasswordHashParams struct {
	PasswordHash string
	Now          int64
	ID           string
}

func (q *Queries) UpdateAccountPasswordHash(ctx context.Context, arg UpdateAccountPasswordHashParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAccountPasswordHash, arg.PasswordHash, arg.Now, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countAccounts = `SELECT COUNT(*) FROM accounts`

func (q *Queries) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAccounts).Scan(&count)
	return count, err
}
