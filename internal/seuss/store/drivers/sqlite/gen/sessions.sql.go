package gen

import "context"

const sessionColumns = `id, token_hash, account_id, username, base_path, origin, client_ip, context, session_type, created_at, last_used_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var i Session
	err := row.Scan(
		&i.ID,
		&i.TokenHash,
		&i.AccountID,
		&i.Username,
		&i.BasePath,
		&i.Origin,
		&i.ClientIp,
		&i.Context,
		&i.SessionType,
		&i.CreatedAt,
		&i.LastUsedAt,
	)
	return i, err
}

// The count guard and the insert are one statement, so concurrent creators
// cannot both squeeze under the limit.
const createSessionWithinLimit = `INSERT INTO sessions (` + sessionColumns + `)
SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
WHERE ? <= 0 OR (SELECT COUNT(*) FROM sessions) < ?`

type CreateSessionParams struct {
	ID          string
	TokenHash   string
	AccountID   string
	Username    string
	BasePath    string
	Origin      string
	ClientIp    string
	Context     string
	SessionType string
	CreatedAt   int64
	LastUsedAt  int64
	Limit       int64
}

// CreateSessionWithinLimit returns the number of inserted rows: 0 when the
// limit was reached.
func (q *Queries) CreateSessionWithinLimit(ctx context.Context, arg CreateSessionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createSessionWithinLimit,
		arg.ID,
		arg.TokenHash,
		arg.AccountID,
		arg.Username,
		arg.BasePath,
		arg.Origin,
		arg.ClientIp,
		arg.Context,
		arg.SessionType,
		arg.CreatedAt,
		arg.LastUsedAt,
		arg.Limit,
		arg.Limit,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countSessions = `SELECT COUNT(*) FROM sessions`

func (q *Queries) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countSessions).Scan(&count)
	return count, err
}

const getSessionByID = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

func (q *Queries) GetSessionByID(ctx context.Context, id string) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, getSessionByID, id))
}

const getSessionByTokenHash = `SELECT ` + sessionColumns + ` FROM sessions WHERE token_hash = ?`

func (q *Queries) GetSessionByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, getSessionByTokenHash, tokenHash))
}

const listSessions = `SELECT ` + sessionColumns + ` FROM sessions ORDER BY id`

func (q *Queries) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := q.db.QueryContext(ctx, listSessions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Session
	for rows.Next() {
		i, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const touchSession = `UPDATE sessions SET last_used_at = MAX(last_used_at, ?) WHERE id = ?`

func (q *Queries) TouchSession(ctx context.Context, lastUsedAt int64, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, touchSession, lastUsedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteSession = `DELETE FROM sessions WHERE id = ?`

func (q *Queries) DeleteSession(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSession, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteIdleSessions = `DELETE FROM sessions WHERE last_used_at < ?`

func (q *Queries) DeleteIdleSessions(ctx context.Context, cutoff int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteIdleSessions, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
