package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/seuss/internal/seuss/domain"
	"github.com/aussiebroadwan/seuss/internal/seuss/store"
	"github.com/aussiebroadwan/seuss/internal/seuss/store/drivers/sqlite/gen"
)

type sessionsRepo struct {
	q *gen.Queries
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session, limit int) error {
	n, err := r.q.CreateSessionWithinLimit(ctx, gen.CreateSessionParams{
		ID:          s.ID,
		TokenHash:   s.TokenHash,
		AccountID:   s.AccountID,
		Username:    s.Username,
		BasePath:    s.BasePath,
		Origin:      s.Origin,
		ClientIp:    s.ClientIP,
		Context:     s.Context,
		SessionType: s.SessionType,
		CreatedAt:   toMillis(s.CreatedAt),
		LastUsedAt:  toMillis(s.LastUsedAt),
		Limit:       int64(limit),
	})
	if err != nil {
		return mapConstraint(err)
	}
	if n == 0 {
		return store.ErrLimitExceeded
	}
	return nil
}

func (r *sessionsRepo) CountSessions(ctx context.Context) (int, error) {
	n, err := r.q.CountSessions(ctx)
	return int(n), err
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	row, err := r.q.GetSessionByID(ctx, id)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return mapSession(row), nil
}

func (r *sessionsRepo) GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error) {
	row, err := r.q.GetSessionByTokenHash(ctx, hash)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return mapSession(row), nil
}

func (r *sessionsRepo) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := r.q.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, len(rows))
	for i, row := range rows {
		sessions[i] = mapSession(row)
	}
	return sessions, nil
}

func (r *sessionsRepo) TouchSession(ctx context.Context, id string, at time.Time) error {
	n, err := r.q.TouchSession(ctx, toMillis(at), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	n, err := r.q.DeleteSession(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := r.q.DeleteIdleSessions(ctx, toMillis(cutoff))
	return int(n), err
}
