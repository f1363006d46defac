package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/seuss/internal/seuss/domain"
	"github.com/aussiebroadwan/seuss/internal/seuss/store"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// maxTxRetries bounds optimistic transaction retries under contention.
const maxTxRetries = 256

// SessionStore implements store.Sessions on a Redis backend so several
// service replicas can share one session table.
//
// Layout, relative to the key prefix:
//
//	session:{id}    JSON record
//	token:{hash}    session id for a token fingerprint
//	sessions        sorted set of ids scored by last use in unix millis
type SessionStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ store.Sessions = (*SessionStore)(nil)

// storedSession is the JSON form of domain.Session.
type storedSession struct {
	ID          string `json:"id"`
	TokenHash   string `json:"token_hash"`
	AccountID   string `json:"account_id"`
	Username    string `json:"username"`
	BasePath    string `json:"base_path"`
	Origin      string `json:"origin,omitempty"`
	ClientIP    string `json:"client_ip,omitempty"`
	Context     string `json:"context,omitempty"`
	SessionType string `json:"session_type,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	LastUsedAt  int64  `json:"last_used_at"`
}

// NewClient parses a redis:// URL, applies the default timeouts and checks
// the connection.
func NewClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewSessionStore wraps a pre-configured client. Tests pass a client
// pointed at miniredis.
func NewSessionStore(client redis.UniversalClient, keyPrefix string) *SessionStore {
	return &SessionStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) sessionKey(id string) string { return s.keyPrefix + "session:" + id }
func (s *SessionStore) tokenKey(hash string) string { return s.keyPrefix + "token:" + hash }
func (s *SessionStore) indexKey() string            { return s.keyPrefix + "sessions" }

func (s *SessionStore) CreateSession(ctx context.Context, sess domain.Session, limit int) error {
	data, err := json.Marshal(toStored(sess))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	sessKey := s.sessionKey(sess.ID)
	tokKey := s.tokenKey(sess.TokenHash)
	idxKey := s.indexKey()

	return s.retry(ctx, func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			if limit > 0 {
				n, err := tx.ZCard(ctx, idxKey).Result()
				if err != nil {
					return err
				}
				if n >= int64(limit) {
					return store.ErrLimitExceeded
				}
			}

			n, err := tx.Exists(ctx, sessKey, tokKey).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return store.ErrAlreadyExists
			}

			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Set(ctx, sessKey, data, 0)
				p.Set(ctx, tokKey, sess.ID, 0)
				p.ZAdd(ctx, idxKey, redis.Z{Score: float64(sess.LastUsedAt.UnixMilli()), Member: sess.ID})
				return nil
			})
			return err
		}, idxKey, sessKey, tokKey)
	})
}

func (s *SessionStore) CountSessions(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.indexKey()).Result()
	return int(n), err
}

func (s *SessionStore) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	stored, err := s.load(ctx, s.client, id)
	if err != nil {
		return domain.Session{}, err
	}
	return stored.toDomain(), nil
}

func (s *SessionStore) GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error) {
	id, err := s.client.Get(ctx, s.tokenKey(hash)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	return s.GetSessionByID(ctx, id)
}

func (s *SessionStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(ids))
	for _, id := range ids {
		stored, err := s.load(ctx, s.client, id)
		if errors.Is(err, store.ErrNotFound) {
			// Deleted between the range and the read.
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, stored.toDomain())
	}

	slices.SortFunc(sessions, func(a, b domain.Session) int {
		return strings.Compare(a.ID, b.ID)
	})
	return sessions, nil
}

func (s *SessionStore) TouchSession(ctx context.Context, id string, at time.Time) error {
	sessKey := s.sessionKey(id)
	idxKey := s.indexKey()
	ms := at.UnixMilli()

	return s.retry(ctx, func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			stored, err := s.load(ctx, tx, id)
			if err != nil {
				return err
			}
			if ms <= stored.LastUsedAt {
				return nil
			}
			stored.LastUsedAt = ms

			data, err := json.Marshal(stored)
			if err != nil {
				return fmt.Errorf("failed to marshal session: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Set(ctx, sessKey, data, 0)
				p.ZAdd(ctx, idxKey, redis.Z{Score: float64(ms), Member: id})
				return nil
			})
			return err
		}, sessKey)
	})
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	return s.deleteIf(ctx, id, func(storedSession) bool { return true })
}

func (s *SessionStore) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int, error) {
	ms := cutoff.UnixMilli()
	ids, err := s.client.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(ms, 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		err := s.deleteIf(ctx, id, func(stored storedSession) bool {
			return stored.LastUsedAt < ms
		})
		switch {
		case err == nil:
			removed++
		case errors.Is(err, store.ErrNotFound), errors.Is(err, errStillActive):
		default:
			return removed, err
		}
	}
	return removed, nil
}

var errStillActive = errors.New("session used since sweep began")

// deleteIf removes the session when pred accepts its current record. The
// read and the delete are one optimistic transaction.
func (s *SessionStore) deleteIf(ctx context.Context, id string, pred func(storedSession) bool) error {
	sessKey := s.sessionKey(id)
	idxKey := s.indexKey()

	return s.retry(ctx, func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			stored, err := s.load(ctx, tx, id)
			if err != nil {
				return err
			}
			if !pred(stored) {
				return errStillActive
			}

			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Del(ctx, sessKey, s.tokenKey(stored.TokenHash))
				p.ZRem(ctx, idxKey, id)
				return nil
			})
			return err
		}, sessKey)
	})
}

func (s *SessionStore) load(ctx context.Context, c redis.Cmdable, id string) (storedSession, error) {
	data, err := c.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return storedSession{}, store.ErrNotFound
	}
	if err != nil {
		return storedSession{}, err
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return storedSession{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return stored, nil
}

// retry reruns fn while a watched key changed underneath it.
func (s *SessionStore) retry(ctx context.Context, fn func() error) error {
	for range maxTxRetries {
		err := fn()
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return fmt.Errorf("redis transaction retries exhausted: %w", redis.TxFailedErr)
}

func toStored(s domain.Session) storedSession {
	return storedSession{
		ID:          s.ID,
		TokenHash:   s.TokenHash,
		AccountID:   s.AccountID,
		Username:    s.Username,
		BasePath:    s.BasePath,
		Origin:      s.Origin,
		ClientIP:    s.ClientIP,
		Context:     s.Context,
		SessionType: s.SessionType,
		CreatedAt:   s.CreatedAt.UnixMilli(),
		LastUsedAt:  s.LastUsedAt.UnixMilli(),
	}
}

func (s storedSession) toDomain() domain.Session {
	return domain.Session{
		ID:          s.ID,
		TokenHash:   s.TokenHash,
		AccountID:   s.AccountID,
		Username:    s.Username,
		BasePath:    s.BasePath,
		Origin:      s.Origin,
		ClientIP:    s.ClientIP,
		Context:     s.Context,
		SessionType: s.SessionType,
		CreatedAt:   time.UnixMilli(s.CreatedAt).UTC(),
		LastUsedAt:  time.UnixMilli(s.LastUsedAt).UTC(),
	}
}
