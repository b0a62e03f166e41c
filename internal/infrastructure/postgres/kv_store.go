package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/same-say/same-say/internal/domain/kv"
)

// KVStore implements kv.Store on the kv_entries table. Expired rows are
// invisible to reads and removed by DeleteExpired.
type KVStore struct {
	pool   *pgxpool.Pool
	policy RetryPolicy
	logger zerolog.Logger
	now    func() time.Time
}

func NewKVStore(pool *pgxpool.Pool, policy RetryPolicy, logger zerolog.Logger) *KVStore {
	return &KVStore{
		pool:   pool,
		policy: policy.normalize(),
		logger: logger.With().Str("component", "postgres_kv").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.withRetry(ctx, "get", func() error {
		return s.pool.QueryRow(ctx, `
			SELECT value FROM kv_entries
			WHERE key=$1 AND (expires_at IS NULL OR expires_at > $2)
		`, key, s.now()).Scan(&value)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.withRetry(ctx, "set", func() error {
		now := s.now()
		_, err := s.pool.Exec(ctx, `
			INSERT INTO kv_entries (key, value, expires_at, updated_at)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (key) DO UPDATE
			SET value=EXCLUDED.value, expires_at=EXCLUDED.expires_at, updated_at=EXCLUDED.updated_at
		`, key, value, expiry(now, ttl), now)
		return err
	})
}

func (s *KVStore) Update(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	var updated bool
	err := s.withRetry(ctx, "update", func() error {
		now := s.now()
		res, err := s.pool.Exec(ctx, `
			UPDATE kv_entries SET value=$2, expires_at=$3, updated_at=$4
			WHERE key=$1 AND (expires_at IS NULL OR expires_at > $4)
		`, key, value, expiry(now, ttl), now)
		if err != nil {
			return err
		}
		updated = res.RowsAffected() > 0
		return nil
	})
	return updated, err
}

// Delete removes key. An expired row is removed too but reported as absent.
func (s *KVStore) Delete(ctx context.Context, key string) (bool, error) {
	var live bool
	err := s.withRetry(ctx, "delete", func() error {
		return s.pool.QueryRow(ctx, `
			DELETE FROM kv_entries WHERE key=$1
			RETURNING (expires_at IS NULL OR expires_at > $2)
		`, key, s.now()).Scan(&live)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return live, nil
}

func (s *KVStore) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.withRetry(ctx, "exists", func() error {
		return s.pool.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM kv_entries
				WHERE key=$1 AND (expires_at IS NULL OR expires_at > $2)
			)
		`, key, s.now()).Scan(&exists)
	})
	return exists, err
}

// DeleteExpired removes rows whose TTL has passed.
func (s *KVStore) DeleteExpired(ctx context.Context) (int, error) {
	var n int
	err := s.withRetry(ctx, "delete_expired", func() error {
		res, err := s.pool.Exec(ctx, `DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= $1`, s.now())
		if err != nil {
			return err
		}
		n = int(res.RowsAffected())
		return nil
	})
	return n, err
}

// withRetry runs op, retrying errors the driver marks safe to retry. The
// final failure wraps kv.ErrUnavailable; pgx.ErrNoRows is passed through.
func (s *KVStore) withRetry(ctx context.Context, name string, op func() error) error {
	var err error
	for attempt := 1; attempt <= s.policy.Attempts; attempt++ {
		err = op()
		if err == nil || errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if !retryable(err) || attempt == s.policy.Attempts {
			break
		}
		wait := s.policy.delay(attempt)
		s.logger.Warn().Err(err).Str("op", name).Int("attempt", attempt).Dur("retry_in", wait).Msg("transient store error")
		if serr := sleep(ctx, wait); serr != nil {
			err = serr
			break
		}
	}
	return fmt.Errorf("%w: %s: %v", kv.ErrUnavailable, name, err)
}

func retryable(err error) bool {
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}

func expiry(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.Add(ttl)
	return &t
}
