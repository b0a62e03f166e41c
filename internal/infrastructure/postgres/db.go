package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// RetryPolicy bounds connection and per-operation retries.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy is used when no policy is given.
var DefaultRetryPolicy = RetryPolicy{Attempts: 5, Backoff: 200 * time.Millisecond}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Backoff <= 0 {
		p.Backoff = DefaultRetryPolicy.Backoff
	}
	return p
}

// delay returns the wait before attempt n (1-based), doubling each time.
func (p RetryPolicy) delay(n int) time.Duration {
	d := p.Backoff
	for i := 1; i < n; i++ {
		d *= 2
	}
	return d
}

// NewPool creates a pgx connection pool and pings it, retrying with
// exponential backoff until policy.Attempts is exhausted.
func NewPool(ctx context.Context, dsn string, policy RetryPolicy, logger zerolog.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	policy = policy.normalize()

	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		if attempt == policy.Attempts {
			break
		}
		wait := policy.delay(attempt)
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("database not reachable")
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("connect to database after %d attempts: %w", policy.Attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
