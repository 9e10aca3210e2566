// Package dbretry runs Postgres work under an exponential backoff policy
// that only retries transient failures.
package dbretry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
)

// Policy tunes the backoff. The zero value uses Default.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	MaxRetries      uint64
}

var Default = Policy{
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     time.Second,
	MaxElapsedTime:  10 * time.Second,
	MaxRetries:      4,
}

// IsRetryable reports whether err is a transient Postgres failure: lost
// connections, serialization failures, deadlocks or resource exhaustion.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "08000", // connection_exception
			"08003", // connection_does_not_exist
			"08006", // connection_failure
			"40001", // serialization_failure
			"40P01", // deadlock_detected
			"53300", // too_many_connections
			"55P03", // lock_not_available
			"57P01": // admin_shutdown
			return true
		}
		return false
	}
	return pgconn.SafeToRetry(err)
}

// Do runs op until it succeeds, returns a non-retryable error, or the policy
// is exhausted. Non-retryable errors are returned unchanged.
func Do(ctx context.Context, op func(context.Context) error) error {
	return Default.Do(ctx, op)
}

func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	if p == (Policy{}) {
		p = Default
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.InitialInterval),
		backoff.WithMaxInterval(p.MaxInterval),
		backoff.WithMaxElapsedTime(p.MaxElapsedTime),
	), p.MaxRetries)

	return backoff.Retry(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}
