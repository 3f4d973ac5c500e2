package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Postgres error codes treated as retryable contention.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// IsContention reports whether err looks like transient lock contention.
func IsContention(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
	}
	// Single-writer stores surface contention as a "database is locked" text.
	return strings.Contains(strings.ToLower(err.Error()), "locked")
}

// WithRetry runs fn up to attempts times, sleeping backoff×attempt between
// tries while the failure is contention. Any other error, or exhaustion,
// surfaces immediately; exhaustion is wrapped as a transient storage error.
func WithRetry(ctx context.Context, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = 5
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !IsContention(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return apperrors.NewTransientStorage(err)
}
