package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestIsContention(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "lock_not_available", err: &pgconn.PgError{Code: "55P03"}, want: true},
		{name: "unique_violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "wrapped_pg_error", err: errors.Join(errors.New("upsert"), &pgconn.PgError{Code: "40001"}), want: true},
		{name: "locked_text", err: errors.New("database is locked"), want: true},
		{name: "plain_error", err: errors.New("syntax error"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsContention(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()
	contended := &pgconn.PgError{Code: "55P03"}

	t.Run("first_try_success", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 5, time.Millisecond, func(context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("recovers_after_contention", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 5, time.Millisecond, func(context.Context) error {
			calls++
			if calls < 3 {
				return contended
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhaustion_wraps_transient", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 3, time.Millisecond, func(context.Context) error {
			calls++
			return contended
		})
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "STORAGE_CONTENTION", domainErr.Code)
		assert.Equal(t, 3, calls)
		// The last underlying error stays reachable for diagnosis.
		var pgErr *pgconn.PgError
		assert.ErrorAs(t, err, &pgErr)
	})

	t.Run("non_contention_fails_fast", func(t *testing.T) {
		calls := 0
		boom := errors.New("column does not exist")
		err := WithRetry(ctx, 5, time.Millisecond, func(context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled_context_stops_waiting", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := WithRetry(cancelled, 5, time.Hour, func(context.Context) error {
			return contended
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("defaults_applied_for_zero_attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 0, time.Millisecond, func(context.Context) error {
			calls++
			return contended
		})
		require.Error(t, err)
		assert.Equal(t, 5, calls)
	})
}
