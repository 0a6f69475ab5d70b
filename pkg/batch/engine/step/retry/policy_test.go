package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
)

func TestShouldRetry(t *testing.T) {
	p := NewRetryPolicy(3, 0)

	assert.True(t, p.ShouldRetry(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, p.ShouldRetry(exception.NewBatchError("definition_persister", "missing", nil, false, true)))
	assert.False(t, p.ShouldRetry(exception.NewBatchError("link_persister", "no candidate", nil, false, false)))
	assert.False(t, p.ShouldRetry(&pgconn.PgError{Code: "42601"}))
	assert.False(t, p.ShouldRetry(nil))
}

func TestGetBackoffInterval(t *testing.T) {
	p := NewRetryPolicy(10, 100*time.Millisecond)

	assert.Equal(t, 100*time.Millisecond, p.GetBackoffInterval(1))
	assert.Equal(t, 200*time.Millisecond, p.GetBackoffInterval(2))
	assert.Equal(t, 400*time.Millisecond, p.GetBackoffInterval(3))
	assert.Equal(t, maxBackoff, p.GetBackoffInterval(20))
	assert.Equal(t, time.Duration(0), NewRetryPolicy(3, 0).GetBackoffInterval(2))
}

func TestNewRetryPolicy_ClampsAttempts(t *testing.T) {
	assert.Equal(t, 1, NewRetryPolicy(0, 0).GetMaxAttempts())
	assert.Equal(t, 4, NewRetryPolicy(4, 0).GetMaxAttempts())
}

func TestDo(t *testing.T) {
	deadlock := &pgconn.PgError{Code: "40P01"}

	t.Run("SucceedsAfterTemporaryFailure", func(t *testing.T) {
		var attempts []int
		err := Do(context.Background(), NewRetryPolicy(3, time.Millisecond), "test", func(_ context.Context, attempt int) error {
			attempts = append(attempts, attempt)
			if attempt < 2 {
				return deadlock
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, attempts)
	})

	t.Run("StopsOnFatalError", func(t *testing.T) {
		calls := 0
		fatal := errors.New("syntax error")
		err := Do(context.Background(), NewRetryPolicy(5, 0), "test", func(context.Context, int) error {
			calls++
			return fatal
		})
		assert.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("GivesUpAfterMaxAttempts", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), NewRetryPolicy(3, 0), "test", func(context.Context, int) error {
			calls++
			return deadlock
		})
		assert.ErrorIs(t, err, deadlock)
		assert.Equal(t, 3, calls)
	})

	t.Run("StopsWhenContextIsDone", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Do(ctx, NewRetryPolicy(5, time.Hour), "test", func(context.Context, int) error {
			calls++
			cancel()
			return deadlock
		})
		assert.ErrorIs(t, err, deadlock)
		assert.Equal(t, 1, calls)
	})
}
