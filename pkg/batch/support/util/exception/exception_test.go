package exception

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestBatchError_ErrorAndUnwrap(t *testing.T) {
	orig := errors.New("boom")
	be := NewBatchError("row_filter", "query failed", orig, false, true)

	assert.Equal(t, "[row_filter] query failed: boom", be.Error())
	assert.ErrorIs(t, be, orig)
	assert.True(t, be.IsRetryable())
	assert.False(t, be.IsSkippable())

	noOrig := NewBatchError("cutoff", "bad input", nil, false, false)
	assert.Equal(t, "[cutoff] bad input", noOrig.Error())
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "index_p_ci_job_definitions_on_checksum"}

	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsTemporary(t *testing.T) {
	t.Run("Deadlock", func(t *testing.T) {
		assert.True(t, IsTemporary(&pgconn.PgError{Code: "40P01"}))
	})
	t.Run("SyntaxError", func(t *testing.T) {
		assert.False(t, IsTemporary(&pgconn.PgError{Code: "42601"}))
	})
	t.Run("DeadlineExceeded", func(t *testing.T) {
		assert.True(t, IsTemporary(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	})
	t.Run("ConnectionRefused", func(t *testing.T) {
		assert.True(t, IsTemporary(errors.New("dial tcp 127.0.0.1:5432: connection refused")))
	})
	t.Run("StoreErrorDerivesFlag", func(t *testing.T) {
		se := NewStoreError("link_persister", "insert failed", &pgconn.PgError{Code: "40001"})
		assert.True(t, se.IsRetryable())
		assert.True(t, IsTemporary(fmt.Errorf("sub-batch: %w", se)))
		assert.False(t, IsFatal(se))
	})
	t.Run("Nil", func(t *testing.T) {
		assert.False(t, IsTemporary(nil))
		assert.False(t, IsFatal(nil))
	})
}

func TestExtractErrorMessage(t *testing.T) {
	be := NewBatchError("backfill", "update failed", errors.New("x"), false, false)
	assert.Equal(t, "update failed", ExtractErrorMessage(fmt.Errorf("wrapped: %w", be)))
	assert.Equal(t, "plain", ExtractErrorMessage(errors.New("plain")))
	assert.Equal(t, "", ExtractErrorMessage(nil))
}
