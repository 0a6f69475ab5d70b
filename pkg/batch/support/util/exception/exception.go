// Package exception provides the error type shared by every stage of the migration job.
// Errors are classified by whether the driver may retry the sub-batch that produced them.
package exception

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the job reacts to.
const (
	sqlStateUniqueViolation     = "23505"
	sqlStateSerializationFailed = "40001"
	sqlStateDeadlockDetected    = "40P01"
	sqlStateAdminShutdown       = "57P01"
)

// BatchError is the error returned by batch stages.
// It records the module where the error occurred, a message, the wrapped original error
// and whether re-running the same unit of work may succeed.
type BatchError struct {
	// Module indicates where the error occurred (e.g., "row_filter", "definition_persister").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error

	isRetryable bool
	isSkippable bool
}

// NewBatchError creates a new BatchError instance.
func NewBatchError(module, message string, originalErr error, isSkippable, isRetryable bool) *BatchError {
	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
	}
}

// NewStoreError wraps a failed store round trip. The retry flag is derived from the
// underlying error so the driver can tell a deadlock from a broken query.
func NewStoreError(module, message string, originalErr error) *BatchError {
	return NewBatchError(module, message, originalErr, false, IsTemporary(originalErr))
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *BatchError) IsRetryable() bool {
	return e.isRetryable
}

// IsSkippable returns whether this error is skippable.
func (e *BatchError) IsSkippable() bool {
	return e.isSkippable
}

// IsBatchError reports whether err is, or wraps, a BatchError.
func IsBatchError(err error) bool {
	var be *BatchError
	return errors.As(err, &be)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateUniqueViolation
	}
	return false
}

// IsTemporary determines if an error is worth retrying as-is: serialization failures,
// deadlocks, server shutdowns and dropped connections.
// A BatchError's own flag takes precedence.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.isRetryable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailed, sqlStateDeadlockDetected, sqlStateAdminShutdown:
			return true
		}
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "unexpected EOF")
}

// IsFatal reports whether an error is neither retryable nor skippable.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var be *BatchError
	if errors.As(err, &be) {
		return !be.IsRetryable() && !be.IsSkippable()
	}
	return !IsTemporary(err)
}

// ExtractErrorMessage returns the BatchError message when present, else err.Error().
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
