package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
)

// PostgreSQL error codes that surface as retryable concurrency conflicts
const (
	pgCodeLockNotAvailable    = "55P03"
	pgCodeQueryCanceled       = "57014"
	pgCodeSerializationFail   = "40001"
	pgCodeDeadlockDetected    = "40P01"
	pgCodeUniqueViolation     = "23505"
	pgCodeCheckViolation      = "23514"
	pgCodeForeignKeyViolation = "23503"
)

// isUniqueViolation reports whether err is a unique constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCodeUniqueViolation
}

// isConcurrencyConflict reports whether err is a lock timeout, statement
// timeout, serialization failure or deadlock. All of these are safe for the
// caller to retry with backoff.
func isConcurrencyConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgCodeLockNotAvailable, pgCodeQueryCanceled, pgCodeSerializationFail, pgCodeDeadlockDetected:
		return true
	}
	return false
}

// mapConflict wraps err as a retryable conflict when it is one, otherwise
// returns err unchanged.
func mapConflict(op string, err error) error {
	if isConcurrencyConflict(err) {
		return &domain.ConcurrencyConflictError{Op: op, Cause: err}
	}
	return err
}
