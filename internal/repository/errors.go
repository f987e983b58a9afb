package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/benx421/rapidpay/internal/models"
	"github.com/lib/pq"
)

// PostgreSQL error codes the repositories translate into domain errors.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
	pqCheckViolation       = "23514"
	pqUniqueViolation      = "23505"
	pqNumericOutOfRange    = "22003"
)

// wrapError annotates err with op and maps driver-level failures onto the
// sentinel errors in models so services never inspect driver types.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable, pqUniqueViolation:
			return fmt.Errorf("%s: %w: %v", op, models.ErrConflict, err)
		case pqCheckViolation:
			return fmt.Errorf("%s: %w: %v", op, models.ErrInsufficientFundsOrInactive, err)
		case pqNumericOutOfRange:
			return fmt.Errorf("%s: %w: %v", op, models.ErrOutOfRange, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
