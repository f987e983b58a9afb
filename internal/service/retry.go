package service

import (
	"context"
	"errors"
	"time"

	"github.com/benx421/rapidpay/internal/models"
)

const conflictBackoff = 10 * time.Millisecond

// retryOnConflict runs fn up to attempts times while it fails with models.ErrConflict.
func retryOnConflict(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if !errors.Is(err, models.ErrConflict) || attempt == attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * conflictBackoff):
		}
	}
	return err
}

// translateError maps repository failures that escaped a perform* function to a ServiceError.
func translateError(msg string, err error) *ServiceError {
	var svcErr *ServiceError
	switch {
	case errors.As(err, &svcErr):
		return svcErr
	case errors.Is(err, models.ErrConflict):
		return &ServiceError{Code: ErrCodeConflict, Message: "concurrent update, retry the request", Err: err}
	case errors.Is(err, models.ErrOutOfRange):
		return &ServiceError{Code: ErrCodeValidation, Message: "value out of range", Err: err}
	default:
		return internalError(msg, err)
	}
}
