package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a concurrent mutation won a serialization race
	ErrConflict = errors.New("conflict")

	// ErrInsufficientFundsOrInactive indicates a conditional debit matched no row
	ErrInsufficientFundsOrInactive = errors.New("insufficient funds or inactive card")

	// ErrOutOfRange indicates a value does not fit its column
	ErrOutOfRange = errors.New("value out of range")
)
