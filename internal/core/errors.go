package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidCategoryType  = errors.New("invalid category type")
	ErrInvalidFrequency     = errors.New("invalid frequency")
	ErrInvalidDayOfMonth    = errors.New("invalid day of month")
	ErrInvalidMonth         = errors.New("invalid month")
	ErrEmptyDescription     = errors.New("empty description")
	ErrDescriptionTooLong   = errors.New("description too long (max 200 characters)")
	ErrEmptyName            = errors.New("empty name")
	ErrMissingCategory      = errors.New("missing category for expense")
	ErrMissingAmountHistory = errors.New("missing amount history")
)

// ValidationError is returned for user input rejected at the boundary.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IntegrityWarning marks stored data that was skipped or replaced by a
// safe default. It is never fatal.
type IntegrityWarning struct {
	Entity string
	ID     string
	Err    error
}

func (w *IntegrityWarning) Error() string {
	return fmt.Sprintf("%s %s: %v", w.Entity, w.ID, w.Err)
}

func (w *IntegrityWarning) Unwrap() error { return w.Err }
