package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")

	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrBudgetNotFound      = fmt.Errorf("budget %w", ErrNotFound)

	ErrInvalidAmount   = fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	ErrInvalidType     = fmt.Errorf("%w: invalid type", ErrValidation)
	ErrInvalidInterval = fmt.Errorf("%w: recurring transactions need a valid interval", ErrValidation)
	ErrInvalidName     = fmt.Errorf("%w: name is required", ErrValidation)

	// ErrNotDue is returned by the store when a recurring template was
	// advanced by someone else between read and write.
	ErrNotDue = errors.New("transaction is not due")
)
