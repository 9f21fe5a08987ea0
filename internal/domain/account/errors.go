package account

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("account not found")
	ErrDuplicateEmployeeID = errors.New("employee id already exists")
	ErrSelfDeletion        = errors.New("cannot delete own account")
	ErrPasswordMismatch    = errors.New("current password does not match")
	ErrPasswordTooShort    = errors.New("new password must be at least 4 characters")
	ErrPasswordUnchanged   = errors.New("new password must differ from the current one")
	ErrInvalidInput        = errors.New("invalid account input")
)

// ValidationError names the account field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid account input: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
