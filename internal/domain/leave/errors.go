package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrRecordNotFound    = errors.New("leave record not found")
	ErrDuplicateRecord   = errors.New("leave record id already exists")
	ErrInvalidTransition = errors.New("leave record already left pending review")
	ErrQuotaExceeded     = errors.New("leave quota exceeded")
	ErrValidation        = errors.New("invalid leave request")
	ErrAccountNotFound   = errors.New("employee account not found")
)

// ValidationError names the field that failed request validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid leave request: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError reports an approval action on a record that is not
// pending, including the case where a concurrent action won the transition.
type TransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move leave record %s from %s to %s", e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// QuotaError carries the admission arithmetic that denied a submission.
type QuotaError struct {
	EmployeeID string
	Category   Category
	QuotaType  QuotaType
	Requested  decimal.Decimal
	Consumed   decimal.Decimal
	Quota      decimal.Decimal
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: %s needs %s hours with %s of %s already taken",
		e.EmployeeID, e.Category, e.Requested, e.Consumed, e.Quota)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }
