package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is a single leave request. Name is a snapshot of the employee's
// name at submission time and is never re-synced after account renames.
type Record struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employeeId"`
	Name       string          `json:"name"`
	Category   Category        `json:"leaveType"`
	StartDate  time.Time       `json:"startDate"`
	StartTime  string          `json:"startTime"`
	EndDate    time.Time       `json:"endDate"`
	EndTime    string          `json:"endTime"`
	Hours      decimal.Decimal `json:"leaveHours"`
	Reason     string          `json:"reason,omitempty"`
	Status     Status          `json:"approvalStatus"`
	AppliedAt  time.Time       `json:"applicationDateTime"`
	ApprovedAt *time.Time      `json:"approvalDate,omitempty"`
	Approver   string          `json:"approver,omitempty"`
}

// Validate enforces the store admission rules: positive hours and an end
// that does not precede the start.
func (r Record) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if r.EmployeeID == "" {
		return &ValidationError{Field: "employeeId", Reason: "is required"}
	}
	if !ValidCategory(r.Category) {
		return &ValidationError{Field: "leaveType", Reason: "is not a known leave category"}
	}
	if !r.Hours.IsPositive() {
		return &ValidationError{Field: "leaveHours", Reason: "must be greater than zero"}
	}
	if r.endsAt().Before(r.startsAt()) {
		return &ValidationError{Field: "endDate", Reason: "must not precede the start"}
	}
	return nil
}

func (r Record) startsAt() time.Time {
	return combineDateTime(r.StartDate, r.StartTime)
}

func (r Record) endsAt() time.Time {
	return combineDateTime(r.EndDate, r.EndTime)
}

// combineDateTime anchors a wall-clock string like "09:00" onto a date.
// Unparseable or empty clocks fall back to midnight; clock format errors are
// caught during request validation, not here.
func combineDateTime(date time.Time, clock string) time.Time {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, date.Location())
}

// Quotas holds an employee's configured annual allotments.
type Quotas struct {
	AnnualLeave    decimal.Decimal `json:"annualLeave"`
	SickLeave      decimal.Decimal `json:"sickLeave"`
	MenstrualLeave decimal.Decimal `json:"menstrualLeave"`
	PersonalLeave  decimal.Decimal `json:"personalLeave"`
}

// DefaultQuotas returns the allotments applied when an account is created
// without explicit values. The configured per-employee value is
// authoritative afterwards; these constants are only the creation fallback.
func DefaultQuotas() Quotas {
	return Quotas{
		AnnualLeave:    decimal.NewFromInt(14),
		SickLeave:      decimal.NewFromInt(30),
		MenstrualLeave: decimal.NewFromInt(3),
		PersonalLeave:  decimal.NewFromInt(14),
	}
}

// ForType returns the allotment for one quota type.
func (q Quotas) ForType(qt QuotaType) decimal.Decimal {
	switch qt {
	case QuotaAnnual:
		return q.AnnualLeave
	case QuotaSick:
		return q.SickLeave
	case QuotaMenstrual:
		return q.MenstrualLeave
	case QuotaPersonal:
		return q.PersonalLeave
	}
	return decimal.Zero
}

// AccountInfo is the slice of an employee account the leave engine needs:
// the name captured on submissions and the configured quotas.
type AccountInfo struct {
	EmployeeID string
	Name       string
	Quotas     Quotas
}
