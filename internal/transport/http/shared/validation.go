package shared

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"leavesys/internal/transport/http/api"
)

// FieldIssue names one request field that failed validation and why.
// The handlers return the full set so a client can render every problem at
// once instead of resubmitting field by field.
type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator accumulates issues across a request's fields. Collect with Add
// and the typed helpers, then finish with Reject.
type Validator struct {
	issues []FieldIssue
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(field, reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, FieldIssue{Field: strings.TrimSpace(field), Reason: reason})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

// Day parses a calendar-day field. A missing or malformed value records an
// issue and reports ok=false so dependent checks can skip.
func (v *Validator) Day(field, raw string) (time.Time, bool) {
	parsed, err := ParseDay(strings.TrimSpace(raw))
	if err != nil || parsed.IsZero() {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

// DayOrder flags both fields when the end day precedes the start day. It
// stays quiet while either side is still unset, so a parse failure does not
// cascade into a second issue on the same field.
func (v *Validator) DayOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() || !end.Before(start) {
		return
	}
	v.Add(startField, "must be on or before "+endField)
	v.Add(endField, "must be on or after "+startField)
}

func (v *Validator) HasIssues() bool {
	return len(v.issues) > 0
}

// Issues returns the collected issues ordered by field then reason. The
// slice is a copy; callers may mutate it freely.
func (v *Validator) Issues() []FieldIssue {
	if len(v.issues) == 0 {
		return nil
	}
	out := append([]FieldIssue(nil), v.issues...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// Reject writes the validation failure and reports whether it did, so
// handlers can bail with a single if.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

// FailValidation answers 400 with the per-field issues under details.fields.
func FailValidation(w http.ResponseWriter, requestID string, issues []FieldIssue) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": issues},
		requestID,
	)
}
