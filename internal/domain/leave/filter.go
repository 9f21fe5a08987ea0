package leave

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Month is a calendar month used as an inclusive filter bound.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses the yyyy-mm filter format.
func ParseMonth(raw string) (Month, error) {
	parsed, err := time.Parse("2006-01", strings.TrimSpace(raw))
	if err != nil {
		return Month{}, err
	}
	return Month{Year: parsed.Year(), Month: parsed.Month()}, nil
}

// First returns the first instant of the month.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the first instant of the following month, the exclusive
// upper bound matching this month inclusively.
func (m Month) Next() time.Time {
	return m.First().AddDate(0, 1, 0)
}

// Filter narrows a record query. Every present field must match; an absent
// field matches everything. The month window is compared against the
// record's start date, both bounds inclusive at month granularity.
type Filter struct {
	EmployeeID string
	StartMonth *Month
	EndMonth   *Month
	Status     *Status
	Category   *Category
}

func (f Filter) Matches(rec Record) bool {
	if f.EmployeeID != "" && rec.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Status != nil && rec.Status != *f.Status {
		return false
	}
	if f.Category != nil && rec.Category != *f.Category {
		return false
	}
	if f.StartMonth != nil && rec.StartDate.Before(f.StartMonth.First()) {
		return false
	}
	if f.EndMonth != nil && !rec.StartDate.Before(f.EndMonth.Next()) {
		return false
	}
	return true
}

// SortRecords orders records by application time, newest first, with ties
// broken by id ascending so identical queries return identical output.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].AppliedAt.Equal(records[j].AppliedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].AppliedAt.After(records[j].AppliedAt)
	})
}

// Statistics sums hours per category over the given records. Every category
// is present in the result, zero-filled when nothing matched, so callers can
// render the full six-row table unconditionally.
func Statistics(records []Record) map[Category]decimal.Decimal {
	stats := make(map[Category]decimal.Decimal, len(categoryQuota))
	for _, c := range Categories() {
		stats[c] = decimal.Zero
	}
	for _, rec := range records {
		stats[rec.Category] = stats[rec.Category].Add(rec.Hours)
	}
	return stats
}
