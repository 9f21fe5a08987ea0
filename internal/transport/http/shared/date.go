package shared

import "time"

// ParseDay reads a leave date from the wire. The canonical form is
// YYYY-MM-DD; RFC3339 timestamps are accepted and truncated to their
// calendar day, since the clock travels separately as startTime/endTime.
func ParseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if day, err := time.Parse("2006-01-02", value); err == nil {
		return day, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
}
