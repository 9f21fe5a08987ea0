package shared

import (
	"net/http"
	"strconv"
)

// Page is an optional window over an already-filtered record list. The zero
// value means everything: statistics and totals are computed on the full
// match set, so paging only trims what travels on the wire.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads limit and offset from the query string. Absent or
// malformed values leave the window open.
func ParsePage(r *http.Request) Page {
	var p Page
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		p.Offset = v
	}
	return p
}

// Window clamps the page into a list of n items and returns half-open slice
// bounds, so out-of-range offsets yield an empty page rather than an error.
func (p Page) Window(n int) (int, int) {
	start := p.Offset
	if start > n {
		start = n
	}
	end := n
	if p.Limit > 0 && start+p.Limit < end {
		end = start + p.Limit
	}
	return start, end
}
