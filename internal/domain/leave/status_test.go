package leave

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusApproved, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusRejected, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"pending", StatusPending},
		{"審核中", StatusPending},
		{"approved", StatusApproved},
		{"已核准", StatusApproved},
		{"rejected", StatusRejected},
		{"已退回", StatusRejected},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.raw)
		if !ok || got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q, %v; want %q", tc.raw, got, ok, tc.want)
		}
	}

	for _, raw := range []string{"", "cancelled", "核准"} {
		if _, ok := ParseStatus(raw); ok {
			t.Fatalf("ParseStatus(%q) accepted an unknown status", raw)
		}
	}
}

func TestStatusLabels(t *testing.T) {
	if StatusRejected.Label() != "已退回" {
		t.Fatalf("rejected label = %q", StatusRejected.Label())
	}
	if StatusPending.Label() != "審核中" {
		t.Fatalf("pending label = %q", StatusPending.Label())
	}
	if StatusApproved.Label() != "已核准" {
		t.Fatalf("approved label = %q", StatusApproved.Label())
	}
}
