package leavehandler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"leavesys/internal/domain/leave"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantIssues []string
		check      func(t *testing.T, f leave.Filter)
	}{
		{
			name:   "empty query matches everything",
			target: "/leave/records",
			check: func(t *testing.T, f leave.Filter) {
				if f.EmployeeID != "" || f.StartMonth != nil || f.EndMonth != nil || f.Status != nil || f.Category != nil {
					t.Fatalf("expected empty filter, got %+v", f)
				}
			},
		},
		{
			name:   "employee and month window",
			target: "/leave/records?employeeId=EMP001&startMonth=2024-01&endMonth=2024-03",
			check: func(t *testing.T, f leave.Filter) {
				if f.EmployeeID != "EMP001" {
					t.Fatalf("expected EMP001, got %q", f.EmployeeID)
				}
				if f.StartMonth == nil || f.StartMonth.Year != 2024 || f.StartMonth.Month != time.January {
					t.Fatalf("unexpected start month %+v", f.StartMonth)
				}
				if f.EndMonth == nil || f.EndMonth.Month != time.March {
					t.Fatalf("unexpected end month %+v", f.EndMonth)
				}
			},
		},
		{
			name:   "status by localized label",
			target: "/leave/records?approvalStatus=已核准",
			check: func(t *testing.T, f leave.Filter) {
				if f.Status == nil || *f.Status != leave.StatusApproved {
					t.Fatalf("expected approved status, got %+v", f.Status)
				}
			},
		},
		{
			name:   "status by storage token",
			target: "/leave/records?approvalStatus=pending",
			check: func(t *testing.T, f leave.Filter) {
				if f.Status == nil || *f.Status != leave.StatusPending {
					t.Fatalf("expected pending status, got %+v", f.Status)
				}
			},
		},
		{
			name:   "category",
			target: "/leave/records?leaveType=病假",
			check: func(t *testing.T, f leave.Filter) {
				if f.Category == nil || *f.Category != leave.CategorySick {
					t.Fatalf("expected sick category, got %+v", f.Category)
				}
			},
		},
		{
			name:       "malformed months",
			target:     "/leave/records?startMonth=2024-13&endMonth=junk",
			wantIssues: []string{"startMonth", "endMonth"},
		},
		{
			name:       "unknown status",
			target:     "/leave/records?approvalStatus=done",
			wantIssues: []string{"approvalStatus"},
		},
		{
			name:       "unknown category",
			target:     "/leave/records?leaveType=vacation",
			wantIssues: []string{"leaveType"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.target, nil)
			filter, v := parseFilter(req)

			if len(tc.wantIssues) == 0 {
				if v.HasIssues() {
					t.Fatalf("unexpected validation issues: %+v", v.Issues())
				}
				tc.check(t, filter)
				return
			}
			issues := v.Issues()
			if len(issues) != len(tc.wantIssues) {
				t.Fatalf("expected %d issues, got %+v", len(tc.wantIssues), issues)
			}
			seen := make(map[string]bool, len(issues))
			for _, issue := range issues {
				seen[issue.Field] = true
			}
			for _, field := range tc.wantIssues {
				if !seen[field] {
					t.Fatalf("expected issue for %q in %+v", field, issues)
				}
			}
		})
	}
}

func TestToRecordView(t *testing.T) {
	applied := time.Date(2024, time.May, 2, 8, 30, 0, 0, time.UTC)
	approvedAt := time.Date(2024, time.May, 3, 9, 0, 0, 0, time.UTC)

	pending := leave.Record{
		ID:         "rec-1",
		EmployeeID: "EMP001",
		Name:       "王小明",
		Category:   leave.CategoryPersonal,
		StartDate:  time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC),
		StartTime:  "09:00",
		EndDate:    time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC),
		EndTime:    "17:00",
		Hours:      decimal.RequireFromString("7.5"),
		Reason:     "家庭因素",
		Status:     leave.StatusPending,
		AppliedAt:  applied,
	}

	view := toRecordView(pending)
	if view.StartDate != "2024-05-06" || view.EndDate != "2024-05-06" {
		t.Fatalf("unexpected date rendering: %+v", view)
	}
	if view.LeaveHours != 7.5 {
		t.Fatalf("expected 7.5 hours, got %v", view.LeaveHours)
	}
	if view.LeaveType != "事假" {
		t.Fatalf("expected 事假, got %q", view.LeaveType)
	}
	if view.ApprovalStatus != "審核中" {
		t.Fatalf("expected 審核中, got %q", view.ApprovalStatus)
	}
	if view.ApplicationDateTime != applied.Format(time.RFC3339) {
		t.Fatalf("unexpected application timestamp %q", view.ApplicationDateTime)
	}
	if view.ApprovalDate != "" || view.Approver != "" {
		t.Fatalf("pending view must not carry approval fields: %+v", view)
	}

	approved := pending
	approved.Status = leave.StatusApproved
	approved.ApprovedAt = &approvedAt
	approved.Approver = "ADMIN001"

	view = toRecordView(approved)
	if view.ApprovalStatus != "已核准" {
		t.Fatalf("expected 已核准, got %q", view.ApprovalStatus)
	}
	if view.ApprovalDate != approvedAt.Format(time.RFC3339) || view.Approver != "ADMIN001" {
		t.Fatalf("approved view must carry approval fields: %+v", view)
	}
}

func TestQuotaDetails(t *testing.T) {
	err := &leave.QuotaError{
		EmployeeID: "EMP001",
		Category:   leave.CategoryPersonal,
		QuotaType:  leave.QuotaPersonal,
		Requested:  decimal.NewFromInt(8),
		Consumed:   decimal.NewFromInt(10),
		Quota:      decimal.NewFromInt(14),
	}

	details := quotaDetails(err)
	if details["employeeId"] != "EMP001" || details["leaveType"] != "事假" || details["quotaType"] != "personalLeave" {
		t.Fatalf("unexpected identity fields: %+v", details)
	}
	if details["requested"] != 8.0 || details["consumed"] != 10.0 || details["quota"] != 14.0 {
		t.Fatalf("unexpected arithmetic fields: %+v", details)
	}
}
