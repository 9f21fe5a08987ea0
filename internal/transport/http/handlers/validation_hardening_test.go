package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func assertValidationField(t *testing.T, env envelope, field string) {
	t.Helper()
	if env.Error == nil || env.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %+v", env.Error)
	}
	var details struct {
		Fields []struct {
			Field  string `json:"field"`
			Reason string `json:"reason"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(env.Error.Details, &details); err != nil {
		t.Fatalf("failed to decode validation details: %v", err)
	}
	for _, issue := range details.Fields {
		if issue.Field == field {
			return
		}
	}
	t.Fatalf("expected validation issue for %q, got %+v", field, details.Fields)
}

func TestSubmissionValidationErrors(t *testing.T) {
	ts := newTestServer(t, testConfig())
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "ADMIN001", "admin-secret")
	createEmployee(t, client, ts.URL, adminToken, "EMP030", "何小雯")
	token := login(t, client, ts.URL, "EMP030", "password")

	status, env := submitLeave(t, client, ts.URL, token, map[string]any{
		"startDate": "not-a-date", "endDate": "2024-05-06", "leaveHours": 8,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected validation failure, got %d", status)
	}
	assertValidationField(t, env, "leaveType")
	assertValidationField(t, env, "startDate")

	status, env = submitLeave(t, client, ts.URL, token, map[string]any{
		"leaveType": "事假", "startDate": "2024-05-10", "endDate": "2024-05-06", "leaveHours": 8,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected date order failure, got %d", status)
	}
	assertValidationField(t, env, "startDate")
	assertValidationField(t, env, "endDate")

	status, env = submitLeave(t, client, ts.URL, token, map[string]any{
		"leaveType": "出國", "startDate": "2024-05-06", "endDate": "2024-05-06", "leaveHours": 8,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected unknown category to fail, got %d", status)
	}
	assertValidationField(t, env, "leaveType")

	status, env = submitLeave(t, client, ts.URL, token, map[string]any{
		"leaveType": "事假", "startDate": "2024-05-06", "endDate": "2024-05-06", "leaveHours": 0,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected zero hours to fail, got %d", status)
	}
	assertValidationField(t, env, "leaveHours")

	status, env = doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/leave/records?startMonth=2024-13", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected invalid month filter to fail, got %d", status)
	}
	assertValidationField(t, env, "startMonth")
}

func TestAuthorizationMatrix(t *testing.T) {
	ts := newTestServer(t, testConfig())
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "ADMIN001", "admin-secret")
	createEmployee(t, client, ts.URL, adminToken, "EMP031", "羅小齊")
	createEmployee(t, client, ts.URL, adminToken, "EMP032", "高小潔")
	token := login(t, client, ts.URL, "EMP031", "password")

	status, env := doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/leave/records", "", nil)
	if status != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "unauthorized" {
		t.Fatalf("expected unauthorized without token, got %d %+v", status, env.Error)
	}

	status, _ = doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/leave/records", "not-a-jwt", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized with a garbage token, got %d", status)
	}

	_, env = submitLeave(t, client, ts.URL, token, map[string]any{
		"leaveType": "事假", "startDate": "2024-05-06", "endDate": "2024-05-06", "leaveHours": 8,
	})
	rec := decodeRecord(t, env)

	adminOnly := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/api/v1/leave/records/" + rec.ID + "/approve"},
		{http.MethodPut, "/api/v1/leave/records/" + rec.ID + "/reject"},
		{http.MethodGet, "/api/v1/leave/records/export"},
		{http.MethodGet, "/api/v1/leave/reports/usage"},
		{http.MethodGet, "/api/v1/admin/users"},
		{http.MethodPost, "/api/v1/admin/users"},
		{http.MethodGet, "/api/v1/admin/users/export"},
		{http.MethodDelete, "/api/v1/admin/users/EMP032"},
	}
	for _, endpoint := range adminOnly {
		status, env := doJSON(t, client, endpoint.method, ts.URL+endpoint.path, token, nil)
		if status != http.StatusForbidden || env.Error == nil || env.Error.Code != "forbidden" {
			t.Fatalf("%s %s must be admin only, got %d %+v", endpoint.method, endpoint.path, status, env.Error)
		}
	}

	// One employee cannot read another employee's record by id.
	otherToken := login(t, client, ts.URL, "EMP032", "password")
	status, env = doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/leave/records/"+rec.ID, otherToken, nil)
	if status != http.StatusForbidden || env.Error == nil || env.Error.Code != "forbidden" {
		t.Fatalf("expected foreign record fetch to be forbidden, got %d %+v", status, env.Error)
	}

	status, env = doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/leave/records/no-such-id", adminToken, nil)
	if status != http.StatusNotFound || env.Error == nil || env.Error.Code != "not_found" {
		t.Fatalf("expected unknown record to be not_found, got %d %+v", status, env.Error)
	}
}

func TestBodyLimitRejectsOversizedPayload(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 1024
	ts := newTestServer(t, cfg)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "ADMIN001", "admin-secret")
	createEmployee(t, client, ts.URL, adminToken, "EMP033", "蔡小豪")
	token := login(t, client, ts.URL, "EMP033", "password")

	status, env := submitLeave(t, client, ts.URL, token, map[string]any{
		"leaveType":  "事假",
		"startDate":  "2024-05-06",
		"endDate":    "2024-05-06",
		"leaveHours": 8,
		"reason":     strings.Repeat("a", 4096),
	})
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "invalid_payload" {
		t.Fatalf("expected oversized body to be rejected, got %d %+v", status, env.Error)
	}
}

func TestLeaveRecordsXLSXExport(t *testing.T) {
	ts := newTestServer(t, testConfig())
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "ADMIN001", "admin-secret")
	createEmployee(t, client, ts.URL, adminToken, "EMP034", "郭小安")
	token := login(t, client, ts.URL, "EMP034", "password")

	if status, _ := submitLeave(t, client, ts.URL, token, map[string]any{
		"leaveType": "病假", "startDate": "2024-05-06", "endDate": "2024-05-07", "leaveHours": 16,
	}); status != http.StatusCreated {
		t.Fatalf("expected submission before export, got %d", status)
	}

	statusCode, header, body := doRaw(t, client, http.MethodGet, ts.URL+"/api/v1/leave/records/export", adminToken)
	if statusCode != http.StatusOK {
		t.Fatalf("expected XLSX export, got %d: %s", statusCode, body)
	}
	if ct := header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type %q", ct)
	}
	disposition := header.Get("Content-Disposition")
	if !strings.Contains(disposition, "leave_records_") || !strings.Contains(disposition, ".xlsx") {
		t.Fatalf("unexpected content disposition %q", disposition)
	}
	if !bytes.HasPrefix(body, []byte("PK")) {
		t.Fatalf("expected a zip container, got leading bytes %q", body[:min(4, len(body))])
	}
}

func TestUsagePDFReport(t *testing.T) {
	ts := newTestServer(t, testConfig())
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "ADMIN001", "admin-secret")
	createEmployee(t, client, ts.URL, adminToken, "EMP035", "謝小雲")
	token := login(t, client, ts.URL, "EMP035", "password")

	_, env := submitLeave(t, client, ts.URL, token, map[string]any{
		"leaveType": "事假", "startDate": "2024-05-06", "endDate": "2024-05-06", "leaveHours": 8,
	})
	rec := decodeRecord(t, env)
	if status, _ := doJSON(t, client, http.MethodPut, ts.URL+"/api/v1/leave/records/"+rec.ID+"/approve", adminToken, nil); status != http.StatusOK {
		t.Fatalf("expected approval before report, got %d", status)
	}

	statusCode, header, body := doRaw(t, client, http.MethodGet, ts.URL+"/api/v1/leave/reports/usage?year=2024", adminToken)
	if statusCode != http.StatusOK {
		t.Fatalf("expected PDF report, got %d: %s", statusCode, body)
	}
	if ct := header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(header.Get("Content-Disposition"), "leave_usage_2024.pdf") {
		t.Fatalf("unexpected content disposition %q", header.Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Fatalf("expected a PDF document, got leading bytes %q", body[:min(4, len(body))])
	}

	status, env := doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/leave/reports/usage?year=abc", adminToken, nil)
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "invalid_request" {
		t.Fatalf("expected invalid year to fail, got %d %+v", status, env.Error)
	}
}
