package leavehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"leavesys/internal/domain/account"
	"leavesys/internal/domain/leave"
	"leavesys/internal/export"
	"leavesys/internal/platform/metrics"
	"leavesys/internal/transport/http/api"
	"leavesys/internal/transport/http/middleware"
	"leavesys/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Metrics *metrics.Collector
}

func NewHandler(service *leave.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/records", h.handleListRecords)
		r.Post("/records", h.handleSubmitRecord)
		r.With(middleware.RequireAdmin).Get("/records/export", h.handleExportRecords)
		r.Get("/records/{recordID}", h.handleGetRecord)
		r.With(middleware.RequireAdmin).Put("/records/{recordID}/approve", h.handleApproveRecord)
		r.With(middleware.RequireAdmin).Put("/records/{recordID}/reject", h.handleRejectRecord)
		r.With(middleware.RequireAdmin).Get("/reports/usage", h.handleUsageReport)
	})
}

// recordView renders a record for the wire: dates as YYYY-MM-DD, hours as a
// JSON number and the approval status as its localized label.
type recordView struct {
	ID                  string  `json:"id"`
	EmployeeID          string  `json:"employeeId"`
	Name                string  `json:"name"`
	LeaveType           string  `json:"leaveType"`
	StartDate           string  `json:"startDate"`
	StartTime           string  `json:"startTime,omitempty"`
	EndDate             string  `json:"endDate"`
	EndTime             string  `json:"endTime,omitempty"`
	LeaveHours          float64 `json:"leaveHours"`
	Reason              string  `json:"reason,omitempty"`
	ApprovalStatus      string  `json:"approvalStatus"`
	ApplicationDateTime string  `json:"applicationDateTime"`
	ApprovalDate        string  `json:"approvalDate,omitempty"`
	Approver            string  `json:"approver,omitempty"`
}

func toRecordView(rec leave.Record) recordView {
	view := recordView{
		ID:                  rec.ID,
		EmployeeID:          rec.EmployeeID,
		Name:                rec.Name,
		LeaveType:           string(rec.Category),
		StartDate:           rec.StartDate.Format("2006-01-02"),
		StartTime:           rec.StartTime,
		EndDate:             rec.EndDate.Format("2006-01-02"),
		EndTime:             rec.EndTime,
		LeaveHours:          rec.Hours.InexactFloat64(),
		Reason:              rec.Reason,
		ApprovalStatus:      rec.Status.Label(),
		ApplicationDateTime: rec.AppliedAt.Format(time.RFC3339),
		Approver:            rec.Approver,
	}
	if rec.ApprovedAt != nil {
		view.ApprovalDate = rec.ApprovedAt.Format(time.RFC3339)
	}
	return view
}

func toRecordViews(records []leave.Record) []recordView {
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, toRecordView(rec))
	}
	return views
}

type quotasView struct {
	AnnualLeave    float64 `json:"annualLeave"`
	SickLeave      float64 `json:"sickLeave"`
	MenstrualLeave float64 `json:"menstrualLeave"`
	PersonalLeave  float64 `json:"personalLeave"`
}

func toQuotasView(q leave.Quotas) quotasView {
	return quotasView{
		AnnualLeave:    q.AnnualLeave.InexactFloat64(),
		SickLeave:      q.SickLeave.InexactFloat64(),
		MenstrualLeave: q.MenstrualLeave.InexactFloat64(),
		PersonalLeave:  q.PersonalLeave.InexactFloat64(),
	}
}

func toStatisticsView(stats map[leave.Category]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(stats))
	for category, hours := range stats {
		out[string(category)] = hours.InexactFloat64()
	}
	return out
}

type listResponse struct {
	Records      []recordView       `json:"records"`
	Statistics   map[string]float64 `json:"statistics"`
	AnnualQuotas *quotasView        `json:"annualQuotas,omitempty"`
	Total        int                `json:"total"`
}

// parseFilter reads the query string filters. The approvalStatus parameter
// accepts both the storage token and the localized label.
func parseFilter(r *http.Request) (leave.Filter, *shared.Validator) {
	v := shared.NewValidator()
	query := r.URL.Query()

	filter := leave.Filter{EmployeeID: strings.TrimSpace(query.Get("employeeId"))}
	if raw := strings.TrimSpace(query.Get("startMonth")); raw != "" {
		month, err := leave.ParseMonth(raw)
		if err != nil {
			v.Add("startMonth", "must use the YYYY-MM format")
		} else {
			filter.StartMonth = &month
		}
	}
	if raw := strings.TrimSpace(query.Get("endMonth")); raw != "" {
		month, err := leave.ParseMonth(raw)
		if err != nil {
			v.Add("endMonth", "must use the YYYY-MM format")
		} else {
			filter.EndMonth = &month
		}
	}
	if raw := strings.TrimSpace(query.Get("approvalStatus")); raw != "" {
		status, ok := leave.ParseStatus(raw)
		if !ok {
			v.Add("approvalStatus", "is not a known approval status")
		} else {
			filter.Status = &status
		}
	}
	if raw := strings.TrimSpace(query.Get("leaveType")); raw != "" {
		category := leave.Category(raw)
		if !leave.ValidCategory(category) {
			v.Add("leaveType", "is not a known leave category")
		} else {
			filter.Category = &category
		}
	}
	return filter, v
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	filter, v := parseFilter(r)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if user.Permission != string(account.PermissionAdmin) {
		filter.EmployeeID = user.EmployeeID
	}

	result, err := h.Service.List(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_records_failed", "failed to list leave records", middleware.GetRequestID(r.Context()))
		return
	}

	records := result.Records
	start, end := shared.ParsePage(r).Window(len(records))
	records = records[start:end]

	payload := listResponse{
		Records:    toRecordViews(records),
		Statistics: toStatisticsView(result.Statistics),
		Total:      result.Total,
	}
	if result.Quotas != nil {
		quotas := toQuotasView(*result.Quotas)
		payload.AnnualQuotas = &quotas
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}

type submitRequest struct {
	EmployeeID string          `json:"employeeId"`
	LeaveType  string          `json:"leaveType"`
	StartDate  string          `json:"startDate"`
	StartTime  string          `json:"startTime"`
	EndDate    string          `json:"endDate"`
	EndTime    string          `json:"endTime"`
	LeaveHours decimal.Decimal `json:"leaveHours"`
	Reason     string          `json:"reason"`
}

func (h *Handler) handleSubmitRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("leaveType", payload.LeaveType, "is required")
	startDate, _ := v.Day("startDate", payload.StartDate)
	endDate, _ := v.Day("endDate", payload.EndDate)
	v.DayOrder("startDate", startDate, "endDate", endDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	// Only admins may file on behalf of someone else.
	employeeID := strings.TrimSpace(payload.EmployeeID)
	if user.Permission != string(account.PermissionAdmin) || employeeID == "" {
		employeeID = user.EmployeeID
	}

	rec, err := h.Service.Submit(r.Context(), leave.SubmitInput{
		EmployeeID: employeeID,
		Category:   leave.Category(payload.LeaveType),
		StartDate:  startDate,
		StartTime:  strings.TrimSpace(payload.StartTime),
		EndDate:    endDate,
		EndTime:    strings.TrimSpace(payload.EndTime),
		Hours:      payload.LeaveHours,
		Reason:     strings.TrimSpace(payload.Reason),
	})
	if err != nil {
		var validationErr *leave.ValidationError
		var quotaErr *leave.QuotaError
		switch {
		case errors.As(err, &validationErr):
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.FieldIssue{
				{Field: validationErr.Field, Reason: validationErr.Reason},
			})
		case errors.As(err, &quotaErr):
			if h.Metrics != nil {
				h.Metrics.RecordSubmission(false)
			}
			api.FailWithDetails(w, http.StatusConflict, "quota_exceeded", "leave quota exceeded", quotaDetails(quotaErr), middleware.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrAccountNotFound):
			api.Fail(w, http.StatusNotFound, "account_not_found", "employee account not found", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "submit_failed", "failed to submit leave request", middleware.GetRequestID(r.Context()))
		}
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordSubmission(true)
	}
	api.Created(w, toRecordView(rec), middleware.GetRequestID(r.Context()))
}

func quotaDetails(err *leave.QuotaError) map[string]any {
	return map[string]any{
		"employeeId": err.EmployeeID,
		"leaveType":  string(err.Category),
		"quotaType":  string(err.QuotaType),
		"requested":  err.Requested.InexactFloat64(),
		"consumed":   err.Consumed.InexactFloat64(),
		"quota":      err.Quota.InexactFloat64(),
	}
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	recordID := chi.URLParam(r, "recordID")
	rec, err := h.Service.Get(r.Context(), recordID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "leave record not found", middleware.GetRequestID(r.Context()))
		return
	}
	if user.Permission != string(account.PermissionAdmin) && rec.EmployeeID != user.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, toRecordView(rec), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	recordID := chi.URLParam(r, "recordID")
	rec, err := h.Service.Approve(r.Context(), recordID, user.EmployeeID)
	if err != nil {
		h.failTransition(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordApproval()
	}
	api.Success(w, toRecordView(rec), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRejectRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	recordID := chi.URLParam(r, "recordID")
	rec, err := h.Service.Reject(r.Context(), recordID, user.EmployeeID)
	if err != nil {
		h.failTransition(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordRejection()
	}
	api.Success(w, toRecordView(rec), middleware.GetRequestID(r.Context()))
}

func (h *Handler) failTransition(w http.ResponseWriter, r *http.Request, err error) {
	var transitionErr *leave.TransitionError
	var validationErr *leave.ValidationError
	switch {
	case errors.Is(err, leave.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave record not found", middleware.GetRequestID(r.Context()))
	case errors.As(err, &transitionErr):
		api.FailWithDetails(w, http.StatusConflict, "invalid_transition", "leave record already left pending review", map[string]any{
			"status": transitionErr.From.Label(),
		}, middleware.GetRequestID(r.Context()))
	case errors.As(err, &validationErr):
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.FieldIssue{
			{Field: validationErr.Field, Reason: validationErr.Reason},
		})
	default:
		api.Fail(w, http.StatusInternalServerError, "transition_failed", "failed to update leave record", middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleExportRecords(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	filter, v := parseFilter(r)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.List(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export leave records", middleware.GetRequestID(r.Context()))
		return
	}
	buf, err := export.RecordsXLSX(result.Records)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export leave records", middleware.GetRequestID(r.Context()))
		return
	}

	filename := export.RecordsXLSXName(time.Now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("leave records export write failed", "err", err)
	}
}

func (h *Handler) handleUsageReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	year := time.Now().UTC().Year()
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			api.Fail(w, http.StatusBadRequest, "invalid_request", "year must be a positive integer", middleware.GetRequestID(r.Context()))
			return
		}
		year = parsed
	}

	rows, err := h.Service.UsageByYear(r.Context(), year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build usage report", middleware.GetRequestID(r.Context()))
		return
	}
	buf, err := export.UsagePDF(rows, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build usage report", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(export.UsagePDFName(year)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("leave usage report write failed", "err", err)
	}
}
