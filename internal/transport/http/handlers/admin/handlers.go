package adminhandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
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

// Handler serves the admin-only account surface. Metrics is nil when
// collection is disabled by configuration.
type Handler struct {
	Accounts     *account.Service
	Metrics      *metrics.Collector
	ExportPrefix string
}

func NewHandler(accounts *account.Service, collector *metrics.Collector, exportPrefix string) *Handler {
	return &Handler{Accounts: accounts, Metrics: collector, ExportPrefix: exportPrefix}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireAdmin)
		r.Get("/users", h.handleListUsers)
		r.Post("/users", h.handleCreateUser)
		r.Get("/users/export", h.handleExportUsers)
		r.Put("/users/{employeeID}", h.handleUpdateUser)
		r.Delete("/users/{employeeID}", h.handleDeleteUser)
		r.Get("/metrics", h.handleMetrics)
	})
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

// accountView is the admin projection of an account. The stored password
// value travels verbatim under the password key.
type accountView struct {
	EmployeeID string     `json:"employeeId"`
	Name       string     `json:"name"`
	Password   string     `json:"password"`
	Permission string     `json:"permission"`
	Quotas     quotasView `json:"quotas"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func toAccountView(acct account.Account) accountView {
	return accountView{
		EmployeeID: acct.EmployeeID,
		Name:       acct.Name,
		Password:   acct.PasswordHash,
		Permission: string(acct.Permission),
		Quotas:     toQuotasView(acct.Quotas),
		CreatedAt:  acct.CreatedAt,
		UpdatedAt:  acct.UpdatedAt,
	}
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "accounts_failed", "failed to list accounts", middleware.GetRequestID(r.Context()))
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, acct := range accounts {
		views = append(views, toAccountView(acct))
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(views)))
	api.Success(w, views, middleware.GetRequestID(r.Context()))
}

type createAccountRequest struct {
	EmployeeID     string           `json:"employeeId"`
	Name           string           `json:"name"`
	Password       string           `json:"password"`
	Permission     string           `json:"permission"`
	AnnualLeave    *decimal.Decimal `json:"annualLeave"`
	SickLeave      *decimal.Decimal `json:"sickLeave"`
	MenstrualLeave *decimal.Decimal `json:"menstrualLeave"`
	PersonalLeave  *decimal.Decimal `json:"personalLeave"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	permission := account.Permission(payload.Permission)
	if payload.Permission == "" {
		permission = account.PermissionEmployee
	}

	acct, err := h.Accounts.Create(r.Context(), account.CreateInput{
		EmployeeID:     payload.EmployeeID,
		Name:           payload.Name,
		Password:       payload.Password,
		Permission:     permission,
		AnnualLeave:    payload.AnnualLeave,
		SickLeave:      payload.SickLeave,
		MenstrualLeave: payload.MenstrualLeave,
		PersonalLeave:  payload.PersonalLeave,
	})
	if err != nil {
		h.failAccount(w, r, err)
		return
	}

	api.Created(w, toAccountView(acct), middleware.GetRequestID(r.Context()))
}

type updateAccountRequest struct {
	Name           *string          `json:"name"`
	Password       *string          `json:"password"`
	Permission     *string          `json:"permission"`
	AnnualLeave    *decimal.Decimal `json:"annualLeave"`
	SickLeave      *decimal.Decimal `json:"sickLeave"`
	MenstrualLeave *decimal.Decimal `json:"menstrualLeave"`
	PersonalLeave  *decimal.Decimal `json:"personalLeave"`
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var payload updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	in := account.UpdateInput{
		Name:           payload.Name,
		Password:       payload.Password,
		AnnualLeave:    payload.AnnualLeave,
		SickLeave:      payload.SickLeave,
		MenstrualLeave: payload.MenstrualLeave,
		PersonalLeave:  payload.PersonalLeave,
	}
	if payload.Permission != nil {
		permission := account.Permission(*payload.Permission)
		in.Permission = &permission
	}

	acct, err := h.Accounts.Update(r.Context(), chi.URLParam(r, "employeeID"), in)
	if err != nil {
		h.failAccount(w, r, err)
		return
	}

	api.Success(w, toAccountView(acct), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Accounts.Delete(r.Context(), employeeID, user.EmployeeID); err != nil {
		h.failAccount(w, r, err)
		return
	}

	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failAccount(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *account.ValidationError
	switch {
	case errors.As(err, &validationErr):
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.FieldIssue{
			{Field: validationErr.Field, Reason: validationErr.Reason},
		})
	case errors.Is(err, account.ErrDuplicateEmployeeID):
		api.Fail(w, http.StatusConflict, "employee_exists", "employee id already exists", middleware.GetRequestID(r.Context()))
	case errors.Is(err, account.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee account not found", middleware.GetRequestID(r.Context()))
	case errors.Is(err, account.ErrSelfDeletion):
		api.Fail(w, http.StatusBadRequest, "self_deletion", "cannot delete your own account", middleware.GetRequestID(r.Context()))
	default:
		api.Fail(w, http.StatusInternalServerError, "account_failed", "account operation failed", middleware.GetRequestID(r.Context()))
	}
}

// handleExportUsers writes the account list into a transient CSV file and
// streams it back. The file and its directory are removed after transfer.
func (h *Handler) handleExportUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export accounts", middleware.GetRequestID(r.Context()))
		return
	}

	path, cleanup, err := export.AccountsCSV(accounts, h.ExportPrefix, time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export accounts", middleware.GetRequestID(r.Context()))
		return
	}
	defer cleanup()

	file, err := os.Open(path)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export accounts", middleware.GetRequestID(r.Context()))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export accounts", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filepath.Base(path)))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	if _, err := io.Copy(w, file); err != nil {
		slog.Warn("accounts export write failed", "err", err)
	}
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.Metrics == nil {
		api.Fail(w, http.StatusNotFound, "metrics_disabled", "metrics collection is disabled", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}
