package userhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"leavesys/internal/domain/account"
	"leavesys/internal/domain/leave"
	"leavesys/internal/transport/http/api"
	"leavesys/internal/transport/http/middleware"
)

// Handler serves the self-service endpoints available to every
// authenticated employee.
type Handler struct {
	Accounts *account.Service
	Leaves   *leave.Service
}

func NewHandler(accounts *account.Service, leaves *leave.Service) *Handler {
	return &Handler{Accounts: accounts, Leaves: leaves}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/user", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", h.handleMe)
		r.Put("/change-password", h.handleChangePassword)
		r.Get("/remaining", h.handleRemaining)
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

// accountView is an account without its password hash.
type accountView struct {
	EmployeeID string     `json:"employeeId"`
	Name       string     `json:"name"`
	Permission string     `json:"permission"`
	Quotas     quotasView `json:"quotas"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func toAccountView(acct account.Account) accountView {
	return accountView{
		EmployeeID: acct.EmployeeID,
		Name:       acct.Name,
		Permission: string(acct.Permission),
		Quotas:     toQuotasView(acct.Quotas),
		CreatedAt:  acct.CreatedAt,
		UpdatedAt:  acct.UpdatedAt,
	}
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	acct, err := h.Accounts.Get(r.Context(), user.EmployeeID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "account_not_found", "employee account not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "account_failed", "failed to load account", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, toAccountView(acct), middleware.GetRequestID(r.Context()))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	err := h.Accounts.ChangePassword(r.Context(), user.EmployeeID, payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrPasswordMismatch):
			api.Fail(w, http.StatusBadRequest, "password_mismatch", "current password does not match", middleware.GetRequestID(r.Context()))
		case errors.Is(err, account.ErrPasswordTooShort):
			api.Fail(w, http.StatusBadRequest, "password_too_short", "new password is too short", middleware.GetRequestID(r.Context()))
		case errors.Is(err, account.ErrPasswordUnchanged):
			api.Fail(w, http.StatusBadRequest, "password_unchanged", "new password must differ from the current one", middleware.GetRequestID(r.Context()))
		case errors.Is(err, account.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "account_not_found", "employee account not found", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "change_password_failed", "failed to change password", middleware.GetRequestID(r.Context()))
		}
		return
	}

	api.Success(w, map[string]string{"status": "changed"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemaining(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
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

	remaining, err := h.Leaves.Remaining(r.Context(), user.EmployeeID, year)
	if err != nil {
		if errors.Is(err, leave.ErrAccountNotFound) {
			api.Fail(w, http.StatusNotFound, "account_not_found", "employee account not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "remaining_failed", "failed to compute remaining hours", middleware.GetRequestID(r.Context()))
		return
	}

	view := make(map[string]float64, len(remaining))
	for qt, hours := range remaining {
		view[string(qt)] = hours.InexactFloat64()
	}
	api.Success(w, map[string]any{"year": year, "remaining": view}, middleware.GetRequestID(r.Context()))
}
