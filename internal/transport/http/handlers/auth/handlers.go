package authhandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavesys/internal/domain/account"
	"leavesys/internal/domain/auth"
	"leavesys/internal/transport/http/api"
	"leavesys/internal/transport/http/middleware"
)

type Handler struct {
	Accounts *account.Service
	Tokens   auth.Tokens
}

func NewHandler(accounts *account.Service, tokens auth.Tokens) *Handler {
	return &Handler{Accounts: accounts, Tokens: tokens}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

type loginRequest struct {
	EmployeeID string `json:"employeeId"`
	Password   string `json:"password"`
}

// handleLogin answers every credential failure the same way so the response
// does not reveal whether the employee id exists.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	acct, err := h.Accounts.Authenticate(r.Context(), payload.EmployeeID, payload.Password)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := h.Tokens.Issue(auth.UserContext{
		EmployeeID: acct.EmployeeID,
		Name:       acct.Name,
		Permission: string(acct.Permission),
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"token": token,
		"account": map[string]string{
			"employeeId": acct.EmployeeID,
			"name":       acct.Name,
			"permission": string(acct.Permission),
		},
	}, middleware.GetRequestID(r.Context()))
}
