package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error is the machine-readable half of a failed envelope. Details carries
// structured context such as the per-field issues from validation.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the wire shape of every response. Exactly one of Data or
// Error is set, and RequestID echoes the request's correlation id.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload Envelope) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encode response", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Warn("write response", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	writeJSON(w, http.StatusOK, Envelope{
		Success:   true,
		Data:      data,
		RequestID: requestID,
	})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	writeJSON(w, http.StatusCreated, Envelope{
		Success:   true,
		Data:      data,
		RequestID: requestID,
	})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	FailWithDetails(w, status, code, message, nil, requestID)
}

// FailWithDetails is Fail with structured error context attached, such as
// the field list collected by the shared validator.
func FailWithDetails(w http.ResponseWriter, status int, code, message string, details any, requestID string) {
	writeJSON(w, status, Envelope{
		Success:   false,
		RequestID: requestID,
		Error:     &Error{Code: code, Message: message, Details: details},
	})
}
