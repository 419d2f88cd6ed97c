package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aswell/training-system/internal/service"
)

// errorBody is the JSON shape for 4xx responses.
type errorBody struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// forbiddenBody carries a timestamp on the access-denied path.
type forbiddenBody struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{
		Status:  status,
		Error:   http.StatusText(status),
		Message: message,
	})
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusForbidden, forbiddenBody{
		Timestamp: time.Now().UTC(),
		Status:    http.StatusForbidden,
		Error:     http.StatusText(http.StatusForbidden),
		Message:   message,
	})
}

// writeServiceError maps service sentinel errors to HTTP statuses. Anything
// unrecognized is a storage or programming fault and surfaces as 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrNoRoles):
		writeForbidden(w, "No roles assigned")
	case errors.Is(err, service.ErrForbidden):
		writeForbidden(w, "Access denied")
	case errors.Is(err, service.ErrCompanyNotFound):
		writeError(w, http.StatusBadRequest, "Unknown company")
	case errors.Is(err, service.ErrCompanyInactive):
		writeForbidden(w, "Company is not active")
	case errors.Is(err, service.ErrDuplicateLogin):
		writeError(w, http.StatusConflict, "Login ID already in use")
	case errors.Is(err, service.ErrRoleUnknown):
		writeError(w, http.StatusBadRequest, "Unknown role")
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "Conflict")
	default:
		if logger != nil {
			logger.Error("request failed", slog.String("error", err.Error()))
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
