package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quickboard/quickboard-backend/internal/api/middleware"
	"github.com/quickboard/quickboard-backend/internal/authz"
)

// APIError represents a structured API error response
type APIError struct {
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// Error codes for common scenarios
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends a structured error response
func respondError(w http.ResponseWriter, status int, code, message, requestID string) {
	respondJSON(w, status, APIError{
		Error:     message,
		Code:      code,
		Message:   message,
		RequestID: requestID,
	})
}

// respondEngineError maps a permission-engine error onto the HTTP surface.
// Denials and missing entities stay distinct here and in telemetry; the
// dashboard handler deliberately collapses them where existence must not
// leak.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.RequestIDFromContext(r.Context())
	switch {
	case errors.Is(err, authz.ErrNotFound):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, err.Error(), reqID)
	case errors.Is(err, authz.ErrPermissionDenied):
		respondError(w, http.StatusForbidden, ErrCodeForbidden, err.Error(), reqID)
	case errors.Is(err, authz.ErrValidation):
		respondError(w, http.StatusBadRequest, ErrCodeValidationFailed, err.Error(), reqID)
	default:
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error(), reqID)
	}
}

// requireUser returns the caller's user id, writing a 401 when absent.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized,
			"Authentication required", middleware.RequestIDFromContext(r.Context()))
		return "", false
	}
	return userID, true
}

// requireAdmin writes a 403 unless the caller carries the admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !middleware.IsAdmin(r.Context()) {
		respondError(w, http.StatusForbidden, ErrCodeForbidden,
			"Admin access required", middleware.RequestIDFromContext(r.Context()))
		return false
	}
	return true
}
