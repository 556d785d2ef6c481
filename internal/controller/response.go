package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	Data       any            `json:"data,omitempty"`
	Pagination map[string]int `json:"pagination,omitempty"`
	Error      string         `json:"error,omitempty"`
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

func respondCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Message: message, Data: data})
}

// respondError converts any error into the envelope with the matching status.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := appErrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	writeJSON(w, status, APIResponse{
		Success: false,
		Message: appErrors.PublicMessage(err),
		Error:   errorCode(appErrors.KindOf(err)),
	})
}

func errorCode(kind appErrors.Kind) string {
	switch kind {
	case appErrors.KindValidation:
		return "VALIDATION_ERROR"
	case appErrors.KindUnauthorized:
		return "UNAUTHORIZED"
	case appErrors.KindForbidden:
		return "FORBIDDEN"
	case appErrors.KindNotFound:
		return "NOT_FOUND"
	case appErrors.KindConflict:
		return "CONFLICT"
	case appErrors.KindUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// decodeJSON reads the request body into v. Malformed bodies are validation errors.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return appErrors.Validation("invalid request body: %v", err)
	}
	return nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
