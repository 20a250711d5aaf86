package controllers

import (
	"encoding/json"
	"net/http"

	"penpal_server/apperrors"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError maps a service error onto an HTTP status and a JSON
// error body. Internal detail never leaves the server; it is logged.
func respondError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case apperrors.CodeValidation, apperrors.CodeInvalidState:
		status = http.StatusBadRequest
	case apperrors.CodeUnauthenticated:
		status = http.StatusUnauthorized
	case apperrors.CodePermissionDenied:
		status = http.StatusForbidden
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeConflict:
		status = http.StatusConflict
	case apperrors.CodeDependency:
		status = http.StatusServiceUnavailable
	}

	message := "internal server error"
	if status != http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		message = err.Error()
	} else {
		zap.L().Error("request failed", zap.String("code", string(code)), zap.Error(err))
		if status == http.StatusServiceUnavailable {
			message = "service temporarily unavailable"
		}
	}

	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  string(code),
	})
}
