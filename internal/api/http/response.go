package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/security"
	"gearshare-backend/internal/service"
)

// Every response carries "success". Successful bodies spread their data
// at the top level next to it; failures carry "error" and, for validation
// problems, the per-field "fields" list.

type fieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeSuccess sends {"success": true, ...data}.
func writeSuccess(w http.ResponseWriter, status int, data map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range data {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// writeResult sends the outcome of a cross-system write.
func writeResult[T any](w http.ResponseWriter, status int, res *service.Result[T]) {
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	outcome := "succeeded"
	if len(warnings) > 0 {
		outcome = "succeeded_with_warnings"
	}
	writeSuccess(w, status, map[string]any{
		"data":     res.Entity,
		"refs":     res.Refs,
		"outcome":  outcome,
		"warnings": warnings,
	})
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// writeError maps a service error onto a status code. Validation is
// checked first since it can arrive wrapped in a backend error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *domain.ValidationError
		ves domain.ValidationErrors
	)
	switch {
	case errors.As(err, &ves):
		fields := make([]fieldError, 0, len(ves))
		for _, e := range ves {
			fields = append(fields, fieldError{Field: e.Field, Message: e.Message})
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": ves.Error(), "fields": fields})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   ve.Error(),
			"fields":  []fieldError{{Field: ve.Field, Message: ve.Message}},
		})
	case errors.Is(err, domain.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, security.ErrInvalidCredentials):
		writeFailure(w, http.StatusUnauthorized, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeFailure(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &domain.ValidationError{Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}
