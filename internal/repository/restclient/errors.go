package restclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"
)

// APIError is an upstream response with status >= 400.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Unwrap lets callers match 404 and 429 with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusTooManyRequests:
		return repository.ErrRateLimited
	}
	return nil
}

// IsRateLimited reports whether err was caused by an HTTP 429.
func IsRateLimited(err error) bool {
	return errors.Is(err, repository.ErrRateLimited)
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Message: extractMessage(status, body)}
}

// extractMessage understands the error envelopes of both Booqable
// ({"error": {"message": ...}} or {"errors": [...]}) and Airtable
// ({"error": {"type": ..., "message": ...}} or {"error": "NOT_FOUND"}).
func extractMessage(status int, body []byte) string {
	var env struct {
		Error   json.RawMessage `json:"error"`
		Errors  json.RawMessage `json:"errors"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if msg := messageFrom(env.Error); msg != "" {
			return msg
		}
		if msg := messageFrom(env.Errors); msg != "" {
			return msg
		}
		if env.Message != "" {
			return env.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}

func messageFrom(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		switch {
		case obj.Message != "":
			return obj.Message
		case obj.Detail != "":
			return obj.Detail
		case obj.Type != "":
			return obj.Type
		}
	}
	var list []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		if list[0].Detail != "" {
			return list[0].Detail
		}
		return list[0].Title
	}
	var fields map[string][]string
	if json.Unmarshal(raw, &fields) == nil {
		for k, v := range fields {
			if len(v) > 0 {
				return k + " " + v[0]
			}
		}
	}
	return ""
}
