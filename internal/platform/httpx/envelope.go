package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/taskmanager/internal/platform/errors"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

const internalErrorMessage = "Internal server error"

// Envelope is the uniform response wrapper used by every JSON endpoint.
type Envelope struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message,omitempty"`
	Count   *int                       `json:"count,omitempty"`
	Data    any                        `json:"data,omitempty"`
	Errors  []apperrors.FieldViolation `json:"errors,omitempty"`
}

// WriteJSON writes a JSON response with the provided status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return fmt.Errorf("response writer is required")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteSuccess writes a successful envelope.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	_ = WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteList writes a successful envelope with an item count.
func WriteList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	count := len(items)
	_ = WriteJSON(w, http.StatusOK, Envelope{Success: true, Count: &count, Data: items})
}

// WriteFailure writes an unsuccessful envelope with a message.
func WriteFailure(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, Envelope{Success: false, Message: message})
}

// WriteError maps an error to its status and envelope. Domain errors expose
// their message. Anything that maps to 500 is logged with its cause; the
// client sees the domain message when one was attached and a generic message
// otherwise.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		method, path := "-", "-"
		if r != nil {
			method, path = r.Method, r.URL.Path
		}
		loggerFor(r).Printf("request failed method=%s path=%s request_id=%s err=%s", method, path, requestIDOrDash(r), errorDetail(err))
		WriteFailure(w, status, internalMessage(err))
		return
	}
	_ = WriteJSON(w, status, Envelope{
		Success: false,
		Message: err.Error(),
		Errors:  apperrors.GetFields(err),
	})
}

func internalMessage(err error) string {
	var domain *apperrors.Error
	if errors.As(err, &domain) && strings.TrimSpace(domain.Message) != "" {
		return domain.Message
	}
	return internalErrorMessage
}

// errorDetail renders err with its cause, which domain errors leave out of
// Error().
func errorDetail(err error) string {
	var domain *apperrors.Error
	if errors.As(err, &domain) && domain.Cause != nil {
		return err.Error() + ": " + domain.Cause.Error()
	}
	return err.Error()
}

// DecodeJSON reads a single JSON object from the request body into dst.
// Malformed, oversized, or trailing-garbage bodies yield a validation error.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r == nil || r.Body == nil {
		return apperrors.New(apperrors.CodeValidationFailed, "Invalid request body")
	}
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.CodeValidationFailed, "Request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.New(apperrors.CodeValidationFailed, "Request body is too large")
		}
		return apperrors.Wrap(apperrors.CodeValidationFailed, "Invalid request body", err)
	}
	if decoder.More() {
		return apperrors.New(apperrors.CodeValidationFailed, "Invalid request body")
	}
	return nil
}

// BearerToken extracts the token from an Authorization header. The scheme is
// matched case-insensitively; ok is false when no token is present.
func BearerToken(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
