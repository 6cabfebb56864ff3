// Package errors provides structured error handling for taskmanager services.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input errors
	CodeValidationFailed Code = "VALIDATION_FAILED"

	// Account errors
	CodeUserAlreadyExists  Code = "USER_ALREADY_EXISTS"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures and registration collisions
	case CodeValidationFailed,
		CodeUserAlreadyExists:
		return http.StatusBadRequest

	// Unauthorized - bad credentials or missing/invalid token
	case CodeInvalidCredentials,
		CodeUnauthenticated:
		return http.StatusUnauthorized

	// NotFound - resource absent or owned by someone else
	case CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
