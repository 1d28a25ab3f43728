// Package apperror provides structured error handling for the filtering API.
// All client-caused failures must use AppError so responses stay consistent.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Filter errors (400). Terminal and never retried.
	CodeUnknownColumn       = "UNKNOWN_COLUMN"
	CodeUnsupportedOperator = "UNSUPPORTED_OPERATOR"
	CodeParse               = "PARSE_ERROR"
	CodeNoConditions        = "NO_CONDITIONS"
	CodeInvalidPagination   = "INVALID_PAGINATION"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"detail"`

	// Details contains additional context (column, operator, value)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUnknownColumn is returned when a logical column name is absent from the catalog.
func NewUnknownColumn(name string) *AppError {
	return &AppError{
		Code:       CodeUnknownColumn,
		Message:    fmt.Sprintf("Column '%s' not available for filtering", name),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"column": name},
	}
}

// NewUnsupportedOperator is returned when an operator is unknown or not allowed for the column.
func NewUnsupportedOperator(column, operator string) *AppError {
	msg := fmt.Sprintf("Operator '%s' not supported for column '%s'", operator, column)
	if column == "" {
		msg = fmt.Sprintf("Operator '%s' not supported", operator)
	}
	return &AppError{
		Code:       CodeUnsupportedOperator,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"column": column, "operator": operator},
	}
}

// NewParseError is returned for malformed or uncoercible operands.
func NewParseError(column, reason string) *AppError {
	return &AppError{
		Code:       CodeParse,
		Message:    fmt.Sprintf("Invalid value for '%s': %s", column, reason),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"column": column, "reason": reason},
	}
}

// NewNoConditions is returned when a request carries no filter conditions at all.
func NewNoConditions() *AppError {
	return &AppError{
		Code:       CodeNoConditions,
		Message:    "At least one filter condition is required",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidPagination is returned when limit or offset fall outside the declared bounds.
func NewInvalidPagination(field string, value any, reason string) *AppError {
	return &AppError{
		Code:       CodeInvalidPagination,
		Message:    fmt.Sprintf("Invalid %s: %s", field, reason),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field, "value": value},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDatabase wraps a storage failure. The cause is logged, never rendered.
func NewDatabase(err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    "Failed to filter data",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries the given AppError code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
