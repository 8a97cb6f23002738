package api

import (
	"fmt"
	"net/http"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorCode identifies error categories in API responses.
type ErrorCode string

const (
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrorCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrorCodeInternalError  ErrorCode = "INTERNAL_ERROR"
)

// APIError carries an error code, HTTP status and message.
type APIError struct {
	Code       ErrorCode
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewValidationError creates a 400 invalid-request error.
func NewValidationError(message string, args ...interface{}) *APIError {
	return &APIError{
		Code:       ErrorCodeInvalidRequest,
		StatusCode: http.StatusBadRequest,
		Message:    fmt.Sprintf(message, args...),
	}
}

// NewNotFoundError creates a 404 error.
func NewNotFoundError(message string, args ...interface{}) *APIError {
	return &APIError{
		Code:       ErrorCodeNotFound,
		StatusCode: http.StatusNotFound,
		Message:    fmt.Sprintf(message, args...),
	}
}

// NewInternalError creates a 500 error.
func NewInternalError(message string, args ...interface{}) *APIError {
	return &APIError{
		Code:       ErrorCodeInternalError,
		StatusCode: http.StatusInternalServerError,
		Message:    fmt.Sprintf(message, args...),
	}
}
