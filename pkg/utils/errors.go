package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ResponseCode business response code
type ResponseCode int

// Response codes, grouped by error kind
const (
	CodeSuccess ResponseCode = 0

	// Validation errors
	CodeInvalidParam ResponseCode = 1001

	// Authorization errors
	CodeUnauthorized ResponseCode = 1002
	CodeForbidden    ResponseCode = 1003

	// Not found errors
	CodeNotFound ResponseCode = 1004

	// Conflict errors (state precondition failed)
	CodeConflict ResponseCode = 1005

	// Storage / system errors
	CodeInternalError ResponseCode = 5000
	CodeDatabaseError ResponseCode = 5001
)

// AppError application error structure
type AppError struct {
	Code    ResponseCode `json:"code"`
	Message string       `json:"message"`
	Err     error        `json:"-"`
}

// Error implement error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code: %d, message: %s, error: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
}

// Unwrap implement errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError create new application error
func NewError(code ResponseCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// WrapError wrap an underlying error with code and message
func WrapError(err error, code ResponseCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Validationf validation error with formatted message
func Validationf(format string, args ...interface{}) *AppError {
	return NewError(CodeInvalidParam, fmt.Sprintf(format, args...))
}

// NotFoundf not-found error with formatted message
func NotFoundf(format string, args ...interface{}) *AppError {
	return NewError(CodeNotFound, fmt.Sprintf(format, args...))
}

// Conflictf conflict error with formatted message
func Conflictf(format string, args ...interface{}) *AppError {
	return NewError(CodeConflict, fmt.Sprintf(format, args...))
}

// Forbiddenf authorization error with formatted message
func Forbiddenf(format string, args ...interface{}) *AppError {
	return NewError(CodeForbidden, fmt.Sprintf(format, args...))
}

// Storage wraps a storage-layer failure. The original error is kept for
// logging; the user-facing message stays generic.
func Storage(err error) *AppError {
	return WrapError(err, CodeDatabaseError, "something went wrong, please try again")
}

// IsAppError check if it's an application error
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetErrorCode get error code
func GetErrorCode(err error) ResponseCode {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code
	}
	return CodeInternalError
}

// GetErrorMessage get error message
func GetErrorMessage(err error) string {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}

// HTTPStatus maps a response code to an HTTP status
func (c ResponseCode) HTTPStatus() int {
	switch c {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
