package errors

import (
	stderrors "errors"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
	Detail  string
}

func (e *HTTPError) Error() string {
	return e.Detail
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message, detail string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
		Detail:  detail,
	}
}

// Helper for common errors
var (
	ErrBadRequest = func(detail string) *HTTPError { return NewHTTPError(http.StatusBadRequest, "Bad Request", detail) }
	ErrNotFound   = func(detail string) *HTTPError { return NewHTTPError(http.StatusNotFound, "No Such Element", detail) }
	ErrInternal   = func(detail string) *HTTPError { return NewHTTPError(http.StatusInternalServerError, "General error", detail) }
)

// ToHTTPError maps err to the HTTP status and short message the API responds with.
func ToHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		return httpErr
	}
	switch KindOf(err) {
	case KindNotFound:
		return ErrNotFound(err.Error())
	case KindInvalidInput, KindInvalidState:
		return ErrBadRequest(err.Error())
	default:
		return ErrInternal(err.Error())
	}
}
