package handler

import "net/http"

// HTTPError is an error with a status code and a user-facing message.
type HTTPError struct {
	Code    int
	Message string
}

func (e HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, message string) HTTPError {
	return HTTPError{Code: code, Message: message}
}

// BadRequest returns a 400 error with message.
func BadRequest(message string) HTTPError {
	return HTTPError{Code: http.StatusBadRequest, Message: message}
}

// NotFound returns a 404 error with message.
func NotFound(message string) HTTPError {
	return HTTPError{Code: http.StatusNotFound, Message: message}
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden           = HTTPError{Code: http.StatusForbidden, Message: "Forbidden"}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound, Message: "Not found"}
	ErrMethodNotAllowed    = HTTPError{Code: http.StatusMethodNotAllowed, Message: "Method not allowed"}
	ErrConflict            = HTTPError{Code: http.StatusConflict, Message: "Conflict"}
	ErrUnsupportedMedia    = HTTPError{Code: http.StatusUnsupportedMediaType, Message: "Unsupported media type"}
	ErrTooManyRequests     = HTTPError{Code: http.StatusTooManyRequests, Message: "Too many requests"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Message: "Internal Server Error"}
	ErrBadGateway          = HTTPError{Code: http.StatusBadGateway, Message: "Bad gateway"}
)
