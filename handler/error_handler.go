package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/upvote/pkg/binder"
	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/pkg/requestid"
)

// StatusError is implemented by domain errors that carry their own HTTP
// status and response body, such as plan-limit rejections.
type StatusError interface {
	error
	StatusCode() int
	ResponseBody() any
}

// ErrorInfo is the classified form of an error.
type ErrorInfo struct {
	StatusCode int
	Body       any
	LogLevel   slog.Level
}

// ClassifyError maps err to a status code and JSON body. Unknown errors
// become 500 with a generic message.
func ClassifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Body:       ErrorBody{Error: ErrInternalServerError.Message},
	}

	var (
		statusErr StatusError
		validErr  ValidationError
		httpErr   HTTPError
	)
	switch {
	case errors.As(err, &statusErr):
		info.StatusCode = statusErr.StatusCode()
		info.Body = statusErr.ResponseBody()
	case errors.As(err, &validErr):
		info.StatusCode = http.StatusBadRequest
		info.Body = ErrorBody{Error: validErr.Error(), Details: validErr}
	case errors.As(err, &httpErr):
		info.StatusCode = httpErr.Code
		info.Body = ErrorBody{Error: httpErr.Message}
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		info.StatusCode = http.StatusUnsupportedMediaType
		info.Body = ErrorBody{Error: ErrUnsupportedMedia.Message}
	case errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrFailedToParseQuery),
		errors.Is(err, binder.ErrFailedToParsePath):
		info.StatusCode = http.StatusBadRequest
		info.Body = ErrorBody{Error: "Invalid request"}
	}

	info.LogLevel = slog.LevelError
	if info.StatusCode < http.StatusInternalServerError {
		info.LogLevel = slog.LevelWarn
	}
	return info
}

// NewJSONErrorHandler logs every error once and renders it as JSON.
func NewJSONErrorHandler(log *slog.Logger) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx Context, err error) {
		r := ctx.Request()
		info := ClassifyError(err)

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if renderErr := JSON(info.Body, WithJSONStatus(info.StatusCode)).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response",
				logger.Error(renderErr),
				logger.Event("render_error"),
			)
		}
	}
}

// ErrorHandlerFor adapts an ErrorHandler[Context] to a module-specific
// context type.
func ErrorHandlerFor[C Context](h ErrorHandler[Context]) ErrorHandler[C] {
	return func(ctx C, err error) { h(ctx, err) }
}
