// Package apperr defines the error kinds surfaced to API callers and the
// echo error handler that renders them. Every error that reaches a caller
// carries a machine-readable kind and a human-readable message; wrapped
// causes are logged but never rendered.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindDuplicateIdentity  Kind = "DuplicateIdentity"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindUnauthenticated    Kind = "Unauthenticated"
	KindNotFound           Kind = "NotFound"
	KindNoActivePolicy     Kind = "NoActivePolicy"
	KindStorageUnavailable Kind = "StorageUnavailable"
	KindRateLimited        Kind = "RateLimited"
	KindInternal           Kind = "Internal"
)

// Error is the typed error returned by services and middleware.
type Error struct {
	Kind    Kind
	Message string
	// Field names the offending input for validation errors.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and caller-safe message to an underlying error.
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation reports a missing or malformed input field.
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Field: field}
}

// Required is the validation error for an absent required field.
func Required(field string) *Error {
	return Validation(field, field+" is required")
}

func Unavailable(err error) *Error {
	return Wrap(err, KindStorageUnavailable, "storage is temporarily unavailable, retry later")
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func HasKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindDuplicateIdentity:
		return http.StatusConflict
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindNoActivePolicy:
		return http.StatusUnprocessableEntity
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON error envelope.
type Body struct {
	Error Detail `json:"error"`
}

type Detail struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Render converts err into a status code and caller-safe body.
func Render(err error) (int, Body) {
	var e *Error
	if errors.As(err, &e) {
		return HTTPStatus(e.Kind), Body{Error: Detail{Kind: e.Kind, Message: e.Message, Field: e.Field}}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		return he.Code, Body{Error: Detail{Kind: kindForStatus(he.Code), Message: msg}}
	}
	return http.StatusInternalServerError, Body{Error: Detail{Kind: KindInternal, Message: "internal server error"}}
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusServiceUnavailable:
		return KindStorageUnavailable
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindInternal
	}
}

// HTTPErrorHandler returns an echo.HTTPErrorHandler that renders the error
// envelope and logs server-side failures with their cause.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := Render(err)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("kind", string(body.Error.Kind)).
				Msg("request failed")
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}
