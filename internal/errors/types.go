package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies failures into the categories callers can observe.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindAuth       Kind = "auth_error"
	KindNotFound   Kind = "not_found"
	KindUpstream   Kind = "upstream_error"
	KindInternal   Kind = "internal_error"
)

const (
	MsgUpstreamFailed = "Failed to get response from upstream"
	MsgInternal       = "Internal server error"
)

// APIError is the error type every handler maps to an HTTP response.
// Message is what the caller sees; Detail and Err stay server-side.
type APIError struct {
	HTTPStatus int
	Kind       Kind
	Code       string
	Message    string
	Detail     string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

func New(httpStatus int, kind Kind, message string) *APIError {
	return &APIError{HTTPStatus: httpStatus, Kind: kind, Message: message}
}

// Validation reports a protocol violation in caller input. The message is echoed.
func Validation(message string) *APIError {
	return New(http.StatusBadRequest, KindValidation, message)
}

// Auth reports a rejected credential or admin token with a generic message.
func Auth(httpStatus int, message string) *APIError {
	return New(httpStatus, KindAuth, message)
}

func NotFound(message string) *APIError {
	return New(http.StatusBadRequest, KindNotFound, message)
}

// Upstream wraps a failed upstream exchange. Callers only ever see MsgUpstreamFailed.
func Upstream(code, detail string, cause error) *APIError {
	return &APIError{
		HTTPStatus: http.StatusInternalServerError,
		Kind:       KindUpstream,
		Code:       code,
		Message:    MsgUpstreamFailed,
		Detail:     detail,
		Err:        cause,
	}
}

func Internal(cause error) *APIError {
	return &APIError{
		HTTPStatus: http.StatusInternalServerError,
		Kind:       KindInternal,
		Message:    MsgInternal,
		Err:        cause,
	}
}

// As unwraps err into an *APIError when one is present in the chain.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Kind == kind
}
