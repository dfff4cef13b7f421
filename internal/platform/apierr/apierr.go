package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes correspond to the abstract error kinds of spec §7.
const (
	CodeInvalidInput        = "invalid_input"
	CodeUnauthorized        = "unauthorized"
	CodeRateLimited         = "rate_limited"
	CodeUserNotFound        = "user_not_found"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeUpstreamTimeout     = "upstream_timeout"
	CodeUpstreamProtocol    = "upstream_protocol"
	CodeUpstreamStatus      = "upstream_status"
	CodeCommitFailed        = "commit_failed"
	CodeAlreadyInProgress   = "completion_in_progress"
	CodeInternal            = "internal"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func InvalidInput(err error) *Error { return New(http.StatusBadRequest, CodeInvalidInput, err) }
func Unauthorized(err error) *Error { return New(http.StatusUnauthorized, CodeUnauthorized, err) }
func RateLimited(err error) *Error  { return New(http.StatusTooManyRequests, CodeRateLimited, err) }
func UserNotFound(err error) *Error { return New(http.StatusNotFound, CodeUserNotFound, err) }
func UpstreamUnavailable(err error) *Error {
	return New(http.StatusBadGateway, CodeUpstreamUnavailable, err)
}
func UpstreamStatus(status int, err error) *Error {
	return New(http.StatusBadGateway, CodeUpstreamStatus, err)
}
func UpstreamTimeout(err error) *Error {
	return New(http.StatusGatewayTimeout, CodeUpstreamTimeout, err)
}
func UpstreamProtocol(err error) *Error {
	return New(http.StatusBadGateway, CodeUpstreamProtocol, err)
}
func CommitFailed(err error) *Error {
	return New(http.StatusInternalServerError, CodeCommitFailed, err)
}
func AlreadyInProgress(err error) *Error {
	return New(http.StatusConflict, CodeAlreadyInProgress, err)
}
func Internal(err error) *Error { return New(http.StatusInternalServerError, CodeInternal, err) }

// As unwraps err into an *Error, returning a generic Internal wrapper when it
// isn't already one. Handlers use this to always have a status+code to render.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae
	}
	return Internal(err)
}
