package errmap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/the-dev-tools/orderedmodel/pkg/movable"
	"github.com/the-dev-tools/orderedmodel/pkg/service/sranked"
)

// Code classifies high-level error categories for user-facing messages.
type Code string

const (
	CodeCanceled              Code = "canceled"
	CodeTimeout               Code = "timeout"
	CodeInvalidArgument       Code = "invalid_argument"
	CodeIncompatiblePartition Code = "incompatible_partition"
	CodeOutOfRange            Code = "out_of_range"
	CodeNotFound              Code = "not_found"
	CodeUnauthenticated       Code = "unauthenticated"
	CodeStorage               Code = "storage"
	CodeUnexpected            Code = "unexpected"
)

// ErrUnauthenticated marks a request without a valid principal.
var ErrUnauthenticated = errors.New("unauthenticated")

// Error carries a code and an optional message while preserving the
// original cause via Unwrap.
type Error struct {
	Code    Code
	Message string
	Model   string
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = humanize(e.Code, e.cause)
	}
	if e.Model != "" {
		return fmt.Sprintf("%s: %s", e.Model, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

func humanize(code Code, cause error) string {
	switch code {
	case CodeCanceled:
		return "request was canceled"
	case CodeTimeout:
		return "request timed out"
	case CodeStorage:
		return "storage error"
	case CodeUnauthenticated:
		return "authentication required"
	default:
		if cause != nil {
			return cause.Error()
		}
		return "unexpected error"
	}
}

// Map converts an arbitrary error into an *Error with a best-effort code.
// Order matters: a cross-partition swap is both an invalid argument and an
// incompatible partition and is reported as the latter.
func Map(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Code: CodeCanceled, cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeTimeout, cause: err}
	case errors.Is(err, ErrUnauthenticated):
		return &Error{Code: CodeUnauthenticated, cause: err}
	case errors.Is(err, movable.ErrIncompatiblePartition):
		return &Error{Code: CodeIncompatiblePartition, cause: err}
	case errors.Is(err, movable.ErrPositionOutOfRange):
		return &Error{Code: CodeOutOfRange, cause: err}
	case errors.Is(err, movable.ErrInvalidArgument):
		return &Error{Code: CodeInvalidArgument, cause: err}
	case errors.Is(err, movable.ErrItemNotFound), errors.Is(err, sranked.ErrModelNotFound):
		return &Error{Code: CodeNotFound, cause: err}
	case errors.Is(err, movable.ErrDensityViolation):
		return &Error{Code: CodeStorage, Message: err.Error(), cause: err}
	}
	return &Error{Code: CodeStorage, cause: err}
}

// New constructs an Error with the supplied code, message, and underlying cause.
func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf returns the code Map assigns to err.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var me *Error
	if errors.As(Map(err), &me) {
		return me.Code
	}
	return CodeUnexpected
}

// HTTPStatus is the status the admin handlers answer with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case "":
		return http.StatusOK
	case CodeInvalidArgument, CodeIncompatiblePartition, CodeOutOfRange:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeCanceled:
		return 499
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ConnectCode is the RPC code the connect handlers answer with.
func ConnectCode(err error) connect.Code {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeIncompatiblePartition, CodeOutOfRange:
		return connect.CodeInvalidArgument
	case CodeNotFound:
		return connect.CodeNotFound
	case CodeUnauthenticated:
		return connect.CodeUnauthenticated
	case CodeCanceled:
		return connect.CodeCanceled
	case CodeTimeout:
		return connect.CodeDeadlineExceeded
	default:
		return connect.CodeInternal
	}
}

// ToConnect wraps err for a connect handler. Storage details stay in the
// logs; the client only sees the friendly text.
func ToConnect(err error) error {
	if err == nil {
		return nil
	}
	code := ConnectCode(err)
	if code == connect.CodeInternal {
		return connect.NewError(code, errors.New(Friendly(err)))
	}
	return connect.NewError(code, err)
}

// Friendly returns a user-friendly, action-oriented message string.
func Friendly(err error) string {
	if err == nil {
		return ""
	}
	var me *Error
	if !errors.As(Map(err), &me) {
		return err.Error()
	}
	switch me.Code {
	case CodeIncompatiblePartition:
		return "Records can only be moved relative to siblings of the same parent."
	case CodeOutOfRange:
		return "The target position is outside the list."
	case CodeInvalidArgument:
		return fmt.Sprintf("Invalid request: %s.", me.Error())
	case CodeNotFound:
		return "The record or model does not exist."
	case CodeUnauthenticated:
		return "Sign in to reorder records."
	case CodeCanceled:
		return "Request was canceled."
	case CodeTimeout:
		return "Request timed out."
	case CodeStorage:
		return "The change could not be saved. Nothing was modified."
	default:
		return "Unexpected error."
	}
}
