// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Error kinds. Every error returned by the domain packages wraps one of these.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoRiddleAvailable = errors.New("no riddle available")
	ErrTransient         = errors.New("transient failure")
)

var (
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrRiddleNotFound = fmt.Errorf("riddle %w", ErrNotFound)
	ErrEmptyAnswer    = fmt.Errorf("%w: answer is empty", ErrInvalidInput)
	ErrAnswerTooLong  = fmt.Errorf("%w: answer is too long", ErrInvalidInput)
	ErrRiddleNotToday = fmt.Errorf("%w: riddle is not today's riddle", ErrInvalidInput)
	ErrSelfFollow     = fmt.Errorf("%w: cannot follow yourself", ErrInvalidInput)
)

// Map converts domain/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, ErrNoRiddleAvailable):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, ErrTransient):
		return status.Error(codes.Unavailable, err.Error())

	case errors.Is(err, ErrConflict):
		return status.Error(codes.Aborted, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// HTTPStatus picks the HTTP status code for an error returned by the service layer.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoRiddleAvailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTransient):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// InvalidArgument wraps msg as an ErrInvalidInput.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// IsNotFound reports whether err means a missing user, riddle or row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
