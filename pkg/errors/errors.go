package errors

import (
	"errors"
	"fmt"
)

var (
	ErrStoreLocked      = errors.New("index unavailable: store locked")
	ErrStoreCorrupt     = errors.New("index store corrupt")
	ErrStoreClosed      = errors.New("index store closed")
	ErrBadQuery         = errors.New("bad query")
	ErrRangeUnavailable = errors.New("range unavailable")
	ErrFileNotFound     = errors.New("file not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInternal         = errors.New("internal error")
)

// Process exit codes used by the rts command.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitUnavailable = 3
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// Is and As re-export the standard library helpers so callers importing this
// package under the name errors keep access to them.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrStoreLocked), errors.Is(err, ErrStoreCorrupt):
		return ExitUnavailable
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrBadQuery):
		return ExitUsage
	default:
		return ExitFailure
	}
}
