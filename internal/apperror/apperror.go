package apperror

import "errors"

type Code string

const (
	Usage        Code = "USAGE"
	Config       Code = "CONFIG"
	InvalidRange Code = "INVALID_RANGE"
	Fetch        Code = "FETCH"
	Parse        Code = "PARSE"
	Internal     Code = "INTERNAL"
)

type AppError struct {
	code    Code
	message string
	err     error
}

func New(code Code, message string) *AppError {
	return &AppError{code: code, message: message}
}

// Wrap tags err with code. The message is err's message.
func Wrap(code Code, err error) *AppError {
	return &AppError{code: code, message: err.Error(), err: err}
}

func (e *AppError) Error() string   { return e.message }
func (e *AppError) Code() Code      { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Unwrap() error   { return e.err }

// ExitCode is the process status for the error.
func (e *AppError) ExitCode() int {
	switch e.code {
	case Usage:
		return 2
	case Config:
		return 3
	case InvalidRange:
		return 4
	case Fetch:
		return 5
	case Parse:
		return 6
	default:
		return 1
	}
}

// ExitCode returns the process status for err: 0 for nil, the AppError's
// code when err wraps one, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	return 1
}
