// Package errors provides coded errors for the signal engine and its collaborators.
//
// Codes are grouped by hundreds, see Category. Insufficient history is not a failure:
// indicators report it with InsufficientDataError and callers turn it into "no signal yet".
//
//	err := errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch klines", cause)
//	if errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed) { ... }
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Exit codes returned by the command line for coded errors.
const (
	ExitFailure    = 1
	ExitValidation = 2
	ExitCancelled  = 130
)

// Error carries a code, a message and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Cause: nil}
}

func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: nil}
}

// Wrap attaches code and message to cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error renders "[code] message: cause".
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// GetCode returns the code of the outermost *Error in the chain, or ErrCodeUnknown.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode reports whether the outermost *Error in the chain has code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsValidationError reports whether the error carries a validation code (100-199).
func IsValidationError(err error) bool {
	return err != nil && GetCode(err).Category() == CategoryValidation
}

// IsRetryable reports whether a later attempt may succeed: provider, data source and delivery failures.
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case ErrCodeMarketDataFetchFailed, ErrCodeDataSourceUnavailable, ErrCodeNotificationFailed:
		return true
	default:
		return false
	}
}

// ExitCode maps an error to a process exit status. A nil error exits 0.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled), HasCode(err, ErrCodeBacktestCancelled):
		return ExitCancelled
	case IsValidationError(err):
		return ExitValidation
	default:
		return ExitFailure
	}
}

// InsufficientDataError reports a sequence shorter than a calculation needs.
type InsufficientDataError struct {
	Required int
	Actual   int
	// Symbol is empty when the caller has no symbol context.
	Symbol  string
	Message string
}

func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError looks for an InsufficientDataError anywhere in the chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
