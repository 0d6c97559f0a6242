package protocol

import (
	"errors"
	"fmt"
)

const (
	// Lookup failures: chunk, config or river segment absent.
	ErrNotFound = "E_NOT_FOUND"

	// Request validation.
	ErrInvalidArgument = "E_INVALID_ARGUMENT"
	ErrPrecondition    = "E_PRECONDITION"

	// Persisted data could not be decoded.
	ErrCorruption = "E_CORRUPTION"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrNotFound:        {},
	ErrInvalidArgument: {},
	ErrPrecondition:    {},
	ErrCorruption:      {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// Error is the error type surfaced to callers of the terrain core.
type Error struct {
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an underlying cause. A nil cause yields nil.
func Wrap(code string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code carried by err, E_INTERNAL for foreign errors and
// "" for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrInternal
}
