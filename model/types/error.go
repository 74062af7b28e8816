package types

import (
	"errors"
	"fmt"
)

// Recoverable, caller-facing errors. Syscalls surface them as the FAILURE
// sentinel in the return slot.
var (
	ErrNotFound          = errors.New("process not found")
	ErrExhausted         = errors.New("process arena exhausted")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrAlreadyRegistered = errors.New("handler already registered")
)

// ErrFatal marks a violated kernel invariant. Shared state is assumed to be
// corrupted, the runtime halts on the first error wrapping it.
var ErrFatal = errors.New("kernel panic")

// ErrHalted is returned by every entry point once the runtime has halted.
var ErrHalted = errors.New("kernel halted")

// Fatalf returns an error wrapping ErrFatal.
func Fatalf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrFatal, fmt.Sprintf(format, args...))
}

// IsFatal reports whether err belongs to the fatal tier.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

func NewInvalidArgumentError(name string, value interface{}) error {
	return fmt.Errorf("%w: %v=%v", ErrInvalidArgument, name, value)
}
