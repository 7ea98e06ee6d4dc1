package syncprim

import (
	"errors"
)

// Standard errors.
var (
	// ErrInvalidMutexMode is returned by NewMutex for an unknown MutexMode.
	ErrInvalidMutexMode = errors.New("syncprim: invalid mutex mode")

	// ErrInvalidOption is returned by constructors given an invalid option.
	ErrInvalidOption = errors.New("syncprim: invalid option")

	// ErrSlotsExhausted is returned by SlotRegistry.Allocate when every
	// identifier, up to the registry's maximum, is live.
	ErrSlotsExhausted = errors.New("syncprim: thread storage slots exhausted")

	// ErrMisuse matches every *MisuseError, via errors.Is.
	ErrMisuse = errors.New("syncprim: misuse")
)

// MisuseError describes a contract violation by the caller, e.g. unlocking a
// mutex that is not held. It is never returned: it is either logged or, in
// builds with the syncprim_debug tag, used as a panic value.
type MisuseError struct {
	// Op is the operation that was misused, e.g. "Mutex.Unlock".
	Op string
	// Message describes the violation.
	Message string
}

// Error implements the error interface.
func (e *MisuseError) Error() string {
	return "syncprim: " + e.Op + ": " + e.Message
}

// Is allows matching any MisuseError against [ErrMisuse].
func (e *MisuseError) Is(target error) bool {
	return target == ErrMisuse
}
