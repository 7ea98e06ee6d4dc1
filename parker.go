package syncprim

import (
	"time"
)

type (
	// Parker is the OS-assisted wait/wake primitive that a Mutex blocks on,
	// when spinning fails. It is "futex-style": a waiter sleeps only while a
	// 32-bit word still holds an expected value, and a waker wakes (at most)
	// one of the goroutines sleeping on that word.
	//
	// Implementations must not lose wake-ups: if WakeOne is called after the
	// word was changed, any waiter that observed the old value must be
	// woken (or must not have slept). Spurious returns are permitted, callers
	// re-validate the word after every return.
	Parker interface {
		// WaitWhileEquals blocks the calling goroutine while word holds
		// expected, until woken, or until timeout elapses. A negative timeout
		// waits forever.
		WaitWhileEquals(word *AtomicUint32, expected uint32, timeout time.Duration) WakeReason

		// WakeOne wakes at most one goroutine blocked in WaitWhileEquals on
		// word.
		WakeOne(word *AtomicUint32)
	}

	// WakeReason indicates why Parker.WaitWhileEquals returned.
	WakeReason int
)

const (
	// WakeSignaled indicates the waiter was woken, possibly spuriously.
	WakeSignaled WakeReason = iota
	// WakeValueMismatch indicates the word did not hold the expected value,
	// so the waiter never slept.
	WakeValueMismatch
	// WakeTimeout indicates the timeout elapsed, without a wake-up.
	WakeTimeout
	// WakeInterrupted indicates the wait was interrupted, e.g. by a signal.
	WakeInterrupted
)

// String returns a human-readable representation of the reason.
func (r WakeReason) String() string {
	switch r {
	case WakeSignaled:
		return "Signaled"
	case WakeValueMismatch:
		return "ValueMismatch"
	case WakeTimeout:
		return "Timeout"
	case WakeInterrupted:
		return "Interrupted"
	default:
		return "Unknown"
	}
}

// DefaultParker returns the Parker used by a Mutex that was not configured
// using WithParker. On Linux it is the futex system call, on other platforms
// it is a shared [NewTableParker] instance.
func DefaultParker() Parker {
	return defaultParker
}
