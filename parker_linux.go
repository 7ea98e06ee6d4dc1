//go:build linux

package syncprim

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// futex(2) operations, see linux/futex.h.
const (
	futexWait        = 0
	futexWake        = 1
	futexPrivateFlag = 128
)

var defaultParker Parker = futexParker{}

// futexParker parks on the futex system call. Lock words are never shared
// between processes, so the private variants are used.
type futexParker struct{}

func (futexParker) WaitWhileEquals(word *AtomicUint32, expected uint32, timeout time.Duration) WakeReason {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(&word.v)),
		futexWait|futexPrivateFlag,
		uintptr(expected),
		uintptr(unsafe.Pointer(ts)),
		0,
		0,
	)
	switch errno {
	case 0:
		return WakeSignaled
	case unix.EAGAIN:
		return WakeValueMismatch
	case unix.ETIMEDOUT:
		return WakeTimeout
	default:
		// EINTR, or anything unexpected: the caller re-validates
		return WakeInterrupted
	}
}

func (futexParker) WakeOne(word *AtomicUint32) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(&word.v)),
		futexWake|futexPrivateFlag,
		1,
		0,
		0,
		0,
	)
}
