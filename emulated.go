package syncprim

import (
	"sync"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// emulated is the single lock behind every emulated atomic operation, in the
// process. It is padded to its own cache line.
//
// This must be an ordinary lock: the Mutex type of this package is itself
// built on AtomicInt, which may be emulated.
var emulated struct { // betteralign:ignore
	_  [sizeOfCacheLine]byte //nolint:unused
	mu sync.Mutex
	_  [sizeOfCacheLine - unsafe.Sizeof(sync.Mutex{})]byte //nolint:unused
}

// EmulatedAtomicsEnabled reports whether [AtomicInt] and [AtomicPointer] were
// built to use the emulated backend (the syncprim_emulated build tag).
func EmulatedAtomicsEnabled() bool { return emulatedAtomics }

// EmulatedLoad reads *addr while holding the emulation lock.
//
// The Emulated functions are atomic only with respect to each other: every
// reader and writer of the word must go through them. Mixing emulated and
// hardware access to the same word is unsupported, and is not detected.
func EmulatedLoad[T constraints.Integer](addr *T) T {
	emulated.mu.Lock()
	v := *addr
	emulated.mu.Unlock()
	return v
}

// EmulatedStore writes *addr while holding the emulation lock.
func EmulatedStore[T constraints.Integer](addr *T, value T) {
	emulated.mu.Lock()
	*addr = value
	emulated.mu.Unlock()
}

// EmulatedCompareAndSwap stores newValue to *addr if it currently holds
// expected, returning true if it did.
func EmulatedCompareAndSwap[T constraints.Integer](addr *T, expected, newValue T) (swapped bool) {
	emulated.mu.Lock()
	if *addr == expected {
		*addr = newValue
		swapped = true
	}
	emulated.mu.Unlock()
	return
}

// EmulatedFetchAndStore stores newValue to *addr, returning the prior value.
func EmulatedFetchAndStore[T constraints.Integer](addr *T, newValue T) (old T) {
	emulated.mu.Lock()
	old = *addr
	*addr = newValue
	emulated.mu.Unlock()
	return
}

// EmulatedFetchAndAdd adds delta to *addr (wrapping on overflow), returning
// the prior value.
func EmulatedFetchAndAdd[T constraints.Integer](addr *T, delta T) (old T) {
	emulated.mu.Lock()
	old = *addr
	*addr = old + delta
	emulated.mu.Unlock()
	return
}

// EmulatedLoadPointer is the pointer equivalent of [EmulatedLoad].
func EmulatedLoadPointer(addr *unsafe.Pointer) unsafe.Pointer {
	emulated.mu.Lock()
	v := *addr
	emulated.mu.Unlock()
	return v
}

// EmulatedStorePointer is the pointer equivalent of [EmulatedStore].
func EmulatedStorePointer(addr *unsafe.Pointer, value unsafe.Pointer) {
	emulated.mu.Lock()
	*addr = value
	emulated.mu.Unlock()
}

// EmulatedCompareAndSwapPointer is the pointer equivalent of
// [EmulatedCompareAndSwap].
func EmulatedCompareAndSwapPointer(addr *unsafe.Pointer, expected, newValue unsafe.Pointer) (swapped bool) {
	emulated.mu.Lock()
	if *addr == expected {
		*addr = newValue
		swapped = true
	}
	emulated.mu.Unlock()
	return
}

// EmulatedFetchAndStorePointer is the pointer equivalent of
// [EmulatedFetchAndStore].
func EmulatedFetchAndStorePointer(addr *unsafe.Pointer, newValue unsafe.Pointer) (old unsafe.Pointer) {
	emulated.mu.Lock()
	old = *addr
	*addr = newValue
	emulated.mu.Unlock()
	return
}

// EmulatedFetchAndAddPointer advances *addr by delta bytes, returning the
// prior pointer. The [unsafe.Add] rules apply to the result.
func EmulatedFetchAndAddPointer(addr *unsafe.Pointer, delta int) (old unsafe.Pointer) {
	emulated.mu.Lock()
	old = *addr
	*addr = unsafe.Add(old, delta)
	emulated.mu.Unlock()
	return
}
