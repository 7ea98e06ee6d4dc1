package syncprim

import (
	"sync/atomic"
	"unsafe"
)

type (
	// Word is the set of integer types that may be held by an [AtomicInt].
	// Each is a fixed-width machine word supported by every backend.
	Word interface {
		int32 | int64 | uint32 | uint64 | uintptr
	}

	// AtomicInt is an integer memory location that is only ever accessed
	// through atomic operations. The zero value holds 0.
	//
	// Whether the operations are performed by hardware instructions or by the
	// emulated (single lock) fallback is decided at build time, see
	// [EmulatedAtomicsEnabled]. An AtomicInt must not be copied after first
	// use.
	AtomicInt[T Word] struct {
		// 64-bit alignment on 32-bit platforms, also makes vet reject copies
		_ [0]atomic.Int64
		v T
	}

	// AtomicPointer is a pointer-sized memory location holding a *T, only
	// ever accessed through atomic operations. The zero value holds nil.
	// An AtomicPointer must not be copied after first use.
	AtomicPointer[T any] struct {
		// disallow conversion between AtomicPointer[T] of different T
		_ [0]*T
		_ noCopy
		v unsafe.Pointer
	}

	AtomicInt32   = AtomicInt[int32]
	AtomicInt64   = AtomicInt[int64]
	AtomicUint32  = AtomicInt[uint32]
	AtomicUint64  = AtomicInt[uint64]
	AtomicUintptr = AtomicInt[uintptr]

	// noCopy may be embedded into structs which must not be copied after the
	// first use, see https://golang.org/issues/8005#issuecomment-190753527
	noCopy struct{}
)

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// NewAtomicInt returns an AtomicInt holding the given initial value.
func NewAtomicInt[T Word](value T) *AtomicInt[T] {
	x := new(AtomicInt[T])
	x.v = value // not yet shared
	return x
}

// Load atomically loads the value.
func (x *AtomicInt[T]) Load() T { return atomicLoad(&x.v) }

// Store atomically stores value.
func (x *AtomicInt[T]) Store(value T) { atomicStore(&x.v, value) }

// CompareAndSwap stores newValue if the current value is expected, returning
// true if the swap happened.
func (x *AtomicInt[T]) CompareAndSwap(expected, newValue T) bool {
	return atomicCompareAndSwap(&x.v, expected, newValue)
}

// FetchAndStore stores newValue, returning the previous value.
func (x *AtomicInt[T]) FetchAndStore(newValue T) T {
	return atomicFetchAndStore(&x.v, newValue)
}

// FetchAndAdd adds delta (wrapping on overflow), returning the previous value.
// For unsigned types, subtract by adding the two's complement of the amount.
func (x *AtomicInt[T]) FetchAndAdd(delta T) T {
	return atomicFetchAndAdd(&x.v, delta)
}

// Ref increments the value, as a reference count, returning true if the new
// value is non-zero.
func (x *AtomicInt[T]) Ref() bool {
	return atomicFetchAndAdd(&x.v, 1) != ^T(0)
}

// Deref decrements the value, as a reference count, returning true if the new
// value is non-zero. Typically, false means the last reference was dropped.
func (x *AtomicInt[T]) Deref() bool {
	return atomicFetchAndAdd(&x.v, ^T(0)) != 1
}

// NewAtomicPointer returns an AtomicPointer holding the given initial value.
func NewAtomicPointer[T any](value *T) *AtomicPointer[T] {
	x := new(AtomicPointer[T])
	x.v = unsafe.Pointer(value) // not yet shared
	return x
}

// Load atomically loads the pointer.
func (x *AtomicPointer[T]) Load() *T { return (*T)(atomicLoadPointer(&x.v)) }

// Store atomically stores value.
func (x *AtomicPointer[T]) Store(value *T) { atomicStorePointer(&x.v, unsafe.Pointer(value)) }

// CompareAndSwap stores newValue if the current pointer is expected,
// returning true if the swap happened.
func (x *AtomicPointer[T]) CompareAndSwap(expected, newValue *T) bool {
	return atomicCompareAndSwapPointer(&x.v, unsafe.Pointer(expected), unsafe.Pointer(newValue))
}

// FetchAndStore stores newValue, returning the previous pointer.
func (x *AtomicPointer[T]) FetchAndStore(newValue *T) *T {
	return (*T)(atomicFetchAndStorePointer(&x.v, unsafe.Pointer(newValue)))
}

// FetchAndAdd advances the pointer by delta elements of T (i.e. delta *
// sizeof(T) bytes), returning the previous pointer.
//
// The usual [unsafe.Add] rules apply: both the old and the new pointer must
// point into the same allocated object, e.g. elements of one array, and a
// nil pointer must not be advanced.
func (x *AtomicPointer[T]) FetchAndAdd(delta int) *T {
	var zero T
	return (*T)(atomicFetchAndAddPointer(&x.v, delta*int(unsafe.Sizeof(zero))))
}
