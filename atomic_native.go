//go:build !syncprim_emulated

package syncprim

import (
	"sync/atomic"
	"unsafe"
)

// emulatedAtomics is false: AtomicInt and AtomicPointer use hardware
// instructions, via sync/atomic.
const emulatedAtomics = false

// The type switches below are resolved per instantiation, as T is always
// exactly one of the Word types.

func atomicLoad[T Word](p *T) T {
	switch p := any(p).(type) {
	case *int32:
		return T(atomic.LoadInt32(p))
	case *int64:
		return T(atomic.LoadInt64(p))
	case *uint32:
		return T(atomic.LoadUint32(p))
	case *uint64:
		return T(atomic.LoadUint64(p))
	case *uintptr:
		return T(atomic.LoadUintptr(p))
	}
	panic(`syncprim: unreachable`)
}

func atomicStore[T Word](p *T, v T) {
	switch p := any(p).(type) {
	case *int32:
		atomic.StoreInt32(p, int32(v))
	case *int64:
		atomic.StoreInt64(p, int64(v))
	case *uint32:
		atomic.StoreUint32(p, uint32(v))
	case *uint64:
		atomic.StoreUint64(p, uint64(v))
	case *uintptr:
		atomic.StoreUintptr(p, uintptr(v))
	default:
		panic(`syncprim: unreachable`)
	}
}

func atomicCompareAndSwap[T Word](p *T, expected, v T) bool {
	switch p := any(p).(type) {
	case *int32:
		return atomic.CompareAndSwapInt32(p, int32(expected), int32(v))
	case *int64:
		return atomic.CompareAndSwapInt64(p, int64(expected), int64(v))
	case *uint32:
		return atomic.CompareAndSwapUint32(p, uint32(expected), uint32(v))
	case *uint64:
		return atomic.CompareAndSwapUint64(p, uint64(expected), uint64(v))
	case *uintptr:
		return atomic.CompareAndSwapUintptr(p, uintptr(expected), uintptr(v))
	}
	panic(`syncprim: unreachable`)
}

func atomicFetchAndStore[T Word](p *T, v T) T {
	switch p := any(p).(type) {
	case *int32:
		return T(atomic.SwapInt32(p, int32(v)))
	case *int64:
		return T(atomic.SwapInt64(p, int64(v)))
	case *uint32:
		return T(atomic.SwapUint32(p, uint32(v)))
	case *uint64:
		return T(atomic.SwapUint64(p, uint64(v)))
	case *uintptr:
		return T(atomic.SwapUintptr(p, uintptr(v)))
	}
	panic(`syncprim: unreachable`)
}

// atomicFetchAndAdd returns the old value, unlike sync/atomic's Add.
func atomicFetchAndAdd[T Word](p *T, delta T) T {
	return atomicAddNew(p, delta) - delta
}

func atomicAddNew[T Word](p *T, delta T) T {
	switch p := any(p).(type) {
	case *int32:
		return T(atomic.AddInt32(p, int32(delta)))
	case *int64:
		return T(atomic.AddInt64(p, int64(delta)))
	case *uint32:
		return T(atomic.AddUint32(p, uint32(delta)))
	case *uint64:
		return T(atomic.AddUint64(p, uint64(delta)))
	case *uintptr:
		return T(atomic.AddUintptr(p, uintptr(delta)))
	}
	panic(`syncprim: unreachable`)
}

func atomicLoadPointer(p *unsafe.Pointer) unsafe.Pointer {
	return atomic.LoadPointer(p)
}

func atomicStorePointer(p *unsafe.Pointer, v unsafe.Pointer) {
	atomic.StorePointer(p, v)
}

func atomicCompareAndSwapPointer(p *unsafe.Pointer, expected, v unsafe.Pointer) bool {
	return atomic.CompareAndSwapPointer(p, expected, v)
}

func atomicFetchAndStorePointer(p *unsafe.Pointer, v unsafe.Pointer) unsafe.Pointer {
	return atomic.SwapPointer(p, v)
}

// atomicFetchAndAddPointer has no single instruction equivalent, it is a CAS
// loop.
func atomicFetchAndAddPointer(p *unsafe.Pointer, delta int) unsafe.Pointer {
	for {
		old := atomic.LoadPointer(p)
		if atomic.CompareAndSwapPointer(p, old, unsafe.Add(old, delta)) {
			return old
		}
	}
}
