//go:build syncprim_emulated

package syncprim

import (
	"unsafe"
)

// emulatedAtomics is true: every AtomicInt and AtomicPointer operation is
// serialized through the process-wide emulation lock, see emulated.go.
const emulatedAtomics = true

func atomicLoad[T Word](p *T) T { return EmulatedLoad(p) }

func atomicStore[T Word](p *T, v T) { EmulatedStore(p, v) }

func atomicCompareAndSwap[T Word](p *T, expected, v T) bool {
	return EmulatedCompareAndSwap(p, expected, v)
}

func atomicFetchAndStore[T Word](p *T, v T) T { return EmulatedFetchAndStore(p, v) }

func atomicFetchAndAdd[T Word](p *T, delta T) T { return EmulatedFetchAndAdd(p, delta) }

func atomicLoadPointer(p *unsafe.Pointer) unsafe.Pointer { return EmulatedLoadPointer(p) }

func atomicStorePointer(p *unsafe.Pointer, v unsafe.Pointer) { EmulatedStorePointer(p, v) }

func atomicCompareAndSwapPointer(p *unsafe.Pointer, expected, v unsafe.Pointer) bool {
	return EmulatedCompareAndSwapPointer(p, expected, v)
}

func atomicFetchAndStorePointer(p *unsafe.Pointer, v unsafe.Pointer) unsafe.Pointer {
	return EmulatedFetchAndStorePointer(p, v)
}

func atomicFetchAndAddPointer(p *unsafe.Pointer, delta int) unsafe.Pointer {
	return EmulatedFetchAndAddPointer(p, delta)
}
