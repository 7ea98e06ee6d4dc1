package syncprim

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// waitFree records which read-modify-write operations complete in a bounded
// number of steps on this CPU, i.e. are a single instruction rather than a
// load-linked/store-conditional retry loop.
var waitFree = detectWaitFree(runtime.GOARCH)

type waitFreeOps struct {
	compareAndSwap bool
	fetchAndStore  bool
	fetchAndAdd    bool
}

func detectWaitFree(goarch string) (ops waitFreeOps) {
	switch goarch {
	case `amd64`, `386`, `s390x`:
		ops = waitFreeOps{true, true, true}
	case `arm64`:
		// LSE (ARMv8.1) provides CAS, SWP and LDADD, otherwise LDXR/STXR loops
		lse := cpu.ARM64.HasATOMICS
		ops = waitFreeOps{lse, lse, lse}
	case `riscv64`:
		// AMOSWAP and AMOADD are single instructions, CAS is LR/SC
		ops = waitFreeOps{false, true, true}
	}
	return
}

// IsCompareAndSwapNative reports whether CompareAndSwap is implemented with
// hardware instructions, rather than emulated.
func IsCompareAndSwapNative() bool { return !emulatedAtomics }

// IsCompareAndSwapWaitFree reports whether CompareAndSwap completes without
// retrying, i.e. it is a single native instruction.
func IsCompareAndSwapWaitFree() bool { return !emulatedAtomics && waitFree.compareAndSwap }

// IsFetchAndStoreNative reports whether FetchAndStore is implemented with
// hardware instructions, rather than emulated.
func IsFetchAndStoreNative() bool { return !emulatedAtomics }

// IsFetchAndStoreWaitFree reports whether FetchAndStore completes without
// retrying.
func IsFetchAndStoreWaitFree() bool { return !emulatedAtomics && waitFree.fetchAndStore }

// IsFetchAndAddNative reports whether FetchAndAdd is implemented with hardware
// instructions, rather than emulated.
func IsFetchAndAddNative() bool { return !emulatedAtomics }

// IsFetchAndAddWaitFree reports whether FetchAndAdd completes without
// retrying.
func IsFetchAndAddWaitFree() bool { return !emulatedAtomics && waitFree.fetchAndAdd }

// IsReferenceCountingNative reports whether Ref and Deref are implemented
// with hardware instructions.
func IsReferenceCountingNative() bool { return IsFetchAndAddNative() }

// IsReferenceCountingWaitFree reports whether Ref and Deref complete without
// retrying.
func IsReferenceCountingWaitFree() bool { return IsFetchAndAddWaitFree() }
