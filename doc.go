// Package syncprim implements the lowest-level concurrency primitives of the
// toolkit: an adaptive mutex with an optional recursive mode, atomic words
// that are backed either by hardware instructions or by a mutex-emulated
// fallback, and thread-local storage slots with deterministic per-owner
// cleanup.
//
// # Atomics
//
// [AtomicInt] and [AtomicPointer] expose Load, Store, CompareAndSwap,
// FetchAndStore and FetchAndAdd. The backend is chosen at build time: the
// default uses [sync/atomic], while the syncprim_emulated build tag routes
// every operation through one process-wide lock (see [EmulatedCompareAndSwap]
// and friends, which are always available). All operations are sequentially
// consistent for the single word they touch.
//
// # Mutexes
//
// [Mutex] is a futex-style lock. The uncontended path is a single
// compare-and-swap; contended callers spin briefly, then park on the lock
// word using a [Parker] ("wait while the word still equals X" / "wake one
// waiter"). On Linux the parker is the futex system call, elsewhere it is a
// hashed table of wait queues. A Mutex constructed with [NewMutex] in
// [Recursive] mode delegates to a [RecursiveMutex], which may be locked any
// number of times by the goroutine that owns it. The mode is fixed for the
// lifetime of the mutex.
//
// Timeouts are expressed as a [time.Duration]: negative waits forever, zero
// tries exactly once, and positive bounds the wait. A failed timed lock is a
// normal outcome, not an error, and the caller must not unlock.
//
// # Thread-local storage
//
// Go offers no hook for goroutine exit, so the "thread" that owns storage is
// an explicit [Thread] handle, used by one goroutine at a time. A
// [SlotRegistry] hands out small integer [Slot] identifiers, each carrying a
// [Destructor] that runs once per thread that stored a value, when that
// thread exits. [SlotRegistry.Go] starts a goroutine whose thread exits
// automatically, and [ThreadStorage] is a typed wrapper over one slot.
//
// # Misuse
//
// Unlocking a mutex that is not held, unlocking a recursive mutex from a
// goroutine that does not own it, and releasing a slot twice are caller bugs.
// They are reported as a [*MisuseError]: logged at critical level by default,
// or raised as a panic when built with the syncprim_debug tag.
package syncprim
