package syncprim

import (
	"sync"
	"time"

	"github.com/joeycumines/go-syncprim/internal/goroutineid"
)

// RecursiveMutex is a mutex that may be acquired any number of times by the
// goroutine that holds it, and is released by the matching number of
// unlocks. Contending goroutines block on an inner (non-recursive) Mutex.
//
// Ownership is by goroutine: a RecursiveMutex must be unlocked by the
// goroutine that locked it. Identifying the calling goroutine is not free, so
// prefer a NonRecursive Mutex where re-entry is not needed.
//
// The zero value is an unlocked RecursiveMutex, with default options. A
// RecursiveMutex must not be copied after first use.
type RecursiveMutex struct {
	// owner is the id of the holding goroutine, or 0 (never a goroutine id)
	owner AtomicInt64
	// count is accessed only by the owner
	count int
	mu    Mutex
}

var _ sync.Locker = (*RecursiveMutex)(nil)

// NewRecursiveMutex creates a new RecursiveMutex. It is equivalent to
// NewMutex(Recursive, opts...), without the Mutex wrapper.
func NewRecursiveMutex(opts ...MutexOption) (*RecursiveMutex, error) {
	cfg, err := resolveMutexOptions(opts)
	if err != nil {
		return nil, err
	}
	cfg.mode = Recursive
	return &RecursiveMutex{mu: Mutex{opts: cfg}}, nil
}

// TryLock acquires the mutex if it is available, or already held by the
// calling goroutine, returning true if it did. It never blocks.
func (r *RecursiveMutex) TryLock() bool {
	return r.LockTimeout(0)
}

// Lock acquires the mutex, blocking until it is available, unless it is
// already held by the calling goroutine.
func (r *RecursiveMutex) Lock() {
	r.LockTimeout(-1)
}

// LockTimeout acquires the mutex, blocking for at most timeout, returning
// true if it was acquired. Re-acquisition by the owner always succeeds,
// without blocking. See [Mutex.LockTimeout] for the timeout semantics.
func (r *RecursiveMutex) LockTimeout(timeout time.Duration) bool {
	self := goroutineid.Current()
	if r.owner.Load() == self {
		r.count++
		return true
	}
	if !r.mu.LockTimeout(timeout) {
		return false
	}
	r.owner.Store(self)
	r.count = 1
	return true
}

// Unlock releases one level of ownership. The mutex becomes available to
// other goroutines once every Lock has been matched. Unlocking from any
// goroutine except the owner is misuse, see [MisuseError].
func (r *RecursiveMutex) Unlock() {
	if r.owner.Load() != goroutineid.Current() {
		reportMisuse(r.mu.options().logger, `RecursiveMutex.Unlock`, `unlock by non-owner goroutine`)
		return
	}
	r.count--
	if r.count > 0 {
		return
	}
	r.owner.Store(0)
	r.mu.Unlock()
}

// Depth returns the number of unmatched locks held by the calling goroutine,
// which is 0 unless it is the owner.
func (r *RecursiveMutex) Depth() int {
	if r.owner.Load() != goroutineid.Current() {
		return 0
	}
	return r.count
}
