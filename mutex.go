package syncprim

import (
	"runtime"
	"sync"
	"time"
)

// Mutex state word values. The state is a single 32-bit word, as the futex
// system call requires.
const (
	mutexUnlocked  uint32 = 0
	mutexLocked    uint32 = 1 // locked, no waiters
	mutexRecursive uint32 = 2 // permanent, the lock state lives in Mutex.recursive
	mutexContended uint32 = 3 // locked, and there may be waiters
)

// MutexMode selects whether a Mutex may be re-acquired by its owner. It is
// fixed at construction.
type MutexMode int

const (
	// NonRecursive is an ordinary mutex. Re-acquiring it from the goroutine
	// that holds it deadlocks, exactly like [sync.Mutex].
	NonRecursive MutexMode = iota
	// Recursive allows the owning goroutine to acquire the mutex any number
	// of times. It is released after the matching number of unlocks.
	Recursive
)

// String returns a human-readable representation of the mode.
func (m MutexMode) String() string {
	switch m {
	case NonRecursive:
		return "NonRecursive"
	case Recursive:
		return "Recursive"
	default:
		return "Unknown"
	}
}

// Mutex is an adaptive mutual exclusion lock. Uncontended Lock and Unlock are
// each a single compare-and-swap. A contended Lock briefly spins, then parks
// on the state word using a [Parker], with an optional timeout.
//
// The zero value is an unlocked NonRecursive Mutex, with default options. Use
// NewMutex for a Recursive Mutex, or to configure options. A Mutex must not
// be copied after first use.
//
// Unlike [sync.Mutex], a Mutex may be unlocked by a goroutine other than the
// one that locked it, unless it is Recursive.
type Mutex struct {
	state     AtomicUint32
	recursive *RecursiveMutex // immutable, non-nil iff state is mutexRecursive
	opts      *mutexOptions   // immutable, nil for the zero value
}

var _ sync.Locker = (*Mutex)(nil)

// NewMutex creates a new Mutex, in the given mode.
//
// Returns ErrInvalidMutexMode if mode is unknown, or an error wrapping
// ErrInvalidOption, if any option is invalid.
func NewMutex(mode MutexMode, opts ...MutexOption) (*Mutex, error) {
	if mode != NonRecursive && mode != Recursive {
		return nil, ErrInvalidMutexMode
	}

	cfg, err := resolveMutexOptions(opts)
	if err != nil {
		return nil, err
	}
	cfg.mode = mode

	m := &Mutex{opts: cfg}
	if mode == Recursive {
		m.recursive = &RecursiveMutex{mu: Mutex{opts: cfg}}
		m.state.Store(mutexRecursive)
	}
	return m, nil
}

// IsRecursive reports whether the mutex was created in Recursive mode.
func (m *Mutex) IsRecursive() bool {
	return m.recursive != nil
}

// TryLock acquires the mutex if it is immediately available, returning true
// if it did. It never blocks.
func (m *Mutex) TryLock() bool {
	if m.state.CompareAndSwap(mutexUnlocked, mutexLocked) {
		return true
	}
	if m.recursive != nil {
		return m.recursive.TryLock()
	}
	return false
}

// Lock acquires the mutex, blocking until it is available.
func (m *Mutex) Lock() {
	if m.state.CompareAndSwap(mutexUnlocked, mutexLocked) {
		return
	}
	m.lockSlow(-1)
}

// LockTimeout acquires the mutex, blocking for at most timeout, returning
// true if it was acquired. A negative timeout blocks until the mutex is
// available (like Lock), and a zero timeout never blocks (like TryLock).
//
// If false is returned the mutex is not held, and must not be unlocked.
func (m *Mutex) LockTimeout(timeout time.Duration) bool {
	if m.state.CompareAndSwap(mutexUnlocked, mutexLocked) {
		return true
	}
	return m.lockSlow(timeout)
}

func (m *Mutex) lockSlow(timeout time.Duration) bool {
	if m.recursive != nil {
		return m.recursive.LockTimeout(timeout)
	}

	if timeout == 0 {
		return false
	}

	opts := m.options()

	start := time.Now()
	var deadline time.Time
	if timeout > 0 {
		deadline = start.Add(timeout)
	}

	if opts.spin > 0 && runtime.GOMAXPROCS(0) > 1 {
		for i := 0; i < opts.spin; i++ {
			runtime.Gosched()
			if m.state.CompareAndSwap(mutexUnlocked, mutexLocked) {
				return true
			}
		}
	}

	parker := opts.parker
	if parker == nil {
		parker = defaultParker
	}

	var parked bool
	for {
		remaining := time.Duration(-1)
		if timeout > 0 {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				if !parked {
					return false
				}
				// the last wait may have consumed the wake-up of an unlock,
				// so the contended mark must be restored before giving up
				if m.state.FetchAndStore(mutexContended) != mutexUnlocked {
					return false
				}
				break
			}
		}

		// marking the word contended is also the acquisition attempt: if it
		// was unlocked, we now hold it (conservatively, as contended)
		if m.state.FetchAndStore(mutexContended) == mutexUnlocked {
			break
		}

		// the reason is irrelevant: the word and the deadline are re-checked
		_ = parker.WaitWhileEquals(&m.state, mutexContended, remaining)
		parked = true
	}

	if opts.contentionThreshold > 0 {
		if waited := time.Since(start); waited >= opts.contentionThreshold {
			logContention(opts.logger, m, waited, opts.mode == Recursive)
		}
	}

	return true
}

// Unlock releases the mutex. Unlocking a mutex that is not locked is misuse,
// see [MisuseError].
func (m *Mutex) Unlock() {
	if m.state.CompareAndSwap(mutexLocked, mutexUnlocked) {
		return
	}
	m.unlockSlow()
}

func (m *Mutex) unlockSlow() {
	switch m.state.Load() {
	case mutexRecursive:
		m.recursive.Unlock()
		return
	case mutexUnlocked:
		reportMisuse(m.options().logger, `Mutex.Unlock`, `unlock of unlocked mutex`)
		return
	}

	switch m.state.FetchAndStore(mutexUnlocked) {
	case mutexContended:
		opts := m.options()
		if opts.parker != nil {
			opts.parker.WakeOne(&m.state)
		} else {
			defaultParker.WakeOne(&m.state)
		}
	case mutexUnlocked:
		// raced with another (erroneous) Unlock
		reportMisuse(m.options().logger, `Mutex.Unlock`, `unlock of unlocked mutex`)
	}
}

func (m *Mutex) options() *mutexOptions {
	if m.opts != nil {
		return m.opts
	}
	return &defaultMutexOptions
}
