package syncprim

import (
	"context"
	"math"
	"sync"
)

const (
	// defaultMaxSlots is the default maximum number of live slots, per
	// registry.
	defaultMaxSlots = 1024

	// maxSlotLimit bounds WithMaxSlots, as slot metadata is preallocated.
	maxSlotLimit = 1 << 16

	// destructorIterations is the number of destructor rounds run by
	// Thread.Exit, while destructors keep storing new values.
	destructorIterations = 4
)

type (
	// Destructor cleans up a value stored in a slot, when the thread that
	// stored it exits. It is called with no internal lock held, so it may use
	// the registry and the exiting thread.
	Destructor func(value any)

	// Slot identifies one storage location in every [Thread] of a
	// [SlotRegistry]. It is a small integer, unique among the live slots of
	// its registry, plus a generation that detects use after Release. The
	// zero value is never live.
	Slot struct {
		id  int32
		gen uint64 // odd while live
	}

	// SlotRegistry allocates slots, and records their destructors. The
	// registry is locked only to allocate and release slots, and while a
	// thread exits. Reading and writing a thread's values is lock-free.
	SlotRegistry struct {
		mu   Mutex
		opts *registryOptions
		// meta has a fixed length of opts.maxSlots, indexed by Slot.id
		meta []slotMeta
		free []int32
		next int32
	}

	slotMeta struct {
		// gen is incremented on both Allocate and Release, and never wraps:
		// an identifier whose generation is exhausted is retired instead
		gen AtomicUint64
		// destructor is guarded by the registry lock
		destructor Destructor
	}

	// Thread is the owner of a set of slot values, standing in for an OS
	// thread's local storage. It must be used by one goroutine at a time,
	// and ends with Exit, which runs the destructors of its values.
	Thread struct {
		registry *SlotRegistry
		values   []threadValue
		exited   bool
	}

	threadValue struct {
		value any
		gen   uint64 // generation of the slot it was set for, 0 if unset
	}

	threadContextKey struct{}

	pendingDestructor struct {
		destructor Destructor
		value      any
		slot       Slot
	}
)

var defaultSlotRegistry = sync.OnceValue(func() *SlotRegistry {
	r, err := NewSlotRegistry()
	if err != nil {
		panic(err)
	}
	return r
})

// DefaultSlotRegistry returns the process-wide registry, creating it on first
// use.
func DefaultSlotRegistry() *SlotRegistry {
	return defaultSlotRegistry()
}

// NewSlotRegistry creates a new SlotRegistry.
//
// Returns an error wrapping ErrInvalidOption, if any option is invalid.
func NewSlotRegistry(opts ...RegistryOption) (*SlotRegistry, error) {
	cfg, err := resolveRegistryOptions(opts)
	if err != nil {
		return nil, err
	}
	mutexCfg := defaultMutexOptions
	mutexCfg.logger = cfg.logger
	return &SlotRegistry{
		mu:   Mutex{opts: &mutexCfg},
		opts: cfg,
		meta: make([]slotMeta, cfg.maxSlots),
	}, nil
}

// Allocate reserves a slot, recording destructor (which may be nil) to clean
// up each thread's value. Identifiers of released slots are reused, with a
// new generation.
//
// Returns ErrSlotsExhausted if the registry's maximum number of live slots
// has been reached.
func (r *SlotRegistry) Allocate(destructor Destructor) (Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id int32
	if n := len(r.free); n > 0 {
		id = r.free[n-1]
		r.free = r.free[:n-1]
	} else if int(r.next) < len(r.meta) {
		id = r.next
		r.next++
	} else {
		return Slot{}, ErrSlotsExhausted
	}

	m := &r.meta[id]
	m.destructor = destructor
	gen := m.gen.Load() + 1
	m.gen.Store(gen)

	return Slot{id: id, gen: gen}, nil
}

// Release retires slot. It is immediately invalid for Get and Set. Values
// that threads already stored for it are not cleaned up: their destructors
// are skipped when those threads exit. Release a slot only once no thread
// holds a value for it.
//
// Releasing a slot that is not live is misuse, see [MisuseError].
func (r *SlotRegistry) Release(slot Slot) {
	r.mu.Lock()
	if !r.live(slot) {
		r.mu.Unlock()
		reportMisuse(r.opts.logger, `SlotRegistry.Release`, `slot is not live`)
		return
	}
	m := &r.meta[slot.id]
	m.destructor = nil
	if slot.gen == math.MaxUint64 {
		// the next generation would wrap to one already handed out
		m.gen.Store(0)
		r.mu.Unlock()
		logRetiredSlot(r.opts.logger, slot)
		return
	}
	m.gen.Store(slot.gen + 1)
	r.free = append(r.free, slot.id)
	r.mu.Unlock()
}

// Live reports whether slot was allocated by Allocate, and not yet released.
func (r *SlotRegistry) Live(slot Slot) bool {
	return r.live(slot)
}

func (r *SlotRegistry) live(slot Slot) bool {
	return slot.gen&1 == 1 &&
		slot.id >= 0 &&
		int(slot.id) < len(r.meta) &&
		r.meta[slot.id].gen.Load() == slot.gen
}

// NewThread creates a new Thread, for storing values in the slots of the
// registry. The caller must call Exit when the thread is done.
func (r *SlotRegistry) NewThread() *Thread {
	return &Thread{registry: r}
}

// Go runs fn on a new goroutine, with a new Thread that exits when fn
// returns or panics.
func (r *SlotRegistry) Go(fn func(t *Thread)) {
	t := r.NewThread()
	go func() {
		defer t.Exit()
		fn(t)
	}()
}

// NewThread creates a new Thread in the DefaultSlotRegistry.
func NewThread() *Thread {
	return DefaultSlotRegistry().NewThread()
}

// Registry returns the registry the thread stores values for.
func (t *Thread) Registry() *SlotRegistry {
	return t.registry
}

// Get returns the thread's value for slot, and whether one was set.
//
// Using a slot that is not live, or a thread that has exited, is misuse, see
// [MisuseError].
func (t *Thread) Get(slot Slot) (any, bool) {
	if !t.check(`Thread.Get`, slot) {
		return nil, false
	}
	if int(slot.id) >= len(t.values) {
		return nil, false
	}
	v := &t.values[slot.id]
	if v.gen != slot.gen {
		return nil, false
	}
	return v.value, true
}

// Set stores value as the thread's value for slot, returning the previous
// value, if any. The previous value's destructor is not called: ownership
// passes back to the caller.
//
// Using a slot that is not live, or a thread that has exited, is misuse, see
// [MisuseError].
func (t *Thread) Set(slot Slot, value any) (prev any, ok bool) {
	if !t.check(`Thread.Set`, slot) {
		return nil, false
	}
	if n := int(slot.id) + 1; n > len(t.values) {
		if n <= cap(t.values) {
			t.values = t.values[:n]
		} else {
			values := make([]threadValue, n, max(n, 2*cap(t.values)))
			copy(values, t.values)
			t.values = values
		}
	}
	v := &t.values[slot.id]
	if v.gen == slot.gen {
		prev, ok = v.value, true
	} else if v.gen != 0 {
		// left over from a released slot, that reused the same identifier
		logSkippedDestructor(t.registry.opts.logger, Slot{id: slot.id, gen: v.gen})
	}
	v.value, v.gen = value, slot.gen
	return
}

// Unset removes the thread's value for slot, returning it, if any. The
// destructor is not called.
func (t *Thread) Unset(slot Slot) (prev any, ok bool) {
	if !t.check(`Thread.Unset`, slot) {
		return nil, false
	}
	if int(slot.id) >= len(t.values) {
		return nil, false
	}
	v := &t.values[slot.id]
	if v.gen == slot.gen {
		prev, ok = v.value, true
	}
	*v = threadValue{}
	return
}

// Exit ends the thread, calling the destructor of every slot the thread
// holds a value for. Values of released slots are skipped. Destructors may
// store new values in the exiting thread, in which case another round runs,
// up to a fixed number of rounds, after which remaining values are dropped.
//
// A panicking destructor is recovered and logged. Calling Exit twice is
// misuse, see [MisuseError].
func (t *Thread) Exit() {
	if t.exited {
		reportMisuse(t.registry.opts.logger, `Thread.Exit`, `thread already exited`)
		return
	}

	for range destructorIterations {
		pending := t.registry.collect(t)
		if len(pending) == 0 {
			break
		}
		for _, p := range pending {
			t.registry.runDestructor(p)
		}
	}

	var remaining int
	for _, v := range t.values {
		if v.gen != 0 {
			remaining++
		}
	}
	if remaining != 0 {
		logUnreclaimed(t.registry.opts.logger, remaining)
	}

	t.values = nil
	t.exited = true
}

// Exited reports whether Exit has been called.
func (t *Thread) Exited() bool {
	return t.exited
}

func (t *Thread) check(op string, slot Slot) bool {
	if t.exited {
		reportMisuse(t.registry.opts.logger, op, `thread has exited`)
		return false
	}
	if !t.registry.live(slot) {
		reportMisuse(t.registry.opts.logger, op, `slot is not live`)
		return false
	}
	return true
}

// collect clears every value of t, returning those that have a destructor
// to run. Skipped values are logged after the lock is released.
func (r *SlotRegistry) collect(t *Thread) (pending []pendingDestructor) {
	var skipped []Slot

	r.mu.Lock()
	for i := range t.values {
		v := &t.values[i]
		if v.gen == 0 {
			continue
		}
		slot := Slot{id: int32(i), gen: v.gen}
		if !r.live(slot) {
			skipped = append(skipped, slot)
		} else if d := r.meta[i].destructor; d != nil {
			pending = append(pending, pendingDestructor{destructor: d, value: v.value, slot: slot})
		}
		*v = threadValue{}
	}
	r.mu.Unlock()

	for _, slot := range skipped {
		logSkippedDestructor(r.opts.logger, slot)
	}
	return
}

func (r *SlotRegistry) runDestructor(p pendingDestructor) {
	defer func() {
		if v := recover(); v != nil {
			logDestructorPanic(r.opts.logger, p.slot, v)
		}
	}()
	p.destructor(p.value)
}

// ContextWithThread returns a copy of ctx that carries t.
func ContextWithThread(ctx context.Context, t *Thread) context.Context {
	return context.WithValue(ctx, threadContextKey{}, t)
}

// ThreadFromContext returns the Thread carried by ctx, or nil.
func ThreadFromContext(ctx context.Context) *Thread {
	t, _ := ctx.Value(threadContextKey{}).(*Thread)
	return t
}
