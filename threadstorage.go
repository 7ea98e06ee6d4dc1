package syncprim

// ThreadStorage is a typed view of a single slot, holding one T per
// [Thread]. Values are cleaned up by the destructor given to
// NewThreadStorage, as each thread exits.
type ThreadStorage[T any] struct {
	registry *SlotRegistry
	slot     Slot
}

// NewThreadStorage allocates a slot in registry (DefaultSlotRegistry if nil),
// for values of type T. The destructor may be nil.
//
// Returns ErrSlotsExhausted if no slot is available.
func NewThreadStorage[T any](registry *SlotRegistry, destructor func(value T)) (*ThreadStorage[T], error) {
	if registry == nil {
		registry = DefaultSlotRegistry()
	}
	var d Destructor
	if destructor != nil {
		d = func(value any) {
			v, _ := value.(T) // nil, for a nil interface T
			destructor(v)
		}
	}
	slot, err := registry.Allocate(d)
	if err != nil {
		return nil, err
	}
	return &ThreadStorage[T]{registry: registry, slot: slot}, nil
}

// Slot returns the underlying slot.
func (s *ThreadStorage[T]) Slot() Slot {
	return s.slot
}

// Get returns the value of t, and whether one was set.
func (s *ThreadStorage[T]) Get(t *Thread) (value T, ok bool) {
	if !s.checkThread(`ThreadStorage.Get`, t) {
		return
	}
	v, ok := t.Get(s.slot)
	if ok {
		value, _ = v.(T)
	}
	return
}

// Set stores value for t, returning the previous value, if any. The
// previous value is not destroyed.
func (s *ThreadStorage[T]) Set(t *Thread, value T) (prev T, ok bool) {
	if !s.checkThread(`ThreadStorage.Set`, t) {
		return
	}
	v, ok := t.Set(s.slot, value)
	if ok {
		prev, _ = v.(T)
	}
	return
}

// Has reports whether t has a value.
func (s *ThreadStorage[T]) Has(t *Thread) bool {
	_, ok := s.Get(t)
	return ok
}

// Close releases the slot. See [SlotRegistry.Release] for the implications
// for values that threads still hold.
func (s *ThreadStorage[T]) Close() {
	s.registry.Release(s.slot)
}

func (s *ThreadStorage[T]) checkThread(op string, t *Thread) bool {
	if t.registry != s.registry {
		reportMisuse(s.registry.opts.logger, op, `thread belongs to another registry`)
		return false
	}
	return true
}
