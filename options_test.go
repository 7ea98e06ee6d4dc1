package syncprim

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultMutexOptions(t *testing.T) {
	opts, err := resolveMutexOptions(nil)
	if err != nil {
		t.Fatalf("resolveMutexOptions(nil) failed: %v", err)
	}
	if opts.spin != defaultSpin {
		t.Errorf("Default spin should be %d, got %d", defaultSpin, opts.spin)
	}
	if opts.parker != nil {
		t.Error("Default parker should be nil (DefaultParker)")
	}
	if opts.contentionThreshold != 0 {
		t.Errorf("Contention warnings should be disabled by default, got %s", opts.contentionThreshold)
	}

	// the zero value Mutex shares the defaults
	var m Mutex
	if m.options() != &defaultMutexOptions {
		t.Error("Zero value Mutex should use defaultMutexOptions")
	}
}

func TestResolveMutexOptions_doesNotMutateDefaults(t *testing.T) {
	if _, err := resolveMutexOptions([]MutexOption{WithSpin(100), WithContentionWarning(time.Second)}); err != nil {
		t.Fatalf("resolveMutexOptions failed: %v", err)
	}
	if defaultMutexOptions.spin != defaultSpin || defaultMutexOptions.contentionThreshold != 0 {
		t.Errorf("defaultMutexOptions was mutated: %+v", defaultMutexOptions)
	}
}

func TestMutexOptions_lastWins(t *testing.T) {
	p := NewTableParker()
	opts, err := resolveMutexOptions([]MutexOption{
		WithSpin(1),
		WithParker(DefaultParker()),
		WithSpin(7),
		WithParker(p),
	})
	if err != nil {
		t.Fatalf("resolveMutexOptions failed: %v", err)
	}
	if opts.spin != 7 {
		t.Errorf("spin should be 7, got %d", opts.spin)
	}
	if opts.parker != p {
		t.Error("parker should be the last one given")
	}
}

func TestWithLogger_appliesToBoth(t *testing.T) {
	var buf syncBuffer
	logger := newTestLogger(&buf)
	opt := WithLogger(logger)

	mopts, err := resolveMutexOptions([]MutexOption{opt})
	if err != nil {
		t.Fatalf("resolveMutexOptions failed: %v", err)
	}
	if mopts.logger != logger {
		t.Error("WithLogger should set the mutex logger")
	}

	ropts, err := resolveRegistryOptions([]RegistryOption{opt})
	if err != nil {
		t.Fatalf("resolveRegistryOptions failed: %v", err)
	}
	if ropts.logger != logger {
		t.Error("WithLogger should set the registry logger")
	}
	if ropts.maxSlots != defaultMaxSlots {
		t.Errorf("Default maxSlots should be %d, got %d", defaultMaxSlots, ropts.maxSlots)
	}
}

func TestOptions_invalid(t *testing.T) {
	if _, err := resolveMutexOptions([]MutexOption{WithSpin(-5)}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("expected ErrInvalidOption, got %v", err)
	}
	if _, err := resolveRegistryOptions([]RegistryOption{WithMaxSlots(maxSlotLimit + 1)}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("expected ErrInvalidOption, got %v", err)
	}
	if _, err := resolveRegistryOptions([]RegistryOption{WithMaxSlots(maxSlotLimit)}); err != nil {
		t.Errorf("maxSlotLimit should be accepted, got %v", err)
	}
}
