package syncprim

import (
	"fmt"
	"time"

	"github.com/joeycumines/logiface"
)

// defaultSpin is the number of times a contended Lock yields the processor,
// and retries, before parking.
const defaultSpin = 4

// mutexOptions holds configuration options for Mutex creation.
type mutexOptions struct {
	parker              Parker
	logger              *logiface.Logger[logiface.Event]
	spin                int
	contentionThreshold time.Duration
	mode                MutexMode // set by the constructor
}

// registryOptions holds configuration options for SlotRegistry creation.
type registryOptions struct {
	logger   *logiface.Logger[logiface.Event]
	maxSlots int
}

// defaultMutexOptions is used by zero value Mutex instances.
var defaultMutexOptions = mutexOptions{
	spin: defaultSpin,
}

// --- Mutex Options ---

// MutexOption configures a Mutex instance.
type MutexOption interface {
	applyMutex(*mutexOptions) error
}

// mutexOptionImpl implements MutexOption.
type mutexOptionImpl struct {
	applyMutexFunc func(*mutexOptions) error
}

func (m *mutexOptionImpl) applyMutex(opts *mutexOptions) error {
	return m.applyMutexFunc(opts)
}

// WithParker sets the Parker that contended lock calls block on. Defaults to
// DefaultParker. A RecursiveMutex created using NewMutex shares the option.
func WithParker(parker Parker) MutexOption {
	return &mutexOptionImpl{func(opts *mutexOptions) error {
		if parker == nil {
			return fmt.Errorf("%w: nil parker", ErrInvalidOption)
		}
		opts.parker = parker
		return nil
	}}
}

// WithSpin sets the number of times a contended lock call yields the
// processor, and retries, before it parks. Zero disables spinning. Spinning
// is always skipped if GOMAXPROCS is 1.
func WithSpin(n int) MutexOption {
	return &mutexOptionImpl{func(opts *mutexOptions) error {
		if n < 0 {
			return fmt.Errorf("%w: negative spin count: %d", ErrInvalidOption, n)
		}
		opts.spin = n
		return nil
	}}
}

// WithContentionWarning enables a (rate limited) warning log, for each lock
// acquisition that had to wait at least threshold.
func WithContentionWarning(threshold time.Duration) MutexOption {
	return &mutexOptionImpl{func(opts *mutexOptions) error {
		if threshold <= 0 {
			return fmt.Errorf("%w: non-positive contention threshold: %s", ErrInvalidOption, threshold)
		}
		opts.contentionThreshold = threshold
		return nil
	}}
}

// resolveMutexOptions applies MutexOption instances to mutexOptions.
func resolveMutexOptions(opts []MutexOption) (*mutexOptions, error) {
	cfg := defaultMutexOptions
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyMutex(&cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// --- Registry Options ---

// RegistryOption configures a SlotRegistry instance.
type RegistryOption interface {
	applyRegistry(*registryOptions) error
}

// registryOptionImpl implements RegistryOption.
type registryOptionImpl struct {
	applyRegistryFunc func(*registryOptions) error
}

func (r *registryOptionImpl) applyRegistry(opts *registryOptions) error {
	return r.applyRegistryFunc(opts)
}

// WithMaxSlots sets the maximum number of simultaneously live slots, after
// which Allocate fails with ErrSlotsExhausted. Defaults to 1024.
func WithMaxSlots(n int) RegistryOption {
	return &registryOptionImpl{func(opts *registryOptions) error {
		if n <= 0 || n > maxSlotLimit {
			return fmt.Errorf("%w: max slots out of range: %d", ErrInvalidOption, n)
		}
		opts.maxSlots = n
		return nil
	}}
}

// resolveRegistryOptions applies RegistryOption instances to registryOptions.
func resolveRegistryOptions(opts []RegistryOption) (*registryOptions, error) {
	cfg := &registryOptions{
		maxSlots: defaultMaxSlots,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyRegistry(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// --- Shared Options ---

// Option configures both Mutex and SlotRegistry instances.
type Option interface {
	MutexOption
	RegistryOption
}

type loggerOption struct {
	logger *logiface.Logger[logiface.Event]
}

func (o loggerOption) applyMutex(opts *mutexOptions) error {
	opts.logger = o.logger
	return nil
}

func (o loggerOption) applyRegistry(opts *registryOptions) error {
	opts.logger = o.logger
	return nil
}

// WithLogger sets the logger used for misuse reports and diagnostics,
// overriding the package-level logger (see SetLogger).
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return loggerOption{logger}
}
