// logging.go - structured logging for misuse and diagnostics
//
// Mutexes and registries log through a logiface logger. Each may be
// configured with its own (WithLogger), otherwise the package-level logger
// set by SetLogger is used. With neither, misuse is still reported, using the
// standard library's log package, and all other diagnostics are dropped.
//
// Nothing is logged on any fast path.

package syncprim

import (
	"log"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// globalLogger is read on cold paths only (misuse, slow lock acquisition).
var globalLogger AtomicPointer[logiface.Logger[logiface.Event]]

// contentionLimiter limits contention warnings, per mutex.
var contentionLimiter = catrate.NewLimiter(map[time.Duration]int{
	time.Second: 1,
	time.Minute: 10,
})

// SetLogger sets the package-level logger, used by every Mutex and
// SlotRegistry that was not configured using WithLogger. A nil logger
// disables package-level logging.
func SetLogger(logger *logiface.Logger[logiface.Event]) {
	globalLogger.Store(logger)
}

// resolveLogger returns logger, falling back to the package-level logger.
// The result may be nil, which logiface treats as disabled.
func resolveLogger(logger *logiface.Logger[logiface.Event]) *logiface.Logger[logiface.Event] {
	if logger != nil {
		return logger
	}
	return globalLogger.Load()
}

// reportMisuse handles a contract violation by the caller. In debug builds it
// panics. Otherwise, it is logged at critical level, and the caller carries
// on, with undefined (but memory safe) results.
func reportMisuse(logger *logiface.Logger[logiface.Event], op, message string) {
	err := &MisuseError{Op: op, Message: message}
	if debugAssertions {
		panic(err)
	}
	logCritical(resolveLogger(logger), err)
}

func logCritical(logger *logiface.Logger[logiface.Event], err *MisuseError) {
	b := logger.Crit()
	if !b.Enabled() {
		log.Printf("CRITICAL: %v", err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("CRITICAL: %v (logger panicked: %v)", err, r)
		}
	}()
	b.Err(err).
		Str(`op`, err.Op).
		Log(err.Message)
}

// logContention emits a (rate limited) warning for a slow lock acquisition.
// The category is the address of the mutex, so a single hot lock cannot
// drown out the others.
func logContention(logger *logiface.Logger[logiface.Event], m *Mutex, waited time.Duration, recursive bool) {
	b := resolveLogger(logger).Warning()
	if !b.Enabled() {
		return
	}
	if _, ok := contentionLimiter.Allow(m); !ok {
		b.Release()
		return
	}
	b.Dur(`waited`, waited).
		Bool(`recursive`, recursive).
		Log(`syncprim: mutex contended`)
}

// logSkippedDestructor records the documented leak where a thread exits
// holding a value for a slot that was already released.
func logSkippedDestructor(logger *logiface.Logger[logiface.Event], slot Slot) {
	resolveLogger(logger).Debug().
		Int(`slot`, int(slot.id)).
		Uint64(`generation`, slot.gen).
		Log(`syncprim: skipped destructor of released slot`)
}

// logRetiredSlot records a slot identifier that will never be reused, as its
// generation counter is exhausted.
func logRetiredSlot(logger *logiface.Logger[logiface.Event], slot Slot) {
	resolveLogger(logger).Warning().
		Int(`slot`, int(slot.id)).
		Log(`syncprim: slot identifier retired`)
}

// logDestructorPanic records a recovered panic, raised by a slot destructor
// during Thread.Exit. The remaining destructors still run.
func logDestructorPanic(logger *logiface.Logger[logiface.Event], slot Slot, r any) {
	b := resolveLogger(logger).Err()
	if !b.Enabled() {
		log.Printf("ERROR: syncprim: destructor of slot %d panicked: %v", slot.id, r)
		return
	}
	b.Int(`slot`, int(slot.id)).
		Any(`panic`, r).
		Log(`syncprim: destructor panicked`)
}

// logUnreclaimed records values still stored after the final destructor
// round of Thread.Exit, which are dropped without running their destructors.
func logUnreclaimed(logger *logiface.Logger[logiface.Event], n int) {
	resolveLogger(logger).Warning().
		Int(`values`, n).
		Int(`rounds`, destructorIterations).
		Log(`syncprim: thread exited with values set by destructors`)
}
