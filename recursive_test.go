package syncprim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecursiveMutex_reentrancy(t *testing.T) {
	const depth = 5
	for _, tc := range [...]struct {
		name string
		new  func(t *testing.T) locker
	}{
		{`zero`, func(t *testing.T) locker { return new(RecursiveMutex) }},
		{`NewRecursiveMutex`, func(t *testing.T) locker {
			m, err := NewRecursiveMutex()
			require.NoError(t, err)
			return m
		}},
		{`NewMutex`, func(t *testing.T) locker {
			m, err := NewMutex(Recursive)
			require.NoError(t, err)
			return m
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.new(t)
			tryLockElsewhere := func() bool {
				result := make(chan bool)
				go func() {
					ok := m.TryLock()
					if ok {
						m.Unlock()
					}
					result <- ok
				}()
				return <-result
			}

			for i := range depth {
				switch i % 3 {
				case 0:
					m.Lock()
				case 1:
					require.True(t, m.TryLock())
				default:
					require.True(t, m.LockTimeout(0))
				}
				assert.False(t, tryLockElsewhere(), "depth %d", i+1)
			}

			for i := range depth {
				assert.False(t, tryLockElsewhere(), "unlocks %d", i)
				m.Unlock()
			}

			// released exactly on the final unlock
			assert.True(t, tryLockElsewhere())
		})
	}
}

func TestRecursiveMutex_depth(t *testing.T) {
	m := new(RecursiveMutex)
	assert.Zero(t, m.Depth())
	m.Lock()
	m.Lock()
	assert.Equal(t, 2, m.Depth())

	other := make(chan int)
	go func() { other <- m.Depth() }()
	assert.Zero(t, <-other)

	m.Unlock()
	assert.Equal(t, 1, m.Depth())
	m.Unlock()
	assert.Zero(t, m.Depth())
	assert.Zero(t, m.owner.Load())
}

func TestRecursiveMutex_handoff(t *testing.T) {
	m := new(RecursiveMutex)
	m.Lock()
	m.Lock()

	acquired := make(chan int)
	go func() {
		m.Lock()
		m.Lock()
		acquired <- m.Depth()
		m.Unlock()
		m.Unlock()
		close(acquired)
	}()

	time.Sleep(20 * time.Millisecond)
	m.Unlock()
	select {
	case <-acquired:
		t.Fatal("acquired before the final unlock")
	case <-time.After(20 * time.Millisecond):
	}
	m.Unlock()

	assert.Equal(t, 2, <-acquired)
	<-acquired
	assert.True(t, m.TryLock())
	m.Unlock()
}

func TestRecursiveMutex_lockTimeout(t *testing.T) {
	m := new(RecursiveMutex)
	m.Lock()
	defer m.Unlock()

	result := make(chan bool)
	go func() { result <- m.LockTimeout(30 * time.Millisecond) }()
	assert.False(t, <-result)

	// the owner never waits
	start := time.Now()
	assert.True(t, m.LockTimeout(0))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	m.Unlock()
}

func TestRecursiveMutex_unlockByNonOwner(t *testing.T) {
	for _, mode := range [...]string{`RecursiveMutex`, `Mutex`} {
		t.Run(mode, func(t *testing.T) {
			var buf syncBuffer
			var m locker
			if mode == `Mutex` {
				mm, err := NewMutex(Recursive, WithLogger(newTestLogger(&buf)))
				require.NoError(t, err)
				m = mm
			} else {
				mm, err := NewRecursiveMutex(WithLogger(newTestLogger(&buf)))
				require.NoError(t, err)
				m = mm
			}

			m.Lock()
			done := make(chan struct{})
			go func() {
				defer close(done)
				expectMisuse(t, &buf, `RecursiveMutex.Unlock`, m.Unlock)
			}()
			<-done

			// the owner still holds it
			result := make(chan bool)
			go func() { result <- m.TryLock() }()
			assert.False(t, <-result)
			m.Unlock()
		})
	}
}

func TestRecursiveMutex_unlockUnlocked(t *testing.T) {
	var buf syncBuffer
	m, err := NewRecursiveMutex(WithLogger(newTestLogger(&buf)))
	require.NoError(t, err)
	expectMisuse(t, &buf, `RecursiveMutex.Unlock`, m.Unlock)
}

func TestRecursiveMutex_contentionWarning(t *testing.T) {
	var buf syncBuffer
	m, err := NewMutex(Recursive, WithLogger(newTestLogger(&buf)), WithContentionWarning(time.Millisecond))
	require.NoError(t, err)

	m.Lock()
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Lock()
		m.Unlock()
	}()
	time.Sleep(20 * time.Millisecond)
	m.Unlock()
	<-done

	assert.Contains(t, buf.String(), `"recursive":true`)
}
