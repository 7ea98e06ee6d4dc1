package syncprim

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
)

// syncBuffer is a bytes.Buffer that is safe for concurrent use, for
// capturing log output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (x *syncBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.Write(p)
}

func (x *syncBuffer) String() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.String()
}

func (x *syncBuffer) Lines() []string {
	s := strings.TrimSpace(x.String())
	if s == `` {
		return nil
	}
	return strings.Split(s, "\n")
}

func newTestLogger(w io.Writer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()
}

// expectMisuse calls fn, which must commit the misuse of op: in debug builds
// that panics with a *MisuseError, otherwise it is logged to buf. It uses
// assert only, so it may be called from any goroutine.
func expectMisuse(t *testing.T, buf *syncBuffer, op string, fn func()) {
	t.Helper()
	if debugAssertions {
		var r any
		func() {
			defer func() { r = recover() }()
			fn()
		}()
		err, ok := r.(*MisuseError)
		if assert.True(t, ok, "expected a *MisuseError panic, got %v", r) {
			assert.Equal(t, op, err.Op)
			assert.ErrorIs(t, err, ErrMisuse)
		}
		return
	}
	fn()
	assert.Contains(t, buf.String(), `"op":"`+op+`"`)
}

func TestMisuseError(t *testing.T) {
	err := &MisuseError{Op: `Mutex.Unlock`, Message: `unlock of unlocked mutex`}
	assert.Equal(t, `syncprim: Mutex.Unlock: unlock of unlocked mutex`, err.Error())
	assert.ErrorIs(t, err, ErrMisuse)
	assert.False(t, errors.Is(err, ErrSlotsExhausted))
}

func TestReportMisuse_instanceLogger(t *testing.T) {
	if debugAssertions {
		t.Skip("misuse panics in debug builds")
	}
	var buf syncBuffer
	reportMisuse(newTestLogger(&buf), `Test.Op`, `bad things`)
	out := buf.String()
	assert.Contains(t, out, `"lvl":"crit"`)
	assert.Contains(t, out, `"op":"Test.Op"`)
	assert.Contains(t, out, `"msg":"bad things"`)
}

func TestReportMisuse_globalLogger(t *testing.T) {
	if debugAssertions {
		t.Skip("misuse panics in debug builds")
	}
	var buf syncBuffer
	SetLogger(newTestLogger(&buf))
	defer SetLogger(nil)

	reportMisuse(nil, `Test.Op`, `global`)
	assert.Contains(t, buf.String(), `"msg":"global"`)
}

func TestReportMisuse_debugPanics(t *testing.T) {
	if !debugAssertions {
		t.Skip("misuse is logged in release builds")
	}
	assert.PanicsWithError(t, `syncprim: Test.Op: boom`, func() {
		reportMisuse(nil, `Test.Op`, `boom`)
	})
}

func TestResolveLogger(t *testing.T) {
	var buf syncBuffer
	instance := newTestLogger(&buf)
	global := newTestLogger(&buf)

	assert.Nil(t, resolveLogger(nil))
	assert.Same(t, instance, resolveLogger(instance))

	SetLogger(global)
	defer SetLogger(nil)
	assert.Same(t, global, resolveLogger(nil))
	assert.Same(t, instance, resolveLogger(instance))
}

func TestLogContention_rateLimited(t *testing.T) {
	var buf syncBuffer
	logger := newTestLogger(&buf)
	m := new(Mutex)
	for range 5 {
		logContention(logger, m, 10*time.Millisecond, false)
	}
	lines := buf.Lines()
	if assert.Len(t, lines, 1) {
		assert.Contains(t, lines[0], `"lvl":"warning"`)
		assert.Contains(t, lines[0], `"msg":"syncprim: mutex contended"`)
	}

	// categories are per mutex
	logContention(logger, new(Mutex), time.Millisecond, true)
	assert.Len(t, buf.Lines(), 2)
}

func TestLogContention_disabled(t *testing.T) {
	// must not consume the rate limit, or panic, without a logger
	m := new(Mutex)
	logContention(nil, m, time.Second, false)
	var buf syncBuffer
	logContention(newTestLogger(&buf), m, time.Second, false)
	assert.Len(t, buf.Lines(), 1)
}
