// Package goroutineid identifies the calling goroutine.
//
// The runtime deliberately does not expose goroutine ids, so the id is parsed
// from the header line of the goroutine's own stack trace, which has the
// stable form "goroutine 123 [running]:". This costs roughly a microsecond per
// call, so callers should only reach for it off the uncontended fast path.
package goroutineid

import (
	"fmt"
	"runtime"
)

const prefix = "goroutine "

// Current returns the id of the calling goroutine. Ids are positive, unique
// among live goroutines, and never reused while the process runs, so callers
// may use 0 to mean "no goroutine".
//
// Current panics if the stack header could not be parsed, which would
// indicate an incompatible runtime.
func Current() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return fromStack(buf[:n])
}

func fromStack(buf []byte) int64 {
	id := parse(buf)
	if id <= 0 {
		panic(fmt.Sprintf("goroutineid: unable to parse goroutine id from stack header %q", buf))
	}
	return id
}

// parse extracts the goroutine id from the header of a runtime.Stack trace,
// returning 0 if there is none.
func parse(buf []byte) int64 {
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}
	var id int64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
