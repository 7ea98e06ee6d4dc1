package syncprim

import (
	"sync"
	"time"
	"unsafe"
)

// parkTableSize is prime, to spread word addresses (which are at least 4 byte
// aligned, and often share a larger alignment) over the buckets.
const parkTableSize = 251

type (
	// tableParker emulates the futex system call in user space: a fixed
	// table of buckets, each holding the wait queues of the words that hash
	// to it. The expected value is compared while holding the bucket lock,
	// and WakeOne takes the same lock, so a wake-up cannot slip between a
	// waiter's check and its enqueue.
	tableParker struct {
		buckets [parkTableSize]parkBucket
	}

	parkBucket struct {
		mu      sync.Mutex
		waiters map[*AtomicUint32][]*parkWaiter
	}

	parkWaiter struct {
		// receives exactly one token, sent by the waker that dequeued it
		ch chan struct{}
	}
)

var parkWaiterPool = sync.Pool{New: func() any {
	return &parkWaiter{ch: make(chan struct{}, 1)}
}}

// NewTableParker returns a portable Parker, that does not depend on any
// operating system wait primitive. Blocked goroutines are parked by the Go
// scheduler, rather than each occupying an OS thread.
//
// Wake-ups are delivered in FIFO order, per word.
func NewTableParker() Parker {
	return new(tableParker)
}

func (x *tableParker) bucket(word *AtomicUint32) *parkBucket {
	return &x.buckets[(uintptr(unsafe.Pointer(word))>>2)%parkTableSize]
}

func (x *tableParker) WaitWhileEquals(word *AtomicUint32, expected uint32, timeout time.Duration) WakeReason {
	b := x.bucket(word)

	// lock order: bucket, then the emulation lock (taken by Load when atomics
	// are emulated). The emulation lock is a leaf, it never acquires a bucket.
	b.mu.Lock()
	if word.Load() != expected {
		b.mu.Unlock()
		return WakeValueMismatch
	}
	if timeout == 0 {
		b.mu.Unlock()
		return WakeTimeout
	}
	w := parkWaiterPool.Get().(*parkWaiter)
	if b.waiters == nil {
		b.waiters = make(map[*AtomicUint32][]*parkWaiter)
	}
	b.waiters[word] = append(b.waiters[word], w)
	b.mu.Unlock()

	if timeout < 0 {
		<-w.ch
		parkWaiterPool.Put(w)
		return WakeSignaled
	}

	timer := time.NewTimer(timeout)
	select {
	case <-w.ch:
		timer.Stop()
		parkWaiterPool.Put(w)
		return WakeSignaled
	case <-timer.C:
	}

	b.mu.Lock()
	removed := b.remove(word, w)
	b.mu.Unlock()

	if !removed {
		// lost the race with a waker, which now owns delivery of the token:
		// it must be consumed, and the wake-up must not be reported as a
		// timeout, or it would be lost
		<-w.ch
		parkWaiterPool.Put(w)
		return WakeSignaled
	}

	parkWaiterPool.Put(w)
	return WakeTimeout
}

func (x *tableParker) WakeOne(word *AtomicUint32) {
	b := x.bucket(word)

	b.mu.Lock()
	queue := b.waiters[word]
	if len(queue) == 0 {
		b.mu.Unlock()
		return
	}
	w := queue[0]
	if len(queue) == 1 {
		delete(b.waiters, word)
	} else {
		copy(queue, queue[1:])
		queue[len(queue)-1] = nil
		b.waiters[word] = queue[:len(queue)-1]
	}
	b.mu.Unlock()

	w.ch <- struct{}{}
}

// remove deletes w from the queue of word, returning false if it was not
// present. The caller must hold b.mu.
func (b *parkBucket) remove(word *AtomicUint32, w *parkWaiter) bool {
	queue := b.waiters[word]
	for i, v := range queue {
		if v != w {
			continue
		}
		if len(queue) == 1 {
			delete(b.waiters, word)
		} else {
			copy(queue[i:], queue[i+1:])
			queue[len(queue)-1] = nil
			b.waiters[word] = queue[:len(queue)-1]
		}
		return true
	}
	return false
}
