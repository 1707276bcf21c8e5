// Package history provides bounded, concurrency-safe buffers for time
// series that must never grow without limit.
package history

import (
	"sync"
	"time"
)

// Ring keeps the most recent Cap entries, dropping the oldest on overflow.
type Ring[T any] struct {
	mu    sync.RWMutex
	buf   []T
	start int
	size  int
	stamp func(T) time.Time
}

// NewRing creates a ring holding at most capacity entries. stamp extracts
// an entry's timestamp for Since; it may be nil when Since is unused.
func NewRing[T any](capacity int, stamp func(T) time.Time) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity), stamp: stamp}
}

// Push appends v, evicting the oldest entry when full.
func (r *Ring[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of stored entries.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Cap returns the maximum number of entries.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Latest returns the newest entry.
func (r *Ring[T]) Latest() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.buf[(r.start+r.size-1)%len(r.buf)], true
}

// Last returns up to n newest entries, oldest first. n <= 0 returns all.
func (r *Ring[T]) Last(n int) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > r.size {
		n = r.size
	}
	out := make([]T, n)
	first := r.size - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.start+first+i)%len(r.buf)]
	}
	return out
}

// Snapshot returns every entry, oldest first.
func (r *Ring[T]) Snapshot() []T {
	return r.Last(0)
}

// Since returns entries stamped at or after t, oldest first.
func (r *Ring[T]) Since(t time.Time) []T {
	all := r.Snapshot()
	if r.stamp == nil {
		return all
	}
	for i, v := range all {
		if !r.stamp(v).Before(t) {
			return all[i:]
		}
	}
	return nil
}
