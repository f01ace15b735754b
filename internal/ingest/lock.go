package ingest

import "sync/atomic"

// Lock provides non-blocking single-flight semantics for ingest operations.
// TryAcquire never blocks, so the server reports busy instead of queueing
// requests behind a long-running ingest.
type Lock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *Lock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *Lock) Release() {
	l.state.Store(0)
}
