package indexer

import "sync/atomic"

// IndexLock guards a project against concurrent indexing runs. Callers that
// lose the race get an immediate answer instead of queueing behind the
// running index.
type IndexLock struct {
	state atomic.Int32 // 0 = idle, 1 = indexing
}

// TryAcquire reports whether the caller now holds the lock
func (l *IndexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *IndexLock) Release() {
	l.state.Store(0)
}

// Held reports whether an indexing run currently holds the lock
func (l *IndexLock) Held() bool {
	return l.state.Load() == 1
}
