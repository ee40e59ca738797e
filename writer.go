package seqring

import (
	"runtime"

	"code.hybscloud.com/atomix"
)

// Writer is the exclusive publishing handle of a Buffer.
// It must be used from one goroutine at a time.
type Writer[T any] struct {
	buffer   *Buffer[T]
	token    uint64
	released bool
	pushed   atomix.Uint64
	cleanup  runtime.Cleanup
}

// writeLockToken identifies one Writer's hold on a Buffer's write lock.
type writeLockToken struct {
	lock  *atomix.Uint64
	token uint64
}

// releaseWriteLock frees the lock only while it still belongs to the token,
// so releasing an already released Writer never frees a newer one.
func releaseWriteLock(t writeLockToken) {
	t.lock.CompareAndSwapAcqRel(t.token, 0)
}

// Push publishes v. It never blocks and never waits for readers:
// a reader that has not consumed the slot being reused loses that message.
func (w *Writer[T]) Push(v T) {
	if w.released {
		panic("seqring: push on released writer")
	}
	w.buffer.publish(&v)
	w.pushed.StoreRelaxed(w.pushed.LoadRelaxed() + 1)
}

// Release gives the write lock back to the Buffer. It is safe to call more
// than once. A Writer that becomes unreachable without Release is released
// by the garbage collector.
func (w *Writer[T]) Release() {
	if w.released {
		return
	}
	w.released = true
	w.cleanup.Stop()
	releaseWriteLock(writeLockToken{lock: &w.buffer.writeLock, token: w.token})
}

// Stats returns a snapshot of the writer's counters.
func (w *Writer[T]) Stats() WriterStats {
	return WriterStats{
		Pushed: w.pushed.LoadAcquire(),
	}
}
