// Package mpsc is a bounded lock-free queue for many producers and one consumer.
// The stress harness uses it to carry deliveries from its consumer goroutines
// to the single collector.
//
// Original algorithm by Dmitry Vyukov
// https://www.1024cores.net/home/lock-free-algorithms/queues/bounded-mpmc-queue
package mpsc

import (
	"code.hybscloud.com/atomix"
	"golang.org/x/sys/cpu"
)

type cell[T any] struct {
	seq atomix.Uint64 // position this cell is ready for (controls visibility and ownership)
	val T
}

// Queue is a bounded multi-producer, single-consumer ring.
type Queue[T any] struct {
	_        cpu.CacheLinePad
	mask     uint64
	capacity uint64
	cells    []cell[T]
	_        cpu.CacheLinePad
	tail     atomix.Uint64 // updated by producers
	_        cpu.CacheLinePad
	head     uint64 // owned by the consumer
	_        cpu.CacheLinePad
}

// New creates a Queue. Capacity must be a power of two (1<<k).
func New[T any](capacity uint64) *Queue[T] {
	if capacity == 0 || (capacity&(capacity-1)) != 0 {
		panic("mpsc: capacity must be power of 2 and > 0")
	}

	cells := make([]cell[T], capacity)
	for i := range cells {
		cells[i].seq.StoreRelaxed(uint64(i))
	}

	return &Queue[T]{
		mask:     capacity - 1,
		capacity: capacity,
		cells:    cells,
	}
}

// Enqueue adds v and reports false if the queue is full.
// Safe for concurrent producers.
func (q *Queue[T]) Enqueue(v T) bool {
	for {
		pos := q.tail.LoadAcquire()
		c := &q.cells[pos&q.mask]

		diff := int64(c.seq.LoadAcquire()) - int64(pos)
		switch {
		case diff == 0:
			if q.tail.CompareAndSwapAcqRel(pos, pos+1) {
				c.val = v
				c.seq.StoreRelease(pos + 1)
				return true
			}
		case diff < 0:
			// consumer has not freed this cell yet
			return false
		}
		// diff > 0: another producer took pos, reload
	}
}

// Dequeue removes the oldest element, or returns (zero, false) if the queue
// is empty or the producer owning the head cell has not finished.
// Must be called from a single goroutine.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	pos := q.head
	c := &q.cells[pos&q.mask]

	if c.seq.LoadAcquire() != pos+1 {
		return zero, false
	}

	q.head = pos + 1
	v := c.val
	c.val = zero
	// next time this cell is used at pos+capacity
	c.seq.StoreRelease(pos + q.capacity)
	return v, true
}

// Capacity returns the fixed queue capacity.
func (q *Queue[T]) Capacity() uint64 {
	return q.capacity
}
