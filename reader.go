package seqring

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"golang.org/x/sys/cpu"
)

// maxPopRetries bounds the work of one PopFront call.
const maxPopRetries = 64

// Reader is a read position over a Buffer.
//
// Distinct Readers over the same Buffer each observe the full message
// stream. Goroutines sharing one *Reader compete for messages instead and
// claim distinct messages, with one limit: the baseline and index are
// claimed by two separate CASes, and within a lap the baseline CAS swaps a
// stamp for the same stamp. A goroutine stalled between the two CASes while
// the others deliver a full lap of capacity messages can therefore return a
// message that was already delivered.
type Reader[T any] struct {
	buffer   *Buffer[T]
	_        cpu.CacheLinePad
	index    atomix.Uint64 // next slot to read, in [0, capacity)
	baseline atomix.Uint64 // stamp of the last consumed slot
	_        cpu.CacheLinePad

	delivered atomix.Uint64
	empty     atomix.Uint64
	torn      atomix.Uint64
	stolen    atomix.Uint64
	overruns  atomix.Uint64
}

func newReader[T any](b *Buffer[T], index, baseline uint64) *Reader[T] {
	r := &Reader[T]{buffer: b}
	r.index.StoreRelaxed(index)
	r.baseline.StoreRelease(baseline)
	return r
}

// PopFront returns the next message for this reader, or (zero, false) when
// none is ready. A false result is the normal outcome of polling an idle
// buffer; it is also what a caller sees when the writer lapped the reader
// and the reader skipped the lost messages.
// It never blocks: retries caused by a racing writer or by goroutines
// sharing the reader are bounded.
func (r *Reader[T]) PopFront() (T, bool) {
	var zero T
	b := r.buffer
	sw := spin.Wait{}

	for attempt := 0; attempt < maxPopRetries; attempt++ {
		index := r.index.LoadAcquire()
		baseline := r.baseline.LoadAcquire()
		s := &b.slots[index]

		seq1 := s.seq.LoadAcquire()
		expected := expectedStamp(index, baseline)

		stamp, pending := seq1, seq1&1 == 1
		if pending {
			stamp = seq1 + 1
		}
		if stamp < expected || (pending && stamp == expected) {
			// not written yet, or written and already consumed
			r.empty.AddAcqRel(1)
			return zero, false
		}
		if stamp > expected {
			// overwritten before we got to it
			r.overruns.AddAcqRel(1)
			r.skip(index, baseline)
			sw.Once()
			continue
		}

		var v T
		loadWords(&v, s.words, b.layout)

		seq2 := s.seq.LoadAcquire()
		if seq2 != seq1 {
			r.torn.AddAcqRel(1)
			sw.Once()
			continue
		}

		if !r.baseline.CompareAndSwapAcqRel(baseline, seq2) {
			r.stolen.AddAcqRel(1)
			return zero, false
		}

		next := index + 1
		if next == b.capacity {
			next = 0
		}
		if !r.index.CompareAndSwapAcqRel(index, next) {
			// another goroutine sharing this reader moved it first
			r.stolen.AddAcqRel(1)
			sw.Once()
			continue
		}

		r.delivered.AddAcqRel(1)
		return v, true
	}

	r.empty.AddAcqRel(1)
	return zero, false
}

// skip moves a lapped reader to the oldest message still resident.
// It never moves the reader backwards.
func (r *Reader[T]) skip(index, baseline uint64) {
	b := r.buffer
	toIndex, toBaseline := b.oldest()
	if position(toIndex, toBaseline, b.capacity) <= position(index, baseline, b.capacity) {
		return
	}
	if r.baseline.CompareAndSwapAcqRel(baseline, toBaseline) {
		r.index.CompareAndSwapAcqRel(index, toIndex)
	}
}

// Clone returns an independent Reader at the same position as r.
// From then on the two advance separately and both observe every message.
func (r *Reader[T]) Clone() *Reader[T] {
	index := r.index.LoadAcquire()
	baseline := r.baseline.LoadAcquire()
	return newReader(r.buffer, index, baseline)
}

// Pending returns how many published messages lie between the reader and
// the writer, capped at the buffer capacity.
func (r *Reader[T]) Pending() uint64 {
	b := r.buffer
	at := position(r.index.LoadAcquire(), r.baseline.LoadAcquire(), b.capacity)
	published := b.Published()
	if published <= at {
		return 0
	}
	return min(published-at, b.capacity)
}

// Stats returns a snapshot of the reader's counters.
func (r *Reader[T]) Stats() ReaderStats {
	return ReaderStats{
		Delivered: r.delivered.LoadAcquire(),
		Empty:     r.empty.LoadAcquire(),
		Torn:      r.torn.LoadAcquire(),
		Stolen:    r.stolen.LoadAcquire(),
		Overruns:  r.overruns.LoadAcquire(),
	}
}
