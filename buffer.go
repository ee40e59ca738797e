package seqring

import (
	"runtime"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"golang.org/x/sys/cpu"
)

// Buffer is a fixed-capacity SPMC broadcast ring.
// At most one Writer exists at a time; any number of Readers may be minted.
// A slow Reader never holds the writer back: it loses the messages that
// were overwritten before it got to them.
type Buffer[T any] struct {
	_          cpu.CacheLinePad
	capacity   uint64
	layout     layout
	slots      []slot
	_          cpu.CacheLinePad
	writeIndex atomix.Uint64 // next slot the writer targets, in [0, capacity)
	version    atomix.Uint64 // highest stamp the writer has started, never decreases
	_          cpu.CacheLinePad
	writeLock  atomix.Uint64 // 0 when free, otherwise the token of the live Writer
	writers    atomix.Uint64 // token source
	_          cpu.CacheLinePad
}

// New creates a Buffer with the given number of slots.
// T must be plain data: no pointers, strings, slices, maps, channels,
// funcs or interfaces anywhere in its layout.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("seqring: capacity must be > 0")
	}

	l := layoutOf[T]()
	b := &Buffer[T]{
		capacity: uint64(capacity),
		layout:   l,
		slots:    make([]slot, capacity),
	}

	// one backing array for all payload words keeps slots contiguous
	words := make([]atomix.Uint64, capacity*l.words)
	for i := range b.slots {
		b.slots[i].words = words[i*l.words : (i+1)*l.words : (i+1)*l.words]
	}

	return b
}

// TryAcquireWriter returns the exclusive Writer for b.
// If another Writer is outstanding it returns (nil, false) immediately.
// The caller must Release the Writer (typically with defer) so a new one
// can be acquired.
func (b *Buffer[T]) TryAcquireWriter() (*Writer[T], bool) {
	token := b.writers.AddAcqRel(1)
	if !b.writeLock.CompareAndSwapAcqRel(0, token) {
		return nil, false
	}

	w := &Writer[T]{buffer: b, token: token}
	w.cleanup = runtime.AddCleanup(w, releaseWriteLock, writeLockToken{lock: &b.writeLock, token: token})
	return w, true
}

// WriterHeld reports whether a Writer is currently outstanding.
func (b *Buffer[T]) WriterHeld() bool {
	return b.writeLock.LoadAcquire() != 0
}

// NewReader returns a Reader positioned at the writer's current position.
// It observes messages published from now on.
func (b *Buffer[T]) NewReader() *Reader[T] {
	index, baseline := b.tail()
	return newReader(b, index, baseline)
}

// NewReplayReader returns a Reader positioned at the very first message.
// Whatever is still resident in the buffer is delivered in publish order,
// whatever was already overwritten is skipped.
func (b *Buffer[T]) NewReplayReader() *Reader[T] {
	return newReader(b, 0, 0)
}

// Capacity returns the fixed number of slots.
func (b *Buffer[T]) Capacity() int {
	return int(b.capacity)
}

// Version returns the highest stamp the writer has started.
func (b *Buffer[T]) Version() uint64 {
	return b.version.LoadAcquire()
}

// Published returns the number of messages the writer has published so far.
// The value is a snapshot and may lag a concurrent Push by one message.
func (b *Buffer[T]) Published() uint64 {
	index, baseline := b.tail()
	return position(index, baseline, b.capacity)
}

// tail returns the cursor state that expects the next message the writer
// will publish. A write still in progress at the tail slot is included.
func (b *Buffer[T]) tail() (uint64, uint64) {
	sw := spin.Wait{}
	for {
		index := b.writeIndex.LoadAcquire()
		version := b.version.LoadAcquire()
		seq := b.slots[index].seq.LoadAcquire()
		if index != b.writeIndex.LoadAcquire() || version != b.version.LoadAcquire() {
			// the writer moved while we looked
			sw.Once()
			continue
		}

		stamp := seq + 2
		if seq&1 == 1 {
			stamp = seq + 1
		}
		if index == 0 {
			return 0, stamp - 2
		}
		return index, stamp
	}
}

// oldest returns the cursor state that expects the oldest message still
// resident in the buffer.
func (b *Buffer[T]) oldest() (uint64, uint64) {
	index := b.writeIndex.LoadAcquire()
	seq := b.slots[index].seq.LoadAcquire()
	if seq&1 == 1 {
		// being overwritten right now, the oldest survivor sits right after it
		if index++; index == b.capacity {
			index = 0
		}
		seq = b.slots[index].seq.LoadAcquire()
		if seq&1 == 1 {
			// capacity 1
			seq++
		}
	}

	if seq == 0 {
		// first lap, nothing was overwritten yet
		return 0, 0
	}
	if index == 0 {
		return 0, seq - 2
	}
	return index, seq
}

// startWrite opens the slot at writeIndex for writing and returns its index
// and the odd seq it now carries.
func (b *Buffer[T]) startWrite() (uint64, uint64) {
	index := b.writeIndex.LoadRelaxed()
	s := &b.slots[index]

	seq := s.seq.LoadRelaxed() + 1
	s.seq.StoreRelaxed(seq)

	if stamp := seq + 1; stamp > b.version.LoadRelaxed() {
		b.version.StoreRelaxed(stamp)
	}
	return index, seq
}

// endWrite advances the write cursor and marks the slot stable again.
// The release store makes the payload visible to any reader that observes
// the new seq.
func (b *Buffer[T]) endWrite(index, seq uint64) {
	next := index + 1
	if next == b.capacity {
		next = 0
	}
	b.writeIndex.StoreRelaxed(next)
	b.slots[index].seq.StoreRelease(seq + 1)
}

// publish runs the full write protocol for one message.
func (b *Buffer[T]) publish(v *T) {
	index, seq := b.startWrite()
	storeWords(b.slots[index].words, v, b.layout)
	b.endWrite(index, seq)
}
