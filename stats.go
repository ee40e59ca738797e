package seqring

// WriterStats is a snapshot of a Writer's counters.
type WriterStats struct {
	Pushed uint64
}

// ReaderStats is a snapshot of a Reader's counters.
// A Reader shared by several goroutines accumulates all of their calls.
type ReaderStats struct {
	Delivered uint64 // messages returned by PopFront
	Empty     uint64 // calls that found no new message
	Torn      uint64 // copies discarded because the writer raced ahead
	Stolen    uint64 // claims lost to another goroutine sharing the reader
	Overruns  uint64 // times the writer lapped the reader
}
