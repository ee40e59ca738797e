//go:build !race

// The race detector cannot see the ordering atomix establishes: its loads
// and stores compile to plain moves. These tests run real goroutines over the
// lock-free paths and are verified by stress runs without -race.

package mpsc

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

// Concurrent test: many producers, single consumer.
// Checks that all values [0..N) are received exactly once.
func TestQueueConcurrentProducers(t *testing.T) {
	const (
		capacity    = 1 << 10
		N           = 100_000
		producers   = 8
		perProducer = N / producers
	)

	q := New[int](capacity)
	seen := make([]int32, N)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for received := 0; received < N; {
			v, ok := q.Dequeue()
			if !ok {
				runtime.Gosched()
				continue
			}
			if v < 0 || v >= N {
				t.Errorf("consumer: out-of-range value %d", v)
				continue
			}
			atomic.AddInt32(&seen[v], 1)
			received++
		}
	}()

	var pg sync.WaitGroup
	pg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(from, to int) {
			defer pg.Done()
			for i := from; i < to; i++ {
				for !q.Enqueue(i) {
					runtime.Gosched()
				}
			}
		}(p*perProducer, (p+1)*perProducer)
	}

	pg.Wait()
	wg.Wait()

	for i := 0; i < N; i++ {
		if seen[i] != 1 {
			t.Fatalf("value %d seen %d times (expected 1)", i, seen[i])
		}
	}
}
