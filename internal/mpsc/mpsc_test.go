package mpsc

import "testing"

// Basic sanity: fill, drain, refill across several laps.
func TestQueueSequential(t *testing.T) {
	const capacity = 16

	q := New[int](capacity)
	next := 0
	for lap := 0; lap < 5; lap++ {
		for i := 0; i < capacity; i++ {
			if !q.Enqueue(lap*capacity + i) {
				t.Fatalf("lap %d: enqueue failed at %d (queue unexpectedly full)", lap, i)
			}
		}
		if q.Enqueue(-1) {
			t.Fatalf("lap %d: expected overflow, enqueue succeeded", lap)
		}
		for i := 0; i < capacity; i++ {
			v, ok := q.Dequeue()
			if !ok {
				t.Fatalf("lap %d: dequeue failed at %d (queue unexpectedly empty)", lap, i)
			}
			if v != next {
				t.Fatalf("expected %d, got %d (FIFO violated)", next, v)
			}
			next++
		}
		if v, ok := q.Dequeue(); ok {
			t.Fatalf("lap %d: expected empty queue, got value=%v", lap, v)
		}
	}
}

func TestNewRejectsBadCapacity(t *testing.T) {
	for _, c := range []uint64{0, 3, 100} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("capacity %d: expected panic", c)
				}
			}()
			New[int](c)
		}()
	}
	if got := New[int](8).Capacity(); got != 8 {
		t.Fatalf("expected capacity 8, got %d", got)
	}
}
