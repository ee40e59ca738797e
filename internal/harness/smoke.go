// Package harness drives a seqring.Buffer through the smoke and stress
// scenarios and checks what the readers observe.
package harness

import (
	"fmt"
	"io"
	"log"

	"github.com/eapache/queue"

	"github.com/aradilov/seqring"
	"github.com/aradilov/seqring/internal/config"
)

// SmokeReport is the outcome of Smoke.
type SmokeReport struct {
	Pushed []int64
	Popped []int64
	Reader seqring.ReaderStats
}

// Smoke runs the single-goroutine scenario: push the configured values,
// replay them with a fresh reader and verify writer exclusivity.
func Smoke(cfg config.SmokeConfig, logger *log.Logger) (SmokeReport, error) {
	logger = orDiscard(logger)
	var report SmokeReport

	b := seqring.New[int64](cfg.Capacity)

	w, ok := b.TryAcquireWriter()
	if !ok {
		return report, ErrWriterBusy
	}
	defer w.Release()

	if second, ok := b.TryAcquireWriter(); ok {
		second.Release()
		return report, ErrNotExclusive
	}

	expected := queue.New()
	for _, v := range cfg.Values {
		w.Push(v)
		expected.Add(v)
		report.Pushed = append(report.Pushed, v)
	}
	logger.Printf("smoke: pushed %d values into %d slots", len(cfg.Values), b.Capacity())

	r := b.NewReplayReader()
	for {
		v, ok := r.PopFront()
		if !ok {
			break
		}
		report.Popped = append(report.Popped, v)
		logger.Printf("smoke: value: %d", v)

		if expected.Length() == 0 {
			return report, fmt.Errorf("value %d: %w", v, ErrOverDelivered)
		}
		if want := expected.Remove().(int64); v != want {
			return report, fmt.Errorf("got %d, want %d: %w", v, want, ErrMismatch)
		}
	}
	report.Reader = r.Stats()

	if expected.Length() > 0 {
		return report, fmt.Errorf("%d values left, next %d: %w", expected.Length(), expected.Peek(), ErrMissing)
	}

	w.Release()
	again, ok := b.TryAcquireWriter()
	if !ok {
		return report, fmt.Errorf("after release: %w", ErrWriterBusy)
	}
	again.Release()

	return report, nil
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return logger
}
