package harness

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"code.hybscloud.com/spin"
	"github.com/valyala/fastrand"

	"github.com/aradilov/seqring"
	"github.com/aradilov/seqring/internal/config"
	"github.com/aradilov/seqring/internal/mpsc"
)

// reportCapacity sizes the queue consumers use to hand deliveries to the
// collector.
const reportCapacity = 1 << 12

// StressReport is the outcome of Stress.
type StressReport struct {
	Mode      string
	Published uint64
	Delivered []uint64 // per consumer
	Total     uint64
	Readers   seqring.ReaderStats // summed over distinct readers
	Elapsed   time.Duration
	TimedOut  bool
}

type delivery struct {
	consumer int
	rec      Record
}

// Stress runs one writer against cfg.Consumers polling goroutines.
// In shared mode the consumers share one reader and must never see the
// same message twice; in cloned mode each has its own reader and must see
// strictly increasing sequence numbers.
// The first violation found is returned along with the report.
func Stress(ctx context.Context, cfg config.StressConfig, logger *log.Logger) (StressReport, error) {
	logger = orDiscard(logger)
	report := StressReport{
		Mode:      cfg.Mode,
		Delivered: make([]uint64, cfg.Consumers),
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	b := seqring.New[Record](cfg.Capacity)
	w, ok := b.TryAcquireWriter()
	if !ok {
		return report, ErrWriterBusy
	}

	readers := make([]*seqring.Reader[Record], cfg.Consumers)
	base := b.NewReader()
	for i := range readers {
		if cfg.Mode == config.ModeCloned && i > 0 {
			readers[i] = base.Clone()
			continue
		}
		readers[i] = base
	}

	reports := mpsc.New[delivery](reportCapacity)
	writerDone := make(chan struct{})
	consumersDone := make(chan struct{})
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(cfg.Consumers)
	for i, r := range readers {
		go func(id int, r *seqring.Reader[Record]) {
			defer wg.Done()
			consume(ctx, id, r, reports, writerDone, cfg.YieldEvery)
		}(i, r)
	}
	go func() {
		wg.Wait()
		close(consumersDone)
	}()

	go func() {
		defer close(writerDone)
		defer w.Release()
		produce(ctx, w, cfg.Messages, cfg.Jitter)
	}()

	err := collect(cfg, reports, consumersDone, &report)

	<-writerDone
	report.Elapsed = time.Since(start)
	report.Published = b.Published()
	report.TimedOut = ctx.Err() != nil
	for i, r := range readers {
		if cfg.Mode == config.ModeShared && i > 0 {
			break
		}
		report.Readers = addStats(report.Readers, r.Stats())
	}

	logger.Printf("stress: mode=%s published=%d delivered=%d elapsed=%s",
		report.Mode, report.Published, report.Total, report.Elapsed)
	for i, n := range report.Delivered {
		logger.Printf("stress: consumer %d popped %d", i, n)
	}

	if err == nil && report.TimedOut {
		err = fmt.Errorf("stress: %w", ctx.Err())
	}
	return report, err
}

func produce(ctx context.Context, w *seqring.Writer[Record], messages, jitter int) {
	for i := 0; i < messages; i++ {
		if ctx.Err() != nil {
			return
		}
		w.Push(newRecord(uint64(i)))

		if jitter > 0 {
			sw := spin.Wait{}
			for n := fastrand.Uint32n(uint32(jitter)); n > 0; n-- {
				sw.Once()
			}
		}
	}
}

// consume polls r until the writer is done and nothing is left for r.
func consume(ctx context.Context, id int, r *seqring.Reader[Record], reports *mpsc.Queue[delivery], writerDone <-chan struct{}, yieldEvery int) {
	var empties int
	for {
		rec, ok := r.PopFront()
		if ok {
			sw := spin.Wait{}
			for !reports.Enqueue(delivery{consumer: id, rec: rec}) {
				sw.Once()
			}
			continue
		}

		select {
		case <-writerDone:
			if r.Pending() == 0 {
				return
			}
		case <-ctx.Done():
			return
		default:
		}

		empties++
		if yieldEvery > 0 && empties%yieldEvery == 0 {
			runtime.Gosched()
		}
	}
}

// collect drains deliveries until every consumer has returned and checks
// them against the mode's guarantees.
func collect(cfg config.StressConfig, reports *mpsc.Queue[delivery], consumersDone <-chan struct{}, report *StressReport) error {
	var firstErr error
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	seen := make(map[uint64]int) // seq -> consumer, shared mode
	last := make([]int64, cfg.Consumers)
	for i := range last {
		last[i] = -1
	}

	check := func(d delivery) {
		report.Delivered[d.consumer]++
		report.Total++

		if !d.rec.Valid() {
			fail(fmt.Errorf("consumer %d seq %d: %w", d.consumer, d.rec.Seq, ErrTorn))
			return
		}
		if d.rec.Seq >= uint64(cfg.Messages) {
			fail(fmt.Errorf("consumer %d seq %d: %w", d.consumer, d.rec.Seq, ErrMismatch))
			return
		}

		switch cfg.Mode {
		case config.ModeShared:
			if other, dup := seen[d.rec.Seq]; dup {
				fail(fmt.Errorf("seq %d to consumers %d and %d: %w", d.rec.Seq, other, d.consumer, ErrDuplicate))
				return
			}
			seen[d.rec.Seq] = d.consumer
		case config.ModeCloned:
			if int64(d.rec.Seq) <= last[d.consumer] {
				fail(fmt.Errorf("consumer %d seq %d after %d: %w", d.consumer, d.rec.Seq, last[d.consumer], ErrOutOfOrder))
			}
			last[d.consumer] = int64(d.rec.Seq)
		}
	}

	sw := spin.Wait{}
	for {
		if d, ok := reports.Dequeue(); ok {
			check(d)
			sw = spin.Wait{}
			continue
		}

		select {
		case <-consumersDone:
			// producers of reports are gone, drain what is left
			for d, ok := reports.Dequeue(); ok; d, ok = reports.Dequeue() {
				check(d)
			}
			if cfg.Mode == config.ModeShared && report.Total > uint64(cfg.Messages) {
				fail(fmt.Errorf("%d of %d: %w", report.Total, cfg.Messages, ErrOverDelivered))
			}
			return firstErr
		default:
			sw.Once()
		}
	}
}

func addStats(a, b seqring.ReaderStats) seqring.ReaderStats {
	return seqring.ReaderStats{
		Delivered: a.Delivered + b.Delivered,
		Empty:     a.Empty + b.Empty,
		Torn:      a.Torn + b.Torn,
		Stolen:    a.Stolen + b.Stolen,
		Overruns:  a.Overruns + b.Overruns,
	}
}
