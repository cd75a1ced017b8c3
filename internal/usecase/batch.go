package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

const defaultBatchConcurrency = 20

// BatchRunner fans a bulk submission out over a bounded worker pool. Every
// run owns its progress state, so concurrent runs never share counters.
type BatchRunner struct {
	concurrency int
}

// NewBatchRunner builds a runner with the given pool size. Non-positive
// values fall back to the default of 20.
func NewBatchRunner(concurrency int) *BatchRunner {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	return &BatchRunner{concurrency: concurrency}
}

// BatchProgress tracks a single run. All accessors are safe to call while
// the run is still in flight.
type BatchProgress struct {
	runID     string
	total     int
	completed atomic.Int64
	failed    atomic.Int64
	done      chan struct{}
}

// RunID returns the identifier stamped on this run.
func (p *BatchProgress) RunID() string { return p.runID }

// Done is closed once every dispatched item has finished.
func (p *BatchProgress) Done() <-chan struct{} { return p.done }

// BatchSnapshot is a point-in-time view of a run. Items cancelled before
// dispatch are neither completed nor failed, so the counters may not reach
// Total.
type BatchSnapshot struct {
	RunID     string `json:"runId"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Finished  bool   `json:"finished"`
}

// Snapshot reads the current counters.
func (p *BatchProgress) Snapshot() BatchSnapshot {
	finished := false
	select {
	case <-p.done:
		finished = true
	default:
	}
	return BatchSnapshot{
		RunID:     p.runID,
		Total:     p.total,
		Completed: int(p.completed.Load()),
		Failed:    int(p.failed.Load()),
		Finished:  finished,
	}
}

// Run dispatches fn over items with at most the configured number of workers
// in flight and returns immediately. Cancelling ctx stops further dispatch;
// items already running finish and are counted.
func (r *BatchRunner) Run(ctx context.Context, items []string, fn func(ctx context.Context, item string) error) *BatchProgress {
	progress := &BatchProgress{
		runID: uuid.NewString(),
		total: len(items),
		done:  make(chan struct{}),
	}

	slog.Info("batch run started",
		slog.String("run_id", progress.runID),
		slog.Int("items", len(items)), slog.Int("concurrency", r.concurrency))

	go func() {
		defer close(progress.done)

		sem := make(chan struct{}, r.concurrency)
		var wg sync.WaitGroup
		dispatched := 0

	dispatch:
		for _, item := range items {
			if ctx.Err() != nil {
				break dispatch
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				break dispatch
			}
			dispatched++
			wg.Add(1)
			go func(item string) {
				defer wg.Done()
				defer func() { <-sem }()
				if err := fn(ctx, item); err != nil {
					progress.failed.Add(1)
					slog.Warn("batch item failed",
						slog.String("run_id", progress.runID),
						slog.String("item", item), slog.Any("error", err))
					return
				}
				progress.completed.Add(1)
			}(item)
		}

		if dispatched < len(items) {
			slog.Warn("batch run cancelled before full dispatch",
				slog.String("run_id", progress.runID),
				slog.Int("dispatched", dispatched), slog.Int("total", len(items)))
		}
		wg.Wait()

		slog.Info("batch run finished",
			slog.String("run_id", progress.runID),
			slog.Int64("completed", progress.completed.Load()),
			slog.Int64("failed", progress.failed.Load()),
			slog.Int("total", len(items)))
	}()

	return progress
}
