package workerproc

import (
	"context"
	"sync"
	"time"

	"approval-backend/internal/shared/metrics"
	"approval-backend/internal/shared/telemetry"
)

// Waker blocks until a wake-up signal arrives or the wait expires.
// The SQS receiver implements it; without one the runner just sleeps
// the poll interval between empty polls.
type Waker interface {
	Wait(ctx context.Context, d time.Duration)
}

type sleepWaker struct{}

func (sleepWaker) Wait(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Runner claims jobs from the queue table and hands them to the
// processor, up to Concurrency at a time.
type Runner struct {
	Proc         *Processor
	PollInterval time.Duration
	Concurrency  int
	Waker        Waker
}

// Run polls until ctx is cancelled, then waits for in-flight jobs.
func (r *Runner) Run(ctx context.Context) {
	interval := r.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	concurrency := r.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	waker := r.Waker
	if waker == nil {
		waker = sleepWaker{}
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"poll_interval_ms": interval.Milliseconds(),
		"concurrency":      concurrency,
	})

	for ctx.Err() == nil {
		job, ok, err := r.Proc.Jobs.ClaimNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			telemetry.Error("worker.claim", map[string]any{"error": err.Error()})
			waker.Wait(ctx, interval)
			continue
		}
		if !ok {
			waker.Wait(ctx, interval)
			continue
		}
		metrics.IncJobClaimed()

		select {
		case <-ctx.Done():
			// Claimed but shutting down; put it back for the next worker.
			if rerr := r.Proc.Jobs.Requeue(context.Background(), job.ID, "worker shutdown"); rerr != nil {
				telemetry.Error("worker.requeue_on_shutdown", map[string]any{"job_id": job.ID, "error": rerr.Error()})
			}
		case sem <- struct{}{}:
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				r.Proc.Process(ctx, job)
			}()
		}
	}

	wg.Wait()
	telemetry.Info("worker.stopped", nil)
}
