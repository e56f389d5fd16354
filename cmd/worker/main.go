package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"approval-backend/internal/bootstrap"
	"approval-backend/internal/queue"
	"approval-backend/internal/shared/config"
	"approval-backend/internal/workerproc"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	runner := &workerproc.Runner{
		Proc:         app.Processor,
		PollInterval: cfg.WorkerPollInterval,
		Concurrency:  cfg.WorkerConcurrency,
	}
	// With SQS configured the runner long-polls the queue between claims
	// instead of sleeping, so new jobs start almost immediately.
	if waker, err := queue.NewSQSWaker(ctx, cfg.AWSRegion); err != nil {
		log.Printf("sqs waker unavailable, falling back to interval polling: %v", err)
	} else if waker != nil {
		runner.Waker = waker
	}

	log.Printf("worker started poll_interval=%s concurrency=%d", cfg.WorkerPollInterval, cfg.WorkerConcurrency)
	runner.Run(ctx)
}
