package queue

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"approval-backend/internal/shared/telemetry"
)

// SQSWaker long-polls the queue so workers pick up new jobs faster
// than the database poll interval. Messages are deleted on receipt:
// the jobs table, not the queue, decides what runs.
type SQSWaker struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSWaker returns nil without error when no queue is configured.
func NewSQSWaker(ctx context.Context, region string) (*SQSWaker, error) {
	queueURL := strings.TrimSpace(os.Getenv("SQS_QUEUE_URL"))
	if queueURL == "" {
		return nil, nil
	}
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SQSWaker{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

// Wait long-polls for up to d (capped at SQS's 20s maximum) and
// returns as soon as any message arrives.
func (w *SQSWaker) Wait(ctx context.Context, d time.Duration) {
	waitSeconds := int32(d / time.Second)
	if waitSeconds < 1 {
		waitSeconds = 1
	}
	if waitSeconds > 20 {
		waitSeconds = 20
	}

	resp, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(w.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     waitSeconds,
	})
	if err != nil {
		if ctx.Err() == nil {
			telemetry.Error("queue.receive", map[string]any{"error": err.Error()})
		}
		return
	}
	for _, msg := range resp.Messages {
		if _, err := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(w.queueURL),
			ReceiptHandle: msg.ReceiptHandle,
		}); err != nil && ctx.Err() == nil {
			telemetry.Error("queue.delete", map[string]any{"error": err.Error()})
		}
	}
}
