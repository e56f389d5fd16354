// Package queue delivers wake-up messages to workers after a job is
// enqueued. The background_jobs table stays the source of truth; a
// lost message only delays pickup until the next poll.
package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
