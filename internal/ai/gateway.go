// Package ai defines the contract with the external document-analysis
// gateway and its HTTP implementation.
package ai

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrUnavailable wraps transport failures and 5xx answers; callers
	// treat it as retryable.
	ErrUnavailable = errors.New("ai gateway unavailable")
	// ErrBadRequest wraps 4xx answers; retrying the same input will not help.
	ErrBadRequest = errors.New("ai gateway rejected request")
)

// ChatMessage is one turn in a chat exchange with the gateway.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Gateway is the external AI service. EnsureUploaded is
// fingerprint-keyed: sending the same content twice returns the same
// file ID without a second upload.
type Gateway interface {
	EnsureUploaded(ctx context.Context, fileName, fingerprint string, content io.Reader) (fileID string, err error)
	Analyze(ctx context.Context, fileID string) (string, error)
	Summarize(ctx context.Context, fileID string) (string, error)
	Insights(ctx context.Context, fileID string) (string, error)
	// Query asks a free-form question about one uploaded file.
	Query(ctx context.Context, fileID, prompt string) (string, error)
	// Search answers a question grounded on the given uploaded files.
	Search(ctx context.Context, query string, fileIDs []string) (string, error)
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
	Health(ctx context.Context) error
}
