package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Placeholder is a deterministic in-process Gateway used when no
// gateway URL is configured. File IDs are derived from fingerprints so
// deduplication behaves like the real service.
type Placeholder struct{}

func (Placeholder) EnsureUploaded(_ context.Context, _, fingerprint string, content io.Reader) (string, error) {
	// Drain so callers can treat content as consumed either way.
	if _, err := io.Copy(io.Discard, content); err != nil {
		return "", err
	}
	// The fingerprint is caller-supplied and may be short; rehash to a
	// fixed length so the derived ID stays stable per fingerprint.
	sum := sha256.Sum256([]byte(fingerprint))
	return "local-" + hex.EncodeToString(sum[:8]), nil
}

func (Placeholder) Analyze(_ context.Context, fileID string) (string, error) {
	return fmt.Sprintf(`{"fileId":%q,"findings":[]}`, fileID), nil
}

func (Placeholder) Summarize(_ context.Context, fileID string) (string, error) {
	return "Summary is not available in offline mode (file " + fileID + ").", nil
}

func (Placeholder) Insights(_ context.Context, fileID string) (string, error) {
	return "Insights are not available in offline mode (file " + fileID + ").", nil
}

func (Placeholder) Query(_ context.Context, fileID, prompt string) (string, error) {
	return fmt.Sprintf("No answer for %q in offline mode (file %s).", prompt, fileID), nil
}

func (Placeholder) Search(_ context.Context, query string, fileIDs []string) (string, error) {
	return fmt.Sprintf("No results for %q in offline mode (%d files).", query, len(fileIDs)), nil
}

func (Placeholder) Chat(_ context.Context, messages []ChatMessage) (string, error) {
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	return "Offline mode: cannot answer " + strings.TrimSpace(last), nil
}

func (Placeholder) Health(_ context.Context) error {
	return nil
}

var _ Gateway = Placeholder{}
