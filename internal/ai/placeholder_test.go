package ai

import (
	"context"
	"strings"
	"testing"
)

func TestPlaceholderFileIDStablePerFingerprint(t *testing.T) {
	p := Placeholder{}

	// Fingerprints shorter than the derived ID length are valid input.
	first, err := p.EnsureUploaded(context.Background(), "a.txt", "fp-plan", strings.NewReader("body"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(first, "local-") {
		t.Fatalf("fileID = %q", first)
	}

	again, err := p.EnsureUploaded(context.Background(), "b.txt", "fp-plan", strings.NewReader("other body"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if again != first {
		t.Fatalf("same fingerprint produced %q then %q", first, again)
	}

	other, err := p.EnsureUploaded(context.Background(), "a.txt", "", strings.NewReader("body"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if other == first {
		t.Fatalf("different fingerprints share fileID %q", other)
	}
}

func TestPlaceholderHealth(t *testing.T) {
	if err := (Placeholder{}).Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}
