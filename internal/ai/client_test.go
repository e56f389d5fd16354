package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, "test-key", 5*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestEnsureUploadedSendsFingerprintAndKey(t *testing.T) {
	var gotKey, gotFingerprint, gotFileName string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/files" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("X-Api-Key")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotFingerprint = r.FormValue("fingerprint")
		if headers := r.MultipartForm.File["file"]; len(headers) == 1 {
			gotFileName = headers[0].Filename
		}
		w.Write([]byte(`{"fileId":"file-42"}`))
	})

	fileID, err := client.EnsureUploaded(context.Background(), "plan.pdf", "fp-abc", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if fileID != "file-42" {
		t.Fatalf("fileID = %s, want file-42", fileID)
	}
	if gotKey != "test-key" {
		t.Fatalf("X-Api-Key = %q", gotKey)
	}
	if gotFingerprint != "fp-abc" || gotFileName != "plan.pdf" {
		t.Fatalf("fingerprint=%q fileName=%q", gotFingerprint, gotFileName)
	}
}

func TestSummarizeReturnsText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/files/file-42/summary" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"text":"two paragraphs"}`))
	})

	text, err := client.Summarize(context.Background(), "file-42")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if text != "two paragraphs" {
		t.Fatalf("text = %q", text)
	}
}

func TestServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	})

	_, err := client.Analyze(context.Background(), "file-42")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("error should carry the gateway message: %v", err)
	}
}

func TestClientErrorIsTerminal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"unsupported file"}}`, http.StatusUnprocessableEntity)
	})

	_, err := client.Insights(context.Background(), "file-42")
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
}

func TestUnreachableGatewayIsRetryable(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1", "", time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Health(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  ", "", 0); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}
