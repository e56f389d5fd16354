package documents

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"approval-backend/internal/jobs"
	"approval-backend/internal/requests"
	"approval-backend/internal/shared/storage/object/local"
)

func setupService(t *testing.T) (*Service, *jobs.MemoryRepo) {
	t.Helper()
	reqRepo := requests.NewMemoryRepo()
	req := requests.Request{
		ID:           "r-1",
		RefCode:      "INV-2026-0001",
		Type:         requests.TypeInvestment,
		Title:        "New data center",
		RequesterID:  "u-req",
		AmountCents:  1000,
		Status:       requests.StatusDraft,
		CurrentCycle: 1,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := reqRepo.Create(context.Background(), req); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	jobRepo := jobs.NewMemoryRepo()
	svc := &Service{
		Docs:     NewMemoryRepo(),
		Jobs:     jobRepo,
		Store:    local.New(t.TempDir()),
		Requests: reqRepo,
	}
	return svc, jobRepo
}

func TestUploadCreatesDocumentAndJob(t *testing.T) {
	svc, jobRepo := setupService(t)

	doc, job, err := svc.Upload(context.Background(), requests.TypeInvestment, "r-1", "u-req", "proposal.txt", bytes.NewReader([]byte("capex plan")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.AnalysisStatus != AnalysisPending {
		t.Fatalf("analysis status = %s, want pending", doc.AnalysisStatus)
	}
	if doc.Fingerprint == "" {
		t.Fatal("fingerprint not computed")
	}
	if job.DocumentID != doc.ID || job.Status != jobs.StatusPending {
		t.Fatalf("job = %+v", job)
	}

	claimed, ok, err := jobRepo.ClaimNext(context.Background())
	if err != nil || !ok {
		t.Fatalf("claim queued job: ok=%v err=%v", ok, err)
	}
	if claimed.ID != job.ID {
		t.Fatalf("claimed %s, want %s", claimed.ID, job.ID)
	}
}

func TestUploadDuplicateContentReusesExternalFileID(t *testing.T) {
	svc, _ := setupService(t)
	content := []byte("identical bytes")

	first, _, err := svc.Upload(context.Background(), requests.TypeInvestment, "r-1", "u-req", "a.txt", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	// The pipeline finished the first document's gateway upload.
	if err := svc.Docs.SetExternalFileID(context.Background(), first.ID, "ext-123"); err != nil {
		t.Fatalf("set external id: %v", err)
	}

	second, _, err := svc.Upload(context.Background(), requests.TypeInvestment, "r-1", "u-req", "b.txt", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if second.ExternalFileID != "ext-123" {
		t.Fatalf("external file id = %q, want reuse of ext-123", second.ExternalFileID)
	}
	if second.Fingerprint != first.Fingerprint {
		t.Fatalf("fingerprints differ: %s vs %s", first.Fingerprint, second.Fingerprint)
	}
}

func TestUploadRejectsTraversalFileName(t *testing.T) {
	svc, _ := setupService(t)
	_, _, err := svc.Upload(context.Background(), requests.TypeInvestment, "r-1", "u-req", "../../etc/passwd.txt", bytes.NewReader([]byte("x")))
	if !errors.Is(err, ErrBadFileName) {
		t.Fatalf("err = %v, want ErrBadFileName", err)
	}
}

func TestUploadRejectsUnknownExtension(t *testing.T) {
	svc, _ := setupService(t)
	_, _, err := svc.Upload(context.Background(), requests.TypeInvestment, "r-1", "u-req", "malware.exe", bytes.NewReader([]byte("x")))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestUploadRejectsUnknownRequest(t *testing.T) {
	svc, _ := setupService(t)
	_, _, err := svc.Upload(context.Background(), requests.TypeInvestment, "missing", "u-req", "a.txt", bytes.NewReader([]byte("x")))
	if !errors.Is(err, requests.ErrNotFound) {
		t.Fatalf("err = %v, want requests.ErrNotFound", err)
	}
}

func TestDeleteRequiresUploaderOrAdmin(t *testing.T) {
	svc, _ := setupService(t)
	doc, _, err := svc.Upload(context.Background(), requests.TypeInvestment, "r-1", "u-req", "a.txt", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.Delete(context.Background(), doc.ID, "u-other", "manager"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger delete: err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(context.Background(), doc.ID, "u-admin", "admin"); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted doc fetch: err = %v, want ErrNotFound", err)
	}
}
