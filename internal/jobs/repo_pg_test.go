package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var jobRowColumns = []string{
	"id", "document_id", "status", "current_step", "current_step_number", "step_progress",
	"attempts", "max_attempts", "priority", "error_message", "started_at", "finished_at", "created_at", "updated_at",
}

func TestPGClaimNextReturnsClaimedJob(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repo := &PGRepo{DB: conn}
	now := time.Now()

	mock.ExpectQuery("UPDATE background_jobs SET").
		WillReturnRows(sqlmock.NewRows(jobRowColumns).
			AddRow("job-1", "doc-1", StatusProcessing, StepQueued, 0, 0, 1, 3, 0, "", now, nil, now, now))

	job, ok, err := repo.ClaimNext(context.Background())
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if !ok {
		t.Fatal("expected a claimed job")
	}
	if job.ID != "job-1" || job.Status != StatusProcessing || job.Attempts != 1 {
		t.Fatalf("job = %+v", job)
	}
	if job.StartedAt == nil || job.FinishedAt != nil {
		t.Fatalf("timestamps = %v / %v", job.StartedAt, job.FinishedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGClaimNextEmptyQueue(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repo := &PGRepo{DB: conn}

	mock.ExpectQuery("UPDATE background_jobs SET").
		WillReturnRows(sqlmock.NewRows(jobRowColumns))

	_, ok, err := repo.ClaimNext(context.Background())
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if ok {
		t.Fatal("empty queue should claim nothing")
	}
}

func TestPGCompleteRequiresProcessingRow(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repo := &PGRepo{DB: conn}

	mock.ExpectExec("UPDATE background_jobs SET").
		WithArgs(len(Steps)+1, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Complete(context.Background(), "job-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for non-processing job", err)
	}
}
