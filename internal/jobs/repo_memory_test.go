package jobs

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newJob(id, docID string, priority int, createdAt time.Time) Job {
	return Job{
		ID:          id,
		DocumentID:  docID,
		Status:      StatusPending,
		CurrentStep: StepQueued,
		MaxAttempts: 3,
		Priority:    priority,
		CreatedAt:   createdAt,
	}
}

func TestClaimNextOrdersByPriorityThenAge(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Now()
	for _, job := range []Job{
		newJob("j-old", "d-1", 0, base.Add(-2*time.Minute)),
		newJob("j-new", "d-2", 0, base),
		newJob("j-hot", "d-3", 5, base.Add(-time.Minute)),
	} {
		if err := repo.Create(context.Background(), job); err != nil {
			t.Fatalf("create %s: %v", job.ID, err)
		}
	}

	want := []string{"j-hot", "j-old", "j-new"}
	for _, expected := range want {
		job, ok, err := repo.ClaimNext(context.Background())
		if err != nil || !ok {
			t.Fatalf("claim: ok=%v err=%v", ok, err)
		}
		if job.ID != expected {
			t.Fatalf("claimed %s, want %s", job.ID, expected)
		}
		if job.Status != StatusProcessing || job.Attempts != 1 {
			t.Fatalf("claimed job state = %s attempts=%d", job.Status, job.Attempts)
		}
	}

	if _, ok, err := repo.ClaimNext(context.Background()); err != nil || ok {
		t.Fatalf("empty queue claim: ok=%v err=%v", ok, err)
	}
}

func TestClaimNextNeverHandsOutSameJobTwice(t *testing.T) {
	repo := NewMemoryRepo()
	const total = 20
	base := time.Now()
	for i := 0; i < total; i++ {
		job := newJob(fmt.Sprintf("j-%d", i), "d", 0, base.Add(time.Duration(i)*time.Second))
		if err := repo.Create(context.Background(), job); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, ok, err := repo.ClaimNext(context.Background())
				if err != nil {
					t.Errorf("claim: %v", err)
					return
				}
				if !ok {
					return
				}
				mu.Lock()
				if seen[job.ID] {
					t.Errorf("job %s claimed twice", job.ID)
				}
				seen[job.ID] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("claimed %d distinct jobs, want %d", len(seen), total)
	}
}

func TestRequeueMakesJobClaimableAgain(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Create(context.Background(), newJob("j-1", "d-1", 0, time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}
	first, ok, err := repo.ClaimNext(context.Background())
	if err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}
	if err := repo.Requeue(context.Background(), first.ID, "gateway timeout"); err != nil {
		t.Fatalf("requeue: %v", err)
	}

	second, ok, err := repo.ClaimNext(context.Background())
	if err != nil || !ok {
		t.Fatalf("reclaim: ok=%v err=%v", ok, err)
	}
	if second.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", second.Attempts)
	}
	if second.ErrorMessage != "gateway timeout" {
		t.Fatalf("error message = %q", second.ErrorMessage)
	}
}

func TestFailedJobIsNeverReclaimed(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Create(context.Background(), newJob("j-1", "d-1", 0, time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}
	job, ok, err := repo.ClaimNext(context.Background())
	if err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}
	if err := repo.Fail(context.Background(), job.ID, "unreadable file"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	if _, ok, err := repo.ClaimNext(context.Background()); err != nil || ok {
		t.Fatalf("failed job reclaimed: ok=%v err=%v", ok, err)
	}

	got, err := repo.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusFailed || got.FinishedAt == nil {
		t.Fatalf("got status=%s finishedAt=%v", got.Status, got.FinishedAt)
	}
}

func TestCompleteOnlyFromProcessing(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Create(context.Background(), newJob("j-1", "d-1", 0, time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Complete(context.Background(), "j-1"); err != ErrNotFound {
		t.Fatalf("complete pending job: err = %v, want ErrNotFound", err)
	}

	job, _, err := repo.ClaimNext(context.Background())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := repo.Complete(context.Background(), job.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err := repo.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentStep != StepCompleted || got.StepProgress != 100 {
		t.Fatalf("completed job step=%s progress=%d", got.CurrentStep, got.StepProgress)
	}
}

func TestStepNumber(t *testing.T) {
	if n := StepNumber(StepQueued); n != 0 {
		t.Fatalf("queued = %d, want 0", n)
	}
	if n := StepNumber(StepPreparing); n != 1 {
		t.Fatalf("preparing = %d, want 1", n)
	}
	if n := StepNumber(StepGeneratingInsights); n != len(Steps) {
		t.Fatalf("insights = %d, want %d", n, len(Steps))
	}
	if n := StepNumber(StepCompleted); n != len(Steps)+1 {
		t.Fatalf("completed = %d, want %d", n, len(Steps)+1)
	}
}
