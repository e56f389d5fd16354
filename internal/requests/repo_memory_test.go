package requests

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedRequest(t *testing.T, repo *MemoryRepo, status Status, stage, cycle int) Request {
	t.Helper()
	now := time.Now().UTC()
	req := Request{
		ID:           "r-1",
		RefCode:      "INV-2026-0001",
		Type:         TypeInvestment,
		Title:        "Warehouse expansion",
		RequesterID:  "u-req",
		AmountCents:  500_000_00,
		Currency:     "EUR",
		Status:       status,
		CurrentStage: stage,
		CurrentCycle: cycle,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(context.Background(), req); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return req
}

func TestSubmitOnlyFromDraft(t *testing.T) {
	repo := NewMemoryRepo()
	seedRequest(t, repo, StatusDraft, 0, 1)

	if err := repo.Submit(context.Background(), TypeInvestment, "r-1", time.Now()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), TypeInvestment, "r-1")
	if got.Status != StatusPending || got.CurrentStage != 1 || got.SubmittedAt == nil {
		t.Fatalf("after submit: %+v", got)
	}

	if err := repo.Submit(context.Background(), TypeInvestment, "r-1", time.Now()); !errors.Is(err, ErrConflict) {
		t.Fatalf("second submit: err = %v, want ErrConflict", err)
	}
}

func TestCASAdvanceGuardsStageAndCycle(t *testing.T) {
	repo := NewMemoryRepo()
	seedRequest(t, repo, StatusPending, 2, 1)

	if err := repo.CASAdvance(context.Background(), TypeInvestment, "r-1", 1, 2, 3, StatusPending, nil); err != nil {
		t.Fatalf("advance: %v", err)
	}
	// A second writer still expecting stage 2 must lose.
	if err := repo.CASAdvance(context.Background(), TypeInvestment, "r-1", 1, 2, 3, StatusPending, nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale advance: err = %v, want ErrConflict", err)
	}
	// Wrong cycle loses too.
	if err := repo.CASAdvance(context.Background(), TypeInvestment, "r-1", 2, 3, 4, StatusPending, nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("wrong cycle: err = %v, want ErrConflict", err)
	}
}

func TestSetDecisionRequiresPending(t *testing.T) {
	repo := NewMemoryRepo()
	seedRequest(t, repo, StatusPending, 1, 1)

	at := time.Now().UTC()
	if err := repo.SetDecision(context.Background(), TypeInvestment, "r-1", 1, StatusRejected, at); err != nil {
		t.Fatalf("decide: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), TypeInvestment, "r-1")
	if got.Status != StatusRejected || got.DecidedAt == nil {
		t.Fatalf("after decision: %+v", got)
	}

	if err := repo.SetDecision(context.Background(), TypeInvestment, "r-1", 1, StatusChangesRequested, at); !errors.Is(err, ErrConflict) {
		t.Fatalf("decide on terminal: err = %v, want ErrConflict", err)
	}
}

func TestStartCycleOnlyAfterChangesRequested(t *testing.T) {
	repo := NewMemoryRepo()
	seedRequest(t, repo, StatusChangesRequested, 2, 1)

	cycle, err := repo.StartCycle(context.Background(), TypeInvestment, "r-1")
	if err != nil {
		t.Fatalf("start cycle: %v", err)
	}
	if cycle != 2 {
		t.Fatalf("cycle = %d, want 2", cycle)
	}
	got, _ := repo.GetByID(context.Background(), TypeInvestment, "r-1")
	if got.Status != StatusPending || got.CurrentStage != 1 || got.DecidedAt != nil {
		t.Fatalf("after resubmit: %+v", got)
	}

	if _, err := repo.StartCycle(context.Background(), TypeInvestment, "r-1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("start cycle while pending: err = %v, want ErrConflict", err)
	}
}

func TestSoftDeleteHidesRequest(t *testing.T) {
	repo := NewMemoryRepo()
	seedRequest(t, repo, StatusDraft, 0, 1)

	if err := repo.SoftDelete(context.Background(), TypeInvestment, "r-1", time.Now()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), TypeInvestment, "r-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get deleted: err = %v, want ErrNotFound", err)
	}
	if err := repo.SoftDelete(context.Background(), TypeInvestment, "r-1", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: err = %v, want ErrNotFound", err)
	}
}

func TestListFiltersByStatusAndRequester(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	for _, req := range []Request{
		{ID: "a", Type: TypeInvestment, RequesterID: "u-1", Status: StatusDraft, CurrentCycle: 1, CreatedAt: now, UpdatedAt: now},
		{ID: "b", Type: TypeInvestment, RequesterID: "u-2", Status: StatusPending, CurrentCycle: 1, CreatedAt: now.Add(time.Second), UpdatedAt: now},
		{ID: "c", Type: TypeInvestment, RequesterID: "u-1", Status: StatusPending, CurrentCycle: 1, CreatedAt: now.Add(2 * time.Second), UpdatedAt: now},
	} {
		if err := repo.Create(context.Background(), req); err != nil {
			t.Fatalf("seed %s: %v", req.ID, err)
		}
	}

	got, err := repo.List(context.Background(), Filter{Type: TypeInvestment, Status: StatusPending, RequesterID: "u-1", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("list = %+v, want only c", got)
	}
}
