package approvals

import (
	"context"
	"errors"
	"testing"
	"time"

	"approval-backend/internal/notifications"
	"approval-backend/internal/requests"
	"approval-backend/internal/sequence"
	"approval-backend/internal/tasks"
	"approval-backend/internal/users"
)

type fixture struct {
	svc      *Service
	requests *requests.Service
	tasks    *tasks.MemoryRepo
	notifs   *notifications.MemoryRepo
}

func setup(t *testing.T) *fixture {
	t.Helper()

	userRepo := users.NewMemoryRepo()
	seed := []users.User{
		{ID: "u-req", Email: "req@example.com", Role: users.RoleRequester},
		{ID: "u-mgr", Email: "mgr@example.com", Role: users.RoleManager},
		{ID: "u-risk", Email: "risk@example.com", Role: users.RoleRisk},
		{ID: "u-com", Email: "com@example.com", Role: users.RoleCommittee},
		{ID: "u-fin", Email: "fin@example.com", Role: users.RoleFinance},
	}
	for _, u := range seed {
		if err := userRepo.Create(context.Background(), u); err != nil {
			t.Fatalf("seed user %s: %v", u.ID, err)
		}
	}

	taskRepo := tasks.NewMemoryRepo()
	notifRepo := notifications.NewMemoryRepo()
	reqSvc := &requests.Service{Repo: requests.NewMemoryRepo(), Seq: sequence.NewMemoryRepo()}
	svc := &Service{
		Requests:  reqSvc.Repo,
		Approvals: NewMemoryRepo(),
		Tasks:     taskRepo,
		Users:     userRepo,
		Notifier:  &notifications.Service{Repo: notifRepo},
	}
	return &fixture{svc: svc, requests: reqSvc, tasks: taskRepo, notifs: notifRepo}
}

func (f *fixture) newPendingRequest(t *testing.T, requestType string) requests.Request {
	t.Helper()
	req, err := f.requests.Create(context.Background(), "u-req", requests.CreateInput{
		Type:        requestType,
		Title:       "New data center",
		AmountCents: 2_500_000_00,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if err := f.svc.Start(context.Background(), requestType, req.ID, "u-req"); err != nil {
		t.Fatalf("start workflow: %v", err)
	}
	got, err := f.requests.Get(context.Background(), requestType, req.ID)
	if err != nil {
		t.Fatalf("reload request: %v", err)
	}
	return got
}

func pendingTasksFor(t *testing.T, repo *tasks.MemoryRepo, userID string) []tasks.Task {
	t.Helper()
	out, err := repo.ListByUser(context.Background(), userID, true, 50, 0)
	if err != nil {
		t.Fatalf("list tasks for %s: %v", userID, err)
	}
	return out
}

func TestStartAssignsStageOneTasks(t *testing.T) {
	f := setup(t)
	req := f.newPendingRequest(t, requests.TypeInvestment)

	if req.Status != requests.StatusPending {
		t.Fatalf("status = %s, want pending", req.Status)
	}
	if req.CurrentStage != 1 {
		t.Fatalf("stage = %d, want 1", req.CurrentStage)
	}
	if got := pendingTasksFor(t, f.tasks, "u-mgr"); len(got) != 1 {
		t.Fatalf("manager tasks = %d, want 1", len(got))
	}
	if got := pendingTasksFor(t, f.tasks, "u-risk"); len(got) != 0 {
		t.Fatalf("risk tasks = %d, want 0 before stage 2", len(got))
	}
}

func TestApproveAdvancesStageAndAssignsNextTasks(t *testing.T) {
	f := setup(t)
	req := f.newPendingRequest(t, requests.TypeInvestment)

	got, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-mgr", ApproverRole: users.RoleManager, Outcome: OutcomeApproved,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got.CurrentStage != 2 {
		t.Fatalf("stage = %d, want 2", got.CurrentStage)
	}
	if got.Status != requests.StatusPending {
		t.Fatalf("status = %s, want pending", got.Status)
	}
	if mgr := pendingTasksFor(t, f.tasks, "u-mgr"); len(mgr) != 0 {
		t.Fatalf("manager still has %d pending tasks after deciding", len(mgr))
	}
	if risk := pendingTasksFor(t, f.tasks, "u-risk"); len(risk) != 1 {
		t.Fatalf("risk tasks = %d, want 1", len(risk))
	}
}

func TestFinalStageApproveFinishesChain(t *testing.T) {
	f := setup(t)
	req := f.newPendingRequest(t, requests.TypeCash)

	if _, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-mgr", ApproverRole: users.RoleManager, Outcome: OutcomeApproved,
	}); err != nil {
		t.Fatalf("stage 1: %v", err)
	}
	got, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-fin", ApproverRole: users.RoleFinance, Outcome: OutcomeApproved,
	})
	if err != nil {
		t.Fatalf("stage 2: %v", err)
	}

	if got.Status != requests.StatusApproved {
		t.Fatalf("status = %s, want approved", got.Status)
	}
	if got.CurrentStage != StageCount(requests.TypeCash) {
		t.Fatalf("stage = %d, want %d (never past the last stage)", got.CurrentStage, StageCount(requests.TypeCash))
	}
	if got.DecidedAt == nil {
		t.Fatal("decidedAt not set on approval")
	}
	for _, userID := range []string{"u-mgr", "u-fin"} {
		if pending := pendingTasksFor(t, f.tasks, userID); len(pending) != 0 {
			t.Fatalf("%s still has %d pending tasks after final approval", userID, len(pending))
		}
	}
}

func TestRejectEndsCycleAndClosesTasks(t *testing.T) {
	f := setup(t)
	req := f.newPendingRequest(t, requests.TypeInvestment)

	got, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-mgr", ApproverRole: users.RoleManager, Outcome: OutcomeRejected, Comments: "over budget",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got.Status != requests.StatusRejected {
		t.Fatalf("status = %s, want rejected", got.Status)
	}
	if pending := pendingTasksFor(t, f.tasks, "u-mgr"); len(pending) != 0 {
		t.Fatalf("manager has %d pending tasks after reject", len(pending))
	}

	// Terminal: no further decisions accepted.
	_, err = f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-mgr", ApproverRole: users.RoleManager, Outcome: OutcomeApproved,
	})
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("decision on rejected request: err = %v, want ErrNotPending", err)
	}
}

func TestRejectWithoutCommentsRefused(t *testing.T) {
	f := setup(t)
	req := f.newPendingRequest(t, requests.TypeInvestment)

	_, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-mgr", ApproverRole: users.RoleManager, Outcome: OutcomeRejected,
	})
	if !errors.Is(err, ErrCommentNeeded) {
		t.Fatalf("err = %v, want ErrCommentNeeded", err)
	}
}

func TestWrongRoleCannotDecideStage(t *testing.T) {
	f := setup(t)
	req := f.newPendingRequest(t, requests.TypeInvestment)

	_, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-fin", ApproverRole: users.RoleFinance, Outcome: OutcomeApproved,
	})
	if !errors.Is(err, ErrWrongStage) {
		t.Fatalf("err = %v, want ErrWrongStage", err)
	}
}

func TestSameStageSecondDecisionReplaysRecordedOutcome(t *testing.T) {
	f := setup(t)
	req := f.newPendingRequest(t, requests.TypeInvestment)

	// A stage-1 approval row exists but the request never advanced:
	// the decider died between the two writes. The next decision at
	// that stage must finish the recorded transition instead of
	// returning conflict forever.
	now := time.Now()
	if err := f.svc.Approvals.Create(context.Background(), Approval{
		ID: "a-1", RequestType: req.Type, RequestID: req.ID,
		Cycle: req.CurrentCycle, Stage: req.CurrentStage,
		ApproverID: "u-mgr", Outcome: OutcomeApproved,
		IsCurrentCycle: true, DecidedAt: now, CreatedAt: now,
	}); err != nil {
		t.Fatalf("seed first decision: %v", err)
	}

	got, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-mgr2", ApproverRole: users.RoleManager, Outcome: OutcomeRejected, Comments: "too risky",
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if got.CurrentStage != 2 || got.Status != requests.StatusPending {
		t.Fatalf("request = stage %d status %s, want stage 2 pending", got.CurrentStage, got.Status)
	}

	// The recorded approval wins; the second decision is not stored.
	rows, err := f.svc.Approvals.ListCurrentCycle(context.Background(), req.Type, req.ID)
	if err != nil {
		t.Fatalf("list approvals: %v", err)
	}
	if len(rows) != 1 || rows[0].Outcome != OutcomeApproved || rows[0].ApproverID != "u-mgr" {
		t.Fatalf("approvals = %+v, want the recorded stage-1 approval only", rows)
	}

	// Stage 2 is live again: the risk reviewer can decide.
	if _, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-risk", ApproverRole: users.RoleRisk, Outcome: OutcomeApproved,
	}); err != nil {
		t.Fatalf("stage 2 decision: %v", err)
	}
}

func TestInterruptedRejectionIsResumed(t *testing.T) {
	f := setup(t)
	req := f.newPendingRequest(t, requests.TypeInvestment)

	now := time.Now()
	if err := f.svc.Approvals.Create(context.Background(), Approval{
		ID: "a-1", RequestType: req.Type, RequestID: req.ID,
		Cycle: req.CurrentCycle, Stage: req.CurrentStage,
		ApproverID: "u-mgr", Outcome: OutcomeRejected, Comments: "duplicate request",
		IsCurrentCycle: true, DecidedAt: now, CreatedAt: now,
	}); err != nil {
		t.Fatalf("seed decision: %v", err)
	}

	got, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-mgr", ApproverRole: users.RoleManager, Outcome: OutcomeRejected, Comments: "still duplicate",
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if got.Status != requests.StatusRejected {
		t.Fatalf("status = %s, want rejected", got.Status)
	}
	if tasksLeft := pendingTasksFor(t, f.tasks, "u-mgr"); len(tasksLeft) != 0 {
		t.Fatalf("pending tasks = %+v, want none after rejection", tasksLeft)
	}
}

func TestChangesRequestedThenResubmitStartsNewCycle(t *testing.T) {
	f := setup(t)
	req := f.newPendingRequest(t, requests.TypeInvestment)

	if _, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-mgr", ApproverRole: users.RoleManager, Outcome: OutcomeChangesRequested, Comments: "add vendor quotes",
	}); err != nil {
		t.Fatalf("request changes: %v", err)
	}

	// The requester gets an update task.
	reqTasks := pendingTasksFor(t, f.tasks, "u-req")
	if len(reqTasks) != 1 || reqTasks[0].Kind != tasks.KindChanges {
		t.Fatalf("requester tasks = %+v, want one changes task", reqTasks)
	}

	cycle, err := f.svc.Resubmit(context.Background(), req.Type, req.ID, "u-req")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if cycle != 2 {
		t.Fatalf("cycle = %d, want 2", cycle)
	}

	got, err := f.requests.Get(context.Background(), req.Type, req.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != requests.StatusPending || got.CurrentStage != 1 || got.CurrentCycle != 2 {
		t.Fatalf("after resubmit: status=%s stage=%d cycle=%d", got.Status, got.CurrentStage, got.CurrentCycle)
	}

	// History keeps the first cycle's decision; the live cycle is empty.
	history, err := f.svc.ListHistory(context.Background(), req.Type, req.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Cycle != 1 || history[0].IsCurrentCycle {
		t.Fatalf("history = %+v, want one historical cycle-1 decision", history)
	}
	current, err := f.svc.ListCurrent(context.Background(), req.Type, req.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if len(current) != 0 {
		t.Fatalf("current cycle decisions = %d, want 0", len(current))
	}

	// Stage 1 can be decided again in the new cycle.
	if _, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-mgr", ApproverRole: users.RoleManager, Outcome: OutcomeApproved,
	}); err != nil {
		t.Fatalf("stage 1 in cycle 2: %v", err)
	}
}

func TestResubmitOnlyAfterChangesRequested(t *testing.T) {
	f := setup(t)
	req := f.newPendingRequest(t, requests.TypeInvestment)

	_, err := f.svc.Resubmit(context.Background(), req.Type, req.ID, "u-req")
	if !errors.Is(err, requests.ErrConflict) {
		t.Fatalf("resubmit pending request: err = %v, want ErrConflict", err)
	}
}

func TestStartOnlyByOwner(t *testing.T) {
	f := setup(t)
	req, err := f.requests.Create(context.Background(), "u-req", requests.CreateInput{
		Type: requests.TypeCash, Title: "Petty cash", AmountCents: 50_000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.Start(context.Background(), req.Type, req.ID, "u-mgr"); !errors.Is(err, requests.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}
