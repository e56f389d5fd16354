package approvals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"approval-backend/internal/notifications"
	"approval-backend/internal/requests"
	"approval-backend/internal/shared/metrics"
	"approval-backend/internal/shared/telemetry"
	"approval-backend/internal/tasks"
	"approval-backend/internal/users"
)

var (
	ErrNotPending    = errors.New("request is not pending approval")
	ErrWrongStage    = errors.New("approver role does not match the current stage")
	ErrInvalidInput  = errors.New("invalid approval input")
	ErrCommentNeeded = errors.New("comments are required for this outcome")
)

// Service runs the staged approval workflow. Concurrent decisions at
// the same stage are serialized by inserting the approval row first:
// the second writer hits the live-cycle uniqueness rule and gets
// ErrConflict before the request moves.
type Service struct {
	Requests  requests.Repo
	Approvals Repo
	Tasks     tasks.Repo
	Users     users.Repo
	Notifier  *notifications.Service
}

// Decision is one approver's verdict on the request's current stage.
type Decision struct {
	ApproverID   string
	ApproverRole string
	Outcome      string
	Comments     string
}

// Process records a decision and moves the request accordingly:
// approve advances the stage (or finishes the chain), reject and
// changes_requested end the cycle.
func (s *Service) Process(ctx context.Context, requestType, requestID string, d Decision) (requests.Request, error) {
	if !ValidOutcome(d.Outcome) {
		return requests.Request{}, ErrInvalidInput
	}
	if d.Outcome != OutcomeApproved && d.Comments == "" {
		return requests.Request{}, ErrCommentNeeded
	}

	req, err := s.Requests.GetByID(ctx, requestType, requestID)
	if err != nil {
		return requests.Request{}, err
	}
	if req.Status != requests.StatusPending {
		return requests.Request{}, ErrNotPending
	}

	stageRole := RoleForStage(requestType, req.CurrentStage)
	if stageRole == "" {
		return requests.Request{}, fmt.Errorf("no role configured for %s stage %d", requestType, req.CurrentStage)
	}
	if d.ApproverRole != stageRole && d.ApproverRole != users.RoleAdmin {
		return requests.Request{}, ErrWrongStage
	}

	now := time.Now()
	approval := Approval{
		ID:             uuid.NewString(),
		RequestType:    requestType,
		RequestID:      requestID,
		Cycle:          req.CurrentCycle,
		Stage:          req.CurrentStage,
		ApproverID:     d.ApproverID,
		Outcome:        d.Outcome,
		Comments:       d.Comments,
		IsCurrentCycle: true,
		DecidedAt:      now,
		CreatedAt:      now,
	}
	if err := s.Approvals.Create(ctx, approval); err != nil {
		if errors.Is(err, ErrConflict) {
			// A live approval for this stage already exists. Either a
			// concurrent decision won, or a previous decision recorded
			// its row and then died before moving the request. Replay
			// the recorded outcome; a real race still conflicts on the
			// request's stage guard.
			return s.resumeStage(ctx, req)
		}
		return requests.Request{}, err
	}

	switch d.Outcome {
	case OutcomeApproved:
		err = s.applyApprove(ctx, &req, now)
	case OutcomeRejected:
		err = s.applyDecision(ctx, &req, requests.StatusRejected, now)
	case OutcomeChangesRequested:
		err = s.applyDecision(ctx, &req, requests.StatusChangesRequested, now)
	}
	if err != nil {
		return requests.Request{}, err
	}

	// The approver's own task is done regardless of the outcome.
	if err := s.Tasks.CompleteForUser(ctx, requestType, requestID, d.ApproverID, now); err != nil {
		telemetry.Error("approvals.task_complete", map[string]any{
			"request_id": requestID,
			"user_id":    d.ApproverID,
			"error":      err.Error(),
		})
	}
	s.notifyOutcome(ctx, req, d.Outcome, d.Comments)
	metrics.IncApprovalProcessed()

	telemetry.Info("approvals.processed", map[string]any{
		"request_type": requestType,
		"request_id":   requestID,
		"cycle":        approval.Cycle,
		"stage":        approval.Stage,
		"outcome":      d.Outcome,
		"status":       string(req.Status),
	})
	return req, nil
}

// resumeStage finishes a stage whose approval row was written but
// whose request transition never landed. The recorded outcome is
// replayed against the request's current position; when the request
// has in fact moved on, the stage guard fails and the caller gets the
// original conflict.
func (s *Service) resumeStage(ctx context.Context, req requests.Request) (requests.Request, error) {
	rows, err := s.Approvals.ListCurrentCycle(ctx, req.Type, req.ID)
	if err != nil {
		return requests.Request{}, err
	}
	var recorded *Approval
	for i := range rows {
		if rows[i].Cycle == req.CurrentCycle && rows[i].Stage == req.CurrentStage {
			recorded = &rows[i]
			break
		}
	}
	if recorded == nil {
		return requests.Request{}, ErrConflict
	}

	now := time.Now()
	switch recorded.Outcome {
	case OutcomeApproved:
		err = s.applyApprove(ctx, &req, now)
	case OutcomeRejected:
		err = s.applyDecision(ctx, &req, requests.StatusRejected, now)
	case OutcomeChangesRequested:
		err = s.applyDecision(ctx, &req, requests.StatusChangesRequested, now)
	default:
		return requests.Request{}, ErrConflict
	}
	if err != nil {
		return requests.Request{}, err
	}

	if err := s.Tasks.CompleteForUser(ctx, req.Type, req.ID, recorded.ApproverID, now); err != nil {
		telemetry.Error("approvals.task_complete", map[string]any{
			"request_id": req.ID,
			"user_id":    recorded.ApproverID,
			"error":      err.Error(),
		})
	}
	s.notifyOutcome(ctx, req, recorded.Outcome, recorded.Comments)

	telemetry.Info("approvals.stage_resumed", map[string]any{
		"request_type": req.Type,
		"request_id":   req.ID,
		"cycle":        recorded.Cycle,
		"stage":        recorded.Stage,
		"outcome":      recorded.Outcome,
	})
	return req, nil
}

// applyApprove advances the stage pointer, or marks the request
// approved when the last stage signed off. The stage pointer never
// exceeds the chain length.
func (s *Service) applyApprove(ctx context.Context, req *requests.Request, now time.Time) error {
	last := StageCount(req.Type)
	if req.CurrentStage < last {
		next := req.CurrentStage + 1
		if err := s.Requests.CASAdvance(ctx, req.Type, req.ID, req.CurrentCycle, req.CurrentStage, next, requests.StatusPending, nil); err != nil {
			return err
		}
		req.CurrentStage = next
		s.assignStageTasks(ctx, *req, next, now)
		return nil
	}

	if err := s.Requests.CASAdvance(ctx, req.Type, req.ID, req.CurrentCycle, req.CurrentStage, last, requests.StatusApproved, &now); err != nil {
		return err
	}
	req.Status = requests.StatusApproved
	req.DecidedAt = &now
	return s.Tasks.CompleteAllForRequest(ctx, req.Type, req.ID, now)
}

// applyDecision ends the cycle with rejected or changes_requested and
// closes every open task on the request.
func (s *Service) applyDecision(ctx context.Context, req *requests.Request, status requests.Status, now time.Time) error {
	if err := s.Requests.SetDecision(ctx, req.Type, req.ID, req.CurrentCycle, status, now); err != nil {
		return err
	}
	req.Status = status
	if status == requests.StatusRejected {
		req.DecidedAt = &now
	}
	if err := s.Tasks.CompleteAllForRequest(ctx, req.Type, req.ID, now); err != nil {
		return err
	}
	if status == requests.StatusChangesRequested {
		task := tasks.New(req.RequesterID, req.Type, req.ID, tasks.KindChanges, "Update "+req.RefCode, now)
		if err := s.Tasks.Create(ctx, task); err != nil {
			telemetry.Error("approvals.changes_task", map[string]any{"request_id": req.ID, "error": err.Error()})
		}
	}
	return nil
}

// Start submits a draft into the workflow at stage 1. Implements
// requests.Workflow.
func (s *Service) Start(ctx context.Context, requestType, requestID, actorID string) error {
	req, err := s.Requests.GetByID(ctx, requestType, requestID)
	if err != nil {
		return err
	}
	if req.RequesterID != actorID {
		return requests.ErrForbidden
	}

	now := time.Now()
	if err := s.Requests.Submit(ctx, requestType, requestID, now); err != nil {
		return err
	}
	req.Status = requests.StatusPending
	req.CurrentStage = 1
	s.assignStageTasks(ctx, req, 1, now)

	telemetry.Info("approvals.started", map[string]any{
		"request_type": requestType,
		"request_id":   requestID,
		"cycle":        req.CurrentCycle,
	})
	return nil
}

// Resubmit re-enters the workflow after changes_requested: the old
// cycle's decisions become history and stage 1 starts over. Implements
// requests.Workflow.
func (s *Service) Resubmit(ctx context.Context, requestType, requestID, actorID string) (int, error) {
	req, err := s.Requests.GetByID(ctx, requestType, requestID)
	if err != nil {
		return 0, err
	}
	if req.RequesterID != actorID {
		return 0, requests.ErrForbidden
	}

	cycle, err := s.Requests.StartCycle(ctx, requestType, requestID)
	if err != nil {
		return 0, err
	}
	// Old-cycle rows must be historical before the new cycle collects
	// decisions at the same stages.
	if err := s.Approvals.MarkCycleHistorical(ctx, requestType, requestID); err != nil {
		return 0, err
	}

	now := time.Now()
	req.CurrentCycle = cycle
	req.CurrentStage = 1
	s.assignStageTasks(ctx, req, 1, now)

	telemetry.Info("approvals.resubmitted", map[string]any{
		"request_type": requestType,
		"request_id":   requestID,
		"cycle":        cycle,
	})
	return cycle, nil
}

// ListCurrent returns the live cycle's decisions.
func (s *Service) ListCurrent(ctx context.Context, requestType, requestID string) ([]Approval, error) {
	return s.Approvals.ListCurrentCycle(ctx, requestType, requestID)
}

// ListHistory returns decisions across every cycle.
func (s *Service) ListHistory(ctx context.Context, requestType, requestID string) ([]Approval, error) {
	return s.Approvals.ListAllCycles(ctx, requestType, requestID)
}

// assignStageTasks creates a pending task and a notification for every
// user holding the stage's role. Failures are logged, not propagated:
// the request has already moved and approvers can still act directly.
func (s *Service) assignStageTasks(ctx context.Context, req requests.Request, stage int, now time.Time) {
	role := RoleForStage(req.Type, stage)
	if role == "" {
		return
	}
	approvers, err := s.Users.ListByRole(ctx, role)
	if err != nil {
		telemetry.Error("approvals.list_approvers", map[string]any{"role": role, "error": err.Error()})
		return
	}
	for _, approver := range approvers {
		task := tasks.New(approver.ID, req.Type, req.ID, tasks.KindApproval, "Approve "+req.RefCode, now)
		if err := s.Tasks.Create(ctx, task); err != nil {
			telemetry.Error("approvals.assign_task", map[string]any{
				"request_id": req.ID,
				"user_id":    approver.ID,
				"error":      err.Error(),
			})
			continue
		}
		if s.Notifier != nil {
			s.Notifier.Notify(ctx, approver.ID, notifications.KindApprovalNeeded,
				req.RefCode+" needs your approval", req.Title, req.Type, req.ID)
		}
	}
}

// notifyOutcome tells the requester what happened to their request.
func (s *Service) notifyOutcome(ctx context.Context, req requests.Request, outcome, comments string) {
	if s.Notifier == nil {
		return
	}
	switch outcome {
	case OutcomeApproved:
		if req.Status == requests.StatusApproved {
			s.Notifier.Notify(ctx, req.RequesterID, notifications.KindDecision,
				req.RefCode+" approved", req.Title, req.Type, req.ID)
		}
	case OutcomeRejected:
		s.Notifier.Notify(ctx, req.RequesterID, notifications.KindDecision,
			req.RefCode+" rejected", comments, req.Type, req.ID)
	case OutcomeChangesRequested:
		s.Notifier.Notify(ctx, req.RequesterID, notifications.KindChangesRequested,
			req.RefCode+" needs changes", comments, req.Type, req.ID)
	}
}

var _ requests.Workflow = (*Service)(nil)
