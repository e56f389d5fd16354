package requests

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"approval-backend/internal/sequence"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("not allowed")
	ErrNotEditable  = errors.New("request is not editable in its current status")
)

// Workflow is implemented by the approvals engine; keeping it as an
// interface here avoids an import cycle between the two packages.
type Workflow interface {
	Start(ctx context.Context, requestType, requestID, actorID string) error
	Resubmit(ctx context.Context, requestType, requestID, actorID string) (int, error)
}

// Service contains business logic for requests.
type Service struct {
	Repo Repo
	Seq  sequence.Repo
}

// CreateInput carries the user-supplied fields for a new request.
type CreateInput struct {
	Type        string
	Title       string
	Description string
	AmountCents int64
	Currency    string
	RiskLevel   string
}

// Create stores a new draft request with a sequence-generated reference code.
func (s *Service) Create(ctx context.Context, requesterID string, in CreateInput) (Request, error) {
	in.Title = strings.TrimSpace(in.Title)
	if requesterID == "" || in.Title == "" || !ValidType(in.Type) || in.AmountCents <= 0 {
		return Request{}, ErrInvalidInput
	}
	if in.RiskLevel == "" {
		in.RiskLevel = RiskMedium
	}
	if !ValidRisk(in.RiskLevel) {
		return Request{}, ErrInvalidInput
	}
	if in.Currency == "" {
		in.Currency = "USD"
	}

	now := time.Now().UTC()
	year := now.Year()
	prefix := RefPrefix(in.Type)
	seq, err := s.Seq.Next(ctx, sequence.Name(prefix, year))
	if err != nil {
		return Request{}, err
	}

	req := Request{
		ID:           uuid.NewString(),
		RefCode:      sequence.FormatRef(prefix, year, seq),
		Type:         in.Type,
		Title:        in.Title,
		Description:  strings.TrimSpace(in.Description),
		RequesterID:  requesterID,
		AmountCents:  in.AmountCents,
		Currency:     strings.ToUpper(in.Currency),
		RiskLevel:    in.RiskLevel,
		Status:       StatusDraft,
		CurrentStage: 0,
		CurrentCycle: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Get returns a request by type and ID.
func (s *Service) Get(ctx context.Context, requestType, id string) (Request, error) {
	if !ValidType(requestType) || id == "" {
		return Request{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, requestType, id)
}

// List returns requests matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Request, error) {
	return s.Repo.List(ctx, filter)
}

// Update rewrites the editable fields. Only the owner may edit, and only
// while the request is draft or awaiting changes.
func (s *Service) Update(ctx context.Context, actorID, requestType, id string, in CreateInput) (Request, error) {
	req, err := s.Repo.GetByID(ctx, requestType, id)
	if err != nil {
		return Request{}, err
	}
	if req.RequesterID != actorID {
		return Request{}, ErrForbidden
	}
	if req.Status != StatusDraft && req.Status != StatusChangesRequested {
		return Request{}, ErrNotEditable
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.AmountCents <= 0 || (in.RiskLevel != "" && !ValidRisk(in.RiskLevel)) {
		return Request{}, ErrInvalidInput
	}

	req.Title = in.Title
	req.Description = strings.TrimSpace(in.Description)
	req.AmountCents = in.AmountCents
	if in.Currency != "" {
		req.Currency = strings.ToUpper(in.Currency)
	}
	if in.RiskLevel != "" {
		req.RiskLevel = in.RiskLevel
	}
	if err := s.Repo.Update(ctx, req); err != nil {
		return Request{}, err
	}
	return s.Repo.GetByID(ctx, requestType, id)
}

// SoftDelete removes a request from view. Owners may delete drafts and
// rejected requests; admins may delete any.
func (s *Service) SoftDelete(ctx context.Context, actorID, actorRole, requestType, id string) error {
	req, err := s.Repo.GetByID(ctx, requestType, id)
	if err != nil {
		return err
	}
	if actorRole != "admin" {
		if req.RequesterID != actorID {
			return ErrForbidden
		}
		if req.Status != StatusDraft && req.Status != StatusRejected {
			return ErrNotEditable
		}
	}
	return s.Repo.SoftDelete(ctx, requestType, id, time.Now().UTC())
}
