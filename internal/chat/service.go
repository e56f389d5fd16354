// Package chat fronts the AI gateway's question-answering features:
// per-document questions, grounded and web search, and free-form chat,
// all recorded in the user's query history.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"approval-backend/internal/ai"
	"approval-backend/internal/documents"
	"approval-backend/internal/queries"
	"approval-backend/internal/shared/telemetry"
)

var (
	ErrEmptyQuery = errors.New("query is empty")
	// ErrNoAnalyzedDocuments means none of the referenced documents
	// have been uploaded to the gateway yet.
	ErrNoAnalyzedDocuments = errors.New("no analyzed documents to search")
)

type Service struct {
	Gateway ai.Gateway
	Docs    documents.Repo
	History queries.Repo
}

// Search answers a question grounded on the given documents. Documents
// still waiting for analysis are skipped; the search fails only when
// none are ready.
func (s *Service) Search(ctx context.Context, userID, query string, documentIDs []string) (string, error) {
	if query == "" {
		return "", ErrEmptyQuery
	}

	var fileIDs []string
	var usedDocs []string
	for _, id := range documentIDs {
		doc, err := s.Docs.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, documents.ErrNotFound) {
				continue
			}
			return "", err
		}
		if doc.ExternalFileID == "" {
			continue
		}
		fileIDs = append(fileIDs, doc.ExternalFileID)
		usedDocs = append(usedDocs, doc.ID)
	}
	if len(documentIDs) > 0 && len(fileIDs) == 0 {
		return "", ErrNoAnalyzedDocuments
	}

	answer, err := s.Gateway.Search(ctx, query, fileIDs)
	if err != nil {
		return "", err
	}
	kind := queries.KindWebSearch
	if len(usedDocs) > 0 {
		kind = queries.KindCrossDocument
	}
	s.record(ctx, userID, kind, query, answer, usedDocs)
	return answer, nil
}

// AskDocument answers a free-form question about a single document.
func (s *Service) AskDocument(ctx context.Context, userID, documentID, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyQuery
	}
	doc, err := s.readyDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	answer, err := s.Gateway.Query(ctx, doc.ExternalFileID, prompt)
	if err != nil {
		return "", err
	}
	s.record(ctx, userID, queries.KindDocument, prompt, answer, []string{doc.ID})
	return answer, nil
}

// AnalyzeDocument re-runs the gateway analysis for one document on demand.
func (s *Service) AnalyzeDocument(ctx context.Context, userID, documentID string) (string, error) {
	return s.documentOp(ctx, userID, documentID, "analyze", s.Gateway.Analyze)
}

// SummarizeDocument fetches a fresh summary for one document.
func (s *Service) SummarizeDocument(ctx context.Context, userID, documentID string) (string, error) {
	return s.documentOp(ctx, userID, documentID, "summarize", s.Gateway.Summarize)
}

// InsightsDocument fetches fresh investment insights for one document.
func (s *Service) InsightsDocument(ctx context.Context, userID, documentID string) (string, error) {
	return s.documentOp(ctx, userID, documentID, "insights", s.Gateway.Insights)
}

func (s *Service) documentOp(ctx context.Context, userID, documentID, name string, op func(context.Context, string) (string, error)) (string, error) {
	doc, err := s.readyDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	answer, err := op(ctx, doc.ExternalFileID)
	if err != nil {
		return "", err
	}
	s.record(ctx, userID, queries.KindDocument, name+" "+doc.FileName, answer, []string{doc.ID})
	return answer, nil
}

// readyDocument loads a document that already has a gateway file.
func (s *Service) readyDocument(ctx context.Context, documentID string) (documents.Document, error) {
	doc, err := s.Docs.GetByID(ctx, documentID)
	if err != nil {
		return documents.Document{}, err
	}
	if doc.ExternalFileID == "" {
		return documents.Document{}, ErrNoAnalyzedDocuments
	}
	return doc, nil
}

// Chat forwards the conversation to the gateway and records the last
// user turn with the answer.
func (s *Service) Chat(ctx context.Context, userID string, messages []ai.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", ErrEmptyQuery
	}
	answer, err := s.Gateway.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	s.record(ctx, userID, queries.KindChat, messages[len(messages)-1].Content, answer, nil)
	return answer, nil
}

// ListHistory lists the user's past queries, newest first.
func (s *Service) ListHistory(ctx context.Context, userID, kind string, limit, offset int) ([]queries.Entry, error) {
	return s.History.ListByUser(ctx, userID, kind, limit, offset)
}

// record is best-effort: a history write failure never fails the answer.
func (s *Service) record(ctx context.Context, userID, kind, query, answer string, documentIDs []string) {
	entry := queries.Entry{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        kind,
		Query:       query,
		Answer:      answer,
		DocumentIDs: documentIDs,
		CreatedAt:   time.Now(),
	}
	if err := s.History.Create(ctx, entry); err != nil {
		telemetry.Error("chat.history", map[string]any{"user_id": userID, "kind": kind, "error": err.Error()})
	}
}
