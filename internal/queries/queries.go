// Package queries keeps the history of AI questions a user has asked:
// chat turns, per-document questions, cross-document searches, and web
// searches.
package queries

import (
	"context"
	"time"
)

// Query kinds.
const (
	KindChat          = "chat"
	KindDocument      = "document"
	KindCrossDocument = "cross_document"
	KindWebSearch     = "web_search"
)

// ValidKind reports whether raw names a known query kind.
func ValidKind(raw string) bool {
	switch raw {
	case KindChat, KindDocument, KindCrossDocument, KindWebSearch:
		return true
	}
	return false
}

// Entry is one recorded question and its answer.
type Entry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Kind        string    `json:"kind"`
	Query       string    `json:"query"`
	Answer      string    `json:"answer"`
	DocumentIDs []string  `json:"documentIds"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Repo interface {
	Create(ctx context.Context, entry Entry) error
	ListByUser(ctx context.Context, userID, kind string, limit, offset int) ([]Entry, error)
}
