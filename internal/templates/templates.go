// Package templates stores admin-managed form templates the client
// uses to prefill new requests.
package templates

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("template not found")

// Template holds a named JSON body for prefilling a request type's form.
type Template struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Body      json.RawMessage `json:"body"`
	CreatedBy string          `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Repo interface {
	Create(ctx context.Context, tpl Template) error
	GetByID(ctx context.Context, templateID string) (Template, error)
	List(ctx context.Context, templateType string) ([]Template, error)
	Update(ctx context.Context, tpl Template) error
	Delete(ctx context.Context, templateID string) error
}
