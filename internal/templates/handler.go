package templates

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"approval-backend/internal/shared/server/middleware"
	"approval-backend/internal/shared/server/respond"
	"approval-backend/internal/users"
)

var validate = validator.New()

// Handler wires template HTTP handlers to the repo. Reads are open to
// any signed-in user; mutation is admin-only.
type Handler struct {
	Repo Repo
}

func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches template routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/templates", h.list)
	rg.GET("/templates/:templateId", h.get)
	rg.POST("/templates", h.create)
	rg.PUT("/templates/:templateId", h.update)
	rg.DELETE("/templates/:templateId", h.remove)
}

type templateBody struct {
	Name string          `json:"name" validate:"required"`
	Type string          `json:"type" validate:"required,oneof=investment cash"`
	Body json.RawMessage `json:"body" validate:"required"`
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.Repo.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list templates", nil)
		return
	}
	if out == nil {
		out = []Template{}
	}
	respond.OK(c, gin.H{"templates": out})
}

func (h *Handler) get(c *gin.Context) {
	tpl, err := h.Repo.GetByID(c.Request.Context(), c.Param("templateId"))
	if err != nil {
		h.writeError(c, err, "failed to fetch template")
		return
	}
	respond.OK(c, gin.H{"template": tpl})
}

func (h *Handler) create(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	body, ok := h.bind(c)
	if !ok {
		return
	}

	tpl := Template{
		ID:        uuid.NewString(),
		Name:      body.Name,
		Type:      body.Type,
		Body:      body.Body,
		CreatedBy: middleware.UserIDFromContext(c),
		CreatedAt: time.Now(),
	}
	tpl.UpdatedAt = tpl.CreatedAt
	if err := h.Repo.Create(c.Request.Context(), tpl); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create template", nil)
		return
	}
	respond.Created(c, gin.H{"template": tpl})
}

func (h *Handler) update(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	body, ok := h.bind(c)
	if !ok {
		return
	}

	tpl := Template{
		ID:   c.Param("templateId"),
		Name: body.Name,
		Type: body.Type,
		Body: body.Body,
	}
	if err := h.Repo.Update(c.Request.Context(), tpl); err != nil {
		h.writeError(c, err, "failed to update template")
		return
	}
	updated, err := h.Repo.GetByID(c.Request.Context(), tpl.ID)
	if err != nil {
		h.writeError(c, err, "failed to fetch template")
		return
	}
	respond.OK(c, gin.H{"template": updated})
}

func (h *Handler) remove(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	if err := h.Repo.Delete(c.Request.Context(), c.Param("templateId")); err != nil {
		h.writeError(c, err, "failed to delete template")
		return
	}
	respond.OK(c, gin.H{"ok": true})
}

func (h *Handler) bind(c *gin.Context) (templateBody, bool) {
	var body templateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationError(c, err)
		return templateBody{}, false
	}
	if err := validate.Struct(body); err != nil {
		respond.ValidationError(c, err)
		return templateBody{}, false
	}
	if !json.Valid(body.Body) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "body must be valid JSON", nil)
		return templateBody{}, false
	}
	return body, true
}

func (h *Handler) requireAdmin(c *gin.Context) bool {
	if middleware.UserRoleFromContext(c) != users.RoleAdmin {
		respond.Error(c, http.StatusForbidden, "forbidden", "admin role required", nil)
		return false
	}
	return true
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "template not found", nil)
		return
	}
	respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
}
