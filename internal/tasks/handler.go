package tasks

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"approval-backend/internal/shared/server/middleware"
	"approval-backend/internal/shared/server/respond"
)

// Handler wires task HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches task routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tasks", h.list)
	rg.POST("/tasks/:taskId/complete", h.complete)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	pendingOnly := c.Query("status") == "pending"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	out, err := h.Svc.ListMine(c.Request.Context(), userID, pendingOnly, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list tasks", nil)
		return
	}
	respond.OK(c, gin.H{"tasks": toTaskResponses(out)})
}

func (h *Handler) complete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	role := middleware.UserRoleFromContext(c)

	err := h.Svc.Complete(c.Request.Context(), c.Param("taskId"), userID, role)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "task not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "task belongs to another user", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to complete task", nil)
		}
		return
	}
	respond.OK(c, gin.H{"ok": true})
}

func toTaskResponses(in []Task) []gin.H {
	out := make([]gin.H, 0, len(in))
	for _, task := range in {
		out = append(out, gin.H{
			"id":          task.ID,
			"userId":      task.UserID,
			"requestType": task.RequestType,
			"requestId":   task.RequestID,
			"kind":        task.Kind,
			"title":       task.Title,
			"dueDate":     task.DueDate,
			"status":      task.Status,
			"completedAt": task.CompletedAt,
			"createdAt":   task.CreatedAt,
		})
	}
	return out
}
