package notifications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"approval-backend/internal/shared/server/middleware"
	"approval-backend/internal/shared/server/respond"
)

// Handler wires notification HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches notification routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.list)
	rg.GET("/notifications/unread-count", h.unreadCount)
	rg.POST("/notifications/:notificationId/read", h.markRead)
	rg.POST("/notifications/read-all", h.markAllRead)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	out, err := h.Svc.List(c.Request.Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list notifications", nil)
		return
	}
	if out == nil {
		out = []Notification{}
	}
	respond.OK(c, gin.H{"notifications": out})
}

func (h *Handler) unreadCount(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	count, err := h.Svc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to count notifications", nil)
		return
	}
	respond.OK(c, gin.H{"count": count})
}

func (h *Handler) markRead(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	err := h.Svc.MarkRead(c.Request.Context(), c.Param("notificationId"), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "notification not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to mark notification", nil)
		return
	}
	respond.OK(c, gin.H{"ok": true})
}

func (h *Handler) markAllRead(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if err := h.Svc.MarkAllRead(c.Request.Context(), userID); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to mark notifications", nil)
		return
	}
	respond.OK(c, gin.H{"ok": true})
}
