package requests

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"approval-backend/internal/shared/server/middleware"
	"approval-backend/internal/shared/server/respond"
	"approval-backend/internal/users"
)

var validate = validator.New()

// Handler wires request HTTP handlers to the service and the workflow.
type Handler struct {
	Svc      *Service
	Workflow Workflow
}

func NewHandler(svc *Service, wf Workflow) *Handler {
	return &Handler{Svc: svc, Workflow: wf}
}

// RegisterRoutes attaches request routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests/:type", h.create)
	rg.GET("/requests/:type", h.list)
	rg.GET("/requests/:type/:id", h.get)
	rg.PUT("/requests/:type/:id", h.update)
	rg.DELETE("/requests/:type/:id", h.remove)
	rg.POST("/requests/:type/:id/submit", h.submit)
	rg.POST("/requests/:type/:id/resubmit", h.resubmit)
}

type requestBody struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	AmountCents int64  `json:"amountCents" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
	RiskLevel   string `json:"riskLevel" validate:"omitempty,oneof=low medium high"`
}

func (h *Handler) create(c *gin.Context) {
	requestType := c.Param("type")
	if !ValidType(requestType) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown request type", nil)
		return
	}

	var body requestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationError(c, err)
		return
	}
	if err := validate.Struct(body); err != nil {
		respond.ValidationError(c, err)
		return
	}

	req, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), CreateInput{
		Type:        requestType,
		Title:       body.Title,
		Description: body.Description,
		AmountCents: body.AmountCents,
		Currency:    body.Currency,
		RiskLevel:   body.RiskLevel,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create request", nil)
		return
	}
	respond.Created(c, gin.H{"request": req})
}

func (h *Handler) list(c *gin.Context) {
	requestType := c.Param("type")
	if !ValidType(requestType) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown request type", nil)
		return
	}

	filter := Filter{Type: requestType}
	if raw := c.Query("status"); raw != "" {
		if !ValidStatus(raw) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown status", nil)
			return
		}
		filter.Status = Status(raw)
	}
	// Requesters see only their own; approvers and admins see everything.
	if middleware.UserRoleFromContext(c) == users.RoleRequester || c.Query("mine") == "true" {
		filter.RequesterID = middleware.UserIDFromContext(c)
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	out, err := h.Svc.List(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list requests", nil)
		return
	}
	if out == nil {
		out = []Request{}
	}
	respond.OK(c, gin.H{"requests": out})
}

func (h *Handler) get(c *gin.Context) {
	req, err := h.Svc.Get(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to fetch request")
		return
	}
	respond.OK(c, gin.H{"request": req})
}

func (h *Handler) update(c *gin.Context) {
	var body requestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationError(c, err)
		return
	}
	if err := validate.Struct(body); err != nil {
		respond.ValidationError(c, err)
		return
	}

	req, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("type"), c.Param("id"), CreateInput{
		Title:       body.Title,
		Description: body.Description,
		AmountCents: body.AmountCents,
		Currency:    body.Currency,
		RiskLevel:   body.RiskLevel,
	})
	if err != nil {
		h.writeError(c, err, "failed to update request")
		return
	}
	respond.OK(c, gin.H{"request": req})
}

func (h *Handler) remove(c *gin.Context) {
	err := h.Svc.SoftDelete(c.Request.Context(), middleware.UserIDFromContext(c), middleware.UserRoleFromContext(c), c.Param("type"), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to delete request")
		return
	}
	respond.OK(c, gin.H{"ok": true})
}

func (h *Handler) submit(c *gin.Context) {
	err := h.Workflow.Start(c.Request.Context(), c.Param("type"), c.Param("id"), middleware.UserIDFromContext(c))
	if err != nil {
		h.writeError(c, err, "failed to submit request")
		return
	}
	req, err := h.Svc.Get(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to fetch request")
		return
	}
	respond.OK(c, gin.H{"request": req})
}

func (h *Handler) resubmit(c *gin.Context) {
	cycle, err := h.Workflow.Resubmit(c.Request.Context(), c.Param("type"), c.Param("id"), middleware.UserIDFromContext(c))
	if err != nil {
		h.writeError(c, err, "failed to resubmit request")
		return
	}
	req, err := h.Svc.Get(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to fetch request")
		return
	}
	respond.OK(c, gin.H{"request": req, "cycle": cycle})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "request not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed", nil)
	case errors.Is(err, ErrNotEditable):
		respond.Error(c, http.StatusConflict, "not_editable", "request is not editable in its current status", nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", "request state changed, reload and retry", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
