package approvals

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"approval-backend/internal/requests"
	"approval-backend/internal/shared/server/middleware"
	"approval-backend/internal/shared/server/respond"
)

var validate = validator.New()

// Handler wires approval HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches approval routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests/:type/:id/approvals", h.decide)
	rg.GET("/requests/:type/:id/approvals", h.list)
}

type decideRequest struct {
	Outcome  string `json:"outcome" validate:"required,oneof=approved rejected changes_requested"`
	Comments string `json:"comments"`
}

func (h *Handler) decide(c *gin.Context) {
	requestType := c.Param("type")
	if !requests.ValidType(requestType) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown request type", nil)
		return
	}

	var body decideRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationError(c, err)
		return
	}
	if err := validate.Struct(body); err != nil {
		respond.ValidationError(c, err)
		return
	}

	req, err := h.Svc.Process(c.Request.Context(), requestType, c.Param("id"), Decision{
		ApproverID:   middleware.UserIDFromContext(c),
		ApproverRole: middleware.UserRoleFromContext(c),
		Outcome:      body.Outcome,
		Comments:     body.Comments,
	})
	if err != nil {
		switch {
		case errors.Is(err, requests.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "request not found", nil)
		case errors.Is(err, ErrNotPending):
			respond.Error(c, http.StatusConflict, "not_pending", "request is not pending approval", nil)
		case errors.Is(err, ErrWrongStage):
			respond.Error(c, http.StatusForbidden, "wrong_stage", "your role does not decide the current stage", nil)
		case errors.Is(err, ErrCommentNeeded):
			respond.Error(c, http.StatusBadRequest, "validation_error", "comments are required for this outcome", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid approval", nil)
		case errors.Is(err, ErrConflict), errors.Is(err, requests.ErrConflict):
			respond.Error(c, http.StatusConflict, "conflict", "this stage was already decided", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process approval", nil)
		}
		return
	}

	respond.OK(c, gin.H{"request": req})
}

func (h *Handler) list(c *gin.Context) {
	requestType := c.Param("type")
	if !requests.ValidType(requestType) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown request type", nil)
		return
	}

	var (
		out []Approval
		err error
	)
	if allCycles, _ := strconv.ParseBool(c.DefaultQuery("allCycles", "false")); allCycles {
		out, err = h.Svc.ListHistory(c.Request.Context(), requestType, c.Param("id"))
	} else {
		out, err = h.Svc.ListCurrent(c.Request.Context(), requestType, c.Param("id"))
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list approvals", nil)
		return
	}
	if out == nil {
		out = []Approval{}
	}
	respond.OK(c, gin.H{"approvals": out})
}
