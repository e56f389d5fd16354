package chat

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"approval-backend/internal/ai"
	"approval-backend/internal/documents"
	"approval-backend/internal/queries"
	"approval-backend/internal/shared/server/middleware"
	"approval-backend/internal/shared/server/respond"
)

var validate = validator.New()

// Handler wires AI chat and search HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches AI routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ai/search", h.search)
	rg.POST("/ai/chat", h.chat)
	rg.POST("/ai/documents/:documentId/query", h.askDocument)
	rg.POST("/ai/documents/:documentId/analyze", h.analyzeDocument)
	rg.POST("/ai/documents/:documentId/summary", h.summarizeDocument)
	rg.POST("/ai/documents/:documentId/insights", h.insightsDocument)
	rg.GET("/ai/queries", h.history)
	rg.GET("/ai/health", h.health)
}

type searchBody struct {
	Query       string   `json:"query" validate:"required"`
	DocumentIDs []string `json:"documentIds"`
}

func (h *Handler) search(c *gin.Context) {
	var body searchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationError(c, err)
		return
	}
	if err := validate.Struct(body); err != nil {
		respond.ValidationError(c, err)
		return
	}

	answer, err := h.Svc.Search(c.Request.Context(), middleware.UserIDFromContext(c), body.Query, body.DocumentIDs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"answer": answer})
}

type chatBody struct {
	Messages []ai.ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

func (h *Handler) chat(c *gin.Context) {
	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationError(c, err)
		return
	}
	if err := validate.Struct(body); err != nil {
		respond.ValidationError(c, err)
		return
	}

	answer, err := h.Svc.Chat(c.Request.Context(), middleware.UserIDFromContext(c), body.Messages)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"answer": answer})
}

type askBody struct {
	Prompt string `json:"prompt" validate:"required"`
}

func (h *Handler) askDocument(c *gin.Context) {
	var body askBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationError(c, err)
		return
	}
	if err := validate.Struct(body); err != nil {
		respond.ValidationError(c, err)
		return
	}

	answer, err := h.Svc.AskDocument(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("documentId"), body.Prompt)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"answer": answer})
}

func (h *Handler) analyzeDocument(c *gin.Context) {
	h.runDocumentOp(c, h.Svc.AnalyzeDocument)
}

func (h *Handler) summarizeDocument(c *gin.Context) {
	h.runDocumentOp(c, h.Svc.SummarizeDocument)
}

func (h *Handler) insightsDocument(c *gin.Context) {
	h.runDocumentOp(c, h.Svc.InsightsDocument)
}

func (h *Handler) runDocumentOp(c *gin.Context, op func(ctx context.Context, userID, documentID string) (string, error)) {
	answer, err := op(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("documentId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"answer": answer})
}

func (h *Handler) history(c *gin.Context) {
	kind := c.Query("kind")
	if kind != "" && !queries.ValidKind(kind) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown query kind", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	out, err := h.Svc.ListHistory(c.Request.Context(), middleware.UserIDFromContext(c), kind, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list query history", nil)
		return
	}
	if out == nil {
		out = []queries.Entry{}
	}
	respond.OK(c, gin.H{"queries": out})
}

func (h *Handler) health(c *gin.Context) {
	if err := h.Svc.Gateway.Health(c.Request.Context()); err != nil {
		respond.Error(c, http.StatusServiceUnavailable, "gateway_unavailable", "ai gateway is not reachable", nil)
		return
	}
	respond.OK(c, gin.H{"status": "ok"})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyQuery):
		respond.Error(c, http.StatusBadRequest, "validation_error", "query is empty", nil)
	case errors.Is(err, documents.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrNoAnalyzedDocuments):
		respond.Error(c, http.StatusConflict, "not_ready", "referenced documents are not analyzed yet", nil)
	case errors.Is(err, ai.ErrBadRequest):
		respond.Error(c, http.StatusBadGateway, "gateway_rejected", "ai gateway rejected the request", nil)
	case errors.Is(err, ai.ErrUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "gateway_unavailable", "ai gateway is not reachable", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "ai request failed", nil)
	}
}
