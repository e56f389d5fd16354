package documents

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"approval-backend/internal/requests"
	"approval-backend/internal/shared/server/middleware"
	"approval-backend/internal/shared/server/respond"
)

// Handler wires document HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests/:type/:id/documents", h.upload)
	rg.GET("/requests/:type/:id/documents", h.list)
	rg.GET("/documents/:documentId", h.get)
	rg.GET("/documents/:documentId/download", h.download)
	rg.GET("/documents/:documentId/preview", h.preview)
	rg.GET("/documents/:documentId/status", h.status)
	rg.DELETE("/documents/:documentId", h.remove)
}

func (h *Handler) upload(c *gin.Context) {
	requestType := c.Param("type")
	if !requests.ValidType(requestType) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown request type", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart field 'file' is required", nil)
		return
	}
	if fileHeader.Size > MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Sprintf("file exceeds the %d MB limit", MaxUploadBytes>>20), nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}
	defer file.Close()

	doc, job, err := h.Svc.Upload(c.Request.Context(), requestType, c.Param("id"), middleware.UserIDFromContext(c), fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, requests.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "request not found", nil)
		case errors.Is(err, ErrBadFileName):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		case errors.Is(err, ErrUnsupportedType):
			respond.Error(c, http.StatusBadRequest, "unsupported_type", "only pdf, docx and txt files are accepted", nil)
		case errors.Is(err, ErrTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large",
				fmt.Sprintf("file exceeds the %d MB limit", MaxUploadBytes>>20), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	respond.Created(c, gin.H{"document": doc, "job": job})
}

func (h *Handler) list(c *gin.Context) {
	requestType := c.Param("type")
	if !requests.ValidType(requestType) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown request type", nil)
		return
	}
	out, err := h.Svc.ListForRequest(c.Request.Context(), requestType, c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}
	if out == nil {
		out = []Document{}
	}
	respond.OK(c, gin.H{"documents": out})
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		h.writeError(c, err, "failed to fetch document")
		return
	}
	respond.OK(c, gin.H{"document": doc})
}

func (h *Handler) download(c *gin.Context) {
	h.stream(c, "attachment")
}

func (h *Handler) preview(c *gin.Context) {
	h.stream(c, "inline")
}

func (h *Handler) stream(c *gin.Context, disposition string) {
	doc, rc, err := h.Svc.OpenContent(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		h.writeError(c, err, "failed to open document")
		return
	}
	defer rc.Close()

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", disposition+`; filename="`+doc.FileName+`"`)
	if doc.SizeBytes > 0 {
		c.Header("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
	}
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *Handler) status(c *gin.Context) {
	doc, job, err := h.Svc.Status(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		h.writeError(c, err, "failed to fetch document status")
		return
	}
	payload := gin.H{"documentId": doc.ID, "analysisStatus": doc.AnalysisStatus}
	if job != nil {
		payload["job"] = job
	}
	respond.OK(c, payload)
}

func (h *Handler) remove(c *gin.Context) {
	err := h.Svc.Delete(c.Request.Context(), c.Param("documentId"), middleware.UserIDFromContext(c), middleware.UserRoleFromContext(c))
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			respond.Error(c, http.StatusForbidden, "forbidden", "not allowed", nil)
			return
		}
		h.writeError(c, err, "failed to delete document")
		return
	}
	respond.OK(c, gin.H{"ok": true})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		return
	}
	respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
}
