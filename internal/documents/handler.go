package documents

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/shared/server/middleware"
	"letterhead-backend/internal/shared/server/respond"
	"letterhead-backend/internal/wizard"
)

const maxBodySize = 2 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches saved-document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.POST("/documents", h.save)
	rg.GET("/documents/:id", h.open)
	rg.DELETE("/documents/:id", h.delete)
}

// RegisterRenderRoutes attaches preview and export routes.
func (h *Handler) RegisterRenderRoutes(rg *gin.RouterGroup) {
	rg.POST("/preview", h.preview)
	rg.POST("/export", h.export)
}

// OpenResponse is a loaded document plus the wizard state it produced.
type OpenResponse struct {
	Document profiles.SavedDocument `json:"document"`
	Wizard   wizard.Session         `json:"wizard"`
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}
	respond.OK(c, docs)
}

func (h *Handler) save(c *gin.Context) {
	var req SaveRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	doc, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		writeError(c, err, "failed to save document")
		return
	}
	c.Set(middleware.DocumentIDKey, doc.ID)
	respond.Created(c, doc)
}

func (h *Handler) open(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.DocumentIDKey, id)
	doc, sess, err := h.Svc.Open(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err, "failed to load document")
		return
	}
	c.Set(middleware.StepKey, string(sess.Step))
	respond.OK(c, OpenResponse{Document: doc, Wizard: sess})
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.DocumentIDKey, id)
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		writeError(c, err, "failed to delete document")
		return
	}
	c.Status(http.StatusNoContent)
}

type renderRequest struct {
	Data *profiles.DocumentData `json:"data"`
}

func (h *Handler) preview(c *gin.Context) {
	var req renderRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	p, err := h.Svc.Preview(c.Request.Context(), middleware.UserIDFromContext(c), req.Data)
	if err != nil {
		writeError(c, err, "failed to render preview")
		return
	}
	respond.OK(c, p)
}

func (h *Handler) export(c *gin.Context) {
	mode, err := ParseMode(c.Query("mode"))
	if err != nil {
		writeError(c, err, "")
		return
	}
	var req renderRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	out, name, err := h.Svc.Export(c.Request.Context(), middleware.UserIDFromContext(c), req.Data, mode)
	if err != nil {
		writeError(c, err, "failed to export document")
		return
	}
	respond.Binary(c, "application/pdf", name, out)
}

// bindOptionalJSON decodes the body into dst, leaving dst untouched when the
// body is empty.
func bindOptionalJSON(c *gin.Context, dst any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	case errors.Is(err, ErrExport):
		respond.Error(c, http.StatusInternalServerError, "export_failed", "Terjadi kesalahan saat membuat PDF", gin.H{"reason": err.Error()})
	default:
		wizard.WriteError(c, err, fallback)
	}
}
