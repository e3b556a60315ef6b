package wizard

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/shared/server/middleware"
	"letterhead-backend/internal/shared/server/respond"
)

// StateResponse is the session plus whether Next is currently allowed.
type StateResponse struct {
	Session
	CanProceed bool `json:"canProceed"`
}

func toState(s Session) StateResponse {
	return StateResponse{Session: s, CanProceed: s.CanProceed()}
}

// Handler exposes wizard navigation and selections.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches wizard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	w := rg.Group("/wizard")
	w.GET("", h.get)
	w.POST("/next", h.transition(h.Svc.Next))
	w.POST("/back", h.transition(h.Svc.Back))
	w.POST("/saved", h.transition(h.Svc.OpenSaved))
	w.POST("/resume", h.transition(h.Svc.Resume))
	w.POST("/goto", h.goTo)
	w.PUT("/letterhead", h.letterhead)
	w.PUT("/template", h.template)
	w.PUT("/document", h.document)
	w.POST("/signature-image", h.signatureImage)
}

func (h *Handler) reply(c *gin.Context, s Session, err error, fallback string) {
	if s.Step != "" {
		c.Set(middleware.StepKey, string(s.Step))
	}
	if err != nil {
		WriteError(c, err, fallback)
		return
	}
	respond.OK(c, toState(s))
}

func (h *Handler) get(c *gin.Context) {
	h.reply(c, h.Svc.State(middleware.UserIDFromContext(c)), nil, "")
}

func (h *Handler) transition(fn func(string) (Session, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := fn(middleware.UserIDFromContext(c))
		h.reply(c, s, err, "failed to change step")
	}
}

func (h *Handler) goTo(c *gin.Context) {
	var req struct {
		Step Step `json:"step"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	s, err := h.Svc.GoTo(middleware.UserIDFromContext(c), req.Step)
	h.reply(c, s, err, "failed to change step")
}

func (h *Handler) letterhead(c *gin.Context) {
	var req struct {
		LetterheadID string `json:"letterheadId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	c.Set(middleware.LetterheadIDKey, req.LetterheadID)
	s, err := h.Svc.SelectLetterhead(c.Request.Context(), middleware.UserIDFromContext(c), req.LetterheadID)
	h.reply(c, s, err, "failed to select letterhead")
}

func (h *Handler) template(c *gin.Context) {
	var req struct {
		TemplateID string `json:"templateId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	s, err := h.Svc.SelectTemplate(middleware.UserIDFromContext(c), req.TemplateID)
	h.reply(c, s, err, "failed to select template")
}

func (h *Handler) document(c *gin.Context) {
	var patch DocumentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	s, err := h.Svc.UpdateDocument(middleware.UserIDFromContext(c), patch)
	h.reply(c, s, err, "failed to update document")
}

func (h *Handler) signatureImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, assets.MaxImageSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "file is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "unable to read file", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "unable to read file", nil)
		return
	}

	s, err := h.Svc.SetSignatureImage(c.Request.Context(), middleware.UserIDFromContext(c), assets.ImageFile{
		FileName: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	})
	h.reply(c, s, err, "failed to store signature image")
}

// WriteError maps wizard errors to the standard error envelope.
func WriteError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrGuardFailed):
		respond.Error(c, http.StatusConflict, "guard_failed", err.Error(), nil)
	case errors.Is(err, ErrInvalidStep):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, assets.ErrInvalidImage):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	default:
		profiles.WriteError(c, err, fallback)
	}
}
