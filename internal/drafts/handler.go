package drafts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/shared/server/middleware"
	"letterhead-backend/internal/shared/server/respond"
)

// Handler exposes draft auto-save.
type Handler struct {
	Autosaver *Autosaver
}

// NewHandler constructs a Handler.
func NewHandler(a *Autosaver) *Handler {
	return &Handler{Autosaver: a}
}

// RegisterRoutes attaches draft routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.PUT("/drafts/:key", h.put)
	rg.GET("/drafts/:key", h.get)
	rg.DELETE("/drafts/:key", h.delete)
}

type putResponse struct {
	Scheduled bool  `json:"scheduled"`
	DelayMs   int64 `json:"delayMs"`
}

func (h *Handler) put(c *gin.Context) {
	key := c.Param("key")
	if !validKey(key) {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid draft key", nil)
		return
	}
	var data profiles.DocumentData
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	scheduled := h.Autosaver.Touch(middleware.UserIDFromContext(c), key, data)
	respond.JSON(c, http.StatusAccepted, putResponse{Scheduled: scheduled, DelayMs: h.Autosaver.Delay.Milliseconds()})
}

func (h *Handler) get(c *gin.Context) {
	key := c.Param("key")
	if !validKey(key) {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid draft key", nil)
		return
	}
	d, err := h.Autosaver.Repo.Get(c.Request.Context(), middleware.UserIDFromContext(c), key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "draft not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to load draft", nil)
		return
	}
	respond.OK(c, d)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.Autosaver.Discard(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("key"))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid draft key", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to delete draft", nil)
	}
}
