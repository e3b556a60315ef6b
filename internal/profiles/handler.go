package profiles

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/shared/server/middleware"
	"letterhead-backend/internal/shared/server/respond"
)

// Handler exposes the raw profile.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches profile routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.get)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		WriteError(c, err, "failed to load profile")
		return
	}
	respond.OK(c, p)
}

// WriteError maps profile errors to the standard error envelope.
func WriteError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrStaleProfile):
		respond.Error(c, http.StatusConflict, respond.CodeConflict, err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, fallback, nil)
	}
}
