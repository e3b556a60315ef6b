package templates

import (
	"time"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/shared/server/respond"
)

// Handler serves the template catalog.
type Handler struct {
	Now func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler() *Handler {
	return &Handler{Now: time.Now}
}

// RegisterRoutes attaches template routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/templates", h.list)
}

type templateResponse struct {
	Template
	BodyPlaceholder string `json:"bodyPlaceholder"`
}

func (h *Handler) list(c *gin.Context) {
	today := h.Now()
	all := All()
	out := make([]templateResponse, 0, len(all))
	for _, t := range all {
		out = append(out, templateResponse{Template: t, BodyPlaceholder: BodyPlaceholder(t.ID, today)})
	}
	respond.OK(c, out)
}
