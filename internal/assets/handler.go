package assets

import (
	"bytes"
	"errors"
	"image"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/crop"
	"letterhead-backend/internal/shared/server/middleware"
	"letterhead-backend/internal/shared/server/respond"
	"letterhead-backend/internal/shared/storage/object"
)

const maxServedAsset = 64 << 20

// Handler streams stored assets back to their owner.
type Handler struct {
	Store object.ObjectStore
}

// NewHandler constructs a Handler.
func NewHandler(store object.ObjectStore) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes attaches asset routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/assets/*key", h.get)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !Owns(userID, key) {
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "asset not found", nil)
		return
	}

	data, err := object.ReadAll(c.Request.Context(), h.Store, key, maxServedAsset)
	if err != nil {
		switch {
		case errors.Is(err, object.ErrNotFound), errors.Is(err, object.ErrInvalidKey):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "asset not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to read asset", nil)
		}
		return
	}

	contentType := http.DetectContentType(data)
	if w, err := strconv.Atoi(c.Query("w")); err == nil && w > 0 {
		if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			if encoded, err := crop.EncodePNG(crop.Thumbnail(img, w)); err == nil {
				data, contentType = encoded, "image/png"
			}
		}
	}

	c.Header("Cache-Control", "private, max-age=300")
	respond.Binary(c, contentType, "", data)
}
