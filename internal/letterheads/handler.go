package letterheads

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/crop"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/rasterize"
	"letterhead-backend/internal/shared/server/middleware"
	"letterhead-backend/internal/shared/server/respond"
)

const maxUploadSize = 20 << 20 // 20MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches letterhead routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/letterheads", h.list)
	rg.DELETE("/letterheads/:id", h.delete)
	rg.POST("/letterheads/manual", h.createManual)
	rg.POST("/letterheads/uploads", h.upload)
	rg.GET("/letterheads/uploads/:id", h.getUpload)
	rg.GET("/letterheads/uploads/:id/page.png", h.page)
	rg.PATCH("/letterheads/uploads/:id/selection", h.selection)
	rg.POST("/letterheads/uploads/:id/crop", h.crop)
	rg.DELETE("/letterheads/uploads/:id", h.cancel)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "multipart form required", nil)
		return
	}
	files := form.File["file"]
	if len(files) != 1 {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "exactly one file is required", nil)
		return
	}
	fileHeader := files[0]
	data, err := readPart(fileHeader)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "unable to read file", nil)
		return
	}

	u, err := h.Svc.StartUpload(c.Request.Context(), userID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(c, err, "failed to render letterhead")
		return
	}
	_, sel, _ := h.Svc.Upload(userID, u.ID)
	respond.Created(c, h.uploadResponse(*u, sel))
}

func (h *Handler) uploadResponse(u Upload, sel Selection) UploadResponse {
	return UploadResponse{
		UploadID:    u.ID,
		FileName:    u.FileName,
		PageURL:     "/api/v1/letterheads/uploads/" + u.ID + "/page.png",
		PageWidth:   u.Page.Width,
		PageHeight:  u.Page.Height,
		PageCount:   u.PageCount,
		DefaultName: u.DefaultName,
		MinCrop:     h.Svc.MinCrop,
		Selection:   sel,
	}
}

func (h *Handler) getUpload(c *gin.Context) {
	u, sel, err := h.Svc.Upload(middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load upload")
		return
	}
	respond.OK(c, h.uploadResponse(u, sel))
}

func (h *Handler) page(c *gin.Context) {
	data, err := h.Svc.PageImage(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load page image")
		return
	}
	respond.Binary(c, "image/png", "", data)
}

func (h *Handler) selection(c *gin.Context) {
	var op SelectionOp
	if err := c.ShouldBindJSON(&op); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	sel, err := h.Svc.UpdateSelection(middleware.UserIDFromContext(c), c.Param("id"), op)
	if err != nil {
		writeError(c, err, "failed to update selection")
		return
	}
	respond.OK(c, sel)
}

func (h *Handler) crop(c *gin.Context) {
	var req cropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	lh, err := h.Svc.CompleteCrop(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), CropRequest{
		Name:      req.Name,
		Displayed: crop.Size{Width: req.DisplayedWidth, Height: req.DisplayedHeight},
		Crop:      req.Crop,
	})
	if err != nil {
		writeError(c, err, "failed to crop letterhead")
		return
	}
	c.Set(middleware.LetterheadIDKey, lh.ID)
	respond.Created(c, toResponse(lh))
}

func (h *Handler) cancel(c *gin.Context) {
	if err := h.Svc.CancelUpload(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, err, "failed to cancel upload")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createManual(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	in := ManualInput{
		Name:        c.PostForm("name"),
		CompanyName: c.PostForm("companyName"),
		Address:     c.PostForm("address"),
		Phone:       c.PostForm("phone"),
		Email:       c.PostForm("email"),
		Website:     c.PostForm("website"),
	}

	var logo *assets.ImageFile
	if fileHeader, err := c.FormFile("logo"); err == nil {
		data, err := readPart(fileHeader)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "unable to read logo", nil)
			return
		}
		logo = &assets.ImageFile{FileName: fileHeader.Filename, MimeType: fileHeader.Header.Get("Content-Type"), Data: data}
	} else if !errors.Is(err, http.ErrMissingFile) {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid form", nil)
		return
	}

	lh, err := h.Svc.CreateManual(c.Request.Context(), userID, in, logo)
	if err != nil {
		writeError(c, err, "failed to create letterhead")
		return
	}
	c.Set(middleware.LetterheadIDKey, lh.ID)
	respond.Created(c, toResponse(lh))
}

func (h *Handler) list(c *gin.Context) {
	kind := profiles.Kind(strings.TrimSpace(c.Query("kind")))
	list, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), kind)
	if err != nil {
		writeError(c, err, "failed to list letterheads")
		return
	}
	resp := make([]LetterheadResponse, 0, len(list))
	for _, lh := range list {
		resp = append(resp, toResponse(lh))
	}
	respond.OK(c, resp)
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.LetterheadIDKey, id)
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		writeError(c, err, "failed to delete letterhead")
		return
	}
	c.Status(http.StatusNoContent)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, rasterize.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Silakan upload file PDF saja", gin.H{"reason": err.Error()})
	case errors.Is(err, ErrInvalidInput), errors.Is(err, assets.ErrInvalidImage):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	case errors.Is(err, crop.ErrInvalidCrop):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	case errors.Is(err, rasterize.ErrDecode):
		respond.Error(c, http.StatusUnprocessableEntity, "decode_error", "Error processing PDF file", gin.H{"reason": err.Error()})
	case errors.Is(err, ErrUploadNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "upload not found", nil)
	default:
		profiles.WriteError(c, err, fallback)
	}
}
