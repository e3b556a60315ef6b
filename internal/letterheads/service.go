package letterheads

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/google/uuid"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/crop"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/rasterize"
	"letterhead-backend/internal/shared/metrics"
	"letterhead-backend/internal/shared/storage/object"
	"letterhead-backend/internal/shared/telemetry"
)

const maxPageImage = 64 << 20

// Service runs the letterhead flows: PDF upload and crop, manual entry and
// deletion.
type Service struct {
	Profiles   *profiles.Service
	Store      object.ObjectStore
	Rasterizer *rasterize.Rasterizer
	Uploads    *UploadStore
	MinCrop    crop.Size
	Now        func() time.Time
}

// NewService wires a Service and arranges for expired uploads to release
// their stored files.
func NewService(profileSvc *profiles.Service, store object.ObjectStore, rasterizer *rasterize.Rasterizer, uploads *UploadStore, minCrop crop.Size) *Service {
	s := &Service{
		Profiles:   profileSvc,
		Store:      store,
		Rasterizer: rasterizer,
		Uploads:    uploads,
		MinCrop:    minCrop,
		Now:        func() time.Time { return time.Now().UTC() },
	}
	uploads.OnExpire = func(u *Upload) {
		assets.DeleteAll(context.Background(), store, u.Source, u.Page)
	}
	return s
}

// StartUpload renders page 1 of an uploaded PDF and parks it for cropping.
func (s *Service) StartUpload(ctx context.Context, userID, fileName, mimeType string, data []byte) (*Upload, error) {
	page, err := s.Rasterizer.RenderFirstPage(ctx, data, mimeType, fileName)
	if err != nil {
		return nil, err
	}
	// The page is displayed at natural size until the client reports otherwise.
	selector, err := crop.NewSelector(crop.Size{Width: float64(page.Width), Height: float64(page.Height)}, s.MinCrop)
	if err != nil {
		return nil, err
	}

	sourceKey, sourceSize, _, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store source pdf: %w", err)
	}

	id := uuid.NewString()
	pageKey := assets.Key(userID, "uploads", id, "page.png")
	pageSize, err := s.Store.SaveWithKey(ctx, pageKey, "image/png", bytes.NewReader(page.PNG))
	if err != nil {
		assets.DeleteAll(ctx, s.Store, profiles.Asset{StorageKey: sourceKey})
		return nil, fmt.Errorf("store page image: %w", err)
	}

	u := &Upload{
		ID:          id,
		UserID:      userID,
		FileName:    fileName,
		Source:      profiles.Asset{StorageKey: sourceKey, MimeType: rasterize.MimePDF, SizeBytes: sourceSize},
		Page:        profiles.Asset{StorageKey: pageKey, MimeType: "image/png", SizeBytes: pageSize, Width: page.Width, Height: page.Height},
		PageCount:   page.PageCount,
		DefaultName: page.DefaultName,
		CreatedAt:   s.Now(),
		selector:    selector,
	}
	s.Uploads.put(u)

	telemetry.Info("letterheads.upload.rendered", map[string]any{
		"user_id":     userID,
		"upload_id":   id,
		"page_count":  page.PageCount,
		"page_width":  page.Width,
		"page_height": page.Height,
	})
	return u, nil
}

// Upload returns a snapshot of a pending upload and its selection.
func (s *Service) Upload(userID, id string) (Upload, Selection, error) {
	var snap Upload
	var sel Selection
	err := s.Uploads.with(userID, id, func(u *Upload) error {
		snap = *u
		sel = selectionOf(u.selector)
		return nil
	})
	return snap, sel, err
}

// PageImage returns the rendered page PNG of a pending upload.
func (s *Service) PageImage(ctx context.Context, userID, id string) ([]byte, error) {
	var key string
	if err := s.Uploads.with(userID, id, func(u *Upload) error {
		key = u.Page.StorageKey
		return nil
	}); err != nil {
		return nil, err
	}
	return object.ReadAll(ctx, s.Store, key, maxPageImage)
}

// UpdateSelection applies one selection edit to a pending upload.
func (s *Service) UpdateSelection(userID, id string, op SelectionOp) (Selection, error) {
	var sel Selection
	err := s.Uploads.with(userID, id, func(u *Upload) error {
		next, err := op.apply(u.selector, s.MinCrop)
		if err != nil {
			return err
		}
		u.selector = next
		sel = selectionOf(next)
		return nil
	})
	return sel, err
}

// CropRequest completes a pending upload. When Crop is nil the selection's
// committed rectangle is used.
type CropRequest struct {
	Name      string
	Displayed crop.Size
	Crop      *crop.PixelRect
}

// CompleteCrop rasterizes the committed crop at natural resolution and
// stores the result as a new uploaded letterhead.
func (s *Service) CompleteCrop(ctx context.Context, userID, id string, req CropRequest) (profiles.Letterhead, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return profiles.Letterhead{}, fmt.Errorf("%w: letterhead name required", ErrInvalidInput)
	}

	var snap Upload
	displayed := req.Displayed
	var px crop.PixelRect
	err := s.Uploads.with(userID, id, func(u *Upload) error {
		snap = *u
		if req.Crop != nil {
			px = *req.Crop
			return nil
		}
		committed, ok := u.selector.Committed()
		if !ok {
			return fmt.Errorf("%w: no committed selection", crop.ErrInvalidCrop)
		}
		px, displayed = committed, u.selector.Displayed()
		return nil
	})
	if err != nil {
		return profiles.Letterhead{}, err
	}

	lh, err := s.rasterizeCrop(ctx, userID, snap, name, displayed, px)
	metrics.IncCrop(err == nil)
	if err != nil {
		return profiles.Letterhead{}, err
	}

	if u, ok := s.Uploads.take(userID, id); ok {
		assets.DeleteAll(ctx, s.Store, u.Page)
	}
	telemetry.Info("letterheads.crop.completed", map[string]any{
		"user_id":       userID,
		"upload_id":     id,
		"letterhead_id": lh.ID,
		"width":         lh.Image.Width,
		"height":        lh.Image.Height,
	})
	return lh, nil
}

func (s *Service) rasterizeCrop(ctx context.Context, userID string, u Upload, name string, displayed crop.Size, px crop.PixelRect) (profiles.Letterhead, error) {
	raw, err := object.ReadAll(ctx, s.Store, u.Page.StorageKey, maxPageImage)
	if err != nil {
		return profiles.Letterhead{}, fmt.Errorf("read page image: %w", err)
	}
	src, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return profiles.Letterhead{}, fmt.Errorf("%w: page image unreadable: %v", rasterize.ErrDecode, err)
	}
	out, err := crop.Rasterize(src, displayed, px, s.MinCrop)
	if err != nil {
		return profiles.Letterhead{}, err
	}
	encoded, err := crop.EncodePNG(out)
	if err != nil {
		return profiles.Letterhead{}, err
	}

	lhID := uuid.NewString()
	imageKey := assets.Key(userID, "letterheads", lhID, "header.png")
	size, err := s.Store.SaveWithKey(ctx, imageKey, "image/png", bytes.NewReader(encoded))
	if err != nil {
		return profiles.Letterhead{}, fmt.Errorf("store cropped image: %w", err)
	}

	source := u.Source
	lh := profiles.Letterhead{
		ID:     lhID,
		Name:   name,
		Kind:   profiles.KindUploaded,
		Source: &source,
		Image: &profiles.Asset{
			StorageKey: imageKey,
			MimeType:   "image/png",
			SizeBytes:  size,
			Width:      out.Bounds().Dx(),
			Height:     out.Bounds().Dy(),
		},
	}
	saved, err := s.Profiles.AddLetterhead(ctx, userID, lh)
	if err != nil {
		assets.DeleteAll(ctx, s.Store, *lh.Image)
		return profiles.Letterhead{}, err
	}
	return saved, nil
}

// CancelUpload discards a pending upload and its stored files.
func (s *Service) CancelUpload(ctx context.Context, userID, id string) error {
	u, ok := s.Uploads.take(userID, id)
	if !ok {
		return ErrUploadNotFound
	}
	assets.DeleteAll(ctx, s.Store, u.Source, u.Page)
	return nil
}

// ManualInput is the form of a manually entered letterhead.
type ManualInput struct {
	Name        string
	CompanyName string
	Address     string
	Phone       string
	Email       string
	Website     string
}

// CreateManual stores a manual letterhead. The display name defaults to the
// company name.
func (s *Service) CreateManual(ctx context.Context, userID string, in ManualInput, logo *assets.ImageFile) (profiles.Letterhead, error) {
	company := strings.TrimSpace(in.CompanyName)
	if company == "" {
		return profiles.Letterhead{}, fmt.Errorf("%w: company name required", ErrInvalidInput)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = company
	}

	lh := profiles.Letterhead{
		ID:          uuid.NewString(),
		Name:        name,
		Kind:        profiles.KindManual,
		CompanyName: company,
		Address:     strings.TrimSpace(in.Address),
		Phone:       strings.TrimSpace(in.Phone),
		Email:       strings.TrimSpace(in.Email),
		Website:     strings.TrimSpace(in.Website),
	}
	if logo != nil {
		asset, err := assets.SaveImage(ctx, s.Store, assets.Key(userID, "letterheads", lh.ID, "logo"), *logo)
		if err != nil {
			return profiles.Letterhead{}, err
		}
		lh.Logo = &asset
	}

	saved, err := s.Profiles.AddLetterhead(ctx, userID, lh)
	if err != nil {
		if lh.Logo != nil {
			assets.DeleteAll(ctx, s.Store, *lh.Logo)
		}
		return profiles.Letterhead{}, err
	}
	return saved, nil
}

// List returns the user's letterheads, optionally filtered by kind.
func (s *Service) List(ctx context.Context, userID string, kind profiles.Kind) ([]profiles.Letterhead, error) {
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}
	return s.Profiles.Letterheads(ctx, userID, kind)
}

// Delete removes a letterhead and its files. Documents that reference it are
// left untouched.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	lh, err := s.Profiles.DeleteLetterhead(ctx, userID, id)
	if err != nil {
		return err
	}
	assets.DeleteAll(ctx, s.Store, lh.Assets()...)
	return nil
}
