package letterheads

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/crop"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/rasterize"
	"letterhead-backend/internal/rasterize/rasterizetest"
	"letterhead-backend/internal/shared/storage/object"
	"letterhead-backend/internal/shared/storage/object/memory"
)

type fixture struct {
	svc      *Service
	store    *memory.Store
	profiles *profiles.Service
	renderer *rasterizetest.Renderer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	profileSvc := profiles.NewService(profiles.NewMemoryRepo())
	renderer := &rasterizetest.Renderer{PNG: rasterizetest.PNG(400, 600, color.White)}
	svc := NewService(
		profileSvc,
		store,
		&rasterize.Rasterizer{Renderer: renderer, Timeout: time.Second},
		NewUploadStore(time.Hour),
		crop.Size{Width: crop.DefaultMinWidth, Height: crop.DefaultMinHeight},
	)
	return fixture{svc: svc, store: store, profiles: profileSvc, renderer: renderer}
}

func (f fixture) upload(t *testing.T) *Upload {
	t.Helper()
	u, err := f.svc.StartUpload(context.Background(), "user_1", "kop.pdf", "application/pdf", rasterizetest.MinimalPDF(595, 842, false))
	if err != nil {
		t.Fatalf("start upload: %v", err)
	}
	return u
}

func TestStartUploadStoresSourceAndPage(t *testing.T) {
	f := newFixture(t)
	u := f.upload(t)

	if u.DefaultName != "kop_letterhead" || u.Page.Width != 400 || u.Page.Height != 600 {
		t.Fatalf("unexpected upload %+v", u)
	}
	if f.store.Len() != 2 {
		t.Fatalf("expected source and page stored, got %d objects", f.store.Len())
	}
	page, err := f.svc.PageImage(context.Background(), "user_1", u.ID)
	if err != nil || len(page) == 0 {
		t.Fatalf("page image: %v", err)
	}
	if _, err := f.svc.PageImage(context.Background(), "user_2", u.ID); !errors.Is(err, ErrUploadNotFound) {
		t.Fatalf("expected other users to be refused, got %v", err)
	}
}

func TestStartUploadStoresNothingWhenSelectorFails(t *testing.T) {
	f := newFixture(t)
	f.svc.MinCrop = crop.Size{Width: -1, Height: 30}

	_, err := f.svc.StartUpload(context.Background(), "user_1", "kop.pdf", "application/pdf", rasterizetest.MinimalPDF(595, 842, false))
	if !errors.Is(err, crop.ErrInvalidCrop) {
		t.Fatalf("expected ErrInvalidCrop, got %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected no stored objects, got %d", f.store.Len())
	}
}

func TestStartUploadRejectsDeclaredNonPDF(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.StartUpload(context.Background(), "user_1", "kop.png", "image/png", rasterizetest.MinimalPDF(595, 842, false))
	if !errors.Is(err, rasterize.ErrInvalidInput) {
		t.Fatalf("expected rasterize.ErrInvalidInput, got %v", err)
	}
	if f.store.Len() != 0 || f.svc.Uploads.Len() != 0 {
		t.Fatal("rejected uploads must not leave state behind")
	}
}

func TestCompleteCropCreatesLetterheadAtNaturalResolution(t *testing.T) {
	f := newFixture(t)
	u := f.upload(t)
	ctx := context.Background()

	lh, err := f.svc.CompleteCrop(ctx, "user_1", u.ID, CropRequest{
		Name:      "HeaderA",
		Displayed: crop.Size{Width: 200, Height: 300},
		Crop:      &crop.PixelRect{X: 0, Y: 0, Width: 200, Height: 75},
	})
	if err != nil {
		t.Fatalf("complete crop: %v", err)
	}
	if lh.Kind != profiles.KindUploaded || lh.Name != "HeaderA" {
		t.Fatalf("unexpected letterhead %+v", lh)
	}
	if lh.Image == nil || lh.Image.Width != 400 || lh.Image.Height != 150 {
		t.Fatalf("expected 400x150 crop, got %+v", lh.Image)
	}
	if lh.Source == nil || lh.Source.MimeType != "application/pdf" {
		t.Fatalf("expected source pdf kept, got %+v", lh.Source)
	}
	if f.svc.Uploads.Len() != 0 {
		t.Fatal("expected pending upload cleared")
	}
	if _, err := f.store.Open(ctx, u.Page.StorageKey); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected page image removed, got %v", err)
	}

	stored, err := f.profiles.Letterhead(ctx, "user_1", lh.ID)
	if err != nil || stored.Name != "HeaderA" {
		t.Fatalf("expected letterhead persisted, got %+v %v", stored, err)
	}
}

func TestCompleteCropRequiresName(t *testing.T) {
	f := newFixture(t)
	u := f.upload(t)
	_, err := f.svc.CompleteCrop(context.Background(), "user_1", u.ID, CropRequest{
		Name:      "  ",
		Displayed: crop.Size{Width: 200, Height: 300},
		Crop:      &crop.PixelRect{Width: 200, Height: 75},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if f.svc.Uploads.Len() != 1 {
		t.Fatal("upload must stay pending after a rejected completion")
	}
}

func TestCompleteCropRejectsBelowMinimum(t *testing.T) {
	f := newFixture(t)
	u := f.upload(t)
	_, err := f.svc.CompleteCrop(context.Background(), "user_1", u.ID, CropRequest{
		Name:      "Tiny",
		Displayed: crop.Size{Width: 200, Height: 300},
		Crop:      &crop.PixelRect{Width: 40, Height: 20},
	})
	if !errors.Is(err, crop.ErrInvalidCrop) {
		t.Fatalf("expected ErrInvalidCrop, got %v", err)
	}
	if lhs, _ := f.profiles.Letterheads(context.Background(), "user_1", ""); len(lhs) != 0 {
		t.Fatalf("expected no letterhead, got %d", len(lhs))
	}
}

func TestCompleteCropUsesCommittedSelection(t *testing.T) {
	f := newFixture(t)
	u := f.upload(t)

	if _, err := f.svc.CompleteCrop(context.Background(), "user_1", u.ID, CropRequest{Name: "X"}); !errors.Is(err, crop.ErrInvalidCrop) {
		t.Fatalf("expected ErrInvalidCrop without commit, got %v", err)
	}

	displayed := crop.Size{Width: 200, Height: 300}
	if _, err := f.svc.UpdateSelection("user_1", u.ID, SelectionOp{Op: "display", Displayed: &displayed}); err != nil {
		t.Fatalf("display: %v", err)
	}
	sel, err := f.svc.UpdateSelection("user_1", u.ID, SelectionOp{Op: "commit"})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if sel.Committed == nil || sel.Committed.Width != 200 || sel.Committed.Height != 75 {
		t.Fatalf("unexpected committed selection %+v", sel.Committed)
	}

	lh, err := f.svc.CompleteCrop(context.Background(), "user_1", u.ID, CropRequest{Name: "Header"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if lh.Image.Width != 400 || lh.Image.Height != 150 {
		t.Fatalf("expected 400x150, got %dx%d", lh.Image.Width, lh.Image.Height)
	}
}

func TestSelectionRejectsUnknownOp(t *testing.T) {
	f := newFixture(t)
	u := f.upload(t)
	if _, err := f.svc.UpdateSelection("user_1", u.ID, SelectionOp{Op: "rotate"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCancelUploadRemovesFiles(t *testing.T) {
	f := newFixture(t)
	u := f.upload(t)
	if err := f.svc.CancelUpload(context.Background(), "user_1", u.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected files removed, got %d", f.store.Len())
	}
	if err := f.svc.CancelUpload(context.Background(), "user_1", u.ID); !errors.Is(err, ErrUploadNotFound) {
		t.Fatalf("expected ErrUploadNotFound, got %v", err)
	}
}

func TestExpiredUploadsReleaseFiles(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.svc.Uploads.now = func() time.Time { return now }
	f.svc.Now = func() time.Time { return now }
	old := f.upload(t)

	now = now.Add(2 * time.Hour)
	if _, _, err := f.svc.Upload("user_1", old.ID); !errors.Is(err, ErrUploadNotFound) {
		t.Fatalf("expected expired upload, got %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected expired files removed, got %d", f.store.Len())
	}
}

func TestCreateManualDefaultsNameAndStoresLogo(t *testing.T) {
	f := newFixture(t)
	logo := &assets.ImageFile{FileName: "logo.png", MimeType: "image/png", Data: rasterizetest.PNG(30, 10, color.Black)}

	lh, err := f.svc.CreateManual(context.Background(), "user_1", ManualInput{CompanyName: " PT Maju Jaya ", Phone: "021-555"}, logo)
	if err != nil {
		t.Fatalf("create manual: %v", err)
	}
	if lh.Name != "PT Maju Jaya" || lh.Kind != profiles.KindManual {
		t.Fatalf("unexpected letterhead %+v", lh)
	}
	if lh.Logo == nil || lh.Logo.Width != 30 {
		t.Fatalf("expected logo asset, got %+v", lh.Logo)
	}

	if _, err := f.svc.CreateManual(context.Background(), "user_1", ManualInput{Address: "Jl. Sudirman"}, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without company, got %v", err)
	}
}

func TestDeleteRemovesAssetsButNotDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	logo := &assets.ImageFile{MimeType: "image/png", Data: rasterizetest.PNG(4, 4, color.Black)}
	lh, err := f.svc.CreateManual(ctx, "user_1", ManualInput{CompanyName: "PT A"}, logo)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	doc, err := f.profiles.SaveDocument(ctx, "user_1", "", profiles.DocumentData{Title: "Surat", LetterheadID: lh.ID})
	if err != nil {
		t.Fatalf("save doc: %v", err)
	}

	if err := f.svc.Delete(ctx, "user_1", lh.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected logo removed, got %d objects", f.store.Len())
	}
	got, _ := f.profiles.Document(ctx, "user_1", doc.ID)
	if got.Data.LetterheadID != lh.ID {
		t.Fatalf("expected dangling reference kept, got %q", got.Data.LetterheadID)
	}
}

func TestListRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.List(context.Background(), "user_1", "scanned"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
