package wizard

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/rasterize/rasterizetest"
	"letterhead-backend/internal/shared/storage/object/memory"
)

func newService(t *testing.T) (*Service, *profiles.Service) {
	t.Helper()
	profileSvc := profiles.NewService(profiles.NewMemoryRepo())
	return NewService(NewSessionStore(0), profileSvc, memory.New()), profileSvc
}

func strPtr(s string) *string { return &s }

func TestNewSessionDefaults(t *testing.T) {
	store := NewSessionStore(0)
	store.now = func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) }

	s := store.Get("user_1")
	if s.Step != StepLetterhead || s.Document.Date != "2024-03-05" || s.Document.BodyFormat != profiles.BodyPlain {
		t.Fatalf("unexpected new session %+v", s)
	}
	if store.Len() != 1 {
		t.Fatalf("expected session created lazily, got %d", store.Len())
	}
}

func TestSessionExpiresAfterIdle(t *testing.T) {
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	store := NewSessionStore(time.Hour)
	store.now = func() time.Time { return now }

	err := store.Update("user_1", func(s *Session) error {
		s.Document.Subject = "Undangan rapat"
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	store.Get("user_2")

	now = now.Add(45 * time.Minute)
	if s := store.Get("user_1"); s.Document.Subject != "Undangan rapat" {
		t.Fatalf("expected session kept while active, got %+v", s)
	}

	now = now.Add(61 * time.Minute)
	s := store.Get("user_1")
	if s.Document.Subject != "" || s.Step != StepLetterhead {
		t.Fatalf("expected fresh session after idle timeout, got %+v", s)
	}
	if store.Len() != 1 {
		t.Fatalf("expected idle user_2 swept, got %d sessions", store.Len())
	}
}

func TestSelectLetterheadMustExist(t *testing.T) {
	svc, profileSvc := newService(t)
	ctx := context.Background()

	if _, err := svc.SelectLetterhead(ctx, "user_1", "missing"); !errors.Is(err, profiles.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	lh, err := profileSvc.AddLetterhead(ctx, "user_1", profiles.Letterhead{Name: "PT A", Kind: profiles.KindManual, CompanyName: "PT A"})
	if err != nil {
		t.Fatalf("add letterhead: %v", err)
	}
	s, err := svc.SelectLetterhead(ctx, "user_1", lh.ID)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if s.LetterheadID != lh.ID || !s.CanProceed() {
		t.Fatalf("expected letterhead selected and next allowed, got %+v", s)
	}
}

func TestSelectTemplateSnapshotsIntoDocument(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.SelectTemplate("user_1", "brochure"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	s, err := svc.SelectTemplate("user_1", "letter")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if s.Document.Template.Name != "Surat Resmi" || s.Template == nil {
		t.Fatalf("unexpected template snapshot %+v", s.Document.Template)
	}
}

func TestFailedTransitionKeepsState(t *testing.T) {
	svc, _ := newService(t)
	s, err := svc.Next("user_1")
	if !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("expected guard failure, got %v", err)
	}
	if s.Step != StepLetterhead || svc.State("user_1").Step != StepLetterhead {
		t.Fatalf("expected letterhead step kept, got %s", s.Step)
	}
}

func TestUpdateDocumentNotifiesAndValidates(t *testing.T) {
	svc, _ := newService(t)
	var seen []profiles.DocumentData
	svc.OnDocumentChange = func(userID string, data profiles.DocumentData) {
		seen = append(seen, data)
	}

	if _, err := svc.UpdateDocument("user_1", DocumentPatch{Date: strPtr("05/03/2024")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid date rejected, got %v", err)
	}
	md := profiles.BodyFormat("html")
	if _, err := svc.UpdateDocument("user_1", DocumentPatch{BodyFormat: &md}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid body format rejected, got %v", err)
	}

	s, err := svc.UpdateDocument("user_1", DocumentPatch{
		Title:         strPtr("Undangan"),
		Content:       strPtr("Isi surat"),
		SignatureName: strPtr("Budi"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.Document.Title != "Undangan" || s.Document.Signature == nil || s.Document.Signature.Name != "Budi" {
		t.Fatalf("unexpected document %+v", s.Document)
	}
	if len(seen) != 1 || seen[0].Content != "Isi surat" {
		t.Fatalf("expected one change notification, got %+v", seen)
	}

	s, _ = svc.UpdateDocument("user_1", DocumentPatch{RemoveSignature: true})
	if s.Document.Signature != nil {
		t.Fatal("expected signature removed")
	}
	if s.Document.Title != "Undangan" {
		t.Fatal("untouched fields must be kept")
	}
}

func TestSetSignatureImage(t *testing.T) {
	svc, _ := newService(t)
	img := assets.ImageFile{FileName: "ttd.png", MimeType: "image/png", Data: rasterizetest.PNG(20, 10, color.Black)}
	s, err := svc.SetSignatureImage(context.Background(), "user_1", img)
	if err != nil {
		t.Fatalf("set image: %v", err)
	}
	if s.Document.Signature == nil || s.Document.Signature.Image == nil || s.Document.Signature.Image.Width != 20 {
		t.Fatalf("unexpected signature %+v", s.Document.Signature)
	}
	if !assets.Owns("user_1", s.Document.Signature.Image.StorageKey) {
		t.Fatal("signature image must live under the user's prefix")
	}

	if _, err := svc.SetSignatureImage(context.Background(), "user_1", assets.ImageFile{MimeType: "application/pdf", Data: []byte("x")}); !errors.Is(err, assets.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestLoadDocumentJumpsToEditor(t *testing.T) {
	svc, _ := newService(t)
	doc := profiles.SavedDocument{
		ID:   "doc-1",
		Name: "Undangan",
		Data: profiles.DocumentData{
			Title:        "Undangan",
			Content:      "Isi surat",
			Template:     profiles.TemplateRef{ID: "letter", Name: "Surat Resmi"},
			LetterheadID: "lh-1",
		},
	}
	s, err := svc.LoadDocument("user_1", doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Step != StepEditor || s.DocumentID != "doc-1" || s.LetterheadID != "lh-1" || s.Template == nil {
		t.Fatalf("unexpected session %+v", s)
	}

	svc.Forget("user_1", "doc-1")
	if got := svc.State("user_1").DocumentID; got != "" {
		t.Fatalf("expected document id forgotten, got %q", got)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.UpdateDocument("user_1", DocumentPatch{Title: strPtr("A")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := svc.State("user_2").Document.Title; got != "" {
		t.Fatalf("expected separate session, got title %q", got)
	}
}
