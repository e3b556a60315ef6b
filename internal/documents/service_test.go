package documents

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/shared/storage/object/memory"
	"letterhead-backend/internal/wizard"
)

type fakeExporter struct {
	mu    sync.Mutex
	err   error
	html  string
	modes []Mode
}

func (f *fakeExporter) Export(_ context.Context, html string, mode Mode) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.html = html
	f.modes = append(f.modes, mode)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func (f *fakeExporter) Close() error { return nil }

type fixture struct {
	svc      *Service
	profiles *profiles.Service
	wizard   *wizard.Service
	exporter *fakeExporter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	profileSvc := profiles.NewService(profiles.NewMemoryRepo())
	wizardSvc := wizard.NewService(wizard.NewSessionStore(0), profileSvc, store)
	exporter := &fakeExporter{}
	return &fixture{
		svc:      NewService(profileSvc, wizardSvc, NewPreviewer(profileSvc, store), exporter),
		profiles: profileSvc,
		wizard:   wizardSvc,
		exporter: exporter,
	}
}

func strPtr(s string) *string { return &s }

// compose drives the wizard to the editor with a filled-in letter.
func (f *fixture) compose(t *testing.T, title string) {
	t.Helper()
	if _, err := f.wizard.SelectTemplate("user_1", "letter"); err != nil {
		t.Fatalf("select template: %v", err)
	}
	if _, err := f.wizard.UpdateDocument("user_1", wizard.DocumentPatch{Title: strPtr(title), Content: strPtr("Isi surat")}); err != nil {
		t.Fatalf("update document: %v", err)
	}
}

func TestSaveFromSessionThenOverwrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.compose(t, "Undangan")

	doc, err := f.svc.Save(ctx, "user_1", SaveRequest{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if doc.Name != "Undangan" || doc.Data.Template.Name != "Surat Resmi" {
		t.Fatalf("unexpected saved document %+v", doc)
	}
	if got := f.wizard.State("user_1").DocumentID; got != doc.ID {
		t.Fatalf("session should remember saved id, got %q", got)
	}

	if _, err := f.wizard.UpdateDocument("user_1", wizard.DocumentPatch{Title: strPtr("Undangan Revisi")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, err := f.svc.Save(ctx, "user_1", SaveRequest{})
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if again.ID != doc.ID || again.Name != "Undangan Revisi" {
		t.Fatalf("expected overwrite of %s, got %+v", doc.ID, again)
	}
	docs, _ := f.svc.List(ctx, "user_1")
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
}

func TestSaveExplicitDataPinsTemplateName(t *testing.T) {
	f := newFixture(t)
	data := &profiles.DocumentData{Title: "Tagihan", Content: "x", Template: profiles.TemplateRef{ID: "invoice", Name: "Renamed"}}
	doc, err := f.svc.Save(context.Background(), "user_1", SaveRequest{Data: data})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	want := profiles.TemplateRef{ID: "invoice", Name: "Invoice"}
	if diff := cmp.Diff(want, doc.Data.Template); diff != "" {
		t.Fatalf("template mismatch (-want +got):\n%s", diff)
	}
	if f.wizard.State("user_1").DocumentID != "" {
		t.Fatal("explicit saves must not touch the session")
	}
}

func TestSaveRejectsInvalidData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := map[string]profiles.DocumentData{
		"unknown template": {Title: "A", Template: profiles.TemplateRef{ID: "contract"}},
		"bad date":         {Title: "A", Date: "17/08/2024", Template: profiles.TemplateRef{ID: "letter"}},
		"bad format":       {Title: "A", BodyFormat: "rtf", Template: profiles.TemplateRef{ID: "letter"}},
		"foreign signature image": {Title: "A", Template: profiles.TemplateRef{ID: "letter"}, Signature: &profiles.Signature{
			Name:  "Budi",
			Image: &profiles.Asset{StorageKey: assets.Key("user_2", "signatures", "ttd"), MimeType: "image/png"},
		}},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			d := data
			if _, err := f.svc.Save(ctx, "user_1", SaveRequest{Data: &d}); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
	// An empty session has no template yet.
	if _, err := f.svc.Save(ctx, "user_1", SaveRequest{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty session, got %v", err)
	}
}

func TestOpenLoadsIntoEditor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	data := &profiles.DocumentData{Title: "Memo", Content: "Libur", Template: profiles.TemplateRef{ID: "memo"}}
	saved, err := f.svc.Save(ctx, "user_2", SaveRequest{Data: data})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	doc, sess, err := f.svc.Open(ctx, "user_2", saved.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if doc.ID != saved.ID || sess.Step != wizard.StepEditor || sess.DocumentID != saved.ID {
		t.Fatalf("unexpected open result doc=%+v session=%+v", doc, sess)
	}
	if sess.Template == nil || sess.Template.Name != "Memo Internal" {
		t.Fatalf("expected template restored, got %+v", sess.Template)
	}

	if _, _, err := f.svc.Open(ctx, "user_2", "missing"); !errors.Is(err, profiles.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteForgetsSessionDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.compose(t, "Undangan")
	doc, err := f.svc.Save(ctx, "user_1", SaveRequest{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := f.svc.Delete(ctx, "user_1", doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.wizard.State("user_1").DocumentID != "" {
		t.Fatal("session should forget the deleted id")
	}
	if err := f.svc.Delete(ctx, "user_1", doc.ID); !errors.Is(err, profiles.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestExportUsesSessionDocument(t *testing.T) {
	f := newFixture(t)
	f.compose(t, "Undangan Rapat")

	out, name, err := f.svc.Export(context.Background(), "user_1", nil, ModePrint)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(out) != "%PDF-1.4 fake" || name != "Undangan Rapat.pdf" {
		t.Fatalf("unexpected export %q %q", out, name)
	}
	if len(f.exporter.modes) != 1 || f.exporter.modes[0] != ModePrint {
		t.Fatalf("unexpected modes %v", f.exporter.modes)
	}
}

func TestExportFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.exporter.err = errors.Join(ErrExport, errors.New("browser gone"))
	data := &profiles.DocumentData{Title: "A", Template: profiles.TemplateRef{ID: "letter"}}
	if _, _, err := f.svc.Export(context.Background(), "user_1", data, ModeRaster); !errors.Is(err, ErrExport) {
		t.Fatalf("expected ErrExport, got %v", err)
	}
}
