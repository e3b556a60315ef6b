package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/shared/metrics"
	"letterhead-backend/internal/shared/telemetry"
	"letterhead-backend/internal/templates"
	"letterhead-backend/internal/wizard"
)

// Service saves, loads, previews and exports documents. Calls that take no
// explicit document data work on the user's wizard session.
type Service struct {
	Profiles  *profiles.Service
	Wizard    *wizard.Service
	Previewer *Previewer
	Exporter  Exporter
}

// NewService constructs a Service.
func NewService(profileSvc *profiles.Service, wizardSvc *wizard.Service, previewer *Previewer, exporter Exporter) *Service {
	return &Service{Profiles: profileSvc, Wizard: wizardSvc, Previewer: previewer, Exporter: exporter}
}

// SaveRequest saves Data under ID. A nil Data saves the wizard's document;
// an empty ID then reuses the id the session document was loaded or saved
// under, and otherwise creates a new document.
type SaveRequest struct {
	ID   string                 `json:"id"`
	Data *profiles.DocumentData `json:"data"`
}

// validate checks data and pins its template snapshot to the catalog entry.
// A signature image must be one of userID's own assets.
func validate(userID string, data *profiles.DocumentData) error {
	t, err := templates.Lookup(data.Template.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	data.Template = profiles.TemplateRef{ID: string(t.ID), Name: t.Name}
	if data.Date != "" {
		if _, err := time.Parse(time.DateOnly, data.Date); err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	switch data.BodyFormat {
	case "", profiles.BodyPlain, profiles.BodyMarkdown:
	default:
		return fmt.Errorf("%w: unknown body format %q", ErrInvalidInput, data.BodyFormat)
	}
	if sig := data.Signature; sig != nil && sig.Image != nil && !assets.Owns(userID, sig.Image.StorageKey) {
		return fmt.Errorf("%w: signature image not found", ErrInvalidInput)
	}
	return nil
}

// Save stores a document in the profile.
func (s *Service) Save(ctx context.Context, userID string, req SaveRequest) (profiles.SavedDocument, error) {
	id := strings.TrimSpace(req.ID)
	fromSession := req.Data == nil
	var data profiles.DocumentData
	if fromSession {
		sess := s.Wizard.State(userID)
		data = sess.Document
		if id == "" {
			id = sess.DocumentID
		}
	} else {
		data = *req.Data
	}
	if err := validate(userID, &data); err != nil {
		return profiles.SavedDocument{}, err
	}

	doc, err := s.Profiles.SaveDocument(ctx, userID, id, data)
	if err != nil {
		return profiles.SavedDocument{}, err
	}
	if fromSession {
		s.Wizard.MarkSaved(userID, doc.ID)
	}
	telemetry.Info("documents.saved", map[string]any{
		"user_id":     userID,
		"document_id": doc.ID,
		"template":    doc.Data.Template.ID,
		"overwrite":   id != "",
	})
	return doc, nil
}

// List returns the saved documents.
func (s *Service) List(ctx context.Context, userID string) ([]profiles.SavedDocument, error) {
	return s.Profiles.Documents(ctx, userID)
}

// Open loads a saved document into the wizard, which jumps to the editor.
func (s *Service) Open(ctx context.Context, userID, id string) (profiles.SavedDocument, wizard.Session, error) {
	doc, err := s.Profiles.Document(ctx, userID, id)
	if err != nil {
		return profiles.SavedDocument{}, wizard.Session{}, err
	}
	sess, err := s.Wizard.LoadDocument(userID, doc)
	if err != nil {
		return profiles.SavedDocument{}, wizard.Session{}, err
	}
	return doc, sess, nil
}

// Delete removes a saved document.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.Profiles.DeleteDocument(ctx, userID, id); err != nil {
		return err
	}
	s.Wizard.Forget(userID, id)
	return nil
}

func (s *Service) resolve(userID string, data *profiles.DocumentData) profiles.DocumentData {
	if data != nil {
		return *data
	}
	return s.Wizard.State(userID).Document
}

// Preview renders data, or the wizard's document when data is nil.
func (s *Service) Preview(ctx context.Context, userID string, data *profiles.DocumentData) (Preview, error) {
	return s.Previewer.Render(ctx, userID, s.resolve(userID, data))
}

// Export renders data to PDF and returns it with its download name.
func (s *Service) Export(ctx context.Context, userID string, data *profiles.DocumentData, mode Mode) ([]byte, string, error) {
	preview, err := s.Preview(ctx, userID, data)
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	out, err := s.Exporter.Export(ctx, preview.HTML, mode)
	metrics.IncExport(err == nil)
	metrics.ObserveExportMs(metrics.SinceMillis(start))
	if err != nil {
		telemetry.Error("documents.export.failed", map[string]any{
			"user_id": userID,
			"mode":    string(mode),
			"err":     err,
		})
		return nil, "", err
	}
	return out, preview.FileName, nil
}
