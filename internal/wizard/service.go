package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/shared/storage/object"
	"letterhead-backend/internal/shared/telemetry"
	"letterhead-backend/internal/templates"
)

// Service drives per-user wizard sessions.
type Service struct {
	Sessions *SessionStore
	Profiles *profiles.Service
	Store    object.ObjectStore

	// OnDocumentChange, when set, receives every edited document. The draft
	// autosaver hooks in here.
	OnDocumentChange func(userID string, data profiles.DocumentData)
}

// NewService constructs a Service.
func NewService(sessions *SessionStore, profileSvc *profiles.Service, store object.ObjectStore) *Service {
	return &Service{Sessions: sessions, Profiles: profileSvc, Store: store}
}

// State returns the user's session.
func (s *Service) State(userID string) Session {
	return s.Sessions.Get(userID)
}

func (s *Service) step(userID, action string, fn func(*Session) error) (Session, error) {
	var out Session
	err := s.Sessions.Update(userID, fn, &out)
	if err != nil {
		telemetry.Info("wizard.transition.rejected", map[string]any{
			"user_id": userID,
			"action":  action,
			"step":    out.Step,
			"reason":  err.Error(),
		})
	}
	return out, err
}

// Next advances when the current step's requirements are met.
func (s *Service) Next(userID string) (Session, error) {
	return s.step(userID, "next", (*Session).Next)
}

// Back moves one step back.
func (s *Service) Back(userID string) (Session, error) {
	return s.step(userID, "back", (*Session).Back)
}

// OpenSaved switches to the saved-documents view.
func (s *Service) OpenSaved(userID string) (Session, error) {
	return s.step(userID, "saved", func(sess *Session) error {
		sess.OpenSaved()
		return nil
	})
}

// Resume returns to the editor.
func (s *Service) Resume(userID string) (Session, error) {
	return s.step(userID, "resume", (*Session).Resume)
}

// GoTo jumps to step through header navigation.
func (s *Service) GoTo(userID string, step Step) (Session, error) {
	return s.step(userID, "goto", func(sess *Session) error { return sess.GoTo(step) })
}

// SelectLetterhead picks the letterhead for the document. An empty id clears
// the selection.
func (s *Service) SelectLetterhead(ctx context.Context, userID, id string) (Session, error) {
	id = strings.TrimSpace(id)
	if id != "" {
		if _, err := s.Profiles.Letterhead(ctx, userID, id); err != nil {
			return Session{}, err
		}
	}
	return s.step(userID, "select_letterhead", func(sess *Session) error {
		sess.LetterheadID = id
		sess.Document.LetterheadID = id
		return nil
	})
}

// SelectTemplate picks the document template and snapshots it, together with
// the selected letterhead, into the document.
func (s *Service) SelectTemplate(userID, id string) (Session, error) {
	t, err := templates.Lookup(id)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.step(userID, "select_template", func(sess *Session) error {
		sess.Template = &t
		sess.Document.Template = profiles.TemplateRef{ID: string(t.ID), Name: t.Name}
		sess.Document.LetterheadID = sess.LetterheadID
		return nil
	})
}

// DocumentPatch carries editor changes. Nil fields are left alone.
type DocumentPatch struct {
	Title             *string              `json:"title"`
	Content           *string              `json:"content"`
	Recipient         *string              `json:"recipient"`
	Date              *string              `json:"date"`
	Subject           *string              `json:"subject"`
	BodyFormat        *profiles.BodyFormat `json:"bodyFormat"`
	SignatureName     *string              `json:"signatureName"`
	SignaturePosition *string              `json:"signaturePosition"`
	RemoveSignature   bool                 `json:"removeSignature"`
}

func (p DocumentPatch) validate() error {
	if p.Date != nil && *p.Date != "" {
		if _, err := time.Parse(time.DateOnly, *p.Date); err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	if p.BodyFormat != nil {
		switch *p.BodyFormat {
		case profiles.BodyPlain, profiles.BodyMarkdown:
		default:
			return fmt.Errorf("%w: unknown body format %q", ErrInvalidInput, *p.BodyFormat)
		}
	}
	return nil
}

func (p DocumentPatch) apply(d *profiles.DocumentData) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&d.Title, p.Title)
	set(&d.Content, p.Content)
	set(&d.Recipient, p.Recipient)
	set(&d.Date, p.Date)
	set(&d.Subject, p.Subject)
	if p.BodyFormat != nil {
		d.BodyFormat = *p.BodyFormat
	}
	if p.RemoveSignature {
		d.Signature = nil
		return
	}
	if p.SignatureName != nil || p.SignaturePosition != nil {
		if d.Signature == nil {
			d.Signature = &profiles.Signature{}
		}
		set(&d.Signature.Name, p.SignatureName)
		set(&d.Signature.Position, p.SignaturePosition)
	}
}

// UpdateDocument applies editor changes to the session's document.
func (s *Service) UpdateDocument(userID string, patch DocumentPatch) (Session, error) {
	if err := patch.validate(); err != nil {
		return Session{}, err
	}
	sess, err := s.step(userID, "edit", func(sess *Session) error {
		patch.apply(&sess.Document)
		return nil
	})
	if err != nil {
		return sess, err
	}
	s.documentChanged(userID, sess.Document)
	return sess, nil
}

// SetSignatureImage stores an uploaded signature image and attaches it to
// the document's signature block. Earlier images stay in storage since saved
// documents may reference them.
func (s *Service) SetSignatureImage(ctx context.Context, userID string, img assets.ImageFile) (Session, error) {
	asset, err := assets.SaveImage(ctx, s.Store, assets.Key(userID, "signatures", uuid.NewString()), img)
	if err != nil {
		return Session{}, err
	}
	sess, err := s.step(userID, "signature_image", func(sess *Session) error {
		if sess.Document.Signature == nil {
			sess.Document.Signature = &profiles.Signature{}
		}
		sess.Document.Signature.Image = &asset
		return nil
	})
	if err != nil {
		assets.DeleteAll(ctx, s.Store, asset)
		return sess, err
	}
	s.documentChanged(userID, sess.Document)
	return sess, nil
}

// LoadDocument puts a saved document into the session and jumps to the
// editor.
func (s *Service) LoadDocument(userID string, doc profiles.SavedDocument) (Session, error) {
	// Documents naming a template outside the catalog load without one.
	var tmpl *templates.Template
	if t, err := templates.Lookup(doc.Data.Template.ID); err == nil {
		tmpl = &t
	}
	return s.step(userID, "load", func(sess *Session) error {
		sess.Document = doc.Data
		sess.DocumentID = doc.ID
		sess.Template = tmpl
		sess.LetterheadID = doc.Data.LetterheadID
		sess.Step = StepEditor
		return nil
	})
}

// MarkSaved records the id the session's document was saved under.
func (s *Service) MarkSaved(userID, documentID string) {
	_, _ = s.step(userID, "mark_saved", func(sess *Session) error {
		sess.DocumentID = documentID
		return nil
	})
}

// Forget drops a deleted document's id from the session.
func (s *Service) Forget(userID, documentID string) {
	_, _ = s.step(userID, "forget", func(sess *Session) error {
		if sess.DocumentID == documentID {
			sess.DocumentID = ""
		}
		return nil
	})
}

func (s *Service) documentChanged(userID string, data profiles.DocumentData) {
	if s.OnDocumentChange != nil {
		s.OnDocumentChange(userID, data)
	}
}
