package profiles

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UntitledDocument names saved documents without a title.
const UntitledDocument = "Dokumen Tanpa Judul"

// Service owns every read-modify-write cycle on a profile. Writers for the same
// user are serialized in-process; the repo's version check catches writers in
// other processes.
type Service struct {
	Repo Repo
	Now  func() time.Time

	locks sync.Map // userID -> *sync.Mutex
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) lock(userID string) func() {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Get loads the profile for userID, creating an empty one lazily.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return Profile{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	return s.Repo.Load(ctx, userID)
}

// Update applies fn to the stored profile and writes it back as a whole.
// The returned profile carries the new version.
func (s *Service) Update(ctx context.Context, userID string, fn func(*Profile) error) (Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return Profile{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	unlock := s.lock(userID)
	defer unlock()

	p, err := s.Repo.Load(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if err := fn(&p); err != nil {
		return Profile{}, err
	}
	if err := s.Repo.Replace(ctx, p); err != nil {
		return Profile{}, err
	}
	p.Version++
	return p, nil
}

// AddLetterhead appends lh, assigning an id and creation time when missing.
func (s *Service) AddLetterhead(ctx context.Context, userID string, lh Letterhead) (Letterhead, error) {
	if !lh.Kind.Valid() {
		return Letterhead{}, fmt.Errorf("%w: unknown letterhead kind %q", ErrInvalidInput, lh.Kind)
	}
	if strings.TrimSpace(lh.Name) == "" {
		return Letterhead{}, fmt.Errorf("%w: letterhead name required", ErrInvalidInput)
	}
	if lh.ID == "" {
		lh.ID = uuid.NewString()
	}
	if lh.CreatedAt.IsZero() {
		lh.CreatedAt = s.Now()
	}
	_, err := s.Update(ctx, userID, func(p *Profile) error {
		if _, exists := p.FindLetterhead(lh.ID); exists {
			return fmt.Errorf("%w: duplicate letterhead id", ErrInvalidInput)
		}
		p.Letterheads = append(p.Letterheads, lh)
		return nil
	})
	if err != nil {
		return Letterhead{}, err
	}
	return lh, nil
}

// Letterheads lists letterheads in insertion order, optionally filtered by kind.
func (s *Service) Letterheads(ctx context.Context, userID string, kind Kind) ([]Letterhead, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return p.Letterheads, nil
	}
	out := make([]Letterhead, 0, len(p.Letterheads))
	for _, lh := range p.Letterheads {
		if lh.Kind == kind {
			out = append(out, lh)
		}
	}
	return out, nil
}

// Letterhead returns a single letterhead.
func (s *Service) Letterhead(ctx context.Context, userID, id string) (Letterhead, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return Letterhead{}, err
	}
	lh, ok := p.FindLetterhead(id)
	if !ok {
		return Letterhead{}, ErrNotFound
	}
	return lh, nil
}

// DeleteLetterhead removes a letterhead. Documents referencing it keep the
// now dangling id.
func (s *Service) DeleteLetterhead(ctx context.Context, userID, id string) (Letterhead, error) {
	var removed Letterhead
	_, err := s.Update(ctx, userID, func(p *Profile) error {
		for i, lh := range p.Letterheads {
			if lh.ID == id {
				removed = lh
				p.Letterheads = append(p.Letterheads[:i:i], p.Letterheads[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return Letterhead{}, err
	}
	return removed, nil
}

// SaveDocument appends a document with a new id or overwrites the one with a
// known id in place, keeping its creation time.
func (s *Service) SaveDocument(ctx context.Context, userID, id string, data DocumentData) (SavedDocument, error) {
	now := s.Now()
	name := strings.TrimSpace(data.Title)
	if name == "" {
		name = UntitledDocument
	}
	doc := SavedDocument{ID: id, Name: name, Data: data, CreatedAt: now, UpdatedAt: now}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	_, err := s.Update(ctx, userID, func(p *Profile) error {
		for i := range p.SavedDocuments {
			if p.SavedDocuments[i].ID == doc.ID {
				doc.CreatedAt = p.SavedDocuments[i].CreatedAt
				p.SavedDocuments[i] = doc
				return nil
			}
		}
		p.SavedDocuments = append(p.SavedDocuments, doc)
		return nil
	})
	if err != nil {
		return SavedDocument{}, err
	}
	return doc, nil
}

// Documents lists saved documents in insertion order.
func (s *Service) Documents(ctx context.Context, userID string) ([]SavedDocument, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.SavedDocuments, nil
}

// Document returns a single saved document.
func (s *Service) Document(ctx context.Context, userID, id string) (SavedDocument, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return SavedDocument{}, err
	}
	doc, ok := p.FindDocument(id)
	if !ok {
		return SavedDocument{}, ErrNotFound
	}
	return doc, nil
}

// DeleteDocument removes a saved document.
func (s *Service) DeleteDocument(ctx context.Context, userID, id string) error {
	_, err := s.Update(ctx, userID, func(p *Profile) error {
		for i, doc := range p.SavedDocuments {
			if doc.ID == id {
				p.SavedDocuments = append(p.SavedDocuments[:i:i], p.SavedDocuments[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	return err
}
