package profiles

import (
	"encoding/json"
	"time"
)

// Kind tags the letterhead variant.
type Kind string

const (
	KindUploaded Kind = "uploaded"
	KindManual   Kind = "manual"
)

// Valid reports whether k is a known letterhead kind.
func (k Kind) Valid() bool {
	switch k {
	case KindUploaded, KindManual:
		return true
	default:
		return false
	}
}

// BodyFormat selects how a document body is rendered.
type BodyFormat string

const (
	BodyPlain    BodyFormat = "plain"
	BodyMarkdown BodyFormat = "markdown"
)

// Asset references binary content held in the object store.
type Asset struct {
	StorageKey string `json:"storageKey"`
	MimeType   string `json:"mimeType"`
	SizeBytes  int64  `json:"sizeBytes"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// Letterhead is either an uploaded PDF (optionally cropped to an image) or a
// manually entered company header. Fields of the other variant stay empty.
type Letterhead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`

	Source *Asset `json:"source,omitempty"`
	Image  *Asset `json:"image,omitempty"`

	CompanyName string `json:"companyName,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Website     string `json:"website,omitempty"`
	Logo        *Asset `json:"logo,omitempty"`
}

// Assets lists every stored asset the letterhead references.
func (l Letterhead) Assets() []Asset {
	var out []Asset
	switch l.Kind {
	case KindUploaded:
		if l.Source != nil {
			out = append(out, *l.Source)
		}
		if l.Image != nil {
			out = append(out, *l.Image)
		}
	case KindManual:
		if l.Logo != nil {
			out = append(out, *l.Logo)
		}
	}
	return out
}

// Signature is the optional signer block of a document.
type Signature struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Image    *Asset `json:"image,omitempty"`
}

// TemplateRef snapshots the template a document was written with.
type TemplateRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DocumentData is the editable content of a document.
type DocumentData struct {
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Recipient    string      `json:"recipient,omitempty"`
	Date         string      `json:"date"`
	Subject      string      `json:"subject,omitempty"`
	Template     TemplateRef `json:"template"`
	LetterheadID string      `json:"letterheadId,omitempty"`
	Signature    *Signature  `json:"signature,omitempty"`
	BodyFormat   BodyFormat  `json:"bodyFormat,omitempty"`
}

// SavedDocument is a document persisted in the user's profile.
type SavedDocument struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Data      DocumentData `json:"data"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Profile is the whole persisted state of one user. It is always read and
// written as a unit.
type Profile struct {
	UserID         string            `json:"userId"`
	Letterheads    []Letterhead      `json:"letterheads"`
	SavedDocuments []SavedDocument   `json:"savedDocuments"`
	Projects       []json.RawMessage `json:"projects"`
	Version        int64             `json:"version"`
}

// Empty returns a fresh profile for userID.
func Empty(userID string) Profile {
	return Profile{
		UserID:         userID,
		Letterheads:    []Letterhead{},
		SavedDocuments: []SavedDocument{},
		Projects:       []json.RawMessage{},
	}
}

func (p *Profile) normalize(userID string) {
	p.UserID = userID
	if p.Letterheads == nil {
		p.Letterheads = []Letterhead{}
	}
	if p.SavedDocuments == nil {
		p.SavedDocuments = []SavedDocument{}
	}
	if p.Projects == nil {
		p.Projects = []json.RawMessage{}
	}
}

// FindLetterhead returns the letterhead with id, if any.
func (p Profile) FindLetterhead(id string) (Letterhead, bool) {
	for _, lh := range p.Letterheads {
		if lh.ID == id {
			return lh, true
		}
	}
	return Letterhead{}, false
}

// FindDocument returns the saved document with id, if any.
func (p Profile) FindDocument(id string) (SavedDocument, bool) {
	for _, doc := range p.SavedDocuments {
		if doc.ID == id {
			return doc, true
		}
	}
	return SavedDocument{}, false
}
