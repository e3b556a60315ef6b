package documents

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/shared/storage/object"
	"letterhead-backend/internal/shared/telemetry"
	"letterhead-backend/internal/templates"
)

// PageWidthPx is the nominal A4 width at 96 DPI.
const PageWidthPx = 794

//go:embed preview.gohtml
var previewSource string

var previewTmpl = template.Must(template.New("preview").Parse(previewSource))

// Preview is a rendered document.
type Preview struct {
	HTML      string `json:"html"`
	Title     string `json:"title"`
	ShareText string `json:"shareText"`
	FileName  string `json:"fileName"`
}

type letterheadView struct {
	Kind        string
	Name        string
	ImageURL    template.URL
	CompanyName string
	Address     string
	Phone       string
	Email       string
	Website     string
	LogoURL     template.URL
}

type headerLine struct {
	Label string
	Value string
}

type signatureView struct {
	Name     string
	Position string
	ImageURL template.URL
}

type previewView struct {
	PageWidth     int
	Title         string
	Date          string
	Letterhead    *letterheadView
	Addressee     []string
	Lines         []headerLine
	Body          template.HTML
	PlainBody     bool
	Signature     *signatureView
	InvoiceFooter bool
}

// Previewer renders document data to standalone HTML with every image
// inlined.
type Previewer struct {
	Profiles *profiles.Service
	Store    object.ObjectStore
}

// NewPreviewer constructs a Previewer.
func NewPreviewer(profileSvc *profiles.Service, store object.ObjectStore) *Previewer {
	return &Previewer{Profiles: profileSvc, Store: store}
}

// Render builds the preview for data as userID sees it.
func (p *Previewer) Render(ctx context.Context, userID string, data profiles.DocumentData) (Preview, error) {
	body, plain, err := renderBody(data.Content, data.BodyFormat)
	if err != nil {
		return Preview{}, err
	}

	view := previewView{
		PageWidth:     PageWidthPx,
		Title:         data.Title,
		Date:          LongDate(data.Date),
		Body:          body,
		PlainBody:     plain,
		InvoiceFooter: templates.Type(data.Template.ID) == templates.Invoice,
	}
	view.Addressee, view.Lines = headerFor(data, view.Date)

	lh, err := p.letterhead(ctx, userID, data.LetterheadID)
	if err != nil {
		return Preview{}, err
	}
	view.Letterhead = lh
	view.Signature = p.signature(ctx, userID, data.Signature)

	var buf bytes.Buffer
	if err := previewTmpl.Execute(&buf, view); err != nil {
		return Preview{}, fmt.Errorf("render preview: %w", err)
	}
	return Preview{
		HTML:      buf.String(),
		Title:     data.Title,
		ShareText: "Dokumen: " + data.Title,
		FileName:  FileName(data.Title),
	}, nil
}

// headerFor returns the template-specific block shown above the title.
func headerFor(data profiles.DocumentData, longDate string) ([]string, []headerLine) {
	recipient := strings.TrimSpace(data.Recipient)
	subject := strings.TrimSpace(data.Subject)

	var addressee []string
	var lines []headerLine
	switch templates.Type(data.Template.ID) {
	case templates.Letter:
		if recipient != "" {
			addressee = []string{"Kepada Yth.", recipient, "Di tempat"}
		}
		if subject != "" {
			lines = append(lines, headerLine{"Perihal", subject})
		}
	case templates.Memo:
		if recipient != "" {
			lines = append(lines,
				headerLine{"Kepada", recipient},
				headerLine{"Dari", "Manajemen"},
				headerLine{"Tanggal", longDate},
			)
			if subject != "" {
				lines = append(lines, headerLine{"Perihal", subject})
			}
		}
	case templates.Invoice:
		if recipient != "" {
			lines = append(lines, headerLine{"Kepada", recipient})
		}
		if subject != "" {
			lines = append(lines, headerLine{"Nomor Invoice", subject})
		}
	case templates.Report:
		if recipient != "" {
			lines = append(lines, headerLine{"Ditujukan Kepada", recipient})
		}
		if subject != "" {
			lines = append(lines, headerLine{"Periode Laporan", subject})
		}
	}
	return addressee, lines
}

// letterhead resolves the referenced letterhead. A missing letterhead renders
// as none.
func (p *Previewer) letterhead(ctx context.Context, userID, id string) (*letterheadView, error) {
	if id == "" {
		return nil, nil
	}
	lh, err := p.Profiles.Letterhead(ctx, userID, id)
	if errors.Is(err, profiles.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	view := &letterheadView{Kind: string(lh.Kind), Name: lh.Name}
	switch lh.Kind {
	case profiles.KindUploaded:
		view.ImageURL = p.inline(ctx, userID, lh.Image)
	case profiles.KindManual:
		view.CompanyName = lh.CompanyName
		view.Address = lh.Address
		view.Phone = lh.Phone
		view.Email = lh.Email
		view.Website = lh.Website
		view.LogoURL = p.inline(ctx, userID, lh.Logo)
	}
	return view, nil
}

func (p *Previewer) signature(ctx context.Context, userID string, sig *profiles.Signature) *signatureView {
	if sig == nil || (strings.TrimSpace(sig.Name) == "" && strings.TrimSpace(sig.Position) == "") {
		return nil
	}
	return &signatureView{Name: sig.Name, Position: sig.Position, ImageURL: p.inline(ctx, userID, sig.Image)}
}

// inline returns a data: URL for the asset, or "" when it cannot be read or
// is not stored under userID.
func (p *Previewer) inline(ctx context.Context, userID string, a *profiles.Asset) template.URL {
	if a == nil || a.StorageKey == "" {
		return ""
	}
	if !assets.Owns(userID, a.StorageKey) {
		telemetry.Warn("documents.preview.foreign_asset", map[string]any{"user_id": userID, "key": a.StorageKey})
		return ""
	}
	url, err := assets.DataURL(ctx, p.Store, *a)
	if err != nil {
		telemetry.Warn("documents.preview.asset_unreadable", map[string]any{"key": a.StorageKey, "err": err})
		return ""
	}
	return template.URL(url) // #nosec G203 -- data URL built from stored bytes
}
