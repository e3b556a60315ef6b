package letterheads

import (
	"time"

	"letterhead-backend/internal/crop"
	"letterhead-backend/internal/profiles"
)

const assetPath = "/api/v1/assets/"

// LetterheadResponse is the outward-facing representation of a letterhead.
type LetterheadResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Kind        profiles.Kind `json:"kind"`
	CreatedAt   time.Time     `json:"createdAt"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	SourceURL   string        `json:"sourceUrl,omitempty"`
	CompanyName string        `json:"companyName,omitempty"`
	Address     string        `json:"address,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Email       string        `json:"email,omitempty"`
	Website     string        `json:"website,omitempty"`
	LogoURL     string        `json:"logoUrl,omitempty"`
}

func assetURL(a *profiles.Asset) string {
	if a == nil || a.StorageKey == "" {
		return ""
	}
	return assetPath + a.StorageKey
}

func toResponse(lh profiles.Letterhead) LetterheadResponse {
	out := LetterheadResponse{
		ID:        lh.ID,
		Name:      lh.Name,
		Kind:      lh.Kind,
		CreatedAt: lh.CreatedAt,
	}
	switch lh.Kind {
	case profiles.KindUploaded:
		out.ImageURL = assetURL(lh.Image)
		out.SourceURL = assetURL(lh.Source)
	case profiles.KindManual:
		out.CompanyName = lh.CompanyName
		out.Address = lh.Address
		out.Phone = lh.Phone
		out.Email = lh.Email
		out.Website = lh.Website
		out.LogoURL = assetURL(lh.Logo)
	}
	return out
}

// UploadResponse describes a rendered upload awaiting its crop.
type UploadResponse struct {
	UploadID    string    `json:"uploadId"`
	FileName    string    `json:"fileName"`
	PageURL     string    `json:"pageUrl"`
	PageWidth   int       `json:"pageWidth"`
	PageHeight  int       `json:"pageHeight"`
	PageCount   int       `json:"pageCount"`
	DefaultName string    `json:"defaultName"`
	MinCrop     crop.Size `json:"minCrop"`
	Selection   Selection `json:"selection"`
}

type cropRequest struct {
	Name            string          `json:"name"`
	DisplayedWidth  float64         `json:"displayedWidth"`
	DisplayedHeight float64         `json:"displayedHeight"`
	Crop            *crop.PixelRect `json:"crop"`
}
