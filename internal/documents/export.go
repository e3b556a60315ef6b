package documents

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"

	"letterhead-backend/internal/shared/util"
)

// Mode selects the export pipeline.
type Mode string

const (
	// ModeRaster screenshots the page and paginates the image onto A4.
	ModeRaster Mode = "raster"
	// ModePrint uses the browser's own print-to-PDF.
	ModePrint Mode = "print"
)

// A4 geometry in millimetres.
const (
	a4WidthMM      = 210.0
	a4HeightMM     = 297.0
	pageMarginMM   = 20.0
	defaultPDFName = "dokumen.pdf"
)

// ParseMode reads an export mode; empty means raster.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeRaster:
		return ModeRaster, nil
	case ModePrint:
		return ModePrint, nil
	}
	return "", fmt.Errorf("%w: unknown export mode %q", ErrInvalidInput, raw)
}

// Exporter turns preview HTML into a PDF.
type Exporter interface {
	Export(ctx context.Context, html string, mode Mode) ([]byte, error)
	Close() error
}

// FileName derives the download name from a document title.
func FileName(title string) string {
	name, err := util.SanitizeFileName(title)
	if err != nil {
		return defaultPDFName
	}
	return name + ".pdf"
}

// paginateJPEG lays a full-page screenshot out over A4 portrait pages with
// top and bottom margins, slicing it at page boundaries.
func paginateJPEG(jpg []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(jpg))
	if err != nil {
		return nil, fmt.Errorf("%w: decode screenshot: %v", ErrExport, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty screenshot", ErrExport)
	}

	imgHeightMM := float64(cfg.Height) * a4WidthMM / float64(cfg.Width)
	sliceMM := a4HeightMM - 2*pageMarginMM
	pages := int(math.Ceil(imgHeightMM/sliceMM - 1e-9))
	if pages < 1 {
		pages = 1
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, pageMarginMM, 0)
	pdf.SetAutoPageBreak(false, pageMarginMM)
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("page", opts, bytes.NewReader(jpg))

	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.ClipRect(0, pageMarginMM, a4WidthMM, sliceMM, false)
		pdf.ImageOptions("page", 0, pageMarginMM-float64(i)*sliceMM, a4WidthMM, imgHeightMM, false, opts, 0, "")
		pdf.ClipEnd()
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("%w: write pdf: %v", ErrExport, err)
	}
	return out.Bytes(), nil
}
