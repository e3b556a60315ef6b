package rasterize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"path"
	"regexp"
	"strings"
	"time"

	"letterhead-backend/internal/shared/metrics"
	"letterhead-backend/internal/shared/telemetry"
)

const (
	// MimePDF is the only accepted declared upload type.
	MimePDF = "application/pdf"
	// RenderDPI renders at twice the 72 DPI PDF user space.
	RenderDPI = 144
)

var pdfSuffix = regexp.MustCompile(`(?i)\.pdf$`)

// Page is the raster of a PDF's first page.
type Page struct {
	PNG         []byte
	Width       int
	Height      int
	PageCount   int
	DefaultName string
}

// Rasterizer validates and renders uploaded letterhead PDFs.
type Rasterizer struct {
	Renderer PageRenderer
	Timeout  time.Duration
}

// DefaultName derives the suggested crop name from an upload's file name.
func DefaultName(fileName string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	return pdfSuffix.ReplaceAllString(base, "") + "_letterhead"
}

// RenderFirstPage checks the declared type, parses the document and renders
// page 1. The bytes are not sniffed; garbage fails at the decode step.
func (r *Rasterizer) RenderFirstPage(ctx context.Context, data []byte, mimeType, fileName string) (Page, error) {
	if strings.TrimSpace(strings.ToLower(mimeType)) != MimePDF {
		return Page{}, fmt.Errorf("%w: expected %s, got %q", ErrInvalidInput, MimePDF, mimeType)
	}

	start := time.Now()
	page, err := r.render(ctx, data, fileName)
	metrics.IncPageRender(err == nil)
	metrics.ObservePageRenderMs(metrics.SinceMillis(start))
	if err != nil {
		telemetry.Warn("rasterize.failed", map[string]any{
			"file_name": fileName,
			"bytes":     len(data),
			"err":       err,
		})
		return Page{}, err
	}
	return page, nil
}

func (r *Rasterizer) render(ctx context.Context, data []byte, fileName string) (Page, error) {
	info, err := Inspect(data)
	if err != nil {
		return Page{}, err
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	png, err := r.Renderer.RenderFirstPage(ctx, data, RenderDPI)
	if errors.Is(err, context.DeadlineExceeded) {
		return Page{}, fmt.Errorf("%w: rendering timed out after %s", ErrDecode, r.Timeout)
	}
	if err != nil {
		return Page{}, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil || format != "png" {
		return Page{}, fmt.Errorf("%w: renderer returned an unreadable image", ErrDecode)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return Page{}, fmt.Errorf("%w: rendered page is empty", ErrDecode)
	}

	return Page{
		PNG:         png,
		Width:       cfg.Width,
		Height:      cfg.Height,
		PageCount:   info.PageCount,
		DefaultName: DefaultName(fileName),
	}, nil
}
