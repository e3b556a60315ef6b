// Package rasterizetest provides PDF fixtures and a fake page renderer.
package rasterizetest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"
)

// MinimalPDF builds a one-page document. When inherit is set the MediaBox is
// placed on the Pages node instead of the page.
func MinimalPDF(width, height int, inherit bool) []byte {
	var buf bytes.Buffer
	box := fmt.Sprintf("/MediaBox[0 0 %d %d]", width, height)
	pagesBox, pageBox := "", box
	if inherit {
		pagesBox, pageBox = box, ""
	}

	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, 3)

	offsets = append(offsets, buf.Len())
	buf.WriteString("1 0 obj\n<</Type/Catalog/Pages 2 0 R>>\nendobj\n")
	offsets = append(offsets, buf.Len())
	buf.WriteString("2 0 obj\n<</Type/Pages/Kids[3 0 R]/Count 1" + pagesBox + ">>\nendobj\n")
	offsets = append(offsets, buf.Len())
	buf.WriteString("3 0 obj\n<</Type/Page" + pageBox + "/Parent 2 0 R/Resources<<>>>>\nendobj\n")

	xref := buf.Len()
	buf.WriteString("xref\n0 4\n")
	buf.WriteString(fmt.Sprintf("%010d %05d f \r\n", 0, 65535))
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d %05d n \r\n", off, 0))
	}
	buf.WriteString("trailer\n<</Size 4/Root 1 0 R>>\n")
	buf.WriteString(fmt.Sprintf("startxref\n%d\n%%%%EOF", xref))
	return buf.Bytes()
}

// PNG encodes a w x h image filled with c.
func PNG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// Renderer returns a fixed image for every render.
type Renderer struct {
	PNG   []byte
	Err   error
	Delay time.Duration

	mu      sync.Mutex
	calls   int
	lastDPI int
}

func (r *Renderer) RenderFirstPage(ctx context.Context, _ []byte, dpi int) ([]byte, error) {
	r.mu.Lock()
	r.calls++
	r.lastDPI = dpi
	r.mu.Unlock()
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.PNG, r.Err
}

// Calls reports how many renders ran.
func (r *Renderer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// LastDPI reports the DPI of the most recent render.
func (r *Renderer) LastDPI() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastDPI
}
