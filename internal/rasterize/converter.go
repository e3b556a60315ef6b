package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/converter"
)

// ConverterRenderer rasterizes in-process with the seehuhn PDF converter.
type ConverterRenderer struct{}

type renderResult struct {
	png []byte
	err error
}

// RenderFirstPage parses pdf and draws page 1. The converter cannot be
// interrupted, so a cancelled ctx abandons the worker goroutine.
func (ConverterRenderer) RenderFirstPage(ctx context.Context, data []byte, dpi int) ([]byte, error) {
	done := make(chan renderResult, 1)
	go func() {
		out, err := convertFirstPage(data, dpi)
		done <- renderResult{png: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.png, res.err
	}
}

func convertFirstPage(data []byte, dpi int) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("%w: converter panic: %v", ErrDecode, rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer r.Close()

	img, err := converter.NewConverter(r).RenderPageToImage(1, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("%w: render page 1: %v", ErrDecode, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: rendered page is empty", ErrDecode)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}
	return buf.Bytes(), nil
}

// Engine names accepted by NewPageRenderer.
const (
	EngineConverter = "converter"
	EnginePoppler   = "poppler"
)

// NewPageRenderer picks the rasterization engine. Anything other than
// poppler selects the in-process converter.
func NewPageRenderer(engine, pdftoppmBin string) PageRenderer {
	if engine == EnginePoppler {
		return PopplerRenderer{Bin: pdftoppmBin}
	}
	return ConverterRenderer{}
}
