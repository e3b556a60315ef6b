package documents

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"letterhead-backend/internal/rasterize"
)

func jpegOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeRaster, "raster": ModeRaster, "PRINT": ModePrint} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("docx"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"Undangan Rapat": "Undangan Rapat.pdf",
		"":               "dokumen.pdf",
		"   ":            "dokumen.pdf",
		"a/b":            "a_b.pdf",
		"../etc/passwd":  "dokumen.pdf",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPaginateJPEGSlicesOntoA4Pages(t *testing.T) {
	cases := []struct {
		name   string
		height int
		pages  int
	}{
		// 257mm of content per page is about 971px at 794px wide.
		{"single page", 900, 1},
		{"two pages", 1500, 2},
		{"three pages", 2000, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := paginateJPEG(jpegOf(t, PageWidthPx, tc.height))
			if err != nil {
				t.Fatalf("paginate: %v", err)
			}
			if !bytes.HasPrefix(out, []byte("%PDF-")) {
				t.Fatalf("expected pdf output")
			}
			info, err := rasterize.Inspect(out)
			if err != nil {
				t.Fatalf("inspect: %v", err)
			}
			if info.PageCount != tc.pages {
				t.Fatalf("expected %d pages, got %d", tc.pages, info.PageCount)
			}
		})
	}
}

func TestPaginateJPEGRejectsGarbage(t *testing.T) {
	if _, err := paginateJPEG([]byte("not an image")); !errors.Is(err, ErrExport) {
		t.Fatalf("expected ErrExport, got %v", err)
	}
}
