package crop

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

// NaturalRect maps a committed displayed-space rectangle onto the source
// image. The horizontal and vertical ratios are computed independently and
// the result is clipped to the source bounds.
func NaturalRect(natural image.Rectangle, displayed Size, px PixelRect) (image.Rectangle, error) {
	if displayed.Width <= 0 || displayed.Height <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: displayed size must be positive", ErrInvalidCrop)
	}
	sx := float64(natural.Dx()) / displayed.Width
	sy := float64(natural.Dy()) / displayed.Height

	w := int(math.Round(px.Width * sx))
	h := int(math.Round(px.Height * sy))
	x := fitOrigin(int(math.Round(px.X*sx)), w, natural.Dx(), px.X+px.Width <= displayed.Width+edgeEpsilon)
	y := fitOrigin(int(math.Round(px.Y*sy)), h, natural.Dy(), px.Y+px.Height <= displayed.Height+edgeEpsilon)

	r := image.Rect(x, y, x+w, y+h).Add(natural.Min).Intersect(natural)
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: selection is outside the image", ErrInvalidCrop)
	}
	return r, nil
}

const edgeEpsilon = 1e-9

// fitOrigin pulls an in-bounds selection back inside the source when
// rounding pushed its far edge past it, so the size stays round(len*ratio).
// Selections that really extend past the image are left to be clipped.
func fitOrigin(origin, length, limit int, inBounds bool) int {
	if !inBounds || length > limit || origin+length <= limit {
		return origin
	}
	return limit - length
}

// Rasterize copies the committed region of src 1:1 at natural resolution
// into a new image.
func Rasterize(src image.Image, displayed Size, px PixelRect, min Size) (*image.RGBA, error) {
	if err := ValidateCommit(px, displayed, min); err != nil {
		return nil, err
	}
	r, err := NaturalRect(src.Bounds(), displayed, px)
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst, nil
}

// EncodePNG encodes img losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail scales img down to fit within maxWidth, preserving aspect ratio.
// Images already narrow enough are returned unchanged.
func Thumbnail(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := int(math.Round(float64(b.Dy()) * float64(maxWidth) / float64(b.Dx())))
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
