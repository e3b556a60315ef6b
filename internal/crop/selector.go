package crop

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCrop rejects crops that cannot produce a usable image.
var ErrInvalidCrop = errors.New("invalid crop")

const (
	MinZoom  = 0.5
	MaxZoom  = 2.0
	ZoomStep = 0.1

	// DefaultMinWidth and DefaultMinHeight are in displayed pixels.
	DefaultMinWidth  = 50
	DefaultMinHeight = 30
)

// Rect is a selection in percent of the displayed image.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// DefaultRect selects the top quarter band of the page.
func DefaultRect() Rect {
	return Rect{X: 0, Y: 0, W: 100, H: 25}
}

// PixelRect is a rectangle in displayed-image pixels.
type PixelRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Handle names the edge or corner being dragged during a resize.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

func (h Handle) edges() (north, south, east, west bool, ok bool) {
	switch h {
	case HandleN:
		return true, false, false, false, true
	case HandleS:
		return false, true, false, false, true
	case HandleE:
		return false, false, true, false, true
	case HandleW:
		return false, false, false, true, true
	case HandleNE:
		return true, false, true, false, true
	case HandleNW:
		return true, false, false, true, true
	case HandleSE:
		return false, true, true, false, true
	case HandleSW:
		return false, true, false, true, true
	default:
		return false, false, false, false, false
	}
}

// Selector holds the live crop rectangle over a displayed page image and the
// last committed pixel rectangle. It is not safe for concurrent use.
type Selector struct {
	displayed Size
	min       Size
	rect      Rect
	committed *PixelRect
	zoom      float64
}

// NewSelector starts a selection over an image displayed at displayed size.
// min is the smallest allowed selection in displayed pixels.
func NewSelector(displayed, min Size) (*Selector, error) {
	if displayed.Width <= 0 || displayed.Height <= 0 {
		return nil, fmt.Errorf("%w: displayed size must be positive", ErrInvalidCrop)
	}
	if min.Width < 0 || min.Height < 0 {
		return nil, fmt.Errorf("%w: minimum size must not be negative", ErrInvalidCrop)
	}
	return &Selector{displayed: displayed, min: min, rect: DefaultRect(), zoom: 1}, nil
}

// Rect returns the live selection.
func (s *Selector) Rect() Rect { return s.rect }

// Displayed returns the displayed image size the selection refers to.
func (s *Selector) Displayed() Size { return s.displayed }

// Zoom returns the current presentational zoom.
func (s *Selector) Zoom() float64 { return s.zoom }

// Committed returns the latched pixel rectangle, if any.
func (s *Selector) Committed() (PixelRect, bool) {
	if s.committed == nil {
		return PixelRect{}, false
	}
	return *s.committed, true
}

func (s *Selector) minPct() (float64, float64) {
	mw := math.Min(100, s.min.Width/s.displayed.Width*100)
	mh := math.Min(100, s.min.Height/s.displayed.Height*100)
	return mw, mh
}

// Set replaces the live selection, clamped into the image and up to the
// minimum size.
func (s *Selector) Set(r Rect) Rect {
	mw, mh := s.minPct()
	r.W = clamp(r.W, mw, 100)
	r.H = clamp(r.H, mh, 100)
	r.X = clamp(r.X, 0, 100-r.W)
	r.Y = clamp(r.Y, 0, 100-r.H)
	s.rect = r
	return s.rect
}

// Move translates the selection by dx, dy percent, stopping at the edges.
func (s *Selector) Move(dx, dy float64) Rect {
	s.rect.X = clamp(s.rect.X+dx, 0, 100-s.rect.W)
	s.rect.Y = clamp(s.rect.Y+dy, 0, 100-s.rect.H)
	return s.rect
}

// Resize drags the given handle by dx, dy percent. The opposite edges stay
// fixed and the selection never shrinks below the minimum.
func (s *Selector) Resize(h Handle, dx, dy float64) (Rect, error) {
	north, south, east, west, ok := h.edges()
	if !ok {
		return s.rect, fmt.Errorf("%w: unknown handle %q", ErrInvalidCrop, h)
	}
	mw, mh := s.minPct()
	r := s.rect
	right, bottom := r.X+r.W, r.Y+r.H

	if east {
		r.W = clamp(r.W+dx, mw, 100-r.X)
	}
	if west {
		r.X = clamp(r.X+dx, 0, right-mw)
		r.W = right - r.X
	}
	if south {
		r.H = clamp(r.H+dy, mh, 100-r.Y)
	}
	if north {
		r.Y = clamp(r.Y+dy, 0, bottom-mh)
		r.H = bottom - r.Y
	}
	s.rect = r
	return s.rect, nil
}

// SetZoom clamps z to [MinZoom, MaxZoom]. Zoom is presentational and never
// enters coordinate mapping.
func (s *Selector) SetZoom(z float64) float64 {
	s.zoom = clamp(math.Round(z*10)/10, MinZoom, MaxZoom)
	return s.zoom
}

// ZoomIn steps the zoom up by ZoomStep.
func (s *Selector) ZoomIn() float64 { return s.SetZoom(s.zoom + ZoomStep) }

// ZoomOut steps the zoom down by ZoomStep.
func (s *Selector) ZoomOut() float64 { return s.SetZoom(s.zoom - ZoomStep) }

// Commit latches the live selection as a pixel rectangle in displayed space.
func (s *Selector) Commit() (PixelRect, error) {
	px := PixelRect{
		X:      s.rect.X * s.displayed.Width / 100,
		Y:      s.rect.Y * s.displayed.Height / 100,
		Width:  s.rect.W * s.displayed.Width / 100,
		Height: s.rect.H * s.displayed.Height / 100,
	}
	if err := ValidateCommit(px, s.displayed, s.min); err != nil {
		return PixelRect{}, err
	}
	s.committed = &px
	return px, nil
}

// Reset restores the default selection and drops any commit.
func (s *Selector) Reset() {
	s.rect = DefaultRect()
	s.committed = nil
}

// ValidateCommit checks a committed rectangle against the displayed image and
// the minimum selection size.
func ValidateCommit(px PixelRect, displayed, min Size) error {
	const eps = 1e-6
	if displayed.Width <= 0 || displayed.Height <= 0 {
		return fmt.Errorf("%w: displayed size must be positive", ErrInvalidCrop)
	}
	if px.Width <= 0 || px.Height <= 0 {
		return fmt.Errorf("%w: selection has zero area", ErrInvalidCrop)
	}
	minW := math.Min(min.Width, displayed.Width)
	minH := math.Min(min.Height, displayed.Height)
	if px.Width+eps < minW || px.Height+eps < minH {
		return fmt.Errorf("%w: selection %.0fx%.0f is below the %.0fx%.0f minimum", ErrInvalidCrop, px.Width, px.Height, minW, minH)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(hi, v))
}
