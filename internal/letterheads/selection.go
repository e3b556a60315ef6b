package letterheads

import (
	"fmt"

	"letterhead-backend/internal/crop"
)

// Selection is the client-visible state of a crop selector.
type Selection struct {
	Rect      crop.Rect       `json:"rect"`
	Displayed crop.Size       `json:"displayed"`
	Zoom      float64         `json:"zoom"`
	Committed *crop.PixelRect `json:"committed,omitempty"`
}

func selectionOf(s *crop.Selector) Selection {
	sel := Selection{Rect: s.Rect(), Displayed: s.Displayed(), Zoom: s.Zoom()}
	if px, ok := s.Committed(); ok {
		sel.Committed = &px
	}
	return sel
}

// SelectionOp is one edit of the crop selection.
type SelectionOp struct {
	Op        string      `json:"op"`
	DX        float64     `json:"dx"`
	DY        float64     `json:"dy"`
	Handle    crop.Handle `json:"handle"`
	Rect      *crop.Rect  `json:"rect"`
	Zoom      float64     `json:"zoom"`
	Displayed *crop.Size  `json:"displayed"`
}

// apply returns the selector to keep after the edit. A new displayed size
// rebuilds the selector and carries the percent rectangle over.
func (op SelectionOp) apply(s *crop.Selector, min crop.Size) (*crop.Selector, error) {
	if op.Displayed != nil {
		next, err := crop.NewSelector(*op.Displayed, min)
		if err != nil {
			return nil, err
		}
		next.Set(s.Rect())
		next.SetZoom(s.Zoom())
		s = next
	}

	switch op.Op {
	case "", "display":
	case "move":
		s.Move(op.DX, op.DY)
	case "resize":
		if _, err := s.Resize(op.Handle, op.DX, op.DY); err != nil {
			return nil, err
		}
	case "set":
		if op.Rect == nil {
			return nil, fmt.Errorf("%w: rect required", ErrInvalidInput)
		}
		s.Set(*op.Rect)
	case "zoom":
		s.SetZoom(op.Zoom)
	case "zoomIn":
		s.ZoomIn()
	case "zoomOut":
		s.ZoomOut()
	case "reset":
		s.Reset()
	case "commit":
		if _, err := s.Commit(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown selection op %q", ErrInvalidInput, op.Op)
	}
	return s, nil
}
