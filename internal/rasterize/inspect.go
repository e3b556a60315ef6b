package rasterize

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Info describes the parsed structure of a PDF.
type Info struct {
	PageCount int
	// First page MediaBox size in PDF points.
	WidthPt  float64
	HeightPt float64
}

// Inspect parses data and reports its page count and first page size.
// Unparseable or empty documents yield ErrDecode.
func Inspect(data []byte) (info Info, err error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("%w: empty document", ErrDecode)
	}
	defer func() {
		if r := recover(); r != nil {
			info, err = Info{}, fmt.Errorf("%w: %v", ErrDecode, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	count := reader.NumPage()
	if count < 1 {
		return Info{}, fmt.Errorf("%w: document has no pages", ErrDecode)
	}

	info = Info{PageCount: count}
	if box, ok := mediaBox(reader.Page(1).V); ok {
		info.WidthPt = box[2] - box[0]
		info.HeightPt = box[3] - box[1]
	}
	return info, nil
}

// mediaBox resolves the page MediaBox, following Parent links for inherited
// values.
func mediaBox(node pdf.Value) ([4]float64, bool) {
	for depth := 0; depth < 32 && !node.IsNull(); depth++ {
		box := node.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			var out [4]float64
			for i := 0; i < 4; i++ {
				out[i] = box.Index(i).Float64()
			}
			return out, true
		}
		node = node.Key("Parent")
	}
	return [4]float64{}, false
}
