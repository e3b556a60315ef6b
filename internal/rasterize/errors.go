package rasterize

import "errors"

var (
	// ErrInvalidInput rejects uploads that are not declared as PDF.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDecode means the PDF could not be parsed or rendered.
	ErrDecode = errors.New("pdf decode failed")
)
