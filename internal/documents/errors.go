package documents

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrExport       = errors.New("export failed")
)
