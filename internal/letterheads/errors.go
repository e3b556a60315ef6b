package letterheads

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrUploadNotFound is returned for unknown or expired pending uploads.
	ErrUploadNotFound = errors.New("upload not found")
)
