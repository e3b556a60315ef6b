package profiles

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrStaleProfile is returned when a replace is based on an outdated version.
	ErrStaleProfile = errors.New("profile was modified concurrently")
)
