package wizard

import "errors"

var (
	ErrGuardFailed  = errors.New("step requirements not met")
	ErrInvalidStep  = errors.New("invalid step transition")
	ErrInvalidInput = errors.New("invalid input")
)
