package drafts

import (
	"errors"
	"fmt"
	"time"

	"letterhead-backend/internal/profiles"
)

var (
	ErrNotFound     = errors.New("draft not found")
	ErrInvalidInput = errors.New("invalid input")
)

// WizardKey is the draft key used for the wizard's in-progress document.
const WizardKey = "wizard"

// Draft is the latest auto-saved snapshot of an unsaved document. There is
// at most one per user and key.
type Draft struct {
	UserID  string                `json:"userId"`
	Key     string                `json:"key"`
	Data    profiles.DocumentData `json:"data"`
	SavedAt time.Time             `json:"savedAt"`
}

// checkKey rejects draft keys outside [A-Za-z0-9_-]{1,64}.
func checkKey(key string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: draft key %q", ErrInvalidInput, key)
	}
	return nil
}

func validKey(key string) bool {
	if key == "" || len(key) > 64 {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
