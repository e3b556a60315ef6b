package util

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxFileNameRunes = 120

// ErrInvalidFileName is returned for names that cannot be made safe.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName turns a user-supplied name into a single NFC-normalized
// path segment. Separators become underscores, control characters are
// dropped, and the result is capped at 120 runes. Names containing ".." are
// rejected.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	var b strings.Builder
	for _, r := range norm.NFC.String(strings.TrimSpace(name)) {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('_')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())
	if runes := []rune(s); len(runes) > maxFileNameRunes {
		s = strings.TrimSpace(string(runes[:maxFileNameRunes]))
	}
	if s == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}
