package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when no object exists under a storage key.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for keys that escape the store root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// ObjectStore keeps the binary assets referenced by letterheads and profiles:
// uploaded source PDFs, rendered page images, cropped headers, logos and
// signatures.
type ObjectStore interface {
	// Save stores r under the user's namespace and returns the generated key,
	// the number of bytes written and the sniffed MIME type.
	Save(ctx context.Context, userID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	// SaveWithKey stores r at an explicit key.
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, storageKey string) error
}

// CleanKey normalizes a slash-separated storage key and rejects traversal.
func CleanKey(storageKey string) (string, error) {
	raw := strings.TrimSpace(storageKey)
	if raw == "" || strings.HasPrefix(raw, "/") || strings.Contains(raw, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(raw)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// ReadAll opens storageKey and reads it fully, capped at limit bytes.
func ReadAll(ctx context.Context, store ObjectStore, storageKey string, limit int64) ([]byte, error) {
	rc, err := store.Open(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errors.New("object exceeds read limit")
	}
	return data, nil
}
