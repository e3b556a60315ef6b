// Package assets handles image intake and serving for the binary content
// referenced from profiles.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	_ "golang.org/x/image/webp"

	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/shared/storage/object"
	"letterhead-backend/internal/shared/telemetry"
	"letterhead-backend/internal/shared/util"
)

// MaxImageSize bounds logo and signature uploads.
const MaxImageSize = 5 << 20

var (
	ErrInvalidImage = errors.New("invalid image")
	ErrForbidden    = errors.New("asset not owned by user")
)

// ImageFile is an uploaded image with its declared MIME type.
type ImageFile struct {
	FileName string
	MimeType string
	Data     []byte
}

// UserPrefix is the storage key prefix owned by userID.
func UserPrefix(userID string) string {
	return util.HashUserKey(userID)
}

// Key builds a storage key under the user's prefix.
func Key(userID string, parts ...string) string {
	return path.Join(append([]string{UserPrefix(userID)}, parts...)...)
}

// Owns reports whether storageKey lives under userID's prefix.
func Owns(userID, storageKey string) bool {
	clean, err := object.CleanKey(storageKey)
	if err != nil {
		return false
	}
	return strings.HasPrefix(clean, UserPrefix(userID)+"/")
}

// SaveImage stores an uploaded image at key. Only the declared type is
// checked; when the bytes decode, the pixel size is recorded.
func SaveImage(ctx context.Context, store object.ObjectStore, key string, img ImageFile) (profiles.Asset, error) {
	mimeType := strings.ToLower(strings.TrimSpace(img.MimeType))
	if !strings.HasPrefix(mimeType, "image/") {
		return profiles.Asset{}, fmt.Errorf("%w: declared type %q is not an image", ErrInvalidImage, img.MimeType)
	}
	if len(img.Data) == 0 {
		return profiles.Asset{}, fmt.Errorf("%w: empty file", ErrInvalidImage)
	}
	if len(img.Data) > MaxImageSize {
		return profiles.Asset{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidImage, MaxImageSize)
	}

	size, err := store.SaveWithKey(ctx, key, mimeType, bytes.NewReader(img.Data))
	if err != nil {
		return profiles.Asset{}, fmt.Errorf("store image: %w", err)
	}
	asset := profiles.Asset{StorageKey: key, MimeType: mimeType, SizeBytes: size}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data)); err == nil {
		asset.Width, asset.Height = cfg.Width, cfg.Height
	} else {
		telemetry.Warn("assets.image.undecodable", map[string]any{
			"key":       key,
			"mime_type": mimeType,
			"format":    format,
			"err":       err,
		})
	}
	return asset, nil
}

// DeleteAll removes every asset, logging failures.
func DeleteAll(ctx context.Context, store object.ObjectStore, assets ...profiles.Asset) {
	for _, a := range assets {
		if a.StorageKey == "" {
			continue
		}
		if err := store.Delete(ctx, a.StorageKey); err != nil {
			telemetry.Warn("assets.delete_failed", map[string]any{"key": a.StorageKey, "err": err})
		}
	}
}

// DataURL loads an asset and encodes it as a data: URL.
func DataURL(ctx context.Context, store object.ObjectStore, a profiles.Asset) (string, error) {
	data, err := object.ReadAll(ctx, store, a.StorageKey, 64<<20)
	if err != nil {
		return "", err
	}
	return util.DataURL(a.MimeType, data), nil
}
