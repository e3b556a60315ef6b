package util

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidDataURL is returned when a data URL cannot be decoded.
var ErrInvalidDataURL = errors.New("invalid data url")

// DataURL encodes raw bytes as a base64 data URL with the given MIME type.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a base64 data URL into its MIME type and payload.
func DecodeDataURL(raw string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(raw), "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrInvalidDataURL
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}
	return mimeType, data, nil
}
