package util

import (
	"bytes"
	"errors"
	"testing"
)

func TestDataURLRoundTrip(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	url := DataURL("image/png", raw)
	if url != "data:image/png;base64,iVBORw==" {
		t.Fatalf("unexpected data url %s", url)
	}
	mime, data, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mime != "image/png" || !bytes.Equal(data, raw) {
		t.Fatalf("unexpected decode result %s %v", mime, data)
	}
}

func TestDecodeDataURLRejectsPlainText(t *testing.T) {
	for _, in := range []string{"", "image/png;base64,AAAA", "data:image/png,AAAA", "data:image/png;base64,@@@"} {
		if _, _, err := DecodeDataURL(in); !errors.Is(err, ErrInvalidDataURL) {
			t.Fatalf("expected ErrInvalidDataURL for %q, got %v", in, err)
		}
	}
}
