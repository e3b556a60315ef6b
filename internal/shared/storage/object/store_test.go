package object

import (
	"errors"
	"testing"
)

func TestCleanKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "simple", key: "abc/page.png", want: "abc/page.png"},
		{name: "redundant segments", key: "abc/./x/../page.png", want: "abc/page.png"},
		{name: "empty", key: " ", wantErr: true},
		{name: "absolute", key: "/etc/passwd", wantErr: true},
		{name: "traversal", key: "../secret", wantErr: true},
		{name: "nested traversal", key: "abc/../../secret", wantErr: true},
		{name: "backslash", key: "abc\\page.png", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := CleanKey(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKey) {
					t.Fatalf("CleanKey(%q) expected ErrInvalidKey, got %v", tt.key, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("CleanKey(%q) = %q, %v; want %q", tt.key, got, err, tt.want)
			}
		})
	}
}
