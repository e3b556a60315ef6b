package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestWriteEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Warn("profile.corrupt", map[string]any{
		"user_id": "user_1",
		"error":   errors.New("unexpected end of JSON input"),
	})

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if payload["level"] != "warn" || payload["msg"] != "profile.corrupt" {
		t.Fatalf("unexpected header fields: %v", payload)
	}
	if payload["error"] != "unexpected end of JSON input" {
		t.Fatalf("errors should be logged as strings, got %v", payload["error"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatal("missing ts field")
	}
}
