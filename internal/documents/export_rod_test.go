package documents

import (
	"testing"

	"github.com/go-rod/rod"
)

func TestRodDiscardOnlyDropsSharedBrowser(t *testing.T) {
	shared := rod.New()
	r := &RodExporter{browser: shared}

	r.discard(rod.New())
	if r.browser != shared {
		t.Fatal("a stale browser must not evict the shared one")
	}

	r.discard(shared)
	if r.browser != nil {
		t.Fatal("expected shared browser dropped for relaunch")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close after discard: %v", err)
	}
}
