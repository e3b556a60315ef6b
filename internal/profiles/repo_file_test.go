package profiles

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFileRepoRoundTripKeepsProjects(t *testing.T) {
	repo, err := NewFileRepo(t.TempDir())
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	ctx := context.Background()

	p, err := repo.Load(ctx, "user_1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p.Projects = []json.RawMessage{json.RawMessage(`{"id":"p1","name":"Proyek"}`)}
	p.Letterheads = []Letterhead{{ID: "lh1", Name: "PT Maju", Kind: KindManual, CompanyName: "PT Maju"}}
	if err := repo.Replace(ctx, p); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := repo.Load(ctx, "user_1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	want := p
	want.Version = 1
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestFileRepoCorruptedFileReadsEmpty(t *testing.T) {
	repo, err := NewFileRepo(t.TempDir())
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	if err := os.WriteFile(repo.path("user_1"), []byte(`{"letterheads": [`), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	p, err := repo.Load(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("load should not fail on corrupt data: %v", err)
	}
	if diff := cmp.Diff(Empty("user_1"), p); diff != "" {
		t.Fatalf("expected empty profile (-want +got):\n%s", diff)
	}
}

func TestFileRepoIsolatesUsers(t *testing.T) {
	repo, err := NewFileRepo(t.TempDir())
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	ctx := context.Background()
	p := Empty("user_a")
	p.Letterheads = append(p.Letterheads, Letterhead{ID: "x", Name: "X", Kind: KindManual})
	if err := repo.Replace(ctx, p); err != nil {
		t.Fatalf("replace: %v", err)
	}
	other, _ := repo.Load(ctx, "user_b")
	if len(other.Letterheads) != 0 {
		t.Fatalf("expected user_b to be empty, got %d letterheads", len(other.Letterheads))
	}
}
