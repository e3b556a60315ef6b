package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"letterhead-backend/internal/shared/util"
)

// FileRepo keeps one JSON document per user under a directory.
type FileRepo struct {
	dir string
	mu  sync.Mutex
}

// NewFileRepo creates the directory if needed and returns a FileRepo.
func NewFileRepo(dir string) (*FileRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	return &FileRepo{dir: dir}, nil
}

func (r *FileRepo) path(userID string) string {
	return filepath.Join(r.dir, "userData_"+util.HashUserKey(userID)+".json")
}

func (r *FileRepo) Load(ctx context.Context, userID string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(userID)
}

func (r *FileRepo) read(userID string) (Profile, error) {
	raw, err := os.ReadFile(r.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return Empty(userID), nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return decodeProfile(userID, raw), nil
}

func (r *FileRepo) Replace(ctx context.Context, p Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.read(p.UserID)
	if err != nil {
		return err
	}
	if current.Version != p.Version {
		return ErrStaleProfile
	}
	p.Version++

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	tmp, err := os.CreateTemp(r.dir, ".profile-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close profile: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path(p.UserID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename profile: %w", err)
	}
	return nil
}

var _ Repo = (*FileRepo)(nil)
