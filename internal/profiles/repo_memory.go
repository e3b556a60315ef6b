package profiles

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo. Profiles are stored
// encoded so callers never share slices with the repo.
type MemoryRepo struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]byte)}
}

func (r *MemoryRepo) Load(ctx context.Context, userID string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	r.mu.Lock()
	raw, ok := r.data[userID]
	r.mu.Unlock()
	if !ok {
		return Empty(userID), nil
	}
	return decodeProfile(userID, raw), nil
}

func (r *MemoryRepo) Replace(ctx context.Context, p Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var stored int64
	if raw, ok := r.data[p.UserID]; ok {
		stored = decodeProfile(p.UserID, raw).Version
	}
	if stored != p.Version {
		return ErrStaleProfile
	}
	p.Version++
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	r.data[p.UserID] = raw
	return nil
}

// Corrupt overwrites the stored bytes for userID. Used by tests.
func (r *MemoryRepo) Corrupt(userID string, raw []byte) {
	r.mu.Lock()
	r.data[userID] = raw
	r.mu.Unlock()
}

var _ Repo = (*MemoryRepo)(nil)
