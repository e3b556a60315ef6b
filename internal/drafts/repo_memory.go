package drafts

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	drafts map[string]map[string]Draft // userID -> key -> draft
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{drafts: make(map[string]map[string]Draft)}
}

func (r *MemoryRepo) Put(ctx context.Context, d Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byKey, ok := r.drafts[d.UserID]
	if !ok {
		byKey = make(map[string]Draft)
		r.drafts[d.UserID] = byKey
	}
	byKey[d.Key] = d
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, key string) (Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drafts[userID][key]
	if !ok {
		return Draft{}, ErrNotFound
	}
	return d, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts[userID], key)
	return nil
}

// Count reports how many drafts userID has.
func (r *MemoryRepo) Count(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drafts[userID])
}

var _ Repo = (*MemoryRepo)(nil)
