package letterheads

import (
	"sync"
	"time"

	"letterhead-backend/internal/crop"
	"letterhead-backend/internal/profiles"
)

// Upload is a rendered PDF waiting for its crop to be completed.
type Upload struct {
	ID          string
	UserID      string
	FileName    string
	Source      profiles.Asset
	Page        profiles.Asset
	PageCount   int
	DefaultName string
	CreatedAt   time.Time

	selector *crop.Selector
}

// UploadStore keeps pending uploads in memory. Entries older than ttl are
// dropped on access.
type UploadStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	uploads map[string]*Upload

	// OnExpire, when set, receives uploads dropped by the sweep.
	OnExpire func(*Upload)
}

// NewUploadStore constructs an UploadStore.
func NewUploadStore(ttl time.Duration) *UploadStore {
	return &UploadStore{ttl: ttl, now: time.Now, uploads: make(map[string]*Upload)}
}

func (s *UploadStore) put(u *Upload) {
	s.mu.Lock()
	expired := s.sweepLocked()
	s.uploads[u.ID] = u
	s.mu.Unlock()
	s.expire(expired)
}

// with runs fn on the pending upload while holding the store lock.
func (s *UploadStore) with(userID, id string, fn func(*Upload) error) error {
	s.mu.Lock()
	expired := s.sweepLocked()
	defer s.expire(expired)
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	if !ok || u.UserID != userID {
		return ErrUploadNotFound
	}
	return fn(u)
}

func (s *UploadStore) take(userID, id string) (*Upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	if !ok || u.UserID != userID {
		return nil, false
	}
	delete(s.uploads, id)
	return u, true
}

func (s *UploadStore) sweepLocked() []*Upload {
	if s.ttl <= 0 {
		return nil
	}
	var expired []*Upload
	cutoff := s.now().Add(-s.ttl)
	for id, u := range s.uploads {
		if u.CreatedAt.Before(cutoff) {
			expired = append(expired, u)
			delete(s.uploads, id)
		}
	}
	return expired
}

func (s *UploadStore) expire(uploads []*Upload) {
	if s.OnExpire == nil {
		return
	}
	for _, u := range uploads {
		s.OnExpire(u)
	}
}

// Len reports the number of pending uploads.
func (s *UploadStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}
