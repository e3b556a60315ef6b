package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"sync"

	"github.com/google/uuid"

	"letterhead-backend/internal/shared/storage/object"
	"letterhead-backend/internal/shared/util"
)

type entry struct {
	data        []byte
	contentType string
}

// Store keeps objects in process memory. Used in tests and for throwaway
// local runs.
type Store struct {
	mu      sync.RWMutex
	objects map[string]entry
}

func New() *Store {
	return &Store{objects: make(map[string]entry)}
}

func (s *Store) Save(ctx context.Context, userID string, fileName string, r io.Reader) (string, int64, string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", 0, "", fmt.Errorf("sanitize file name: %w", err)
	}
	key := path.Join(util.HashUserKey(userID), uuid.NewString()+"_"+name)
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", fmt.Errorf("read body: %w", err)
	}
	mimeType := http.DetectContentType(data)
	if err := s.put(ctx, key, mimeType, data); err != nil {
		return "", 0, "", err
	}
	return key, int64(len(data)), mimeType, nil
}

func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	key, err := object.CleanKey(storageKey)
	if err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}
	if err := s.put(ctx, key, contentType, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (s *Store) put(ctx context.Context, key, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[key] = entry{data: data, contentType: contentType}
	s.mu.Unlock()
	return nil
}

func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := object.CleanKey(storageKey)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	e, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, object.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(e.data)), nil
}

func (s *Store) Delete(ctx context.Context, storageKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := object.CleanKey(storageKey)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ object.ObjectStore = (*Store)(nil)
