package blog

import (
	"context"
	"sync"
)

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage holds the encoded collection in process memory. It goes
// through the same JSON codec as FileStorage, so seeded documents are
// validated exactly like a file on disk.
type MemoryStorage struct {
	mu      sync.Mutex
	data    []byte
	present bool

	// SaveErr, when set, is returned by every Save without storing anything.
	SaveErr error

	saves int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// NewMemoryStorageFrom seeds the storage with a raw document.
func NewMemoryStorageFrom(raw []byte) *MemoryStorage {
	s := &MemoryStorage{present: true}
	s.data = append([]byte(nil), raw...)
	return s
}

func (s *MemoryStorage) Load(ctx context.Context) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.present {
		return nil, ErrNotExist
	}
	return decodePosts(s.data)
}

func (s *MemoryStorage) Save(ctx context.Context, posts []Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	data, err := encodePosts(posts)
	if err != nil {
		return err
	}
	s.data = data
	s.present = true
	s.saves++
	return nil
}

// Bytes returns a copy of the stored document, or nil if nothing is stored.
func (s *MemoryStorage) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return nil
	}
	return append([]byte(nil), s.data...)
}

// Saves reports how many successful writes have happened.
func (s *MemoryStorage) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
