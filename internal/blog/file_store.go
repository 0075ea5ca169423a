package blog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var _ Storage = (*FileStorage)(nil)

// FileStorage keeps the collection as a JSON array in a single file.
// Writes truncate and rewrite the file in place unless Atomic is set.
type FileStorage struct {
	path   string
	Atomic bool
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Path() string {
	return s.path
}

func (s *FileStorage) Load(ctx context.Context) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return decodePosts(data)
}

func (s *FileStorage) Save(ctx context.Context, posts []Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodePosts(posts)
	if err != nil {
		return err
	}
	if s.Atomic {
		return atomicWriteFile(s.path, data, 0o644)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
