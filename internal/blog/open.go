package blog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

type StorageConfig struct {
	Backend      string
	DataDir      string
	PostsFile    string
	AtomicWrites bool
	PostgresDSN  string
}

// OpenStorage builds the Storage named by cfg.Backend. The returned close
// function releases any database handle and is always safe to call.
func OpenStorage(ctx context.Context, cfg StorageConfig) (Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", "file":
		fs := NewFileStorage(filepath.Join(cfg.DataDir, cfg.PostsFile))
		fs.Atomic = cfg.AtomicWrites
		return fs, noop, nil
	case "sqlite":
		name := strings.TrimSuffix(cfg.PostsFile, filepath.Ext(cfg.PostsFile)) + ".db"
		s, err := NewSQLiteStorage(filepath.Join(cfg.DataDir, name))
		if err != nil {
			return nil, noop, fmt.Errorf("sqlite: open: %w", err)
		}
		return s, s.Close, nil
	case "postgres":
		s, err := NewPostgresStorage(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case "memory":
		return NewMemoryStorage(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
