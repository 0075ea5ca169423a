package handler

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/Helvanljar/masterblog/internal/blog"
	"github.com/Helvanljar/masterblog/internal/config"
	"github.com/Helvanljar/masterblog/internal/web"
	"github.com/rs/zerolog"
)

var (
	handler http.Handler
	once    sync.Once
)

func initApp() {
	// Only /tmp is writable on serverless hosts. Posts written there do not
	// survive a cold start; set STORAGE_BACKEND=postgres to keep them.
	if os.Getenv("DATA_DIR") == "" {
		os.Setenv("DATA_DIR", "/tmp")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg, err := config.Load("")
	if err != nil {
		logger.Error().Err(err).Msg("config invalid, using defaults")
		cfg = config.Default()
		cfg.Storage.DataDir = os.Getenv("DATA_DIR")
	}
	logger = cfg.NewLogger(os.Stdout)

	storage, _, err := blog.OpenStorage(context.Background(), blog.StorageConfig{
		Backend:      cfg.Storage.Backend,
		DataDir:      cfg.Storage.DataDir,
		PostsFile:    cfg.Storage.PostsFile,
		AtomicWrites: cfg.Storage.AtomicWrites,
		PostgresDSN:  cfg.Storage.PostgresDSN,
	})
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Storage.Backend).Msg("storage unavailable, serving from memory")
		storage = blog.NewMemoryStorage()
	}

	// One instance handles one request at a time, but warm instances are reused.
	store := blog.NewStore(storage, blog.WithLogger(logger), blog.WithWriteLock())
	handler = web.NewServer(cfg, store, logger).Routes()
}

// Handler is the entry point for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(initApp)
	handler.ServeHTTP(w, r)
}
