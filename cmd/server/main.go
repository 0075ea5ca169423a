package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Helvanljar/masterblog/internal/blog"
	"github.com/Helvanljar/masterblog/internal/config"
	"github.com/Helvanljar/masterblog/internal/web"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("failed to load config")
	}
	logger := cfg.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := blog.OpenStorage(ctx, blog.StorageConfig{
		Backend:      cfg.Storage.Backend,
		DataDir:      cfg.Storage.DataDir,
		PostsFile:    cfg.Storage.PostsFile,
		AtomicWrites: cfg.Storage.AtomicWrites,
		PostgresDSN:  cfg.Storage.PostgresDSN,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to open storage")
	}
	defer closeStorage()

	opts := []blog.Option{blog.WithLogger(logger.With().Str("component", "store").Logger())}
	if cfg.Store.WriteLock {
		opts = append(opts, blog.WithWriteLock())
	}
	store := blog.NewStore(storage, opts...)

	server := web.NewServer(cfg, store, logger)
	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("backend", cfg.Storage.Backend).
		Bool("write_lock", cfg.Store.WriteLock).
		Msg("server listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}
