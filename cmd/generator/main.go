package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Helvanljar/masterblog/internal/blog"
	"github.com/Helvanljar/masterblog/internal/config"
	"github.com/Helvanljar/masterblog/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	baseURL := flag.String("base-url", "", "Override the site base URL")
	outputDir := flag.String("out", "dist", "output directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.Site.BaseURL = strings.TrimRight(*baseURL, "/")
	}
	logger := cfg.NewLogger(os.Stderr)
	ctx := context.Background()

	storage, closeStorage, err := blog.OpenStorage(ctx, blog.StorageConfig{
		Backend:      cfg.Storage.Backend,
		DataDir:      cfg.Storage.DataDir,
		PostsFile:    cfg.Storage.PostsFile,
		AtomicWrites: cfg.Storage.AtomicWrites,
		PostgresDSN:  cfg.Storage.PostgresDSN,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer closeStorage()

	store := blog.NewStore(storage, blog.WithLogger(logger))
	srv := web.NewServer(cfg, store, logger)

	if err := os.RemoveAll(*outputDir); err != nil {
		logger.Warn().Err(err).Msg("failed to clean output dir")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create output dir")
	}

	routes := []string{"/", "/feed", "/sitemap.xml"}
	for _, p := range store.List(ctx) {
		routes = append(routes, "/posts/"+strconv.Itoa(p.ID))
	}

	mux := srv.PublicRoutes()
	written := 0
	for _, route := range routes {
		req := httptest.NewRequest(http.MethodGet, route, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			logger.Error().Str("route", route).Int("status", w.Code).Msg("generate failed")
			continue
		}

		outPath := filepath.Join(*outputDir, outputPath(route))
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			logger.Fatal().Err(err).Str("path", outPath).Msg("failed to create dir")
		}
		if err := os.WriteFile(outPath, w.Body.Bytes(), 0644); err != nil {
			logger.Fatal().Err(err).Str("path", outPath).Msg("failed to write file")
		}
		logger.Debug().Str("route", route).Str("path", outPath).Msg("generated")
		written++
	}

	logger.Info().Int("pages", written).Str("dir", *outputDir).Msg("static site generated")
}

// outputPath maps a route onto a file under the output dir. Pages get clean
// URLs (posts/3/index.html); the feed and sitemap keep a file name.
func outputPath(route string) string {
	switch route {
	case "/":
		return "index.html"
	case "/feed":
		return "feed.xml"
	}
	rel := strings.TrimPrefix(filepath.Clean("/"+route), "/")
	if filepath.Ext(rel) != "" {
		return filepath.FromSlash(rel)
	}
	return filepath.FromSlash(rel + "/index.html")
}
