package web

import (
	"html/template"
	"sync"

	"github.com/Helvanljar/masterblog/internal/blog"
	"github.com/Helvanljar/masterblog/internal/config"
	"github.com/rs/zerolog"
)

type Server struct {
	Config *config.Config
	Store  *blog.Store
	Log    zerolog.Logger

	templateMu    sync.Mutex
	templateCache map[string]*template.Template
}

func NewServer(cfg *config.Config, store *blog.Store, logger zerolog.Logger) *Server {
	return &Server{
		Config:        cfg,
		Store:         store,
		Log:           logger,
		templateCache: make(map[string]*template.Template),
	}
}
