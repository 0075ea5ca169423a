package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr         string        `yaml:"addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Site struct {
		Title   string `yaml:"title"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"site"`

	Storage struct {
		Backend      string `yaml:"backend"`
		DataDir      string `yaml:"data_dir"`
		PostsFile    string `yaml:"posts_file"`
		AtomicWrites bool   `yaml:"atomic_writes"`
		PostgresDSN  string `yaml:"postgres_dsn"`
	} `yaml:"storage"`

	Store struct {
		WriteLock bool `yaml:"write_lock"`
	} `yaml:"store"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":5000"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Site.Title = "Masterblog"
	cfg.Storage.Backend = "file"
	cfg.Storage.DataDir = "data"
	cfg.Storage.PostsFile = "posts.json"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

// Load builds the config from defaults, then the YAML file at path (if it
// exists), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.Site.BaseURL = strings.TrimRight(cfg.Site.BaseURL, "/")
	if cfg.Site.BaseURL == "" {
		cfg.Site.BaseURL = baseURLFromAddr(cfg.Server.Addr)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = getEnv("PUBLIC_ADDR", c.Server.Addr)
	c.Site.BaseURL = getEnv("SITE_BASE_URL", c.Site.BaseURL)
	c.Site.Title = getEnv("SITE_TITLE", c.Site.Title)
	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.DataDir = getEnv("DATA_DIR", c.Storage.DataDir)
	c.Storage.PostsFile = getEnv("POSTS_FILE", c.Storage.PostsFile)
	c.Storage.PostgresDSN = getEnv("DATABASE_URL", c.Storage.PostgresDSN)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	var err error
	if c.Server.ReadTimeout, err = getEnvDuration("HTTP_READ_TIMEOUT", c.Server.ReadTimeout); err != nil {
		return err
	}
	if c.Server.WriteTimeout, err = getEnvDuration("HTTP_WRITE_TIMEOUT", c.Server.WriteTimeout); err != nil {
		return err
	}
	if c.Storage.AtomicWrites, err = getEnvBool("ATOMIC_WRITES", c.Storage.AtomicWrites); err != nil {
		return err
	}
	if c.Store.WriteLock, err = getEnvBool("STORE_WRITE_LOCK", c.Store.WriteLock); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn (DATABASE_URL) is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func baseURLFromAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}

	host := ""
	port := ""
	if strings.HasPrefix(addr, ":") {
		host = "localhost"
		port = strings.TrimPrefix(addr, ":")
	} else {
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			port = p
		} else {
			host = addr
		}
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	if port != "" {
		return "http://" + host + ":" + port
	}
	return "http://" + host
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
