// ABOUTME: fitlog configuration management with backend selection.
// ABOUTME: Merges the JSON config file, a .env file, and FITLOG_* environment overrides.

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/fitlog/internal/charm"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/joho/godotenv"
)

const (
	defaultBackend       = "badger"
	defaultAddr          = ":3000"
	defaultMongoURI      = "mongodb://127.0.0.1:27017"
	defaultMongoDatabase = "my-fitness-db"
	defaultLogLevel      = "info"
)

// Backends lists the accepted values of Config.Backend.
var Backends = []string{"badger", "sqlite", "mongo", "charm"}

// Config stores fitlog configuration.
type Config struct {
	// Backend selects the storage backend: "badger" (default), "sqlite", "mongo", or "charm".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for the embedded backends.
	// Badger keeps its files in badger/, SQLite writes fitlog.db.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/fitlog.
	DataDir string `json:"data_dir,omitempty"`

	MongoURI      string `json:"mongo_uri,omitempty"`
	MongoDatabase string `json:"mongo_database,omitempty"`

	// CharmHost is the Charm server used by the charm backend.
	CharmHost string `json:"charm_host,omitempty"`

	// Addr is the HTTP listen address for `fitlog serve`.
	Addr string `json:"addr,omitempty"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// AllowedOrigins restricts CORS; empty allows every origin.
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "badger".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return defaultBackend
	}
	return strings.ToLower(c.Backend)
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetMongoURI returns the Mongo connection string.
func (c *Config) GetMongoURI() string {
	if c.MongoURI == "" {
		return defaultMongoURI
	}
	return c.MongoURI
}

// GetMongoDatabase returns the Mongo database name.
func (c *Config) GetMongoDatabase() string {
	if c.MongoDatabase == "" {
		return defaultMongoDatabase
	}
	return c.MongoDatabase
}

// GetAddr returns the HTTP listen address.
func (c *Config) GetAddr() string {
	if c.Addr == "" {
		return defaultAddr
	}
	return c.Addr
}

// GetLogLevel returns the log level name.
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return defaultLogLevel
	}
	return c.LogLevel
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Store implementation based on the configured backend.
func (c *Config) OpenStorage(ctx context.Context) (storage.Store, error) {
	dataDir := c.GetDataDir()

	switch c.GetBackend() {
	case "badger":
		return storage.OpenBadger(filepath.Join(dataDir, "badger"))
	case "sqlite":
		return storage.OpenSQLite(filepath.Join(dataDir, "fitlog.db"))
	case "mongo":
		return storage.OpenMongo(ctx, c.GetMongoURI(), c.GetMongoDatabase())
	case "charm":
		return charm.Open("fitlog", c.CharmHost)
	default:
		return nil, fmt.Errorf("unknown backend: %q (want one of %s)", c.Backend, strings.Join(Backends, ", "))
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "fitlog", "config.json")
}

// Load reads .env, then the config file, then applies environment overrides.
func Load() (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := loadFile(GetConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// LoadFile reads only the config file, without .env or environment overrides.
func LoadFile() (*Config, error) {
	return loadFile(GetConfigPath())
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// applyEnv overrides fields from FITLOG_* variables. PORT is honored
// for the listen address when FITLOG_ADDR is unset.
func (c *Config) applyEnv(getenv func(string) string) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"FITLOG_BACKEND", &c.Backend},
		{"FITLOG_DATA_DIR", &c.DataDir},
		{"FITLOG_MONGO_URI", &c.MongoURI},
		{"FITLOG_MONGO_DATABASE", &c.MongoDatabase},
		{"FITLOG_CHARM_HOST", &c.CharmHost},
		{"FITLOG_ADDR", &c.Addr},
		{"FITLOG_LOG_LEVEL", &c.LogLevel},
	}
	for _, o := range overrides {
		if v := getenv(o.key); v != "" {
			*o.dst = v
		}
	}

	if getenv("FITLOG_ADDR") == "" {
		if port := getenv("PORT"); port != "" {
			c.Addr = ":" + port
		}
	}
	if origins := getenv("FITLOG_ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = strings.Split(origins, ",")
	}
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
