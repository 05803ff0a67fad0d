// ABOUTME: Tests for fitlog configuration management.
// ABOUTME: Covers load, save, defaults, env overrides, backend selection, and path expansion.
package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestGetBackendDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetBackend(); got != "badger" {
		t.Errorf("GetBackend() = %q, want %q", got, "badger")
	}
}

func TestGetBackendExplicit(t *testing.T) {
	cfg := &Config{Backend: "SQLite"}
	if got := cfg.GetBackend(); got != "sqlite" {
		t.Errorf("GetBackend() = %q, want %q", got, "sqlite")
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"addr", cfg.GetAddr(), ":3000"},
		{"mongo uri", cfg.GetMongoURI(), "mongodb://127.0.0.1:27017"},
		{"mongo database", cfg.GetMongoDatabase(), "my-fitness-db"},
		{"log level", cfg.GetLogLevel(), "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if cfg.GetDataDir() == "" {
		t.Error("GetDataDir() returned empty string")
	}
}

func TestGetDataDirExpandsTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	cfg := &Config{DataDir: "~/fitlog-data"}
	got := cfg.GetDataDir()
	want := filepath.Join(home, "fitlog-data")
	if got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/fitlog", filepath.Join(home, "data/fitlog")},
		{"data/fitlog", "data/fitlog"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FITLOG_BACKEND":         "mongo",
		"FITLOG_MONGO_URI":       "mongodb://db:27017",
		"FITLOG_LOG_LEVEL":       "debug",
		"PORT":                   "8080",
		"FITLOG_ALLOWED_ORIGINS": "http://a.test,http://b.test",
	}
	cfg := &Config{Backend: "sqlite", LogLevel: "warn"}
	cfg.applyEnv(func(k string) string { return env[k] })

	if cfg.Backend != "mongo" {
		t.Errorf("Backend = %q, want mongo", cfg.Backend)
	}
	if cfg.MongoURI != "mongodb://db:27017" {
		t.Errorf("MongoURI = %q", cfg.MongoURI)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestApplyEnvAddrBeatsPort(t *testing.T) {
	env := map[string]string{"FITLOG_ADDR": "127.0.0.1:9000", "PORT": "8080"}
	cfg := &Config{}
	cfg.applyEnv(func(k string) string { return env[k] })
	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q, want 127.0.0.1:9000", cfg.Addr)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FITLOG_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.Backend != "" {
		t.Errorf("Expected empty Backend, got %q", cfg.Backend)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FITLOG_BACKEND", "")
	t.Setenv("FITLOG_DATA_DIR", "")

	cfg := &Config{
		Backend: "sqlite",
		DataDir: "/tmp/fitlog-data",
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Backend != "sqlite" {
		t.Errorf("Backend mismatch: got %q, want %q", loaded.Backend, "sqlite")
	}
	if loaded.DataDir != "/tmp/fitlog-data" {
		t.Errorf("DataDir mismatch: got %q, want %q", loaded.DataDir, "/tmp/fitlog-data")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "nonexistent"))

	cfg := &Config{Backend: "badger"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() should create directory: %v", err)
	}

	configDir := filepath.Join(tmpDir, "nonexistent", "fitlog")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Error("Expected config directory to be created")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "fitlog")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	got := GetConfigPath()
	want := filepath.Join(tmpDir, "fitlog", "config.json")
	if got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestOpenStorageSQLite(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{Backend: "sqlite", DataDir: tmpDir}

	store, err := cfg.OpenStorage(context.Background())
	if err != nil {
		t.Fatalf("OpenStorage() for sqlite failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "fitlog.db")); os.IsNotExist(err) {
		t.Error("Expected fitlog.db to be created")
	}
}

func TestOpenStorageBadger(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{DataDir: tmpDir}

	store, err := cfg.OpenStorage(context.Background())
	if err != nil {
		t.Fatalf("OpenStorage() for badger failed: %v", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "badger")); os.IsNotExist(err) {
		t.Error("Expected badger directory to be created")
	}
}

func TestOpenStorageInvalidBackend(t *testing.T) {
	cfg := &Config{Backend: "invalid", DataDir: "/tmp"}

	if _, err := cfg.OpenStorage(context.Background()); err == nil {
		t.Error("Expected error for invalid backend")
	}
}

func TestConfigJSONSerialization(t *testing.T) {
	cfg := &Config{
		Backend:  "mongo",
		MongoURI: "mongodb://x",
		Addr:     ":4000",
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if loaded.Backend != cfg.Backend || loaded.MongoURI != cfg.MongoURI || loaded.Addr != cfg.Addr {
		t.Errorf("round trip mismatch: got %+v, want %+v", loaded, *cfg)
	}
}
