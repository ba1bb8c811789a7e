package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/speakr/internal/offline"
	"github.com/spf13/viper"
)

// TestDefaultConfigIsValid tests that the defaults pass validation.
func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Offline.Version != offline.DefaultVersion {
		t.Errorf("Version = %q, want %q", cfg.Offline.Version, offline.DefaultVersion)
	}

	// Callers must not be able to mutate the shared manifest.
	cfg.Offline.Manifest[0] = "/changed"
	if offline.DefaultManifest[0] != "/" {
		t.Error("DefaultConfig shares the manifest slice")
	}
}

// TestValidate tests each validation rule.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "api.base_url"},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://host/api" }, "api.base_url"},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout"},
		{"rate too high", func(c *Config) { c.API.RequestsPerMinute = 601 }, "must be between 1 and 600"},
		{"rate zero", func(c *Config) { c.API.RequestsPerMinute = 0 }, "api.requests_per_minute"},
		{"unknown backend", func(c *Config) { c.History.Backend = "redis" }, "history.backend"},
		{"empty download dir", func(c *Config) { c.Download.Dir = "" }, "download.dir"},
		{"unknown player", func(c *Config) { c.Audio.Player = "alsa" }, "audio.player"},
		{"oto without ffmpeg", func(c *Config) { c.Audio.FFmpeg = "" }, "audio.ffmpeg"},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 100 }, "audio.sample_rate"},
		{"empty listen", func(c *Config) { c.Offline.Listen = "" }, "offline.listen"},
		{"bad origin", func(c *Config) { c.Offline.Origin = "localhost" }, "offline.origin"},
		{"empty version", func(c *Config) { c.Offline.Version = "" }, "offline.version"},
		{"bad storage", func(c *Config) { c.Offline.Storage = "s3" }, "offline.storage"},
		{"compression", func(c *Config) { c.Offline.CompressionLevel = 23 }, "must be between 0 and 22"},
		{"concurrency", func(c *Config) { c.Offline.Concurrency = 0 }, "offline.concurrency"},
		{"empty api prefix", func(c *Config) { c.Offline.APIPrefix = "" }, "offline.api_prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	t.Run("rate disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.API.RequestsPerMinute = -1
		cfg.Audio.Player = PlayerNone
		cfg.Audio.FFmpeg = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestLoadFromViper tests that YAML values override the defaults and unset
// keys keep them.
func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	yaml := `
api:
  base_url: "https://tts.example.com/api"
  timeout: 5s
history:
  backend: sqlite
offline:
  manifest: ["/", "/app.js"]
  compression_level: 0
`
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}

	cfg := LoadFromViper(v)
	if cfg.API.BaseURL != "https://tts.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s", cfg.API.Timeout)
	}
	if cfg.API.RequestsPerMinute != 30 {
		t.Errorf("RequestsPerMinute = %d, want default 30", cfg.API.RequestsPerMinute)
	}
	if cfg.History.Backend != "sqlite" {
		t.Errorf("Backend = %q", cfg.History.Backend)
	}
	if len(cfg.Offline.Manifest) != 2 || cfg.Offline.Manifest[1] != "/app.js" {
		t.Errorf("Manifest = %v", cfg.Offline.Manifest)
	}
	if cfg.Offline.CompressionLevel != 0 {
		t.Errorf("CompressionLevel = %d, want 0", cfg.Offline.CompressionLevel)
	}
}

// TestLoadEnvOverlay tests that SPEAKR_* variables win over viper values.
func TestLoadEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SPEAKR_API_BASE_URL", "http://10.0.0.2:8000/api")
	t.Setenv("SPEAKR_HISTORY_BACKEND", "memory")
	t.Setenv("SPEAKR_OFFLINE_MANIFEST", "/,/index.html")
	t.Setenv("SPEAKR_OFFLINE_CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("SPEAKR_DOWNLOAD_DIR", dir)

	v := viper.New()
	v.Set("api.base_url", "http://ignored:8000/api")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.2:8000/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.History.Backend != "memory" || cfg.History.Path != "" {
		t.Errorf("History = %+v, want memory with no path", cfg.History)
	}
	if len(cfg.Offline.Manifest) != 2 {
		t.Errorf("Manifest = %v", cfg.Offline.Manifest)
	}
	if cfg.Offline.CacheDir != filepath.Join(dir, "cache") {
		t.Errorf("CacheDir = %q", cfg.Offline.CacheDir)
	}
	if cfg.Download.Dir != dir {
		t.Errorf("Download.Dir = %q", cfg.Download.Dir)
	}
}

// TestLoadInvalid tests that Load reports validation failures.
func TestLoadInvalid(t *testing.T) {
	t.Setenv("SPEAKR_OFFLINE_CACHE_DIR", t.TempDir())
	v := viper.New()
	v.Set("history.backend", "memory")
	v.Set("api.requests_per_minute", 1000)

	_, err := Load(v)
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Fatalf("err = %v, want invalid configuration", err)
	}
}

// TestSetDefaults tests that every key is registered.
func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	for _, key := range []string{
		"api.base_url", "api.timeout", "history.backend", "download.dir",
		"audio.player", "offline.listen", "offline.manifest",
	} {
		if !v.IsSet(key) {
			t.Errorf("%s not set", key)
		}
	}
	if got := LoadFromViper(v); got.Offline.Concurrency != offline.DefaultConcurrency {
		t.Errorf("Concurrency = %d", got.Offline.Concurrency)
	}
}
