// Package config holds speakr's settings and loads them from viper and the
// environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dgnsrekt/speakr/internal/offline"
	"github.com/dgnsrekt/speakr/internal/storage"
	"github.com/dgnsrekt/speakr/utils"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// AppName scopes the user's config, data and cache directories.
const AppName = "speakr"

// Player names accepted by audio.player.
const (
	PlayerOto  = "oto"
	PlayerNone = "none"
)

// Config contains all speakr configuration options.
type Config struct {
	API      APIConfig      `yaml:"api"`
	History  HistoryConfig  `yaml:"history"`
	Download DownloadConfig `yaml:"download"`
	Audio    AudioConfig    `yaml:"audio"`
	Offline  OfflineConfig  `yaml:"offline"`
}

// APIConfig points at the synthesis service.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url" env:"SPEAKR_API_BASE_URL"`
	Timeout           time.Duration `yaml:"timeout" env:"SPEAKR_API_TIMEOUT"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"SPEAKR_API_REQUESTS_PER_MINUTE"`
}

// HistoryConfig selects where history is persisted. An empty Path means the
// default location in the user's data directory.
type HistoryConfig struct {
	Backend string `yaml:"backend" env:"SPEAKR_HISTORY_BACKEND"`
	Path    string `yaml:"path" env:"SPEAKR_HISTORY_PATH"`
}

// DownloadConfig is where saved audio files land.
type DownloadConfig struct {
	Dir string `yaml:"dir" env:"SPEAKR_DOWNLOAD_DIR"`
}

// AudioConfig controls local playback.
type AudioConfig struct {
	Player     string `yaml:"player" env:"SPEAKR_AUDIO_PLAYER"`
	FFmpeg     string `yaml:"ffmpeg" env:"SPEAKR_AUDIO_FFMPEG"`
	SampleRate int    `yaml:"sample_rate" env:"SPEAKR_AUDIO_SAMPLE_RATE"`
	TempDir    string `yaml:"temp_dir" env:"SPEAKR_AUDIO_TEMP_DIR"`
}

// OfflineConfig configures the offline cache proxy started by "speakr serve".
type OfflineConfig struct {
	Listen           string   `yaml:"listen" env:"SPEAKR_OFFLINE_LISTEN"`
	Origin           string   `yaml:"origin" env:"SPEAKR_OFFLINE_ORIGIN"`
	Version          string   `yaml:"version" env:"SPEAKR_OFFLINE_VERSION"`
	Storage          string   `yaml:"storage" env:"SPEAKR_OFFLINE_STORAGE"`
	CacheDir         string   `yaml:"cache_dir" env:"SPEAKR_OFFLINE_CACHE_DIR"`
	CompressionLevel int      `yaml:"compression_level" env:"SPEAKR_OFFLINE_COMPRESSION_LEVEL"`
	APIPrefix        string   `yaml:"api_prefix" env:"SPEAKR_OFFLINE_API_PREFIX"`
	Concurrency      int      `yaml:"concurrency" env:"SPEAKR_OFFLINE_CONCURRENCY"`
	Manifest         []string `yaml:"manifest" env:"SPEAKR_OFFLINE_MANIFEST" envSeparator:","`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:           "http://localhost:8000/api",
			Timeout:           60 * time.Second,
			RequestsPerMinute: 30,
		},
		History: HistoryConfig{
			Backend: string(storage.BackendFile),
		},
		Download: DownloadConfig{
			Dir: "~/Downloads",
		},
		Audio: AudioConfig{
			Player:     PlayerOto,
			FFmpeg:     "ffmpeg",
			SampleRate: 44100,
		},
		Offline: OfflineConfig{
			Listen:           "localhost:8080",
			Origin:           "http://localhost:8000",
			Version:          offline.DefaultVersion,
			Storage:          "disk",
			CompressionLevel: 3,
			APIPrefix:        offline.DefaultAPIPrefix,
			Concurrency:      offline.DefaultConcurrency,
			Manifest:         slices.Clone(offline.DefaultManifest),
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := validateURL("api.base_url", c.API.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout))
	}
	if rpm := c.API.RequestsPerMinute; rpm != -1 && (rpm < 1 || rpm > 600) {
		errs = append(errs, fmt.Errorf("api.requests_per_minute must be between 1 and 600 (or -1 to disable), got %d", rpm))
	}

	switch storage.Backend(c.History.Backend) {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("history.backend must be one of file, sqlite, memory, got %q", c.History.Backend))
	}

	if c.Download.Dir == "" {
		errs = append(errs, errors.New("download.dir must not be empty"))
	}

	switch c.Audio.Player {
	case PlayerOto:
		if c.Audio.FFmpeg == "" {
			errs = append(errs, errors.New("audio.ffmpeg is required for the oto player"))
		}
	case PlayerNone:
	default:
		errs = append(errs, fmt.Errorf("audio.player must be one of %s, %s, got %q", PlayerOto, PlayerNone, c.Audio.Player))
	}
	if sr := c.Audio.SampleRate; sr < 8000 || sr > 192000 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be between 8000 and 192000, got %d", sr))
	}

	if c.Offline.Listen == "" {
		errs = append(errs, errors.New("offline.listen must not be empty"))
	}
	if err := validateURL("offline.origin", c.Offline.Origin); err != nil {
		errs = append(errs, err)
	}
	if c.Offline.Version == "" {
		errs = append(errs, errors.New("offline.version must not be empty"))
	}
	if c.Offline.Storage != "disk" && c.Offline.Storage != "memory" {
		errs = append(errs, fmt.Errorf("offline.storage must be one of disk, memory, got %q", c.Offline.Storage))
	}
	if l := c.Offline.CompressionLevel; l < 0 || l > 22 {
		errs = append(errs, fmt.Errorf("offline.compression_level must be between 0 and 22, got %d", l))
	}
	if n := c.Offline.Concurrency; n < 1 || n > 32 {
		errs = append(errs, fmt.Errorf("offline.concurrency must be between 1 and 32, got %d", n))
	}
	if c.Offline.APIPrefix == "" {
		errs = append(errs, errors.New("offline.api_prefix must not be empty"))
	}

	return errors.Join(errs...)
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

// ExpandPaths expands "~" and environment variables in every path setting
// and fills in default locations for the empty ones.
func (c *Config) ExpandPaths() error {
	if c.History.Path == "" && storage.Backend(c.History.Backend) != storage.BackendMemory {
		p, err := DefaultHistoryPath(storage.Backend(c.History.Backend))
		if err != nil {
			return err
		}
		c.History.Path = p
	}
	if c.Offline.CacheDir == "" {
		p, err := DefaultCacheDir()
		if err != nil {
			return err
		}
		c.Offline.CacheDir = p
	}

	c.History.Path = utils.ExpandPath(c.History.Path)
	c.Download.Dir = utils.ExpandPath(c.Download.Dir)
	c.Audio.TempDir = utils.ExpandPath(c.Audio.TempDir)
	c.Offline.CacheDir = utils.ExpandPath(c.Offline.CacheDir)
	return nil
}

// DefaultHistoryPath returns the history location in the user's data dir.
func DefaultHistoryPath(backend storage.Backend) (string, error) {
	name := "history.json"
	if backend == storage.BackendSQLite {
		name = "history.db"
	}
	p, err := gap.NewScope(gap.User, AppName).DataPath(name)
	if err != nil {
		return "", fmt.Errorf("could not find data directory: %w", err)
	}
	return p, nil
}

// DefaultCacheDir returns the offline cache location in the user's cache dir.
func DefaultCacheDir() (string, error) {
	p, err := gap.NewScope(gap.User, AppName).CacheDir()
	if err != nil {
		return "", fmt.Errorf("could not find cache directory: %w", err)
	}
	return filepath.Join(p, "offline"), nil
}

// LogPath returns the debug log location in the user's data dir.
func LogPath() (string, error) {
	p, err := gap.NewScope(gap.User, AppName).LogPath("speakr.log")
	if err != nil {
		return "", fmt.Errorf("could not find log directory: %w", err)
	}
	return p, nil
}

// SetDefaults registers every default with v so "speakr config" and
// viper.AllSettings see the full key set.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.requests_per_minute", d.API.RequestsPerMinute)

	v.SetDefault("history.backend", d.History.Backend)
	v.SetDefault("history.path", d.History.Path)

	v.SetDefault("download.dir", d.Download.Dir)

	v.SetDefault("audio.player", d.Audio.Player)
	v.SetDefault("audio.ffmpeg", d.Audio.FFmpeg)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.temp_dir", d.Audio.TempDir)

	v.SetDefault("offline.listen", d.Offline.Listen)
	v.SetDefault("offline.origin", d.Offline.Origin)
	v.SetDefault("offline.version", d.Offline.Version)
	v.SetDefault("offline.storage", d.Offline.Storage)
	v.SetDefault("offline.cache_dir", d.Offline.CacheDir)
	v.SetDefault("offline.compression_level", d.Offline.CompressionLevel)
	v.SetDefault("offline.api_prefix", d.Offline.APIPrefix)
	v.SetDefault("offline.concurrency", d.Offline.Concurrency)
	v.SetDefault("offline.manifest", d.Offline.Manifest)
}

// LoadFromViper builds a Config from the values viper knows about, starting
// from DefaultConfig. It does not validate.
func LoadFromViper(v *viper.Viper) Config {
	cfg := DefaultConfig()

	if v.IsSet("api.base_url") {
		cfg.API.BaseURL = v.GetString("api.base_url")
	}
	if v.IsSet("api.timeout") {
		cfg.API.Timeout = v.GetDuration("api.timeout")
	}
	if v.IsSet("api.requests_per_minute") {
		cfg.API.RequestsPerMinute = v.GetInt("api.requests_per_minute")
	}

	if v.IsSet("history.backend") {
		cfg.History.Backend = v.GetString("history.backend")
	}
	if v.IsSet("history.path") {
		cfg.History.Path = v.GetString("history.path")
	}

	if v.IsSet("download.dir") {
		cfg.Download.Dir = v.GetString("download.dir")
	}

	if v.IsSet("audio.player") {
		cfg.Audio.Player = v.GetString("audio.player")
	}
	if v.IsSet("audio.ffmpeg") {
		cfg.Audio.FFmpeg = v.GetString("audio.ffmpeg")
	}
	if v.IsSet("audio.sample_rate") {
		cfg.Audio.SampleRate = v.GetInt("audio.sample_rate")
	}
	if v.IsSet("audio.temp_dir") {
		cfg.Audio.TempDir = v.GetString("audio.temp_dir")
	}

	if v.IsSet("offline.listen") {
		cfg.Offline.Listen = v.GetString("offline.listen")
	}
	if v.IsSet("offline.origin") {
		cfg.Offline.Origin = v.GetString("offline.origin")
	}
	if v.IsSet("offline.version") {
		cfg.Offline.Version = v.GetString("offline.version")
	}
	if v.IsSet("offline.storage") {
		cfg.Offline.Storage = v.GetString("offline.storage")
	}
	if v.IsSet("offline.cache_dir") {
		cfg.Offline.CacheDir = v.GetString("offline.cache_dir")
	}
	if v.IsSet("offline.compression_level") {
		cfg.Offline.CompressionLevel = v.GetInt("offline.compression_level")
	}
	if v.IsSet("offline.api_prefix") {
		cfg.Offline.APIPrefix = v.GetString("offline.api_prefix")
	}
	if v.IsSet("offline.concurrency") {
		cfg.Offline.Concurrency = v.GetInt("offline.concurrency")
	}
	if v.IsSet("offline.manifest") {
		cfg.Offline.Manifest = v.GetStringSlice("offline.manifest")
	}

	return cfg
}

// Load reads viper, overlays SPEAKR_* environment variables, expands paths
// and validates the result.
func Load(v *viper.Viper) (Config, error) {
	cfg := LoadFromViper(v)

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing environment: %w", err)
	}
	if err := cfg.ExpandPaths(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
