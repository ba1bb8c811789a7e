package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	EnableMouse bool

	// DownloadDir receives audio saved with ctrl+d.
	DownloadDir string

	// HistoryPath is watched for writes by other speakr processes. Empty
	// disables watching.
	HistoryPath string

	// For debugging the UI
	HealthInterval time.Duration `env:"SPEAKR_HEALTH_INTERVAL" envDefault:"30s"`
	TextHeight     int           `env:"SPEAKR_TEXT_HEIGHT"     envDefault:"6"`
}
