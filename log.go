package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speakr/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLog sends logs to a rotating file when SPEAKR_DEBUG is set and
// discards them otherwise, so nothing is drawn over the TUI.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	if os.Getenv("SPEAKR_DEBUG") == "" {
		return func() error { return nil }, nil
	}

	logFile, err := config.LogPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		// log disabled
		return func() error { return nil }, nil
	}

	w := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	log.SetOutput(w)
	log.SetLevel(log.DebugLevel)
	log.SetReportTimestamp(true)
	return w.Close, nil
}
