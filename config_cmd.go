package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# synthesis service
api:
  # base URL of the API, without the trailing /voices or /synthesize
  base_url: "http://localhost:8000/api"
  # timeout for a single request
  timeout: "60s"
  # outbound request budget (-1 disables throttling)
  requests_per_minute: 30

# history of generated speech (last 10 entries)
history:
  # file, sqlite or memory
  backend: "file"
  # defaults to the user data directory
  # path: "~/.local/share/speakr/history.json"

# where downloaded audio is saved
download:
  dir: "~/Downloads"

# local playback
audio:
  # oto, or none to disable playback
  player: "oto"
  # used to decode MP3 before playback
  ffmpeg: "ffmpeg"
  sample_rate: 44100

# offline cache proxy ("speakr serve")
offline:
  listen: "localhost:8080"
  # the server hosting the web front-end and the API
  origin: "http://localhost:8000"
  # changing the version drops every other cache on the next start
  version: "edge-tts-v1"
  # disk or memory
  storage: "disk"
  # zstd level for cached entries, 0 disables compression
  compression_level: 3
  api_prefix: "/api/"
  concurrency: 4
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the speakr config file",
	Long:    paragraph(fmt.Sprintf("\n%s the speakr config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("speakr config\nspeakr config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	// The editor must open even when the current file doesn't validate.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("speakr", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
