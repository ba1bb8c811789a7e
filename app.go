package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speakr/internal/api"
	"github.com/dgnsrekt/speakr/internal/audio"
	"github.com/dgnsrekt/speakr/internal/config"
	"github.com/dgnsrekt/speakr/internal/controller"
	"github.com/dgnsrekt/speakr/internal/history"
	"github.com/dgnsrekt/speakr/internal/storage"
)

// app bundles what every command needs: the API client, the history backend
// and a controller wired to both.
type app struct {
	cfg     config.Config
	client  *api.Client
	backend storage.Store
	player  audio.Player
	ctrl    *controller.Controller
}

func newApp(cfg config.Config, withPlayer bool) (*app, error) {
	client, err := api.NewClient(api.Config{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout,
		RequestsPerMinute: cfg.API.RequestsPerMinute,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create API client: %w", err)
	}

	a := &app{cfg: cfg, client: client}

	var store *history.Store
	backend, err := storage.Open(storage.Backend(cfg.History.Backend), cfg.History.Path)
	if err != nil {
		// History still works for this session, it just isn't saved.
		log.Warn("history storage unavailable, keeping history in memory", "error", err)
	} else {
		a.backend = backend
		store = history.NewStore(backend)
	}

	if withPlayer {
		a.player = newPlayer(cfg.Audio)
	}

	if cfg.Audio.TempDir != "" {
		if err := os.MkdirAll(cfg.Audio.TempDir, 0o700); err != nil {
			return nil, fmt.Errorf("unable to create audio directory: %w", err)
		}
	}

	a.ctrl = controller.New(controller.Deps{
		API:      client,
		History:  store,
		Player:   a.player,
		AudioDir: cfg.Audio.TempDir,
	})
	return a, nil
}

func newPlayer(cfg config.AudioConfig) audio.Player {
	if cfg.Player == config.PlayerNone {
		return audio.NopPlayer{}
	}

	pc := audio.DefaultPlayerConfig()
	pc.SampleRate = cfg.SampleRate
	pc.FFmpeg = cfg.FFmpeg
	p, err := audio.NewOtoPlayer(pc)
	if err != nil {
		log.Warn("audio playback disabled", "error", err)
		return audio.NopPlayer{}
	}
	return p
}

// init loads voices and history; a catalog failure is returned but leaves the
// controller usable.
func (a *app) init(ctx context.Context) error {
	return a.ctrl.Init(ctx)
}

// watchPath is the file to watch for history written by other processes, or
// "" when the backend isn't a plain file.
func (a *app) watchPath() string {
	if fs, ok := a.backend.(*storage.FileStore); ok {
		return fs.Path()
	}
	return ""
}

func (a *app) Close() error {
	var errs []error
	if a.player != nil {
		errs = append(errs, a.player.Close())
	}
	errs = append(errs, a.ctrl.Close())
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	return errors.Join(errs...)
}
