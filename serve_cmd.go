package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speakr/internal/offline"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web front-end through an offline cache",
	Long: paragraph(fmt.Sprintf("\n%s the web front-end from a local cache so it keeps loading when the origin is unreachable. API calls always go to the network.", keyword("Serve"))),
	Example: paragraph(`speakr serve
speakr serve --listen :9000 --origin http://tts.lan:8000`),
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "address to listen on")
	serveCmd.Flags().String("origin", "", "server hosting the front-end and API")
	serveCmd.Flags().String("cache-version", "", "cache version; other versions are deleted on start")
}

func runServe(cmd *cobra.Command, _ []string) error {
	oc := cfg.Offline
	if v, _ := cmd.Flags().GetString("listen"); v != "" {
		oc.Listen = v
	}
	if v, _ := cmd.Flags().GetString("origin"); v != "" {
		oc.Origin = v
	}
	if v, _ := cmd.Flags().GetString("cache-version"); v != "" {
		oc.Version = v
	}

	// serve is a foreground daemon; log to stderr unless a debug file is set.
	if os.Getenv("SPEAKR_DEBUG") == "" {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
	}

	var store offline.CacheStorage
	switch oc.Storage {
	case "memory":
		store = offline.NewMemoryStorage()
	default:
		ds, err := offline.NewDiskStorage(oc.CacheDir, oc.CompressionLevel)
		if err != nil {
			return err
		}
		defer ds.Close() //nolint:errcheck
		store = ds
	}

	worker, err := offline.NewWorker(offline.Config{
		Origin:      oc.Origin,
		Version:     oc.Version,
		Manifest:    oc.Manifest,
		APIPrefix:   oc.APIPrefix,
		Concurrency: oc.Concurrency,
	}, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The server starts right away; until activation requests go to the
	// network.
	go func() {
		if err := worker.Install(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("offline cache install failed", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              oc.Listen,
		Handler:           worker,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("serving", "addr", oc.Listen, "origin", oc.Origin, "cache", oc.Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("unable to serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("unable to shut down: %w", err)
	}

	s := worker.Stats()
	log.Info("stopped", "hits", s.Hits, "misses", s.Misses, "stored", s.Stored, "bypassed", s.Bypassed, "offline", s.Offline)
	return nil
}
