// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/cliptrim/internal/api"
	"github.com/ManuGH/cliptrim/internal/config"
	"github.com/ManuGH/cliptrim/internal/health"
	xglog "github.com/ManuGH/cliptrim/internal/log"
	"github.com/ManuGH/cliptrim/internal/media"
	"github.com/ManuGH/cliptrim/internal/store"
	"github.com/ManuGH/cliptrim/internal/trim"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{
		Level:   config.ParseString("CLIPTRIM_LOG_LEVEL", "info"),
		Service: "cliptrim",
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv(version)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.invalid").
			Msg("invalid configuration")
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.dirs_failed").
			Msg("failed to create storage directories")
	}

	tool := media.NewFFmpeg(cfg.FFmpegBin, cfg.FFprobeBin)
	if err := tool.Available(ctx); err != nil {
		// The daemon still starts; /health reports the degraded state and
		// upload/trim requests answer 500 until the tool appears.
		logger.Warn().
			Err(err).
			Str("event", "startup.tool_missing").
			Msg("ffmpeg/ffprobe not found, trim and upload will fail")
	}

	st := store.New(cfg.UploadDir, cfg.OutputDir)
	pipeline := trim.New(tool, cfg.WorkDir, cfg.OutputDir, cfg.TrimConcurrency, cfg.TrimTimeout)

	healthMgr := health.NewManager(version)
	healthMgr.RegisterChecker(health.NewToolChecker("ffmpeg", tool.Available))
	healthMgr.RegisterChecker(health.NewDirWritableChecker("upload_dir", cfg.UploadDir))
	healthMgr.RegisterChecker(health.NewDirWritableChecker("output_dir", cfg.OutputDir))
	healthMgr.RegisterChecker(health.NewDirWritableChecker("work_dir", cfg.WorkDir))

	server := api.New(cfg, st, tool, pipeline, healthMgr)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: range streaming responses legitimately run for as
		// long as a client keeps watching.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("event", "daemon.listening").
			Str("addr", cfg.ListenAddr).
			Str("upload_dir", cfg.UploadDir).
			Str("output_dir", cfg.OutputDir).
			Msg("cliptrim daemon started")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Str("event", "daemon.shutdown").Msg("signal received, shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Str("event", "daemon.serve_failed").Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Str("event", "daemon.shutdown_failed").Msg("graceful shutdown failed")
		return
	}
	logger.Info().Str("event", "daemon.stopped").Msg("daemon stopped")
}
