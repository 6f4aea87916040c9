package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tcf-av/sermon-vault/app/api"
	"github.com/tcf-av/sermon-vault/app/cfg"
	"github.com/tcf-av/sermon-vault/app/database"
	"github.com/tcf-av/sermon-vault/app/fetcher"
	"github.com/tcf-av/sermon-vault/app/ingest"
	"github.com/tcf-av/sermon-vault/app/source"
	"github.com/tcf-av/sermon-vault/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appConfig.Debug)
	slog.Info("Starting Sermon Vault", "version", appConfig.Version)

	// Database connection and schema
	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appConfig.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appConfig.DBPath, "schema_version", version, "dirty", dirty)

	repo := database.NewSermonRepository(db)

	// Source configurations
	configs, err := source.LoadConfigs(appConfig.SourcesDir)
	if err != nil {
		slog.Error("Failed to load source configurations", "dir", appConfig.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "dir", appConfig.SourcesDir, "count", len(configs))

	httpClient := &http.Client{}
	sources := make(map[string]source.Source, len(configs))
	for name, config := range configs {
		src, err := source.New(config, httpClient, appConfig.UserAgent)
		if err != nil {
			slog.Error("Failed to build source", "source", name, "error", err)
			os.Exit(1)
		}
		sources[name] = src
	}

	// Core components
	audioFetcher := fetcher.New(httpClient, appConfig.AudioDir, appConfig.UserAgent)
	pipeline := ingest.NewPipeline(repo, audioFetcher)

	scheduler := tasks.NewScheduler(configs, sources, pipeline)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	handler := api.NewHandler(repo, configs, scheduler, appConfig.BaseUrl)
	server := api.NewServer(handler, appConfig.APIKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // audio downloads may be large
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown: HTTP first, then the scheduler (via defer), which
	// waits for any in-flight ingestion pass to reach its cancellation point
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
