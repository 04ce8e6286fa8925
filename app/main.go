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

	"podcastd/app/api"
	"podcastd/app/cfg"
	"podcastd/app/database"
	"podcastd/app/podcast"
	"podcastd/app/subscriptions"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if c == nil {
		// Help was requested.
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("Starting podcastd", "version", c.Version)

	db, err := database.Open(c.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", c.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", c.DBPath, "schema_version", version, "dirty", dirty)

	channelRepo := database.NewChannelRepository(db)
	episodeRepo := database.NewEpisodeRepository(db)
	folderRepo := database.NewFolderRepository(db)
	settingsRepo := database.NewSettingsRepository(db,
		c.RefreshIntervalHours, c.EpisodeDownloadCount, c.EpisodeRetentionCount,
		c.PodcastFolder)

	gate := podcast.NewFolderGate(settingsRepo)

	service := podcast.NewService(channelRepo, episodeRepo, settingsRepo,
		folderRepo, gate, &http.Client{}, c.UserAgent)
	service.Start()
	defer service.Stop()

	if c.Subscriptions != "" {
		if err := subscriptions.Bootstrap(c.Subscriptions, channelRepo, service); err != nil {
			slog.Warn("Subscription bootstrap failed", "file", c.Subscriptions, "error", err)
		}
	}

	handler := api.NewHandler(service, channelRepo, episodeRepo, settingsRepo)
	server := api.NewServer(handler, c.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", c.Port)
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

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Service and database are stopped via defer.
	slog.Info("Shutdown complete")
}
