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

	"github.com/nuitsjp/teams-board/internal/config"
	"github.com/nuitsjp/teams-board/internal/domain/dashboard"
	"github.com/nuitsjp/teams-board/internal/storage"
	"github.com/nuitsjp/teams-board/internal/storage/devstore"
	"github.com/nuitsjp/teams-board/internal/storage/gcs"
	"github.com/nuitsjp/teams-board/internal/transport"
	"github.com/nuitsjp/teams-board/internal/writer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open object store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	source := storage.NewIndexSource(store)
	cache := storage.NewCachedSource(source, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	seq := writer.New(store, source, logger)
	svc := dashboard.NewService(seq, store, source, cache, logger)

	var authMiddleware func(http.Handler) http.Handler
	if cfg.Auth.Token != "" {
		authMiddleware = transport.AuthMiddleware(cfg.Auth.Token)
	} else {
		logger.Warn("auth token not set, API is unauthenticated")
	}
	router := transport.NewServer(svc, authMiddleware)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "backend", cfg.Storage.Backend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func openStore(cfg config.Config, logger *slog.Logger) (storage.ObjectStore, func(), error) {
	switch cfg.Storage.Backend {
	case "gcs":
		store, err := gcs.New(context.Background(), cfg.Storage.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store, err := devstore.New(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using local object store", "path", cfg.Storage.Path)
		return store, func() { _ = store.Close() }, nil
	}
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
