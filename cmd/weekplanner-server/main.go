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

	"github.com/existflow/weekplanner/internal/logger"
	"github.com/existflow/weekplanner/server"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost:5432/weekplanner?sslmode=disable"
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	logCfg.FilePath = os.Getenv("LOG_FILE")
	logCfg.Console = true
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	// without mail delivery the link tokens are handed out in responses
	linkTokens := os.Getenv("WEEKPLANNER_LINK_TOKENS") != "false"

	srv, err := server.New(dbURL, server.WithLinkTokens(linkTokens))
	if err != nil {
		logger.Error("Failed to create server", logger.F("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing server", logger.F("error", err.Error()))
		}
	}()

	go func() {
		logger.Info("Weekplanner server starting", logger.F("port", port), logger.F("link_tokens", linkTokens))
		if err := srv.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", logger.F("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("Shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", logger.F("error", err.Error()))
	}
}
