package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "gearshare-backend/internal/api/http"
	"gearshare-backend/internal/app"
	"gearshare-backend/internal/config"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/security"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	hashPassword := flag.String("hash-password", "", "Print the bcrypt hash of a password for auth.admins and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := security.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	// Secrets may come from a local .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to read .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting GearShare admin backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize backends", "error", err)
		log.Fatalf("Failed to initialize backends: %v", err)
	}
	defer a.Close()

	handler := httpapi.NewHandler(httpapi.Services{
		Auth:      a.Auth,
		Equipment: a.Equipment,
		Repairs:   a.Repairs,
		Rentals:   a.Rentals,
		Templates: a.Templates,
		Email:     a.Email,
		Activity:  a.ActivityQ,
		Dashboard: a.Dashboard,
	})

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(handler, a.Tokens, cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server error", "error", err)
			a.Close()
			log.Fatalf("HTTP server error: %v", err)
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped. Goodbye!")
}
