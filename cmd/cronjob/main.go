package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gearshare-backend/internal/app"
	"gearshare-backend/internal/config"
	"gearshare-backend/internal/jobs"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/scheduler"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'sync-rental-statuses')")
	flag.Parse()

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
	logger.Info("Starting GearShare Cronjob Runner...", "log_level", cfg.Log.Level)

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backends", "error", err)
		log.Fatalf("Failed to initialize backends: %v", err)
	}
	defer a.Close()

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(a.Rentals, a.Cache, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			a.Close()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		a.Close()
		log.Fatalf("Failed to register cron jobs: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and reports whether the name was known
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "sync-rental-statuses":
		jobRunner.SyncRentalStatuses()
		return true
	}
	logger.Error("Unknown job name", "job", jobName)
	fmt.Printf("Available jobs:\n")
	fmt.Printf("  - sync-rental-statuses\n")
	return false
}
