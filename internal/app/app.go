// Package app builds the backends and services shared by the server and
// the cronjob runner from one Config.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gearshare-backend/internal/activity"
	"gearshare-backend/internal/cache"
	"gearshare-backend/internal/config"
	"gearshare-backend/internal/email"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/orchestrator"
	"gearshare-backend/internal/repository"
	"gearshare-backend/internal/repository/airtable"
	"gearshare-backend/internal/repository/booqable"
	fsstore "gearshare-backend/internal/repository/firestore"
	"gearshare-backend/internal/repository/memory"
	"gearshare-backend/internal/repository/postgres"
	"gearshare-backend/internal/security"
	"gearshare-backend/internal/service"

	"cloud.google.com/go/firestore"
)

// App holds every long-lived dependency. Close releases the connections
// it opened.
type App struct {
	Config *config.Config

	Booking repository.BookingBackend
	Records repository.RecordStore
	// Docs is nil when the document mirror is disabled.
	Docs  repository.DocumentStore
	Cache *cache.Cache

	Activity     *activity.Logger
	Orchestrator *orchestrator.Orchestrator
	Tokens       security.TokenManager

	Auth      service.AuthService
	Equipment service.EquipmentService
	Repairs   service.RepairService
	Rentals   service.RentalService
	Templates service.TemplateService
	Email     service.EmailService
	ActivityQ service.ActivityService
	Dashboard service.DashboardService

	db        *sql.DB
	firestore *firestore.Client
}

// Build connects to the configured backends and wires the services.
// A Redis outage is not fatal: the dashboard just runs uncached.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	a.Booking = booqable.NewClient(cfg.Booking)
	logger.Info("Booking backend configured", "base_url", cfg.Booking.BaseURL)

	if err := a.openRecords(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openDocs(ctx); err != nil {
		a.Close()
		return nil, err
	}

	c, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, dashboard caching disabled", "addr", cfg.Redis.Addr, "error", err)
	}
	a.Cache = c

	tables := cfg.Records.Tables
	a.Activity = activity.NewLogger(a.Records, tables.ActivityLog)
	a.Email = service.NewEmailService(email.NewSender(cfg.Email), a.Records, tables.EmailTemplates, a.Activity)
	a.Orchestrator = orchestrator.New(a.Activity, a.Email)

	a.Tokens = security.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenExpiryMinutes)*time.Minute)
	a.Auth = service.NewAuthService(security.NewAuthenticator(cfg.Auth.Admins), a.Tokens)

	a.Equipment = service.NewEquipmentService(a.Booking, a.Records, tables.Equipment, cfg.Sync.Equipment, a.Orchestrator)
	a.Repairs = service.NewRepairService(a.Records, a.Docs, tables.Repairs, cfg.Sync.Repairs, a.Orchestrator)
	a.Rentals = service.NewRentalService(a.Booking, a.Docs, cfg.Sync, a.Orchestrator, a.Activity)
	a.Templates = service.NewTemplateService(a.Records, tables.EmailTemplates, a.Orchestrator)
	a.ActivityQ = service.NewActivityService(a.Activity)
	a.Dashboard = service.NewDashboardService(
		a.Booking,
		a.Records,
		tables.Equipment,
		tables.Repairs,
		a.Activity,
		a.Cache,
		cfg.Redis.DashboardTTL(),
	)
	return a, nil
}

func (a *App) openRecords(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Records.Type {
	case "airtable":
		a.Records = airtable.NewStore(cfg.Records)
		logger.Info("Records backend: airtable", "base_id", cfg.Records.BaseID)
	case "postgres":
		logger.Info("Records backend: postgres", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			return err
		}
		a.db = db
		a.Records = postgres.NewRecordStore(db)
	case "memory":
		logger.Warn("Records backend: in-memory, data is lost on restart")
		a.Records = memory.NewRecordStore()
	default:
		return fmt.Errorf("unsupported records type: %q", cfg.Records.Type)
	}
	return nil
}

func (a *App) openDocs(ctx context.Context) error {
	cfg := a.Config.DocStore
	switch cfg.Type {
	case "firestore":
		client, err := fsstore.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		a.firestore = client
		a.Docs = fsstore.NewStore(client, cfg.Namespace)
		logger.Info("Document backend: firestore", "project_id", cfg.ProjectID, "namespace", cfg.Namespace)
	case "memory":
		a.Docs = memory.NewStore()
		logger.Warn("Document backend: in-memory, data is lost on restart")
	case "":
		logger.Warn("Document backend disabled, repair and rental mirrors will be skipped")
	default:
		return fmt.Errorf("unsupported docstore type: %q", cfg.Type)
	}
	return nil
}

// Close is safe to call on a partially built App.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			logger.Warn("Failed to close redis client", "error", err)
		}
	}
	if a.firestore != nil {
		if err := a.firestore.Close(); err != nil {
			logger.Warn("Failed to close firestore client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}
}
