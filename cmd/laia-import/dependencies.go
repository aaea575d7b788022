package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/committer"
	importrepo "github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/esg-laia-import/internal/domain/import/service"
	"github.com/FACorreiaa/esg-laia-import/pkg/config"
	"github.com/FACorreiaa/esg-laia-import/pkg/cron"
	"github.com/FACorreiaa/esg-laia-import/pkg/db"
	"github.com/FACorreiaa/esg-laia-import/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Metrics is nil when METRICS_ENABLED is false
	Metrics *prometheus.Registry

	ImportRepo    importrepo.Repository
	FileStorage   storage.Storage
	ImportService *importservice.ImportService
	Scheduler     *cron.Scheduler
}

// depsOptions selects optional parts of the graph
type depsOptions struct {
	// offline replaces Postgres with an in-memory repository seeded with these sectors
	offline bool
	sectors []string
	tenant  string
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts depsOptions) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if !opts.offline {
		if err := deps.initDatabase(ctx); err != nil {
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
	}

	if err := deps.initRepositories(opts); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Debug("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.New(ctx, db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// initRepositories initializes the repository layer
func (d *Dependencies) initRepositories(opts depsOptions) error {
	if d.DB != nil {
		d.ImportRepo = importrepo.NewPostgresRepository(d.DB.Pool)
		return nil
	}

	mem := importrepo.NewMemoryRepository()
	if len(opts.sectors) > 0 {
		tenantID, err := parseTenant(opts.tenant)
		if err != nil {
			return err
		}
		mem.Seed(tenantID, opts.sectors...)
	}
	d.ImportRepo = mem
	d.Logger.Info("using in-memory repository, nothing will be persisted")
	return nil
}

// initServices initializes the service layer
func (d *Dependencies) initServices() error {
	fileStorage, err := storage.New(&storage.Config{
		LocalPath:     d.Config.Storage.LocalPath,
		RetentionDays: d.Config.Storage.RetentionDays,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	svcCfg := importservice.DefaultConfig()
	svcCfg.Parser.MaxFileBytes = d.Config.Import.MaxFileBytes
	svcCfg.Parser.MaxRows = d.Config.Import.MaxRows
	svcCfg.DuplicateCheck = d.Config.Import.DuplicateCheck
	svcCfg.WritesPerSec = d.Config.Import.WritesPerSec
	if d.Config.Observability.MetricsEnabled {
		d.Metrics = prometheus.NewRegistry()
		svcCfg.Metrics = committer.NewMetrics(d.Metrics)
	}

	d.ImportService = importservice.NewImportService(d.ImportRepo, d.FileStorage, svcCfg, d.Logger)
	d.Scheduler = cron.NewScheduler(d.FileStorage, d.Config.Storage.SweepSchedule, d.Config.Storage.RetentionDays, d.Logger)
	return nil
}

// WriteMetrics dumps the collected metrics in the node-exporter textfile format
func (d *Dependencies) WriteMetrics(path string) error {
	if d.Metrics == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, d.Metrics); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Debug("cleanup completed")
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
