package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pennyvault/pennyvault/internal/domain/alerts"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/handler"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/parser"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/repository"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/service"
	"github.com/pennyvault/pennyvault/pkg/config"
	"github.com/pennyvault/pennyvault/pkg/db"
	"github.com/pennyvault/pennyvault/pkg/envelope"
)

// Alert threshold for the activity evaluator, transactions per day.
const dailyActivityThreshold = 200

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	Cipher     *envelope.Cipher
	Registry   *parser.Registry
	Guard      *service.ImportGuard
	LedgerRepo repository.LedgerRepository

	ImportService *service.ImportService
	Scheduler     *alerts.Scheduler

	IngestHandler *handler.IngestHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger, tracerName string) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initCipher(); err != nil {
		return nil, fmt.Errorf("failed to init encryption: %w", err)
	}

	deps.initPipeline(tracerName)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("dependencies cleaned up")
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initCipher builds the field-encryption cipher from the configured key.
func (d *Dependencies) initCipher() error {
	key, err := d.Config.Encryption.Key()
	if err != nil {
		return err
	}

	cipher, err := envelope.NewCipherFromKey(key)
	if err != nil {
		return err
	}

	d.Cipher = cipher
	return nil
}

// initPipeline wires the ingestion pipeline and its background consumers.
func (d *Dependencies) initPipeline(tracerName string) {
	d.Registry = parser.NewRegistry()
	d.Guard = service.NewImportGuard()
	d.LedgerRepo = repository.NewPostgresLedgerRepository(d.DB.Pool)

	tracer := tracerProvider(tracerName)
	d.ImportService = service.NewImportService(
		d.LedgerRepo, d.Registry, d.Cipher, d.Guard, d.Logger, tracer,
	)

	evaluator := alerts.NewActivityEvaluator(d.LedgerRepo, dailyActivityThreshold, d.Logger)
	d.Scheduler = alerts.NewScheduler(d.Config.Scheduler.Interval, d.Guard, evaluator, d.Logger)

	d.IngestHandler = handler.NewIngestHandler(d.ImportService, d.LedgerRepo, d.Logger)

	d.Logger.Info("ingestion pipeline initialized",
		slog.Any("formats", d.Registry.IDs()))
}
