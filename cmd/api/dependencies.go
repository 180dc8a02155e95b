package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	importhandler "github.com/FACorreiaa/echo-statements/internal/domain/import/handler"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/echo-statements/internal/domain/import/service"
	"github.com/FACorreiaa/echo-statements/pkg/config"
	"github.com/FACorreiaa/echo-statements/pkg/cron"
	"github.com/FACorreiaa/echo-statements/pkg/metrics"
	"github.com/FACorreiaa/echo-statements/pkg/middleware"
	"github.com/FACorreiaa/echo-statements/pkg/storage"
)

const (
	jobSweepClients = "ratelimit-sweep"
	jobPruneArchive = "archive-prune"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	// Observability
	PromRegistry *prometheus.Registry
	Metrics      *metrics.Metrics

	// Storage is nil unless IMPORT_ARCHIVE_DIR is set
	Archive storage.Storage

	// Parsing
	Merchants      *normalizer.MerchantSanitizer
	ParserRegistry *parser.Registry

	// Services
	ImportService *importservice.ImportService

	// Handlers
	ImportHandler *importhandler.ImportHandler
	RateLimiter   *middleware.RateLimiter

	// Background jobs
	Scheduler *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initObservability()

	if err := deps.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	if err := deps.initParsers(); err != nil {
		return nil, fmt.Errorf("failed to init parsers: %w", err)
	}

	deps.initServices()
	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	if err := deps.initScheduler(); err != nil {
		return nil, fmt.Errorf("failed to init scheduler: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initObservability creates the metrics registry. Collectors are registered
// even when the endpoint is disabled so the service code stays unconditional.
func (d *Dependencies) initObservability() {
	d.PromRegistry = prometheus.NewRegistry()
	d.PromRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = metrics.New(d.PromRegistry)
}

// initStorage opens the upload archive when one is configured
func (d *Dependencies) initStorage() error {
	if d.Config.Import.ArchiveDir == "" {
		return nil
	}
	st, err := storage.New(&storage.Config{
		Type:      storage.StorageTypeLocal,
		LocalPath: d.Config.Import.ArchiveDir,
	})
	if err != nil {
		return err
	}
	d.Archive = st

	d.Logger.Info("upload archive enabled",
		slog.String("path", d.Config.Import.ArchiveDir),
		slog.Duration("retention", d.Config.Import.ArchiveRetention),
	)
	return nil
}

// initParsers loads merchant rules and builds the extractor registry
func (d *Dependencies) initParsers() error {
	store := normalizer.NewOverrideStore(d.Config.Import.CategoryRulesFile)
	overrides, err := store.Load()
	if err != nil {
		return err
	}
	if len(overrides) > 0 {
		d.Logger.Info("merchant rules loaded",
			slog.String("path", store.Path()),
			slog.Int("rules", len(overrides)),
		)
	}
	d.Merchants = normalizer.NewMerchantSanitizer(overrides...)

	d.ParserRegistry = parser.NewDefaultRegistry(
		[]parser.Option{
			parser.WithCurrency(d.Config.Import.DefaultCurrency),
			parser.WithMerchants(d.Merchants),
		},
		parser.WithLegacyFallback(d.Config.Import.LegacyFallback),
	)

	d.Logger.Info("parsers registered", slog.Any("parsers", d.ParserRegistry.IDs()))
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() {
	d.ImportService = importservice.NewImportService(d.ParserRegistry, d.Logger).
		WithMetrics(d.Metrics).
		WithLimits(d.Config.Import.MaxInputBytes, d.Config.Import.Workers)
	if d.Archive != nil {
		d.ImportService.WithArchive(d.Archive)
	}

	d.Logger.Info("services initialized")
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Config.Import.MaxInputBytes, d.Logger)
	d.RateLimiter = middleware.NewRateLimiter(d.Config.Server.RateLimitPerSecond, d.Config.Server.RateLimitBurst)
	if err := d.RateLimiter.TrustProxies(d.Config.Server.TrustedProxies...); err != nil {
		return err
	}

	d.Logger.Info("handlers initialized")
	return nil
}

// initScheduler registers the housekeeping jobs. The caller starts it.
func (d *Dependencies) initScheduler() error {
	d.Scheduler = cron.NewScheduler(d.Logger)

	if err := d.Scheduler.Add(cron.Job{
		Name: jobSweepClients,
		Spec: "@every 1m",
		Run: func(context.Context) error {
			d.RateLimiter.Sweep()
			return nil
		},
	}); err != nil {
		return err
	}

	if d.Archive == nil {
		return nil
	}
	return d.Scheduler.Add(cron.Job{
		Name:    jobPruneArchive,
		Spec:    "@hourly",
		Timeout: 10 * time.Minute,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().Add(-d.Config.Import.ArchiveRetention)
			pruned, err := d.Archive.Prune(ctx, cutoff)
			if pruned > 0 {
				d.Logger.Info("archive pruned", slog.Int("files", pruned))
			}
			return err
		},
	})
}

// Router mounts every route behind the middleware chain
func (d *Dependencies) Router() http.Handler {
	mux := http.NewServeMux()
	d.ImportHandler.Register(mux)
	if d.Config.Observability.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler(d.PromRegistry))
	}

	return middleware.Chain(mux,
		middleware.Logging(d.Logger, d.Metrics),
		middleware.Recover(d.Logger),
		middleware.CORS(d.Config.Server.CORSOrigins),
		d.RateLimiter.Middleware(),
	)
}
