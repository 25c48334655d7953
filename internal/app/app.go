// Package app wires configuration into the pipeline, its adapters, and
// the run scheduler.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"countryrisk/internal/config"
	"countryrisk/internal/infrastructure/gnews"
	"countryrisk/internal/infrastructure/oracle"
	"countryrisk/internal/infrastructure/scheduler"
	"countryrisk/internal/infrastructure/scrape"
	"countryrisk/internal/infrastructure/storage"
	"countryrisk/internal/infrastructure/worldbank"
	"countryrisk/internal/logging"
	"countryrisk/internal/ports"
	"countryrisk/internal/usecase"
)

// Application holds the wired pipeline and its lifecycle collaborators.
type Application struct {
	cfg       config.Config
	log       *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler ports.Scheduler
	db        *sql.DB
}

// New builds a runnable application instance. Adapters degrade rather
// than fail where the original services do: no database URL means
// snapshots are skipped, no render token means tier 2 never escalates.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var db *sql.DB
	if cfg.Database.URL != "" {
		opened, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db = opened
	} else {
		baseLogger.Warn("database url not set; snapshots will not be persisted")
	}

	gate, err := oracle.LoadGate(cfg.Oracle.LegalRulesPath)
	if err != nil {
		return nil, fmt.Errorf("load legal rules: %w", err)
	}

	var render ports.RenderFetcher
	if cfg.Render.Token != "" {
		robots := scrape.NewRobotsCache(nil, "countryrisk")
		render = scrape.NewRenderClient(cfg.Render.Endpoint, cfg.Render.Token,
			cfg.Render.PageWaitMS, cfg.Render.AjaxWaitMS, robots)
	} else {
		baseLogger.Warn("render token not set; tier-2 enrichment disabled")
	}

	wbClient := worldbank.NewClient(cfg.WorldBank.Endpoint, nil,
		baseLogger.With("component", "worldbank"))

	pipeline := usecase.NewPipeline(usecase.Deps{
		News:     gnews.NewClient(nil, cfg.News.Lang, cfg.News.Country),
		Resolver: gnews.NewResolver(nil),
		Enricher: scrape.NewSimpleScraper(&http.Client{Timeout: 15 * time.Second}),
		Render:   render,
		Oracle: oracle.NewGemini(cfg.Oracle.APIKey, cfg.Oracle.Model, gate,
			baseLogger.With("component", "oracle")),
		Macro: worldbank.NewProvider(wbClient, cfg.WorldBank.CacheDir,
			cfg.WorldBank.SinceYear, cfg.WorldBank.Lookback,
			baseLogger.With("component", "worldbank")),
		Repo: storage.NewPostgresRepository(db),
	}, cfg.News, baseLogger.With("component", "pipeline"))

	return &Application{
		cfg:       cfg,
		log:       baseLogger,
		pipeline:  pipeline,
		scheduler: scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location()),
		db:        db,
	}, nil
}

// RunOnce executes one full scoring run across the configured countries.
func (a *Application) RunOnce(ctx context.Context) {
	a.pipeline.Run(ctx, a.cfg.Countries)
}

// Start runs once immediately, then hands recurring execution to the
// scheduler until the context is cancelled.
func (a *Application) Start(ctx context.Context) error {
	a.RunOnce(ctx)

	if err := a.scheduler.Start(ctx, func(time.Time) {
		a.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return a.Shutdown()
}

// Shutdown releases the scheduler and database.
func (a *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.scheduler.Stop(ctx); err != nil {
		a.log.Warn("scheduler stop", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}
