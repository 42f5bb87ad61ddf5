package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/common"
	"github.com/ternarybob/finanalyzer/internal/handlers"
	"github.com/ternarybob/finanalyzer/internal/interfaces"
	"github.com/ternarybob/finanalyzer/internal/services/analysis"
	"github.com/ternarybob/finanalyzer/internal/services/documents"
	"github.com/ternarybob/finanalyzer/internal/services/heuristics"
	"github.com/ternarybob/finanalyzer/internal/services/llm"
	"github.com/ternarybob/finanalyzer/internal/services/report"
	"github.com/ternarybob/finanalyzer/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// LLM provider shared by every analyst role
	Provider llm.Provider

	// Tool result cache (nil when disabled)
	DB        *badger.BadgerDB
	ToolCache *badger.ToolCache
	cron      *cron.Cron

	// Analysis services
	Extractor *documents.Extractor
	Tools     []interfaces.Tool
	Executor  *analysis.Executor
	Pipeline  *analysis.Pipeline
	Assembler *analysis.Assembler
	Renderer  *report.Renderer

	// HTTP handlers
	HealthHandler  *handlers.HealthHandler
	AnalyzeHandler *handlers.AnalyzeHandler
}

// New initializes the application with the configured LLM provider.
// Missing credentials for the default provider fail here rather than on the first request.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	factory := llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, logger)
	if err := factory.Validate(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	return NewWithProvider(cfg, logger, factory)
}

// NewWithProvider initializes the application around an existing provider
func NewWithProvider(cfg *common.Config, logger arbor.ILogger, provider llm.Provider) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Provider: provider,
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if cfg.Cache.Enabled {
		if err := app.initCache(); err != nil {
			return nil, fmt.Errorf("failed to initialize tool cache: %w", err)
		}
	}

	app.initServices()
	app.initHandlers()

	logger.Info().
		Str("provider", string(provider.GetProviderType())).
		Str("data_dir", cfg.Storage.DataDir).
		Bool("cache_enabled", app.ToolCache != nil).
		Msg("Application initialization complete")

	return app, nil
}

// initCache opens the in-memory store and schedules the expiry sweep
func (a *App) initCache() error {
	db, err := badger.NewInMemoryBadgerDB(a.Logger)
	if err != nil {
		return err
	}
	a.DB = db

	ttl := common.ParseDurationOr(a.Config.Cache.TTL, time.Hour)
	a.ToolCache = badger.NewToolCache(db, ttl, a.Logger)

	schedule := a.Config.Cache.PurgeSchedule
	if schedule == "" {
		schedule = "@every 30m"
	}

	a.cron = cron.New()
	if _, err := a.cron.AddFunc(schedule, a.purgeExpired); err != nil {
		db.Close()
		a.DB, a.ToolCache, a.cron = nil, nil, nil
		return fmt.Errorf("invalid cache.purge_schedule '%s': %w", schedule, err)
	}
	a.cron.Start()

	a.Logger.Debug().
		Dur("ttl", ttl).
		Str("purge_schedule", schedule).
		Msg("Tool cache initialized")
	return nil
}

func (a *App) purgeExpired() {
	if err := a.ToolCache.PurgeExpired(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to purge expired tool results")
		return
	}

	for tool, count := range a.CacheEntries() {
		a.Logger.Debug().Str("tool", tool).Int("entries", count).Msg("Tool cache entries after purge")
	}
}

// CacheEntries returns the cached result count per tool; nil when the cache is disabled
func (a *App) CacheEntries() map[string]int {
	if a.ToolCache == nil {
		return nil
	}

	entries := make(map[string]int, len(a.Tools))
	for _, tool := range a.Tools {
		count, err := a.ToolCache.CountByTool(tool.Name())
		if err != nil {
			a.Logger.Warn().Err(err).Str("tool", tool.Name()).Msg("Failed to count tool cache entries")
			continue
		}
		entries[tool.Name()] = count
	}
	return entries
}

func (a *App) initServices() {
	a.Extractor = documents.NewExtractor(a.Config.Documents.MaxSizeBytes, a.Logger)

	a.Tools = []interfaces.Tool{
		a.withCache(documents.NewReaderTool(a.Extractor)),
		a.withCache(heuristics.InvestmentTool{}),
		a.withCache(heuristics.RiskTool{}),
	}

	a.Executor = analysis.NewExecutor(a.Provider, a.Tools, a.Logger)
	a.Pipeline = analysis.NewPipeline(
		a.Executor,
		a.Extractor,
		a.Tools[0],
		analysis.NewRoles(&a.Config.Analysis),
		a.Config.Storage.DataDir,
		a.Config.Analysis.DefaultQuery,
		a.Logger,
	)
	a.Assembler = analysis.NewAssembler(a.Logger)
	a.Renderer = report.NewRenderer(a.Logger)
}

func (a *App) withCache(tool interfaces.Tool) interfaces.Tool {
	if a.ToolCache == nil {
		return tool
	}
	return analysis.NewCachedTool(tool, a.ToolCache, a.Logger)
}

func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler()
	a.AnalyzeHandler = handlers.NewAnalyzeHandler(
		a.Pipeline,
		a.Assembler,
		a.Config.Storage.DataDir,
		a.Config.Documents.MaxSizeBytes,
		a.Config.Analysis.DefaultQuery,
		a.Logger,
	)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	if a.Provider != nil {
		if err := a.Provider.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM provider")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close tool cache: %w", err)
		}
		a.Logger.Debug().Msg("Tool cache closed")
	}

	return nil
}
