package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lars-will/FOMO-Bot/internal/config"
	"github.com/Lars-will/FOMO-Bot/internal/domain"
	"github.com/Lars-will/FOMO-Bot/internal/infrastructure/llm"
	"github.com/Lars-will/FOMO-Bot/internal/infrastructure/report"
	"github.com/Lars-will/FOMO-Bot/internal/infrastructure/storage"
	"github.com/Lars-will/FOMO-Bot/internal/logging"
	"github.com/Lars-will/FOMO-Bot/internal/ports"
	"github.com/Lars-will/FOMO-Bot/internal/progress"
	"github.com/Lars-will/FOMO-Bot/internal/ratelimit"
	"github.com/Lars-will/FOMO-Bot/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	repo   *storage.SQLiteRepository
	runner *usecase.Runner
	logger *slog.Logger
}

// New builds a runnable application instance: one shared repository,
// one process-wide rate limiter, and the run session layer on top.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, err := storage.NewSQLiteRepository(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	limiter := ratelimit.New(cfg.Pipeline.MinCallInterval(), baseLogger.With("component", "ratelimit"))
	chatClient := llm.NewOpenAIClient(cfg.LLM)

	analyzer := usecase.NewAnalyzer(usecase.AnalyzerDeps{
		Events:       repo,
		Analyses:     repo,
		Settings:     repo,
		Chat:         chatClient,
		Gate:         limiter,
		SystemPrompt: cfg.LLM.SystemPrompt,
		Logger:       baseLogger.With("component", "analyzer"),
	})

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Events:   repo,
		Settings: repo,
		Analyzer: analyzer,
		Logger:   baseLogger.With("component", "pipeline"),
	})

	hub := progress.NewHub(progress.DefaultGrace, baseLogger.With("component", "progress"))

	runner := usecase.NewRunner(usecase.RunnerDeps{
		Pipeline: pipeline,
		Markets:  repo,
		Reports:  repo,
		Renderer: report.NewTextRenderer(),
		Hub:      hub,
		Timeout:  cfg.Pipeline.RunTimeout(),
		Logger:   baseLogger.With("component", "runner"),
	})

	a := &Application{
		cfg:    cfg,
		repo:   repo,
		runner: runner,
		logger: baseLogger,
	}
	if err := a.seed(context.Background(), chatClient); err != nil {
		repo.Close()
		return nil, err
	}
	return a, nil
}

// Runner exposes the run session layer.
func (a *Application) Runner() *usecase.Runner {
	return a.runner
}

// Ingest loads the day's calendar events through source and upserts
// them, unless the day was already ingested. It returns how many
// events the store now holds for the day.
func (a *Application) Ingest(ctx context.Context, source ports.CalendarSource, day time.Time) (int, error) {
	count, err := a.repo.CountEventsForDate(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	if count > 0 {
		a.logger.Info("events already ingested", "date", day.Format(domain.DateLayout), "count", count)
		return count, nil
	}

	events, err := source.EventsForDate(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("load calendar events: %w", err)
	}

	for i := range events {
		if err := a.repo.UpsertEvent(ctx, &events[i]); err != nil {
			return 0, fmt.Errorf("store event %q: %w", events[i].Name, err)
		}
	}

	a.logger.Info("events ingested", "date", day.Format(domain.DateLayout), "count", len(events))
	return len(events), nil
}

// Report returns the stored report for (day, market), if any.
func (a *Application) Report(ctx context.Context, day time.Time, market string) (*domain.Report, error) {
	return a.repo.FindReport(ctx, day, market)
}

// Close releases held resources.
func (a *Application) Close() error {
	return a.repo.Close()
}

// seed populates the initial markets and, when the environment
// carries an API key but no settings row does, the first settings
// record. The stored settings own the credential afterwards; the
// chat client is aligned with whichever key wins.
func (a *Application) seed(ctx context.Context, chatClient *llm.OpenAIClient) error {
	markets, err := a.repo.ListMarkets(ctx)
	if err != nil {
		return fmt.Errorf("list markets: %w", err)
	}
	if len(markets) == 0 {
		defaults := []domain.Market{
			{Symbol: "FDAX", Description: "DAX Futures (Germany)"},
			{Symbol: "BTC", Description: "Bitcoin"},
			{Symbol: "SPY", Description: "S&P 500 ETF"},
			{Symbol: "EUR/USD", Description: "Euro/US Dollar"},
		}
		for i := range defaults {
			if err := a.repo.UpsertMarket(ctx, &defaults[i]); err != nil {
				return fmt.Errorf("seed market %s: %w", defaults[i].Symbol, err)
			}
		}
		a.logger.Info("seeded default markets", "count", len(defaults))
	}

	settings, err := a.repo.Current(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if settings.APIKey == "" && a.cfg.LLM.APIKey != "" {
		settings.APIKey = a.cfg.LLM.APIKey
		if a.cfg.LLM.Model != "" {
			settings.Model = a.cfg.LLM.Model
		}
		if err := a.repo.Save(ctx, settings); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
		a.logger.Info("seeded settings from environment")
	}

	chatClient.SetAPIKey(settings.APIKey)
	return nil
}
