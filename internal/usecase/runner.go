package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
	"github.com/Lars-will/FOMO-Bot/internal/ports"
	"github.com/Lars-will/FOMO-Bot/internal/progress"
)

// RunnerDeps wires the collaborators of the run lifecycle.
type RunnerDeps struct {
	Pipeline *Pipeline
	Markets  ports.MarketStore
	Reports  ports.ReportStore
	Renderer ports.ReportRenderer
	Hub      *progress.Hub
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Runner owns report-run sessions: each Start spawns one background
// goroutine that drives the pipeline, persists the report, and feeds
// the run's progress topic. The goroutine is bounded by the run
// timeout and finishes whether or not anyone is still subscribed.
type Runner struct {
	pipeline *Pipeline
	markets  ports.MarketStore
	reports  ports.ReportStore
	renderer ports.ReportRenderer
	hub      *progress.Hub
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRunner constructs the session layer.
func NewRunner(deps RunnerDeps) *Runner {
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return &Runner{
		pipeline: deps.Pipeline,
		markets:  deps.Markets,
		reports:  deps.Reports,
		renderer: deps.Renderer,
		hub:      deps.Hub,
		timeout:  timeout,
		logger:   deps.Logger,
	}
}

// Start validates the request, opens a progress topic, and kicks off
// the background run. It returns the run id observers subscribe with.
// Unknown markets and already-generated reports fail synchronously,
// before any session exists.
func (r *Runner) Start(ctx context.Context, day time.Time, marketSymbol string) (string, error) {
	market, err := r.markets.FindMarket(ctx, marketSymbol)
	if err != nil {
		return "", fmt.Errorf("resolve market %s: %w", marketSymbol, err)
	}

	existing, err := r.reports.FindReport(ctx, day, marketSymbol)
	if err != nil {
		return "", fmt.Errorf("check existing report: %w", err)
	}
	if existing != nil {
		return "", domain.ErrReportExists
	}

	runID := uuid.NewString()
	r.hub.Open(runID)

	go r.execute(runID, day, *market)

	return runID, nil
}

// execute is the background body of one run. It emits exactly one
// terminal update; the deliberately fresh context means an observer
// walking away does not cancel the run, the timeout does.
func (r *Runner) execute(runID string, day time.Time, market domain.Market) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	sink := r.hub.Sink(runID)
	sink.Publish(domain.RunUpdate{
		Status:    domain.RunRunning,
		Message:   fmt.Sprintf("Starting analysis for %s on %s", market.Symbol, day.Format(domain.DateLayout)),
		Progress:  0,
		Timestamp: time.Now(),
	})

	items, total, err := r.pipeline.Run(ctx, day, market.Symbol, sink)
	if err != nil {
		r.fail(sink, runID, err)
		return
	}

	report := &domain.Report{
		Date:         day,
		MarketSymbol: market.Symbol,
		Content:      r.renderer.Render(day, market, items),
		EventCount:   len(items),
	}
	if err := r.reports.SaveReport(ctx, report); err != nil {
		r.fail(sink, runID, fmt.Errorf("save report: %w", err))
		return
	}

	sink.Publish(domain.RunUpdate{
		Status:    domain.RunComplete,
		Message:   fmt.Sprintf("Report ready: %d of %d events analyzed", len(items), total),
		Progress:  100,
		Timestamp: time.Now(),
		Result: &domain.RunResult{
			TotalEvents:   total,
			AnalyzedCount: len(items),
			ReportID:      report.ID,
		},
	})
	r.info("run complete", "run_id", runID, "report_id", report.ID, "analyzed", len(items))
}

// Subscribe exposes the run's progress channel.
func (r *Runner) Subscribe(runID string) (<-chan domain.RunUpdate, bool) {
	return r.hub.Subscribe(runID)
}

func (r *Runner) fail(sink ports.ProgressSink, runID string, err error) {
	r.warn("run failed", "run_id", runID, "error", err)
	sink.Publish(domain.RunUpdate{
		Status:    domain.RunError,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
}

func (r *Runner) info(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runner) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
