package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
	"github.com/Lars-will/FOMO-Bot/internal/ports"
)

// EventAnalyzer is the slice of the analysis engine the pipeline
// drives.
type EventAnalyzer interface {
	Analyze(ctx context.Context, eventID int64, market string) (*domain.Analysis, error)
}

// PipelineDeps wires all collaborators into the orchestration
// pipeline.
type PipelineDeps struct {
	Events   ports.EventStore
	Settings ports.SettingsStore
	Analyzer EventAnalyzer
	Logger   *slog.Logger
}

// Pipeline walks a day's events and collects the analyses relevant
// for one market.
type Pipeline struct {
	events   ports.EventStore
	settings ports.SettingsStore
	analyzer EventAnalyzer
	logger   *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		events:   deps.Events,
		settings: deps.Settings,
		analyzer: deps.Analyzer,
		logger:   deps.Logger,
	}
}

// Run analyzes every event of the day for the market, reporting
// progress to sink before each event. Per-event failures are logged
// and skipped; the batch keeps going. The returned list preserves the
// store's event order. The second return is the total number of
// events iterated, analyzed or not.
//
// A missing API credential aborts immediately: no call could succeed,
// so iterating would only burn time.
func (p *Pipeline) Run(ctx context.Context, day time.Time, market string, sink ports.ProgressSink) ([]domain.EventAnalysis, int, error) {
	settings, err := p.settings.Current(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load settings: %w", err)
	}
	if settings.APIKey == "" {
		return nil, 0, domain.ErrNoAPIKey
	}

	events, err := p.events.ListEventsForDate(ctx, day)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	total := len(events)
	p.info("pipeline run started",
		"date", day.Format(domain.DateLayout), "market", market, "events", total)

	var collected []domain.EventAnalysis
	for idx, event := range events {
		publish(sink, domain.RunUpdate{
			Status:    domain.RunRunning,
			Message:   fmt.Sprintf("Analyzing event %d/%d: %s", idx+1, total, event.Name),
			Progress:  idx * 100 / total,
			Timestamp: time.Now(),
		})

		analysis, err := p.analyzer.Analyze(ctx, event.ID, market)
		if err != nil {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			p.warn("event analysis failed", "event_id", event.ID, "event", event.Name, "error", err)
			continue
		}
		if analysis == nil {
			continue
		}

		collected = append(collected, domain.EventAnalysis{Event: event, Analysis: *analysis})
	}

	p.info("pipeline run finished",
		"date", day.Format(domain.DateLayout), "market", market,
		"analyzed", len(collected), "events", total)
	return collected, total, nil
}

func publish(sink ports.ProgressSink, update domain.RunUpdate) {
	if sink != nil {
		sink.Publish(update)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
