package ports

import (
	"context"
	"time"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
)

// EventStore persists ingested calendar events.
type EventStore interface {
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	ListEventsForDate(ctx context.Context, day time.Time) ([]domain.Event, error)
	UpsertEvent(ctx context.Context, event *domain.Event) error
	CountEventsForDate(ctx context.Context, day time.Time) (int, error)
}

// AnalysisStore persists per-(event, market) analyses and acts as the
// memoization layer: FindAnalysis returns (nil, nil) when no row
// exists, and InsertAnalysis must return the already-stored row when
// a concurrent writer won the (event_id, market_symbol) uniqueness
// race.
type AnalysisStore interface {
	FindAnalysis(ctx context.Context, eventID int64, market string) (*domain.Analysis, error)
	InsertAnalysis(ctx context.Context, analysis *domain.Analysis) (*domain.Analysis, error)
}

// MarketStore keeps the symbols reports can target.
type MarketStore interface {
	FindMarket(ctx context.Context, symbol string) (*domain.Market, error)
	ListMarkets(ctx context.Context) ([]domain.Market, error)
	UpsertMarket(ctx context.Context, market *domain.Market) error
}

// SettingsStore reads and writes the operator configuration record.
// Current returns defaults when nothing has been saved yet.
type SettingsStore interface {
	Current(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}

// ReportStore persists rendered reports.
type ReportStore interface {
	FindReport(ctx context.Context, day time.Time, market string) (*domain.Report, error)
	SaveReport(ctx context.Context, report *domain.Report) error
}

// ChatClient is the external reasoning service. The returned text is
// untrusted; it may or may not be the JSON the prompt asked for.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error)
}

// CallGate spaces outbound reasoning-service calls. Do blocks until
// the minimum interval since the previous protected call has elapsed,
// then runs fn.
type CallGate interface {
	Do(ctx context.Context, fn func() error) error
}

// ProgressSink receives status updates for one run, in publish order.
type ProgressSink interface {
	Publish(update domain.RunUpdate)
}

// CalendarSource yields the raw events to ingest for a day.
type CalendarSource interface {
	EventsForDate(ctx context.Context, day time.Time) ([]domain.Event, error)
}

// ReportRenderer turns the joined event/analysis list into report
// content. The pipeline's obligation ends at handing over this list.
type ReportRenderer interface {
	Render(day time.Time, market domain.Market, items []domain.EventAnalysis) string
}
