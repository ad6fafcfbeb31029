package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
	"github.com/Lars-will/FOMO-Bot/internal/ports"
)

const defaultSystemPrompt = "You are a professional financial analyst specializing in economic events and market impact analysis. Provide concise, actionable insights."

// AnalyzerDeps wires the driven adapters into the analysis engine.
type AnalyzerDeps struct {
	Events       ports.EventStore
	Analyses     ports.AnalysisStore
	Settings     ports.SettingsStore
	Chat         ports.ChatClient
	Gate         ports.CallGate
	SystemPrompt string
	Logger       *slog.Logger
}

// Analyzer produces the AI verdict for one (event, market) pair.
type Analyzer struct {
	events       ports.EventStore
	analyses     ports.AnalysisStore
	settings     ports.SettingsStore
	chat         ports.ChatClient
	gate         ports.CallGate
	systemPrompt string
	logger       *slog.Logger
}

// NewAnalyzer constructs the engine.
func NewAnalyzer(deps AnalyzerDeps) *Analyzer {
	prompt := deps.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	return &Analyzer{
		events:       deps.Events,
		analyses:     deps.Analyses,
		settings:     deps.Settings,
		chat:         deps.Chat,
		gate:         deps.Gate,
		systemPrompt: prompt,
		logger:       deps.Logger,
	}
}

// Analyze returns the analysis for the pair, producing it through the
// reasoning service when no stored one exists. A nil analysis with a
// nil error means the event was skipped: its importance is below the
// star filter, or the model judged it irrelevant for this market.
// Neither skip reaches the external service twice — a stored analysis
// is returned as-is without a new call.
func (a *Analyzer) Analyze(ctx context.Context, eventID int64, market string) (*domain.Analysis, error) {
	existing, err := a.analyses.FindAnalysis(ctx, eventID, market)
	if err != nil {
		return nil, fmt.Errorf("lookup analysis: %w", err)
	}
	if existing != nil {
		a.debug("analysis already exists", "event_id", eventID, "market", market)
		return existing, nil
	}

	event, err := a.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event %d: %w", eventID, err)
	}

	settings, err := a.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if event.Importance.Rank() < settings.StarFilter {
		a.debug("event below star filter",
			"event_id", eventID, "importance", event.Importance, "filter", settings.StarFilter)
		return nil, nil
	}

	prompt := buildPrompt(event, market)

	var raw string
	callErr := a.gate.Do(ctx, func() error {
		var err error
		raw, err = a.chat.Complete(ctx, a.systemPrompt, prompt, settings.Model)
		return err
	})
	if callErr != nil {
		return nil, &domain.AnalysisCallError{EventID: eventID, Err: callErr}
	}

	result := parseAnalysis(raw)
	if !result.Relevant() {
		a.debug("event not relevant for market", "event_id", eventID, "market", market)
		return nil, nil
	}

	analysis := &domain.Analysis{
		EventID:      eventID,
		MarketSymbol: market,
		Description:  result.EventDescription,
		AnalysisText: result.AnalysisText,
		ImpactScore:  result.ImpactScore,
		Sentiment:    result.Sentiment(),
		KeyFactors:   result.KeyFactors,
		Commentary:   result.ExpertCommentary,
	}

	stored, err := a.analyses.InsertAnalysis(ctx, analysis)
	if err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}
	return stored, nil
}

// buildPrompt embeds the event fields and the target market into the
// analysis request.
func buildPrompt(event *domain.Event, market string) string {
	return fmt.Sprintf(`Analyze this economic event for %s market impact:

Event: %s
Date: %s
Time: %s
Region (given by the currency): %s
Actual: %s
Forecast: %s
Previous: %s

Provide analysis focused on %s only. Determine relevance, impact, and trading implications.

Output as JSON:
{
    "is_relevant": true/false,
    "event_description": "Brief explanation of the event and why it matters for %s",
    "analysis_text": "Concise analysis focused on %s impact and trading implications",
    "impact_score": 1-10,
    "sentiment_summary": "bullish/bearish/neutral",
    "key_factors": ["factor1", "factor2", "factor3"],
    "expert_commentary": "Expert-level commentary on %s market implications"
}`,
		market,
		event.Name,
		event.Date.Format(domain.DateLayout),
		valueOr(event.Time, "All Day"),
		event.Currency,
		valueOr(event.Actual, "Not released yet"),
		valueOr(event.Forecast, "N/A"),
		valueOr(event.Previous, "N/A"),
		market, market, market, market)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func (a *Analyzer) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
