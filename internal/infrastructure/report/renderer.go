package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
	"github.com/Lars-will/FOMO-Bot/internal/ports"
)

// TextRenderer produces the plain-text report artifact. Styling is a
// presentation concern; this renderer only lays out the joined
// event/analysis list it receives.
type TextRenderer struct{}

var _ ports.ReportRenderer = (*TextRenderer)(nil)

// NewTextRenderer returns the renderer.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// Render builds the report for one day and market.
func (TextRenderer) Render(day time.Time, market domain.Market, items []domain.EventAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "FOMO Bot Report - %s - %s\n", market.Symbol, day.Format("02.01.2006"))
	if market.Description != "" {
		fmt.Fprintf(&b, "%s\n", market.Description)
	}
	b.WriteString("\n")

	highImpact := 0
	counts := map[domain.Sentiment]int{}
	for _, item := range items {
		if item.Event.Importance == domain.ImportanceHigh {
			highImpact++
		}
		counts[item.Analysis.Sentiment]++
	}

	fmt.Fprintf(&b, "Summary: %d events analyzed, %d high impact, %d bullish / %d bearish / %d neutral\n\n",
		len(items), highImpact,
		counts[domain.SentimentBullish], counts[domain.SentimentBearish], counts[domain.SentimentNeutral])

	if len(items) == 0 {
		b.WriteString("No relevant economic events were found for this day.\n")
		return b.String()
	}

	for _, item := range items {
		event := item.Event
		analysis := item.Analysis

		fmt.Fprintf(&b, "== %s [%s] %s (%s)\n",
			eventTime(event.Time), event.Currency, event.Name, event.Importance)
		fmt.Fprintf(&b, "   Actual: %s | Forecast: %s | Previous: %s\n",
			orNA(event.Actual), orNA(event.Forecast), orNA(event.Previous))
		fmt.Fprintf(&b, "   Impact: %s (%d/10) | Sentiment: %s\n",
			impactLevel(analysis.ImpactScore), analysis.ImpactScore, analysis.Sentiment)

		if analysis.Description != "" {
			fmt.Fprintf(&b, "   About: %s\n", analysis.Description)
		}
		if analysis.AnalysisText != "" {
			fmt.Fprintf(&b, "   Analysis: %s\n", analysis.AnalysisText)
		}
		if len(analysis.KeyFactors) > 0 {
			b.WriteString("   Key factors:\n")
			for _, factor := range analysis.KeyFactors {
				fmt.Fprintf(&b, "   - %s\n", factor)
			}
		}
		if analysis.Commentary != "" {
			fmt.Fprintf(&b, "   Commentary: %s\n", analysis.Commentary)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func impactLevel(score int) string {
	switch {
	case score <= 3:
		return "Low"
	case score <= 6:
		return "Medium"
	default:
		return "High"
	}
}

func eventTime(value string) string {
	if value == "" {
		return "All Day"
	}
	return value
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
