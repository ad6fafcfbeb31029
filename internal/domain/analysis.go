package domain

import "time"

// Sentiment is the directional read of an analysis.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// Analysis is the AI verdict for one (event, market) pair. At most one
// row exists per pair; a repeated request returns the stored one.
type Analysis struct {
	ID           int64
	EventID      int64
	MarketSymbol string
	Description  string
	AnalysisText string
	ImpactScore  int // 1-10
	Sentiment    Sentiment
	KeyFactors   []string
	Commentary   string
	CreatedAt    time.Time
}

// EventAnalysis joins an event with its analysis for one market.
// This is what the report renderer consumes.
type EventAnalysis struct {
	Event    Event
	Analysis Analysis
}

// Report is a rendered artifact for one (date, market).
type Report struct {
	ID           int64
	Date         time.Time
	MarketSymbol string
	Content      string
	EventCount   int
	CreatedAt    time.Time
}
