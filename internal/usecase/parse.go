package usecase

import (
	"encoding/json"
	"strings"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
)

const (
	defaultImpactScore = 5

	fallbackDescription = "Event description not available in this format."
	fallbackCommentary  = "Expert commentary not available in this format."
)

// analysisResult is the structured payload the prompt asks the model
// to emit.
type analysisResult struct {
	IsRelevant       *bool    `json:"is_relevant"`
	EventDescription string   `json:"event_description"`
	AnalysisText     string   `json:"analysis_text"`
	ImpactScore      int      `json:"impact_score"`
	SentimentSummary string   `json:"sentiment_summary"`
	KeyFactors       []string `json:"key_factors"`
	ExpertCommentary string   `json:"expert_commentary"`
}

// Relevant treats a missing is_relevant field as relevant.
func (r analysisResult) Relevant() bool {
	return r.IsRelevant == nil || *r.IsRelevant
}

// Sentiment normalizes the free-form sentiment string.
func (r analysisResult) Sentiment() domain.Sentiment {
	switch strings.ToLower(strings.TrimSpace(r.SentimentSummary)) {
	case string(domain.SentimentBullish):
		return domain.SentimentBullish
	case string(domain.SentimentBearish):
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}

// parseAnalysis turns the raw model output into a usable result. It
// tries a strict JSON parse first (tolerating a markdown code fence),
// then degrades to scanning the text for an impact score and a
// sentiment keyword. Malformed output never fails the operation.
func parseAnalysis(raw string) analysisResult {
	cleaned := stripCodeFence(raw)

	if strings.HasPrefix(cleaned, "{") {
		var result analysisResult
		if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
			if result.ImpactScore < 1 || result.ImpactScore > 10 {
				result.ImpactScore = defaultImpactScore
			}
			return result
		}
	}

	return fallbackParse(raw)
}

// fallbackParse is a best-effort salvage of non-JSON model output,
// not a contract: it recovers a 1-10 number from lines mentioning
// "impact" and a bullish/bearish keyword from the whole text.
func fallbackParse(raw string) analysisResult {
	result := analysisResult{
		EventDescription: fallbackDescription,
		AnalysisText:     raw,
		ImpactScore:      defaultImpactScore,
		SentimentSummary: string(domain.SentimentNeutral),
		ExpertCommentary: fallbackCommentary,
	}

	for _, line := range strings.Split(raw, "\n") {
		if !strings.Contains(strings.ToLower(line), "impact") {
			continue
		}
		if score, ok := digitsToScore(line); ok {
			result.ImpactScore = score
		}
	}

	lower := strings.ToLower(raw)
	if strings.Contains(lower, "bullish") {
		result.SentimentSummary = string(domain.SentimentBullish)
	} else if strings.Contains(lower, "bearish") {
		result.SentimentSummary = string(domain.SentimentBearish)
	}

	return result
}

// digitsToScore concatenates the digits of a line and accepts the
// value only when it lands in the 1-10 scale, so "impact 7" yields 7
// while a line with a stray year in it is ignored.
func digitsToScore(line string) (int, bool) {
	score := 0
	seen := false
	for _, r := range line {
		if r < '0' || r > '9' {
			continue
		}
		seen = true
		score = score*10 + int(r-'0')
		if score > 10 {
			return 0, false
		}
	}
	if !seen || score < 1 {
		return 0, false
	}
	return score, true
}

func stripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
