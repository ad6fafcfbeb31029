package domain

import "time"

// DateLayout is how calendar days are exchanged with storage.
const DateLayout = "2006-01-02"

// Importance is the scraped star level of a calendar event.
type Importance string

const (
	ImportanceLow    Importance = "Low"
	ImportanceMedium Importance = "Medium"
	ImportanceHigh   Importance = "High"
)

// Rank maps the importance level onto the numeric scale the star
// filter compares against. Unknown values count as Low.
func (i Importance) Rank() int {
	switch i {
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	default:
		return 1
	}
}

// Event is one economic-calendar entry. Events are market-agnostic:
// which markets care about them is decided later, per analysis.
// Identity within a day is (Date, Name, Time).
type Event struct {
	ID         int64
	Date       time.Time
	Time       string // already localized by ingestion; empty for all-day events
	Currency   string
	Importance Importance
	Name       string
	Actual     string
	Forecast   string
	Previous   string
	SourceURL  string
}

// Market is a tradable instrument reports can be generated for.
type Market struct {
	ID          int64
	Symbol      string
	Description string
}

// Settings is the operator-editable configuration record.
type Settings struct {
	APIKey     string
	Model      string
	StarFilter int
	Timezone   string
}
