// Package calendar parses economic-calendar markup into events. How
// the markup gets here (browser automation, a proxy, a saved page) is
// somebody else's problem; this package starts at the document.
package calendar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
	"github.com/Lars-will/FOMO-Bot/internal/ports"
)

const calendarSourceURL = "https://www.investing.com/economic-calendar/"

// ParseCalendar extracts the event rows of an investing.com economic
// calendar page. Rows it cannot make sense of are skipped.
func ParseCalendar(r io.Reader, day time.Time) ([]domain.Event, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var events []domain.Event
	doc.Find("tr.js-event-item").Each(func(i int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find(".event").First().Text())
		if name == "" {
			return
		}

		bulls := row.Find(".sentiment i.grayFullBullishIcon").Length()

		events = append(events, domain.Event{
			Date:       day,
			Time:       parseEventTime(row.Find(".time").First().Text()),
			Currency:   strings.TrimSpace(row.Find(".left.flagCur").First().Text()),
			Importance: importanceFromBulls(bulls),
			Name:       name,
			Actual:     cellValue(row, "td[class*='act']"),
			Forecast:   cellValue(row, "td[class*='fore']"),
			Previous:   cellValue(row, "td[class*='prev']"),
			SourceURL:  calendarSourceURL,
		})
	})

	return events, nil
}

// parseEventTime keeps HH:MM times and drops everything else; an
// empty string marks an all-day event.
func parseEventTime(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" || strings.EqualFold(text, "All Day") {
		return ""
	}
	if !strings.Contains(text, ":") {
		return ""
	}
	if parsed, err := time.Parse("3:04 PM", text); err == nil {
		return parsed.Format("15:04")
	}
	if parsed, err := time.Parse("15:04", text); err == nil {
		return parsed.Format("15:04")
	}
	return ""
}

func importanceFromBulls(count int) domain.Importance {
	switch {
	case count >= 3:
		return domain.ImportanceHigh
	case count == 2:
		return domain.ImportanceMedium
	default:
		return domain.ImportanceLow
	}
}

func cellValue(row *goquery.Selection, selector string) string {
	value := strings.TrimSpace(row.Find(selector).First().Text())
	if value == "-" {
		return ""
	}
	return value
}

// FileSource feeds ingestion from a calendar page saved to disk.
type FileSource struct {
	path   string
	logger *slog.Logger
}

var _ ports.CalendarSource = (*FileSource)(nil)

// NewFileSource points the source at a saved HTML document.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// EventsForDate parses the saved page and stamps its rows with the
// requested day.
func (s *FileSource) EventsForDate(ctx context.Context, day time.Time) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open calendar page: %w", err)
	}
	defer f.Close()

	events, err := ParseCalendar(f, day)
	if err != nil {
		return nil, fmt.Errorf("parse calendar page %s: %w", s.path, err)
	}

	if s.logger != nil {
		s.logger.Debug("calendar page parsed", "path", s.path, "events", len(events))
	}
	return events, nil
}
