package calendar

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
)

const samplePage = `<html><body><table>
<tr class="js-event-item">
  <td class="time">08:30</td>
  <td class="left flagCur"><span class="ceFlags"></span> USD</td>
  <td class="sentiment">
    <i class="grayFullBullishIcon"></i><i class="grayFullBullishIcon"></i><i class="grayFullBullishIcon"></i>
  </td>
  <td class="event"><a href="#">CPI (YoY)</a></td>
  <td class="bold act">3.1%</td>
  <td class="fore">3.2%</td>
  <td class="prev">3.4%</td>
</tr>
<tr class="js-event-item">
  <td class="time">2:00 PM</td>
  <td class="left flagCur"> EUR</td>
  <td class="sentiment">
    <i class="grayFullBullishIcon"></i><i class="grayFullBullishIcon"></i>
  </td>
  <td class="event">German Buba Monthly Report</td>
  <td class="bold act">-</td>
  <td class="fore">-</td>
  <td class="prev">-</td>
</tr>
<tr class="js-event-item">
  <td class="time">All Day</td>
  <td class="left flagCur"> JPY</td>
  <td class="sentiment"><i class="grayFullBullishIcon"></i></td>
  <td class="event">Bank Holiday</td>
</tr>
<tr class="js-event-item">
  <td class="time">09:00</td>
  <td class="left flagCur"> GBP</td>
  <td class="sentiment"></td>
  <td class="event">   </td>
</tr>
</table></body></html>`

func TestParseCalendar(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	events, err := ParseCalendar(strings.NewReader(samplePage), day)
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events (nameless row skipped), got %d", len(events))
	}

	cpi := events[0]
	if cpi.Name != "CPI (YoY)" {
		t.Fatalf("unexpected name %q", cpi.Name)
	}
	if cpi.Time != "08:30" {
		t.Fatalf("unexpected time %q", cpi.Time)
	}
	if cpi.Currency != "USD" {
		t.Fatalf("unexpected currency %q", cpi.Currency)
	}
	if cpi.Importance != domain.ImportanceHigh {
		t.Fatalf("three bulls must map to High, got %s", cpi.Importance)
	}
	if cpi.Actual != "3.1%" || cpi.Forecast != "3.2%" || cpi.Previous != "3.4%" {
		t.Fatalf("unexpected values: %q %q %q", cpi.Actual, cpi.Forecast, cpi.Previous)
	}
	if !cpi.Date.Equal(day) {
		t.Fatalf("event must carry the requested day, got %v", cpi.Date)
	}

	buba := events[1]
	if buba.Importance != domain.ImportanceMedium {
		t.Fatalf("two bulls must map to Medium, got %s", buba.Importance)
	}
	if buba.Time != "14:00" {
		t.Fatalf("12-hour times must normalize, got %q", buba.Time)
	}
	if buba.Actual != "" || buba.Forecast != "" {
		t.Fatalf("dash placeholders must become empty, got %q %q", buba.Actual, buba.Forecast)
	}

	holiday := events[2]
	if holiday.Importance != domain.ImportanceLow {
		t.Fatalf("one bull must map to Low, got %s", holiday.Importance)
	}
	if holiday.Time != "" {
		t.Fatalf("all-day events carry no time, got %q", holiday.Time)
	}
}

func TestParseEventTime(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"08:30", "08:30"},
		{"  14:00 ", "14:00"},
		{"3:04 PM", "15:04"},
		{"All Day", ""},
		{"all day", ""},
		{"Tentative", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := parseEventTime(tc.in); got != tc.want {
			t.Errorf("parseEventTime(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "calendar.html")
	if err := os.WriteFile(path, []byte(samplePage), 0o644); err != nil {
		t.Fatalf("write sample page: %v", err)
	}

	day := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	source := NewFileSource(path, nil)
	events, err := source.EventsForDate(context.Background(), day)
	if err != nil {
		t.Fatalf("EventsForDate: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	t.Parallel()

	source := NewFileSource(filepath.Join(t.TempDir(), "missing.html"), nil)
	if _, err := source.EventsForDate(context.Background(), time.Now()); err == nil {
		t.Fatal("expected an error for a missing page")
	}
}
