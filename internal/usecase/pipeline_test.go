package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
)

func newTestPipeline(events *fakeEventStore, settings *fakeSettingsStore, analyzer EventAnalyzer) *Pipeline {
	return NewPipeline(PipelineDeps{
		Events:   events,
		Settings: settings,
		Analyzer: analyzer,
	})
}

func TestRunFailsFastWithoutAPIKey(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{respond: func(int) (string, error) { return relevantJSON(5, "neutral"), nil }}
	events := &fakeEventStore{events: []domain.Event{testEvent(1, domain.ImportanceHigh, "CPI Release")}}
	settings := &fakeSettingsStore{settings: domain.Settings{Model: "m", StarFilter: 1}}
	analyzer := newTestAnalyzer(events, newFakeAnalysisStore(), settings, chat)
	pipeline := newTestPipeline(events, settings, analyzer)

	_, _, err := pipeline.Run(context.Background(), testDay, "BTC", nil)
	if !errors.Is(err, domain.ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if chat.callCount() != 0 {
		t.Fatalf("no call may be attempted without a credential, got %d", chat.callCount())
	}
}

func TestRunSurvivesSingleEventFailure(t *testing.T) {
	t.Parallel()

	events := &fakeEventStore{events: []domain.Event{
		testEvent(1, domain.ImportanceHigh, "CPI Release"),
		testEvent(2, domain.ImportanceHigh, "Retail Sales"),
		testEvent(3, domain.ImportanceHigh, "Fed Speech"),
	}}
	chat := &fakeChat{respond: func(call int) (string, error) {
		if call == 2 {
			return "", errors.New("gateway timeout")
		}
		return relevantJSON(6, "bullish"), nil
	}}
	settings := &fakeSettingsStore{settings: domain.Settings{APIKey: "k", Model: "m", StarFilter: 1}}
	analyses := newFakeAnalysisStore()
	analyzer := newTestAnalyzer(events, analyses, settings, chat)
	pipeline := newTestPipeline(events, settings, analyzer)

	sink := &collectSink{}
	items, total, err := pipeline.Run(context.Background(), testDay, "BTC", sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 events iterated, got %d", total)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 analyses despite one failure, got %d", len(items))
	}
	if items[0].Event.ID != 1 || items[1].Event.ID != 3 {
		t.Fatalf("expected events 1 and 3 to survive, got %d and %d", items[0].Event.ID, items[1].Event.ID)
	}

	updates := sink.all()
	if len(updates) != 3 {
		t.Fatalf("expected one progress update per event, got %d", len(updates))
	}
	for i, update := range updates {
		want := fmt.Sprintf("%d/3", i+1)
		if !strings.Contains(update.Message, want) {
			t.Fatalf("update %d: expected message to contain %q, got %q", i, want, update.Message)
		}
		if update.Status != domain.RunRunning {
			t.Fatalf("update %d: expected running status, got %s", i, update.Status)
		}
	}
}

func TestRunSkipsFilteredAndIrrelevantEvents(t *testing.T) {
	t.Parallel()

	events := &fakeEventStore{events: []domain.Event{
		testEvent(1, domain.ImportanceLow, "Minor Release"),
		testEvent(2, domain.ImportanceHigh, "Rate Decision"),
	}}
	chat := &fakeChat{respond: func(int) (string, error) { return relevantJSON(8, "bullish"), nil }}
	settings := &fakeSettingsStore{settings: domain.Settings{APIKey: "k", Model: "m", StarFilter: 2}}
	analyzer := newTestAnalyzer(events, newFakeAnalysisStore(), settings, chat)
	pipeline := newTestPipeline(events, settings, analyzer)

	sink := &collectSink{}
	items, total, err := pipeline.Run(context.Background(), testDay, "BTC", sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 events iterated, got %d", total)
	}
	if len(items) != 1 {
		t.Fatalf("expected only the high-importance event analyzed, got %d", len(items))
	}
	if len(sink.all()) != 2 {
		t.Fatalf("skipped events still count for progress, got %d updates", len(sink.all()))
	}
}

func TestRunEmptyDayYieldsNoAnalyses(t *testing.T) {
	t.Parallel()

	settings := &fakeSettingsStore{settings: domain.Settings{APIKey: "k", Model: "m", StarFilter: 1}}
	events := &fakeEventStore{}
	analyzer := newTestAnalyzer(events, newFakeAnalysisStore(), settings, &fakeChat{})
	pipeline := newTestPipeline(events, settings, analyzer)

	items, total, err := pipeline.Run(context.Background(), testDay, "BTC", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected empty result, got %d items over %d events", len(items), total)
	}
}

type cancellingAnalyzer struct {
	cancel context.CancelFunc
}

func (c *cancellingAnalyzer) Analyze(ctx context.Context, _ int64, _ string) (*domain.Analysis, error) {
	c.cancel()
	return nil, ctx.Err()
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	events := &fakeEventStore{events: []domain.Event{
		testEvent(1, domain.ImportanceHigh, "CPI Release"),
		testEvent(2, domain.ImportanceHigh, "Retail Sales"),
	}}
	settings := &fakeSettingsStore{settings: domain.Settings{APIKey: "k", Model: "m", StarFilter: 1}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipeline := newTestPipeline(events, settings, &cancellingAnalyzer{cancel: cancel})

	sink := &collectSink{}
	_, _, err := pipeline.Run(ctx, testDay, "BTC", sink)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sink.all()) != 1 {
		t.Fatalf("run must stop at the first cancelled event, got %d updates", len(sink.all()))
	}
}
