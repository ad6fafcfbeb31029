package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
)

type fakeEventStore struct {
	events []domain.Event
}

func (f *fakeEventStore) GetEvent(_ context.Context, id int64) (*domain.Event, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			event := f.events[i]
			return &event, nil
		}
	}
	return nil, domain.ErrEventNotFound
}

func (f *fakeEventStore) ListEventsForDate(_ context.Context, day time.Time) ([]domain.Event, error) {
	var out []domain.Event
	for _, event := range f.events {
		if event.Date.Format(domain.DateLayout) == day.Format(domain.DateLayout) {
			out = append(out, event)
		}
	}
	return out, nil
}

func (f *fakeEventStore) UpsertEvent(_ context.Context, event *domain.Event) error {
	if event.ID == 0 {
		event.ID = int64(len(f.events) + 1)
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventStore) CountEventsForDate(ctx context.Context, day time.Time) (int, error) {
	events, err := f.ListEventsForDate(ctx, day)
	return len(events), err
}

type fakeAnalysisStore struct {
	mu      sync.Mutex
	rows    map[string]domain.Analysis
	nextID  int64
	inserts int
}

func newFakeAnalysisStore() *fakeAnalysisStore {
	return &fakeAnalysisStore{rows: map[string]domain.Analysis{}}
}

func analysisKey(eventID int64, market string) string {
	return fmt.Sprintf("%d/%s", eventID, market)
}

func (f *fakeAnalysisStore) FindAnalysis(_ context.Context, eventID int64, market string) (*domain.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[analysisKey(eventID, market)]; ok {
		return &row, nil
	}
	return nil, nil
}

func (f *fakeAnalysisStore) InsertAnalysis(_ context.Context, analysis *domain.Analysis) (*domain.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := analysisKey(analysis.EventID, analysis.MarketSymbol)
	if existing, ok := f.rows[key]; ok {
		return &existing, nil
	}

	f.nextID++
	f.inserts++
	analysis.ID = f.nextID
	analysis.CreatedAt = time.Now().UTC()
	f.rows[key] = *analysis
	return analysis, nil
}

func (f *fakeAnalysisStore) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts
}

type fakeSettingsStore struct {
	settings domain.Settings
}

func (f *fakeSettingsStore) Current(context.Context) (domain.Settings, error) {
	return f.settings, nil
}

func (f *fakeSettingsStore) Save(_ context.Context, settings domain.Settings) error {
	f.settings = settings
	return nil
}

type fakeChat struct {
	mu      sync.Mutex
	calls   int
	respond func(call int) (string, error)
}

func (f *fakeChat) Complete(context.Context, string, string, string) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return "", fmt.Errorf("no canned response")
	}
	return respond(call)
}

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type nopGate struct{}

func (nopGate) Do(_ context.Context, fn func() error) error { return fn() }

type collectSink struct {
	mu      sync.Mutex
	updates []domain.RunUpdate
}

func (c *collectSink) Publish(update domain.RunUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, update)
}

func (c *collectSink) all() []domain.RunUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.RunUpdate(nil), c.updates...)
}

type fakeMarketStore struct {
	markets []domain.Market
}

func (f *fakeMarketStore) FindMarket(_ context.Context, symbol string) (*domain.Market, error) {
	for i := range f.markets {
		if f.markets[i].Symbol == symbol {
			market := f.markets[i]
			return &market, nil
		}
	}
	return nil, domain.ErrMarketNotFound
}

func (f *fakeMarketStore) ListMarkets(context.Context) ([]domain.Market, error) {
	return append([]domain.Market(nil), f.markets...), nil
}

func (f *fakeMarketStore) UpsertMarket(_ context.Context, market *domain.Market) error {
	f.markets = append(f.markets, *market)
	return nil
}

type fakeReportStore struct {
	mu      sync.Mutex
	reports map[string]domain.Report
	nextID  int64
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: map[string]domain.Report{}}
}

func reportKey(day time.Time, market string) string {
	return day.Format(domain.DateLayout) + "/" + market
}

func (f *fakeReportStore) FindReport(_ context.Context, day time.Time, market string) (*domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if report, ok := f.reports[reportKey(day, market)]; ok {
		return &report, nil
	}
	return nil, nil
}

func (f *fakeReportStore) SaveReport(_ context.Context, report *domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	report.ID = f.nextID
	f.reports[reportKey(report.Date, report.MarketSymbol)] = *report
	return nil
}
