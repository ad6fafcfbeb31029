package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
	"github.com/Lars-will/FOMO-Bot/internal/ports"
)

// SQLiteRepository backs all durable stores with a single SQLite
// database, mirroring how the rest of the toolchain reads it.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ports.EventStore    = (*SQLiteRepository)(nil)
	_ ports.AnalysisStore = (*SQLiteRepository)(nil)
	_ ports.MarketStore   = (*SQLiteRepository)(nil)
	_ ports.SettingsStore = (*SQLiteRepository)(nil)
	_ ports.ReportStore   = (*SQLiteRepository)(nil)
)

// NewSQLiteRepository opens (or creates) the database and runs
// migrations.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so report readers do not block the pipeline writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS markets (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT NOT NULL UNIQUE,
			description TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			llm_api_key TEXT,
			llm_model   TEXT,
			star_filter INTEGER,
			timezone    TEXT,
			created_at  INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS economic_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			date       TEXT NOT NULL,
			time       TEXT NOT NULL DEFAULT '',
			currency   TEXT,
			importance TEXT,
			event_name TEXT NOT NULL,
			actual     TEXT,
			forecast   TEXT,
			previous   TEXT,
			source_url TEXT,
			UNIQUE(date, event_name, time)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_date ON economic_events(date)`,

		`CREATE TABLE IF NOT EXISTS event_analyses (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id          INTEGER NOT NULL REFERENCES economic_events(id),
			market_symbol     TEXT NOT NULL,
			event_description TEXT,
			analysis_text     TEXT,
			impact_score      INTEGER,
			sentiment         TEXT,
			key_factors       TEXT,
			commentary        TEXT,
			created_at        INTEGER NOT NULL,
			UNIQUE(event_id, market_symbol)
		)`,

		`CREATE TABLE IF NOT EXISTS reports (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			date          TEXT NOT NULL,
			market_symbol TEXT NOT NULL,
			content       TEXT NOT NULL,
			event_count   INTEGER NOT NULL,
			created_at    INTEGER NOT NULL,
			UNIQUE(date, market_symbol)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// GetEvent loads one event by id; missing ids yield
// domain.ErrEventNotFound.
func (r *SQLiteRepository) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	query, args, err := sq.Select("id", "date", "time", "currency", "importance", "event_name",
		"actual", "forecast", "previous", "source_url").
		From("economic_events").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get event: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows iteration: %w", err)
		}
		return nil, domain.ErrEventNotFound
	}
	event, err := scanEvent(rows)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEventsForDate returns the day's events in time order; this is
// the iteration order the pipeline reports progress against.
func (r *SQLiteRepository) ListEventsForDate(ctx context.Context, day time.Time) ([]domain.Event, error) {
	query, args, err := sq.Select("id", "date", "time", "currency", "importance", "event_name",
		"actual", "forecast", "previous", "source_url").
		From("economic_events").
		Where(sq.Eq{"date": day.Format(domain.DateLayout)}).
		OrderBy("time ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list events: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return events, nil
}

// UpsertEvent inserts the event or, when (date, name, time) already
// exists, refreshes the mutable fields in place.
func (r *SQLiteRepository) UpsertEvent(ctx context.Context, event *domain.Event) error {
	query, args, err := sq.Insert("economic_events").
		Columns("date", "time", "currency", "importance", "event_name",
			"actual", "forecast", "previous", "source_url").
		Values(event.Date.Format(domain.DateLayout), event.Time, event.Currency,
			string(event.Importance), event.Name,
			event.Actual, event.Forecast, event.Previous, event.SourceURL).
		Suffix(`ON CONFLICT(date, event_name, time) DO UPDATE SET
			currency = excluded.currency,
			importance = excluded.importance,
			actual = excluded.actual,
			forecast = excluded.forecast,
			previous = excluded.previous,
			source_url = excluded.source_url`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert event: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}

	idQuery, idArgs, err := sq.Select("id").From("economic_events").
		Where(sq.Eq{
			"date":       event.Date.Format(domain.DateLayout),
			"event_name": event.Name,
			"time":       event.Time,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build event id lookup: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, idQuery, idArgs...).Scan(&event.ID); err != nil {
		return fmt.Errorf("event id lookup: %w", err)
	}

	return nil
}

// CountEventsForDate reports how many events exist for the day;
// ingestion uses it to scrape at most once per date.
func (r *SQLiteRepository) CountEventsForDate(ctx context.Context, day time.Time) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("economic_events").
		Where(sq.Eq{"date": day.Format(domain.DateLayout)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count events: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// FindAnalysis returns the stored analysis for the pair, or (nil, nil)
// when none exists.
func (r *SQLiteRepository) FindAnalysis(ctx context.Context, eventID int64, market string) (*domain.Analysis, error) {
	query, args, err := sq.Select("id", "event_id", "market_symbol", "event_description",
		"analysis_text", "impact_score", "sentiment", "key_factors", "commentary", "created_at").
		From("event_analyses").
		Where(sq.Eq{"event_id": eventID, "market_symbol": market}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find analysis: %w", err)
	}

	var (
		a          domain.Analysis
		factorsRaw sql.NullString
		createdAt  int64
		sentiment  string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.EventID, &a.MarketSymbol, &a.Description,
		&a.AnalysisText, &a.ImpactScore, &sentiment, &factorsRaw, &a.Commentary, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find analysis: %w", err)
	}

	a.Sentiment = domain.Sentiment(sentiment)
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	if factorsRaw.Valid && factorsRaw.String != "" {
		if err := json.Unmarshal([]byte(factorsRaw.String), &a.KeyFactors); err != nil {
			return nil, fmt.Errorf("decode key factors: %w", err)
		}
	}

	return &a, nil
}

// InsertAnalysis stores the analysis. The (event_id, market_symbol)
// unique index closes the memoize race: when a concurrent writer got
// there first, the existing row is read back and returned instead of
// producing a second one.
func (r *SQLiteRepository) InsertAnalysis(ctx context.Context, analysis *domain.Analysis) (*domain.Analysis, error) {
	factors, err := json.Marshal(analysis.KeyFactors)
	if err != nil {
		return nil, fmt.Errorf("encode key factors: %w", err)
	}
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}

	query, args, err := sq.Insert("event_analyses").
		Columns("event_id", "market_symbol", "event_description", "analysis_text",
			"impact_score", "sentiment", "key_factors", "commentary", "created_at").
		Values(analysis.EventID, analysis.MarketSymbol, analysis.Description, analysis.AnalysisText,
			analysis.ImpactScore, string(analysis.Sentiment), string(factors),
			analysis.Commentary, analysis.CreatedAt.Unix()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert analysis: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			existing, findErr := r.FindAnalysis(ctx, analysis.EventID, analysis.MarketSymbol)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("insert analysis: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("analysis id: %w", err)
	}
	analysis.ID = id
	return analysis, nil
}

// FindMarket resolves a symbol; unknown symbols yield
// domain.ErrMarketNotFound.
func (r *SQLiteRepository) FindMarket(ctx context.Context, symbol string) (*domain.Market, error) {
	query, args, err := sq.Select("id", "symbol", "description").From("markets").
		Where(sq.Eq{"symbol": symbol}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find market: %w", err)
	}

	var m domain.Market
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&m.ID, &m.Symbol, &m.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMarketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find market: %w", err)
	}
	return &m, nil
}

// ListMarkets returns all markets ordered by symbol.
func (r *SQLiteRepository) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	query, args, err := sq.Select("id", "symbol", "description").From("markets").
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list markets: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		var m domain.Market
		if err := rows.Scan(&m.ID, &m.Symbol, &m.Description); err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return markets, nil
}

// UpsertMarket adds the symbol or refreshes its description.
func (r *SQLiteRepository) UpsertMarket(ctx context.Context, market *domain.Market) error {
	query, args, err := sq.Insert("markets").
		Columns("symbol", "description").
		Values(market.Symbol, market.Description).
		Suffix("ON CONFLICT(symbol) DO UPDATE SET description = excluded.description").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert market: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert market: %w", err)
	}
	return nil
}

// Current returns the most recently saved settings row, or defaults
// when none was saved yet.
func (r *SQLiteRepository) Current(ctx context.Context) (domain.Settings, error) {
	settings := domain.Settings{
		Model:      "gpt-4o-mini",
		StarFilter: 1,
		Timezone:   "Europe/Berlin",
	}

	query, args, err := sq.Select("llm_api_key", "llm_model", "star_filter", "timezone").
		From("settings").
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return settings, fmt.Errorf("build settings lookup: %w", err)
	}

	var apiKey, model, timezone sql.NullString
	var starFilter sql.NullInt64
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&apiKey, &model, &starFilter, &timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("settings lookup: %w", err)
	}

	if apiKey.Valid {
		settings.APIKey = apiKey.String
	}
	if model.Valid && model.String != "" {
		settings.Model = model.String
	}
	if starFilter.Valid && starFilter.Int64 > 0 {
		settings.StarFilter = int(starFilter.Int64)
	}
	if timezone.Valid && timezone.String != "" {
		settings.Timezone = timezone.String
	}

	return settings, nil
}

// Save appends a new settings row; Current always reads the latest.
func (r *SQLiteRepository) Save(ctx context.Context, settings domain.Settings) error {
	query, args, err := sq.Insert("settings").
		Columns("llm_api_key", "llm_model", "star_filter", "timezone", "created_at").
		Values(settings.APIKey, settings.Model, settings.StarFilter, settings.Timezone,
			time.Now().UTC().Unix()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save settings: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// FindReport returns the stored report for (date, market), or
// (nil, nil) when none exists.
func (r *SQLiteRepository) FindReport(ctx context.Context, day time.Time, market string) (*domain.Report, error) {
	query, args, err := sq.Select("id", "date", "market_symbol", "content", "event_count", "created_at").
		From("reports").
		Where(sq.Eq{"date": day.Format(domain.DateLayout), "market_symbol": market}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find report: %w", err)
	}

	var (
		rep       domain.Report
		dateRaw   string
		createdAt int64
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&rep.ID, &dateRaw, &rep.MarketSymbol, &rep.Content, &rep.EventCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find report: %w", err)
	}

	rep.Date, err = time.Parse(domain.DateLayout, dateRaw)
	if err != nil {
		return nil, fmt.Errorf("parse report date: %w", err)
	}
	rep.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rep, nil
}

// SaveReport persists the rendered report and fills in its id.
func (r *SQLiteRepository) SaveReport(ctx context.Context, report *domain.Report) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	query, args, err := sq.Insert("reports").
		Columns("date", "market_symbol", "content", "event_count", "created_at").
		Values(report.Date.Format(domain.DateLayout), report.MarketSymbol,
			report.Content, report.EventCount, report.CreatedAt.Unix()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save report: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("report id: %w", err)
	}
	report.ID = id
	return nil
}

func scanEvent(rows *sql.Rows) (domain.Event, error) {
	var (
		event      domain.Event
		dateRaw    string
		importance string
	)
	if err := rows.Scan(&event.ID, &dateRaw, &event.Time, &event.Currency, &importance,
		&event.Name, &event.Actual, &event.Forecast, &event.Previous, &event.SourceURL); err != nil {
		return domain.Event{}, fmt.Errorf("scan event: %w", err)
	}

	day, err := time.Parse(domain.DateLayout, dateRaw)
	if err != nil {
		return domain.Event{}, fmt.Errorf("parse event date: %w", err)
	}
	event.Date = day
	event.Importance = domain.Importance(importance)
	return event, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
