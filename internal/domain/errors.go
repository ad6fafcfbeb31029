package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEventNotFound is returned when an analysis references an
	// event id that is not in storage.
	ErrEventNotFound = errors.New("event not found")

	// ErrMarketNotFound is returned when a run targets an unknown
	// market symbol.
	ErrMarketNotFound = errors.New("market not found")

	// ErrNoAPIKey aborts a run before any event is processed: without
	// a credential no analysis call can succeed.
	ErrNoAPIKey = errors.New("no API key configured")

	// ErrReportExists is returned when a report for the requested
	// (date, market) was already generated.
	ErrReportExists = errors.New("report already exists")
)

// AnalysisCallError wraps a transport failure of the reasoning
// service. It is fatal to the single event's analysis but the batch
// continues past it.
type AnalysisCallError struct {
	EventID int64
	Err     error
}

func (e *AnalysisCallError) Error() string {
	return fmt.Sprintf("analysis call for event %d: %v", e.EventID, e.Err)
}

func (e *AnalysisCallError) Unwrap() error { return e.Err }
