package domain

import "time"

// RunStatus is the externally observable state of one report run.
type RunStatus string

const (
	RunPending  RunStatus = "pending"
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunError    RunStatus = "error"
)

// Terminal reports whether no further updates may follow.
func (s RunStatus) Terminal() bool {
	return s == RunComplete || s == RunError
}

// RunResult summarizes a finished run.
type RunResult struct {
	TotalEvents   int
	AnalyzedCount int
	ReportID      int64
}

// RunUpdate is one progress record delivered to a run's observer.
// A run emits any number of RunRunning updates followed by exactly
// one RunComplete or RunError.
type RunUpdate struct {
	Status    RunStatus
	Message   string
	Progress  int // 0-100
	Timestamp time.Time
	Result    *RunResult
}
