// Package progress delivers run status updates from the pipeline to
// whoever is watching a run, typically a live status page.
package progress

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Lars-will/FOMO-Bot/internal/domain"
)

const (
	// defaultBuffer bounds the per-run backlog; once full the oldest
	// update is dropped so publishing never blocks the pipeline.
	defaultBuffer = 64

	// DefaultGrace is how long a finished run's channel stays up so a
	// slow observer can still read the terminal update.
	DefaultGrace = 30 * time.Second
)

// Hub keeps one update channel per active run. Updates arrive in
// publish order; a subscriber that attaches late misses the updates
// published before it attached.
type Hub struct {
	mu     sync.Mutex
	topics map[string]*topic
	grace  time.Duration
	logger *slog.Logger
}

type topic struct {
	ch     chan domain.RunUpdate
	closed bool
}

// NewHub builds an empty hub. A non-positive grace falls back to the
// default window.
func NewHub(grace time.Duration, logger *slog.Logger) *Hub {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Hub{
		topics: map[string]*topic{},
		grace:  grace,
		logger: logger,
	}
}

// Open registers a run id so updates can be published to it.
func (h *Hub) Open(runID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.topics[runID]; ok {
		return
	}
	h.topics[runID] = &topic{ch: make(chan domain.RunUpdate, defaultBuffer)}
}

// Subscribe returns the update channel for a run. The channel is
// closed once the run finished and the grace window elapsed. The
// second return is false for unknown runs.
func (h *Hub) Subscribe(runID string) (<-chan domain.RunUpdate, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[runID]
	if !ok {
		return nil, false
	}
	return t.ch, true
}

// Publish appends an update to the run's channel without blocking:
// when the backlog is full the oldest update is dropped. A terminal
// update schedules the topic teardown.
func (h *Hub) Publish(runID string, update domain.RunUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[runID]
	if !ok || t.closed {
		h.debug("progress update dropped", "run_id", runID, "status", update.Status)
		return
	}

	select {
	case t.ch <- update:
	default:
		select {
		case <-t.ch:
		default:
		}
		select {
		case t.ch <- update:
		default:
		}
	}

	if update.Status.Terminal() {
		time.AfterFunc(h.grace, func() { h.teardown(runID) })
	}
}

// Sink adapts the hub to the per-run ProgressSink the pipeline takes.
func (h *Hub) Sink(runID string) *Sink {
	return &Sink{hub: h, runID: runID}
}

func (h *Hub) teardown(runID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[runID]
	if !ok || t.closed {
		return
	}
	t.closed = true
	close(t.ch)
	delete(h.topics, runID)
	h.debug("progress topic removed", "run_id", runID)
}

func (h *Hub) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

// Sink publishes updates for a single run.
type Sink struct {
	hub   *Hub
	runID string
}

// Publish forwards the update to the hub under the bound run id.
func (s *Sink) Publish(update domain.RunUpdate) {
	s.hub.Publish(s.runID, update)
}
