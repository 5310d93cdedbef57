package budgetgrid

import (
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultDataChangeWindow is how long a dataChange waits for follow-up edits.
	DefaultDataChangeWindow = 200 * time.Millisecond
	// DefaultRowAddWindow is how long a rowAdd with data waits for follow-up rows.
	DefaultRowAddWindow = 500 * time.Millisecond
)

// Options holds configuration for the EventBatcher.
type Options struct {
	dataChangeWindow time.Duration
	rowAddWindow     time.Duration
	logger           *zap.Logger
	metrics          *Metrics
	historyView      HistoryView
	history          *History
	maxInFlight      int
}

func defaultOptions() *Options {
	return &Options{
		dataChangeWindow: DefaultDataChangeWindow,
		rowAddWindow:     DefaultRowAddWindow,
	}
}

// Option configures the EventBatcher.
type Option func(*Options)

// WithDataChangeWindow sets the debounce window for dataChange events (default: 200ms).
func WithDataChangeWindow(d time.Duration) Option {
	return func(o *Options) { o.dataChangeWindow = d }
}

// WithRowAddWindow sets the debounce window for rowAdd events with data (default: 500ms).
func WithRowAddWindow(d time.Duration) Option {
	return func(o *Options) { o.rowAddWindow = d }
}

// WithLogger sets the logger used by the batcher (default: the package logger).
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithMetrics records batcher activity into m.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.metrics = m }
}

// WithHistoryView resolves undo/redo requests against a history owned by an
// external store. The store is responsible for moving its own cursor.
func WithHistoryView(v HistoryView) Option {
	return func(o *Options) {
		o.historyView = v
		o.history = nil
	}
}

// WithHistory resolves undo/redo requests against h and records every event
// the handler accepted. Rejected dispatches never become undo steps. Events
// are recorded in the order their handler calls complete.
func WithHistory(h *History) Option {
	return func(o *Options) {
		o.history = h
		o.historyView = h
	}
}

// WithMaxInFlight limits concurrently running handler calls. When the limit is
// reached the batcher waits for a slot before dispatching more (default: no limit).
func WithMaxInFlight(n int) Option {
	return func(o *Options) { o.maxInFlight = n }
}
