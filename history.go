package budgetgrid

import "sync"

// DefaultHistoryLimit bounds the number of events a History keeps.
const DefaultHistoryLimit = 100

// History is a bounded event history with an undo cursor. It implements
// HistoryView for stores that do not keep their own.
type History struct {
	mu     sync.RWMutex
	events []ChangeEvent
	index  int
	limit  int
}

// NewHistory creates an empty history keeping at most limit events.
// A non-positive limit uses DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{index: -1, limit: limit}
}

// EventHistory implements HistoryView. The returned slice must not be modified.
func (h *History) EventHistory() []ChangeEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.events
}

// EventIndex implements HistoryView.
func (h *History) EventIndex() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.index
}

// Len returns the number of recorded events.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events)
}

// Record updates the history after e was applied. Reverse tagged events move
// the cursor back, forward tagged events move it ahead, and any other
// traversible event discards the redo tail and becomes the newest entry.
// Events that cannot be traversed leave the history untouched.
func (h *History) Record(e ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch e.Meta {
	case MetaReverse:
		if h.index >= 0 {
			h.index--
		}
		return
	case MetaForward:
		if h.index < len(h.events)-1 {
			h.index++
		}
		return
	}
	if !EventCanTraverse(e) {
		return
	}

	events := append(h.events[:h.index+1:h.index+1], e)
	if over := len(events) - h.limit; over > 0 {
		events = events[over:]
	}
	h.events = events
	h.index = len(h.events) - 1
}

// Reset clears the history.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
	h.index = -1
}
