package budgetgrid

import (
	"fmt"

	"go.uber.org/zap"
)

// traversibleEvents lists the event types that can be undone and redone, each
// with a conditional that must also hold for a given event.
var traversibleEvents = map[EventType]func(ChangeEvent) bool{
	EventDataChange: func(ChangeEvent) bool { return true },
}

// EventCanTraverse reports whether e can be reversed and replayed.
func EventCanTraverse(e ChangeEvent) bool {
	cond, ok := traversibleEvents[e.Type()]
	return ok && cond(e)
}

// ReverseChangeEvent returns the inverse of a traversible event, tagged
// MetaReverse. Row changes are consolidated before old and new values swap.
func ReverseChangeEvent(e ChangeEvent) (ChangeEvent, error) {
	if !EventCanTraverse(e) {
		return ChangeEvent{}, fmt.Errorf("reverse %s event: %w", e.Type(), ErrNotTraversible)
	}
	p := e.Payload.(DataChange)
	consolidated, err := ConsolidateRowChanges(p.Changes)
	if err != nil {
		return ChangeEvent{}, fmt.Errorf("reverse dataChange event: %w", err)
	}
	reversed := make([]RowChange, 0, len(consolidated))
	for _, rc := range consolidated {
		inv := RowChange{ID: rc.ID, Data: make(map[string]FieldChange, len(rc.Data))}
		for field, fc := range rc.Data {
			inv.Data[field] = fc.Reversed()
		}
		reversed = append(reversed, inv)
	}
	return ChangeEvent{Payload: DataChange{Changes: reversed}, Meta: MetaReverse}, nil
}

// HistoryView is the read-only part of the store that owns the event history.
// EventIndex points at the most recently applied event; -1 means nothing to undo.
type HistoryView interface {
	EventHistory() []ChangeEvent
	EventIndex() int
}

// GetUndoEvent returns the inverse of the event at the history cursor.
func GetUndoEvent(view HistoryView) (ChangeEvent, bool) {
	index := view.EventIndex()
	if index == -1 {
		return ChangeEvent{}, false
	}
	history := view.EventHistory()
	if index < 0 || index >= len(history) {
		Logger().Warn("undo requested but no event exists at the history cursor",
			zap.Int("eventIndex", index),
			zap.Int("historyLength", len(history)),
		)
		return ChangeEvent{}, false
	}
	reversed, err := ReverseChangeEvent(history[index])
	if err != nil {
		Logger().Warn("undo requested for an event that cannot be reversed",
			zap.Int("eventIndex", index),
			zap.Error(err),
		)
		return ChangeEvent{}, false
	}
	return reversed, true
}

// GetRedoEvent returns the event following the history cursor tagged MetaForward.
func GetRedoEvent(view HistoryView) (ChangeEvent, bool) {
	history := view.EventHistory()
	next := view.EventIndex() + 1
	if next < 0 || next >= len(history) {
		return ChangeEvent{}, false
	}
	e := history[next]
	e.Meta = MetaForward
	return e, true
}
