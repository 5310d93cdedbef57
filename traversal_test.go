package budgetgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type staticHistory struct {
	events []ChangeEvent
	index  int
}

func (h staticHistory) EventHistory() []ChangeEvent { return h.events }
func (h staticHistory) EventIndex() int             { return h.index }

func TestEventCanTraverse(t *testing.T) {
	assert.True(t, EventCanTraverse(NewCellChangeEvent(cell(ModelID(1), "a", 1, 2))))
	assert.False(t, EventCanTraverse(NewRowAddEvent(RowData{})))
	assert.False(t, EventCanTraverse(ChangeEvent{Payload: RowDelete{}}))
	assert.False(t, EventCanTraverse(ChangeEvent{}))
}

func TestReverseChangeEvent(t *testing.T) {
	e := NewCellChangeEvent(
		cell(ModelID(1), "a", 1, 2),
		cell(ModelID(1), "a", 2, 3),
		cell(ModelID(2), "b", "x", "y"),
	)
	rev, err := ReverseChangeEvent(e)
	require.NoError(t, err)
	assert.Equal(t, MetaReverse, rev.Meta)

	p := rev.Payload.(DataChange)
	require.Len(t, p.Changes, 2)
	assert.Equal(t, FieldChange{OldValue: 3, NewValue: 1}, p.Changes[0].Data["a"])
	assert.Equal(t, FieldChange{OldValue: "y", NewValue: "x"}, p.Changes[1].Data["b"])
}

func TestReverseChangeEvent_Involution(t *testing.T) {
	e := NewCellChangeEvent(cell(ModelID(4), "amount", 10, 20))
	once, err := ReverseChangeEvent(e)
	require.NoError(t, err)
	twice, err := ReverseChangeEvent(once)
	require.NoError(t, err)
	assert.Equal(t, e.Payload, twice.Payload)
}

func TestReverseChangeEvent_NotTraversible(t *testing.T) {
	_, err := ReverseChangeEvent(NewRowAddCountEvent(1))
	assert.ErrorIs(t, err, ErrNotTraversible)
}

func TestGetUndoEvent(t *testing.T) {
	first := NewCellChangeEvent(cell(ModelID(1), "a", 1, 2))
	second := NewCellChangeEvent(cell(ModelID(1), "a", 2, 3))
	view := staticHistory{events: []ChangeEvent{first, second}, index: 1}

	undo, ok := GetUndoEvent(view)
	require.True(t, ok)
	assert.Equal(t, MetaReverse, undo.Meta)
	assert.Equal(t, FieldChange{OldValue: 3, NewValue: 2}, undo.Payload.(DataChange).Changes[0].Data["a"])

	_, ok = GetUndoEvent(staticHistory{events: []ChangeEvent{first}, index: -1})
	assert.False(t, ok)
}

func TestGetUndoEvent_MissingEntryWarns(t *testing.T) {
	logs := observeLogs(t, zapcore.WarnLevel)
	_, ok := GetUndoEvent(staticHistory{index: 3})
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("undo requested but no event exists at the history cursor").Len())
}

func TestGetRedoEvent(t *testing.T) {
	first := NewCellChangeEvent(cell(ModelID(1), "a", 1, 2))
	second := NewCellChangeEvent(cell(ModelID(1), "a", 2, 3))

	redo, ok := GetRedoEvent(staticHistory{events: []ChangeEvent{first, second}, index: 0})
	require.True(t, ok)
	assert.Equal(t, MetaForward, redo.Meta)
	assert.Equal(t, second.Payload, redo.Payload)

	_, ok = GetRedoEvent(staticHistory{events: []ChangeEvent{first, second}, index: 1})
	assert.False(t, ok)

	redo, ok = GetRedoEvent(staticHistory{events: []ChangeEvent{first}, index: -1})
	require.True(t, ok)
	assert.Equal(t, first.Payload, redo.Payload)
}

// --- History ---

func TestHistory_RecordAndTraverse(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, -1, h.EventIndex())

	e1 := NewCellChangeEvent(cell(ModelID(1), "a", 1, 2))
	e2 := NewCellChangeEvent(cell(ModelID(1), "a", 2, 3))
	h.Record(e1)
	h.Record(NewRowAddCountEvent(1)) // ignored
	h.Record(e2)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.EventIndex())

	undo, ok := GetUndoEvent(h)
	require.True(t, ok)
	h.Record(undo)
	assert.Equal(t, 0, h.EventIndex())

	redo, ok := GetRedoEvent(h)
	require.True(t, ok)
	assert.Equal(t, e2.Payload, redo.Payload)
	h.Record(redo)
	assert.Equal(t, 1, h.EventIndex())
	assert.Equal(t, 2, h.Len())
}

func TestHistory_NewEditDropsRedoTail(t *testing.T) {
	h := NewHistory(10)
	for i := 0; i < 3; i++ {
		h.Record(NewCellChangeEvent(cell(ModelID(1), "a", i, i+1)))
	}
	h.Record(ChangeEvent{Payload: DataChange{}, Meta: MetaReverse})
	h.Record(ChangeEvent{Payload: DataChange{}, Meta: MetaReverse})
	assert.Equal(t, 0, h.EventIndex())

	h.Record(NewCellChangeEvent(cell(ModelID(2), "b", "x", "y")))
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.EventIndex())
	_, ok := GetRedoEvent(h)
	assert.False(t, ok)
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory(2)
	for i := 0; i < 5; i++ {
		h.Record(NewCellChangeEvent(cell(ModelID(1), "a", i, i+1)))
	}
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.EventIndex())
	events := h.EventHistory()
	assert.Equal(t, 4, events[1].Payload.(DataChange).Changes[0].Data["a"].OldValue)
}

func TestHistory_CursorBounds(t *testing.T) {
	h := NewHistory(5)
	h.Record(ChangeEvent{Payload: DataChange{}, Meta: MetaReverse})
	assert.Equal(t, -1, h.EventIndex())
	h.Record(ChangeEvent{Payload: DataChange{}, Meta: MetaForward})
	assert.Equal(t, -1, h.EventIndex())

	h.Record(NewCellChangeEvent(cell(ModelID(1), "a", 1, 2)))
	h.Reset()
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, -1, h.EventIndex())
}
