package budgetgrid

// EventType names a kind of table change event.
type EventType string

const (
	EventDataChange         EventType = "dataChange"
	EventRowAdd             EventType = "rowAdd"
	EventRowDelete          EventType = "rowDelete"
	EventRowInsert          EventType = "rowInsert"
	EventRowPositionChanged EventType = "rowPositionChanged"
	EventRowAddToGroup      EventType = "rowAddToGroup"
	EventRowRemoveFromGroup EventType = "rowRemoveFromGroup"

	// Control events carry results back from the change handler and are never reversed.
	EventModelsUpdated         EventType = "modelsUpdated"
	EventModelsAdded           EventType = "modelsAdded"
	EventUpdateRows            EventType = "updateRows"
	EventPlaceholdersActivated EventType = "placeholdersActivated"

	// Meta events only request undo (reverse) or redo (forward).
	EventForward EventType = "forward"
	EventReverse EventType = "reverse"
)

// IsMeta reports whether t is an undo/redo request.
func (t EventType) IsMeta() bool {
	return t == EventForward || t == EventReverse
}

// IsControl reports whether t is a control event.
func (t EventType) IsControl() bool {
	switch t {
	case EventModelsUpdated, EventModelsAdded, EventUpdateRows, EventPlaceholdersActivated:
		return true
	}
	return false
}

// Meta tags an event produced by undo or redo.
type Meta string

const (
	MetaNone    Meta = ""
	MetaForward Meta = "forward"
	MetaReverse Meta = "reverse"
)

// Payload is the type specific body of a ChangeEvent. The set of payloads is
// closed; every implementation lives in this file.
type Payload interface {
	EventType() EventType
	isPayload()
}

// ChangeEvent is one user driven table mutation, or a control/meta event.
type ChangeEvent struct {
	Payload Payload
	Meta    Meta
}

// Type returns the event type of the payload.
func (e ChangeEvent) Type() EventType {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.EventType()
}

// NewDataChangeEvent builds a dataChange event.
func NewDataChangeEvent(changes ...RowChange) ChangeEvent {
	return ChangeEvent{Payload: DataChange{Changes: changes}}
}

// NewCellChangeEvent builds a dataChange event from single cell edits.
func NewCellChangeEvent(changes ...CellChange) ChangeEvent {
	rcs := make([]RowChange, 0, len(changes))
	for _, c := range changes {
		rcs = append(rcs, CellChangeToRowChange(c))
	}
	return NewDataChangeEvent(rcs...)
}

// NewRowAddEvent builds a rowAdd event carrying explicit row data.
func NewRowAddEvent(data ...RowData) ChangeEvent {
	return ChangeEvent{Payload: RowAdd{Mode: RowAddByData, Data: data}}
}

// NewRowAddAtIndexEvent builds a rowAdd event inserting count rows at index.
func NewRowAddAtIndexEvent(index, count int) ChangeEvent {
	return ChangeEvent{Payload: RowAdd{Mode: RowAddAtIndex, Index: index, Count: count}}
}

// NewRowAddCountEvent builds a rowAdd event appending count generated rows.
func NewRowAddCountEvent(count int) ChangeEvent {
	return ChangeEvent{Payload: RowAdd{Mode: RowAddByCount, Count: count}}
}

// DataChange carries one or many row changes.
type DataChange struct {
	Changes []RowChange
}

// RowAddMode selects which variant of RowAdd is populated.
type RowAddMode int

const (
	RowAddByData RowAddMode = iota
	RowAddAtIndex
	RowAddByCount
)

// RowAdd adds rows either from explicit data, at an index, or by count.
// Only the fields of the selected Mode are meaningful.
type RowAdd struct {
	Mode  RowAddMode
	Data  []RowData
	Index int
	Count int
}

// HasData reports whether the event carries explicit row data.
func (p RowAdd) HasData() bool { return p.Mode == RowAddByData }

// RowDelete removes rows.
type RowDelete struct {
	IDs []RowID
}

// RowInsert inserts a row with data before the row at Index.
type RowInsert struct {
	Index int
	Data  RowData
}

// RowPositionChanged moves a row so that it follows Previous (nil moves it to the top).
type RowPositionChanged struct {
	ID       RowID
	Previous *RowID
	NewIndex int
}

// RowAddToGroup puts model rows into a group.
type RowAddToGroup struct {
	Group RowID
	IDs   []RowID
}

// RowRemoveFromGroup takes model rows out of their group.
type RowRemoveFromGroup struct {
	IDs []RowID
	// Group is optional; the zero id means "whatever group holds the row".
	Group RowID
}

// ModelsUpdated replaces models with the versions returned by the backend.
type ModelsUpdated struct {
	Models []Row
}

// ModelsAdded appends models returned by the backend.
type ModelsAdded struct {
	Models []Row
}

// UpdateRows patches displayed rows in place.
type UpdateRows struct {
	Rows []Row
}

// PlaceholderActivation pairs a placeholder with the model created for it.
type PlaceholderActivation struct {
	Placeholder RowID
	Model       Row
}

// PlaceholdersActivated turns placeholders into persisted model rows.
type PlaceholdersActivated struct {
	Activations []PlaceholderActivation
}

// Forward requests a redo.
type Forward struct{}

// Reverse requests an undo.
type Reverse struct{}

func (DataChange) EventType() EventType            { return EventDataChange }
func (RowAdd) EventType() EventType                { return EventRowAdd }
func (RowDelete) EventType() EventType             { return EventRowDelete }
func (RowInsert) EventType() EventType             { return EventRowInsert }
func (RowPositionChanged) EventType() EventType    { return EventRowPositionChanged }
func (RowAddToGroup) EventType() EventType         { return EventRowAddToGroup }
func (RowRemoveFromGroup) EventType() EventType    { return EventRowRemoveFromGroup }
func (ModelsUpdated) EventType() EventType         { return EventModelsUpdated }
func (ModelsAdded) EventType() EventType           { return EventModelsAdded }
func (UpdateRows) EventType() EventType            { return EventUpdateRows }
func (PlaceholdersActivated) EventType() EventType { return EventPlaceholdersActivated }
func (Forward) EventType() EventType               { return EventForward }
func (Reverse) EventType() EventType               { return EventReverse }

func (DataChange) isPayload()            {}
func (RowAdd) isPayload()                {}
func (RowDelete) isPayload()             {}
func (RowInsert) isPayload()             {}
func (RowPositionChanged) isPayload()    {}
func (RowAddToGroup) isPayload()         {}
func (RowRemoveFromGroup) isPayload()    {}
func (ModelsUpdated) isPayload()         {}
func (ModelsAdded) isPayload()           {}
func (UpdateRows) isPayload()            {}
func (PlaceholdersActivated) isPayload() {}
func (Forward) isPayload()               {}
func (Reverse) isPayload()               {}
