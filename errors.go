package budgetgrid

import "errors"

var (
	// ErrRowIDMismatch is returned when a change is folded into a row change for another row.
	ErrRowIDMismatch = errors.New("row id mismatch")

	// ErrMixedRowIDs is returned when a single reduction step receives changes for several rows.
	ErrMixedRowIDs = errors.New("changes span more than one row")

	// ErrMixedEvents is returned when events of different types or modes are consolidated together.
	ErrMixedEvents = errors.New("events cannot be consolidated together")

	// ErrNotTraversible is returned for events that have no inverse.
	ErrNotTraversible = errors.New("event is not traversible")

	// ErrNotInferable is returned when a column value cannot take part in pattern inference.
	ErrNotInferable = errors.New("value is not inferable")

	// ErrInvalidRowID is returned when a row id string has an unknown shape.
	ErrInvalidRowID = errors.New("invalid row id")

	// ErrInvalidCellValue is returned when pasted text does not fit the column type.
	ErrInvalidCellValue = errors.New("invalid cell value")

	// ErrBatcherClosed is returned by Submit after the batcher stopped.
	ErrBatcherClosed = errors.New("event batcher closed")
)
