package budgetgrid

import (
	"fmt"

	"go.uber.org/zap"
)

// CellChange is a single attribute edit on a single row.
type CellChange struct {
	Field    string
	ID       RowID
	OldValue any
	NewValue any
}

// FieldChange is the net change of one field.
type FieldChange struct {
	OldValue any
	NewValue any
}

// Reversed swaps the old and new value.
func (f FieldChange) Reversed() FieldChange {
	return FieldChange{OldValue: f.NewValue, NewValue: f.OldValue}
}

// RowChange is the net delta of one row, keyed by field.
type RowChange struct {
	ID   RowID
	Data map[string]FieldChange
}

// Clone returns a copy that does not share the field map.
func (rc RowChange) Clone() RowChange {
	out := RowChange{ID: rc.ID, Data: make(map[string]FieldChange, len(rc.Data))}
	for k, v := range rc.Data {
		out.Data[k] = v
	}
	return out
}

// CellChanges expands the row change back into cell changes. Field order is unspecified.
func (rc RowChange) CellChanges() []CellChange {
	out := make([]CellChange, 0, len(rc.Data))
	for field, fc := range rc.Data {
		out = append(out, CellChange{Field: field, ID: rc.ID, OldValue: fc.OldValue, NewValue: fc.NewValue})
	}
	return out
}

// CellChangeToRowChange wraps a single cell change into a one field row change.
func CellChangeToRowChange(c CellChange) RowChange {
	return RowChange{
		ID:   c.ID,
		Data: map[string]FieldChange{c.Field: {OldValue: c.OldValue, NewValue: c.NewValue}},
	}
}

// AddCellChangeToRowChange folds c into rc. A field seen for the first time is
// inserted as is; otherwise the original old value is kept and the new value
// is overwritten. rc is not modified.
func AddCellChangeToRowChange(rc RowChange, c CellChange) (RowChange, error) {
	if c.ID != rc.ID {
		return rc, fmt.Errorf("add change for row %s to change of row %s: %w", c.ID, rc.ID, ErrRowIDMismatch)
	}
	out := rc.Clone()
	if existing, ok := out.Data[c.Field]; ok {
		out.Data[c.Field] = FieldChange{OldValue: existing.OldValue, NewValue: c.NewValue}
	} else {
		out.Data[c.Field] = FieldChange{OldValue: c.OldValue, NewValue: c.NewValue}
	}
	return out, nil
}

// addRowChangeToRowChange folds every field of next into rc with the same
// first-old-value, last-new-value rule.
func addRowChangeToRowChange(rc, next RowChange) (RowChange, error) {
	if next.ID != rc.ID {
		return rc, fmt.Errorf("merge change for row %s into change of row %s: %w", next.ID, rc.ID, ErrRowIDMismatch)
	}
	out := rc.Clone()
	for field, fc := range next.Data {
		if existing, ok := out.Data[field]; ok {
			out.Data[field] = FieldChange{OldValue: existing.OldValue, NewValue: fc.NewValue}
		} else {
			out.Data[field] = fc
		}
	}
	return out, nil
}

// groupByRow partitions items by row id, keeping the order in which ids first
// appear and the order of items within each id.
func groupByRow[T any](items []T, id func(T) RowID) [][]T {
	index := make(map[RowID]int)
	var groups [][]T
	for _, it := range items {
		k := id(it)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], it)
	}
	return groups
}

// reduceCellChanges folds changes that all belong to one row.
func reduceCellChanges(changes []CellChange) (RowChange, error) {
	if len(changes) == 0 {
		return RowChange{}, nil
	}
	rc := RowChange{ID: changes[0].ID, Data: make(map[string]FieldChange)}
	for _, c := range changes {
		if c.ID != rc.ID {
			return RowChange{}, fmt.Errorf("reduce cell changes for %s and %s: %w", rc.ID, c.ID, ErrMixedRowIDs)
		}
		var err error
		if rc, err = AddCellChangeToRowChange(rc, c); err != nil {
			return RowChange{}, err
		}
	}
	return rc, nil
}

// reduceRowChanges folds row changes that all belong to one row.
func reduceRowChanges(changes []RowChange) (RowChange, error) {
	if len(changes) == 0 {
		return RowChange{}, nil
	}
	rc := RowChange{ID: changes[0].ID, Data: make(map[string]FieldChange)}
	for _, c := range changes {
		if c.ID != rc.ID {
			return RowChange{}, fmt.Errorf("reduce row changes for %s and %s: %w", rc.ID, c.ID, ErrMixedRowIDs)
		}
		var err error
		if rc, err = addRowChangeToRowChange(rc, c); err != nil {
			return RowChange{}, err
		}
	}
	return rc, nil
}

// ConsolidateCellChanges collapses cell changes into one row change per row,
// in the order rows first appear.
func ConsolidateCellChanges(changes []CellChange) ([]RowChange, error) {
	groups := groupByRow(changes, func(c CellChange) RowID { return c.ID })
	out := make([]RowChange, 0, len(groups))
	for _, g := range groups {
		rc, err := reduceCellChanges(g)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, nil
}

// ConsolidateRowChanges collapses partial row changes into one net change per
// row, keeping the first old value and the last new value of every field.
func ConsolidateRowChanges(changes []RowChange) ([]RowChange, error) {
	groups := groupByRow(changes, func(c RowChange) RowID { return c.ID })
	out := make([]RowChange, 0, len(groups))
	for _, g := range groups {
		rc, err := reduceRowChanges(g)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, nil
}

// ConsolidateDataChangeEvents flattens dataChange events into exactly one
// dataChange event with consolidated row changes.
func ConsolidateDataChangeEvents(events []ChangeEvent) (ChangeEvent, error) {
	var all []RowChange
	for _, e := range events {
		p, ok := e.Payload.(DataChange)
		if !ok {
			return ChangeEvent{}, fmt.Errorf("consolidate %s event into dataChange: %w", e.Type(), ErrMixedEvents)
		}
		all = append(all, p.Changes...)
	}
	consolidated, err := ConsolidateRowChanges(all)
	if err != nil {
		return ChangeEvent{}, err
	}
	return NewDataChangeEvent(consolidated...), nil
}

// ConsolidateRowAddEvents flattens rowAdd events into exactly one rowAdd event.
// Data events concatenate their rows; count events sum their counts. Index
// events cannot be merged with anything but a single event.
func ConsolidateRowAddEvents(events []ChangeEvent) (ChangeEvent, error) {
	if len(events) == 0 {
		return NewRowAddEvent(), nil
	}
	first, ok := events[0].Payload.(RowAdd)
	if !ok {
		return ChangeEvent{}, fmt.Errorf("consolidate %s event into rowAdd: %w", events[0].Type(), ErrMixedEvents)
	}
	merged := RowAdd{Mode: first.Mode, Index: first.Index}
	for _, e := range events {
		p, ok := e.Payload.(RowAdd)
		if !ok {
			return ChangeEvent{}, fmt.Errorf("consolidate %s event into rowAdd: %w", e.Type(), ErrMixedEvents)
		}
		if p.Mode != first.Mode {
			return ChangeEvent{}, fmt.Errorf("consolidate rowAdd events of different modes: %w", ErrMixedEvents)
		}
		switch p.Mode {
		case RowAddByData:
			merged.Data = append(merged.Data, p.Data...)
		case RowAddByCount:
			merged.Count += p.Count
		case RowAddAtIndex:
			if len(events) > 1 {
				return ChangeEvent{}, fmt.Errorf("consolidate indexed rowAdd events: %w", ErrMixedEvents)
			}
			merged.Count = p.Count
		}
	}
	return ChangeEvent{Payload: merged}, nil
}

// MergeChangesWithRow applies the new values of changes to a copy of row.
// Changes addressed to another row are logged and skipped.
func MergeChangesWithRow(id RowID, row Row, changes ...RowChange) Row {
	out := row.Clone()
	if out.Data == nil {
		out.Data = make(RowData)
	}
	for _, rc := range changes {
		if rc.ID != id {
			Logger().Warn("skipping change addressed to another row",
				zap.Stringer("row", id),
				zap.Stringer("changeRow", rc.ID),
			)
			continue
		}
		for field, fc := range rc.Data {
			out.Data[field] = fc.NewValue
		}
	}
	return out
}
