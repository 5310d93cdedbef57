package budgetgrid

import (
	"fmt"
	"io"
	"reflect"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Column describes one data column of the table as far as the core is concerned.
type Column struct {
	Field string `yaml:"field"`
	Label string `yaml:"label,omitempty"`

	// NullValue is the value of an empty cell; its kind is the kind every
	// value of the column must have ("" for text, 0 for numbers, nil for any).
	NullValue any `yaml:"nullValue"`

	// SmartInference enables pattern detection from previous rows for new rows
	// and fill-handle drags.
	SmartInference bool `yaml:"smartInference,omitempty"`

	// DefaultValue is used for new rows when inference yields nothing.
	DefaultValue any `yaml:"default,omitempty"`

	// DefaultExpression is an expr-lang expression evaluated for new rows when
	// neither inference nor DefaultValue apply. See DefaultExprEnv.
	DefaultExpression string `yaml:"defaultExpression,omitempty"`
}

// DisplayLabel returns the display label, falling back to the field name.
func (c Column) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Field
}

// HasDefault reports whether a static default value is configured.
func (c Column) HasDefault() bool {
	return c.DefaultValue != nil
}

// IsNumeric reports whether the column holds numbers.
func (c Column) IsNumeric() bool {
	_, ok := toNumeric(c.NullValue)
	return ok && !isString(c.NullValue)
}

// Accepts reports whether v has the kind declared by the column null value.
// Nil is always accepted; columns with a nil null value accept any scalar.
func (c Column) Accepts(v any) bool {
	if v == nil || c.NullValue == nil {
		return true
	}
	if isString(c.NullValue) {
		return isString(v)
	}
	if c.IsNumeric() {
		_, ok := toNumeric(v)
		return ok && !isString(v)
	}
	return reflect.TypeOf(v) == reflect.TypeOf(c.NullValue)
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// Columns is an ordered set of column definitions.
type Columns []Column

// Get returns the column for field.
func (cs Columns) Get(field string) (Column, bool) {
	for _, c := range cs {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// ValueOf returns the value of field on row. A missing value on a model row is
// a data integrity problem: it is logged and the column null value is returned.
func (cs Columns) ValueOf(row Row, field string) any {
	if v, ok := row.Data[field]; ok {
		return v
	}
	col, known := cs.Get(field)
	if row.IsModel() {
		Logger().Warn("model row is missing a field value, using the column null value",
			zap.Stringer("row", row.ID),
			zap.String("field", field),
			zap.Bool("knownColumn", known),
		)
	}
	return col.NullValue
}

// CheckCellChange verifies that the old and new values of change match the
// kind of its column.
func (cs Columns) CheckCellChange(change CellChange) error {
	col, ok := cs.Get(change.Field)
	if !ok {
		return fmt.Errorf("cell change on %s: unknown field %q", change.ID, change.Field)
	}
	if !col.Accepts(change.OldValue) {
		return fmt.Errorf("cell change on %s field %q: old value %v (%T) does not match column type %T",
			change.ID, change.Field, change.OldValue, change.OldValue, col.NullValue)
	}
	if !col.Accepts(change.NewValue) {
		return fmt.Errorf("cell change on %s field %q: new value %v (%T) does not match column type %T",
			change.ID, change.Field, change.NewValue, change.NewValue, col.NullValue)
	}
	return nil
}

// columnsFile is the YAML document shape read by LoadColumns.
type columnsFile struct {
	Columns Columns `yaml:"columns"`
}

// LoadColumns reads column definitions from a YAML document of the form
//
//	columns:
//	  - field: identifier
//	    nullValue: ""
//	    smartInference: true
func LoadColumns(r io.Reader) (Columns, error) {
	var doc columnsFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode columns: %w", err)
	}
	return doc.Columns, nil
}
