package budgetgrid

import (
	"errors"

	"go.uber.org/zap"
)

// previousRowsDepth is how many rows pattern inference looks back.
const previousRowsDepth = 2

// FindPreviousModelRows walks backwards from index (inclusive) collecting up to
// two model or placeholder rows, skipping group and markup rows. With filling
// set the walk starts one row earlier because the fill target already occupies
// index. Rows are returned oldest first; nil means none were found.
func FindPreviousModelRows(source RowSource, index int, filling bool) []Row {
	if source == nil {
		return nil
	}
	if filling {
		index--
	}
	if n := source.RowCount(); index >= n {
		index = n - 1
	}
	var found []Row
	for i := index; i >= 0 && len(found) < previousRowsDepth; i-- {
		row, ok := source.RowAt(i)
		if !ok || !row.IsData() {
			continue
		}
		found = append(found, row)
	}
	if len(found) == 0 {
		return nil
	}
	for i, j := 0, len(found)-1; i < j; i, j = i+1, j-1 {
		found[i], found[j] = found[j], found[i]
	}
	return found
}

// GenerateNewRowData builds data for count new rows inserted at index. Each
// column is filled by smart inference from the previous rows, then by its
// static default, then by its default expression; fields none of them yield are
// left unset. When count is above one every generated row becomes a previous
// row for the next, so a block continues one sequence.
func GenerateNewRowData(source RowSource, index int, columns Columns, count int) []RowData {
	if count <= 0 {
		return nil
	}
	prev := FindPreviousModelRows(source, index-1, false)
	out := make([]RowData, 0, count)
	for i := 0; i < count; i++ {
		data := generateRow(prev, columns, i, count)
		out = append(out, data)

		prev = append(prev, Row{ID: PlaceholderID(i), Data: data})
		if len(prev) > previousRowsDepth {
			prev = prev[len(prev)-previousRowsDepth:]
		}
	}
	return out
}

func generateRow(prev []Row, columns Columns, index, count int) RowData {
	data := make(RowData, len(columns))
	for _, col := range columns {
		if v, ok := generateValue(col, columns, prev, index, count); ok {
			data[col.Field] = v
		}
	}
	return data
}

func generateValue(col Column, columns Columns, prev []Row, index, count int) (any, bool) {
	if col.SmartInference && len(prev) > 0 {
		v, ok, err := InferNextValue(col.Field, columns, prev)
		if err == nil && ok {
			return v, true
		}
	}
	if col.HasDefault() {
		return col.DefaultValue, true
	}
	if col.DefaultExpression != "" {
		v, err := defaultEvaluator.Evaluate(col.DefaultExpression, newDefaultExprEnv(col.Field, prev, index, count))
		if err != nil {
			Logger().Warn("default expression failed",
				zap.String("field", col.Field),
				zap.String("expression", col.DefaultExpression),
				zap.Error(err),
			)
			return nil, false
		}
		return v, true
	}
	return nil, false
}

// InferFillValue infers the value of field for the fill target at index from
// the rows above it. The boolean is false when no pattern applies.
func InferFillValue(source RowSource, index int, field string, columns Columns) (any, bool) {
	prev := FindPreviousModelRows(source, index, true)
	if len(prev) == 0 {
		return nil, false
	}
	v, ok, err := InferNextValue(field, columns, prev)
	if err != nil {
		if !errors.Is(err, ErrNotInferable) {
			Logger().Warn("fill inference failed", zap.String("field", field), zap.Error(err))
		}
		return nil, false
	}
	return v, ok
}
