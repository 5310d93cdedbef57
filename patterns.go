package budgetgrid

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// patternSeparators are the delimiters tried when splitting a string value into
// a stable prefix and a changing suffix. The right-most match across all of them wins.
var patternSeparators = []string{"-", " ", "  "}

// maxExactInt is the largest integer magnitude float64 holds without loss.
// Integers beyond it are not treated as numeric.
const maxExactInt = 1 << 53

// numeric is a value coerced to float64 together with the shape it came in.
type numeric struct {
	value    float64
	kind     reflect.Kind // kind of the original Go value; reflect.String for numeric strings
	original any
}

// DetectNextInPattern predicts the value following one or two observed values.
//
// With two values the first is treated as the previous value and the second as
// the current one. Numbers continue the step between them, a lone number is
// incremented by one, and strings such as "Account-100" are split at their
// right-most separator with the inference recursing into the suffix. The result
// keeps the shape of the current value: numeric strings stay strings and numbers
// keep their Go kind. The boolean is false when no direction can be inferred.
func DetectNextInPattern(values ...any) (any, bool) {
	var previous, current any
	hasPrevious := false
	switch len(values) {
	case 1:
		current = values[0]
	case 2:
		previous, current = values[0], values[1]
		hasPrevious = true
	default:
		return nil, false
	}

	cur, curIsNumber := toNumeric(current)
	if curIsNumber {
		if !hasPrevious {
			return cur.withValue(cur.value + 1), true
		}
		prev, prevIsNumber := toNumeric(previous)
		if !prevIsNumber {
			return nil, false
		}
		switch {
		case prev.value < cur.value:
			return cur.withValue(cur.value + (cur.value - prev.value)), true
		case prev.value > cur.value:
			return cur.withValue(cur.value - (prev.value - cur.value)), true
		default:
			return nil, false
		}
	}

	curStr, ok := current.(string)
	if !ok {
		return nil, false
	}
	prefix, sep, suffix, found := splitAtSeparator(curStr)
	if !found || !hasPrevious {
		return nil, false
	}
	prevStr, ok := previous.(string)
	if !ok || prevStr == curStr {
		return nil, false
	}
	_, prevSep, prevSuffix, found := splitAtSeparator(prevStr)
	if !found || prevSep != sep {
		return nil, false
	}
	next, ok := DetectNextInPattern(prevSuffix, suffix)
	if !ok {
		return nil, false
	}
	return prefix + sep + formatValue(next), true
}

// splitAtSeparator splits s at the right-most occurrence of any pattern separator.
func splitAtSeparator(s string) (prefix, sep, suffix string, found bool) {
	lower := strings.ToLower(s)
	best := -1
	for _, candidate := range patternSeparators {
		idx := strings.LastIndex(lower, strings.ToLower(candidate))
		if idx > best {
			best = idx
			sep = candidate
		}
	}
	if best < 0 {
		return "", "", "", false
	}
	return s[:best], sep, s[best+len(sep):], true
}

// toNumeric coerces numbers and numeric strings. Empty strings are not numeric.
func toNumeric(v any) (numeric, bool) {
	switch n := v.(type) {
	case nil:
		return numeric{}, false
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return numeric{}, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return numeric{}, false
		}
		if f == math.Trunc(f) && math.Abs(f) > maxExactInt {
			return numeric{}, false
		}
		return numeric{value: f, kind: reflect.String, original: v}, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i > maxExactInt || i < -maxExactInt {
			return numeric{}, false
		}
		return numeric{value: float64(i), kind: rv.Kind(), original: v}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > maxExactInt {
			return numeric{}, false
		}
		return numeric{value: float64(u), kind: rv.Kind(), original: v}, true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return numeric{}, false
		}
		return numeric{value: f, kind: rv.Kind(), original: v}, true
	}
	return numeric{}, false
}

// withValue converts f back into the shape of the original value. Results that
// do not fit the original kind are returned as float64.
func (n numeric) withValue(f float64) any {
	if n.kind == reflect.String {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	out := reflect.New(reflect.TypeOf(n.original)).Elem()
	switch n.kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f != math.Trunc(f) || math.Abs(f) > maxExactInt || out.OverflowInt(int64(f)) {
			return f
		}
		out.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f < 0 || f != math.Trunc(f) || f > maxExactInt || out.OverflowUint(uint64(f)) {
			return f
		}
		out.SetUint(uint64(f))
	default:
		if out.OverflowFloat(f) {
			return f
		}
		out.SetFloat(f)
	}
	return out.Interface()
}

// formatValue renders an inferred suffix for concatenation.
func formatValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

// isInferable reports whether v may take part in pattern inference.
func isInferable(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(string); ok {
		return true
	}
	_, ok := toNumeric(v)
	return ok
}

// InferNextValue infers the next value of field from up to two rows given
// oldest first. A value that is neither a string, a number nor nil aborts
// inference for the field with a warning and ErrNotInferable.
func InferNextValue(field string, columns Columns, rows []Row) (any, bool, error) {
	if len(rows) == 0 {
		return nil, false, nil
	}
	if len(rows) > 2 {
		rows = rows[len(rows)-2:]
	}
	values := make([]any, 0, len(rows))
	for _, row := range rows {
		v := columns.ValueOf(row, field)
		if !isInferable(v) {
			Logger().Warn("cannot infer column value from non-scalar data",
				zap.String("field", field),
				zap.Stringer("row", row.ID),
				zap.String("type", fmt.Sprintf("%T", v)),
			)
			return nil, false, fmt.Errorf("infer %q from row %s: %w", field, row.ID, ErrNotInferable)
		}
		values = append(values, v)
	}
	next, ok := DetectNextInPattern(values...)
	return next, ok, nil
}
