package budgetgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observeLogs routes the package logger into an observer for the duration of the test.
func observeLogs(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := Logger()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

func TestDetectNextInPattern(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   any
		ok     bool
	}{
		{"lone numeric string", []any{"100"}, "101", true},
		{"ascending numeric strings", []any{"100", "102"}, "104", true},
		{"descending numeric strings", []any{"102", "100"}, "98", true},
		{"dash separated", []any{"account-100", "account-102"}, "account-104", true},
		{"space separated", []any{"Account 100", "Account 102"}, "Account 104", true},
		{"equal values", []any{"5", "5"}, nil, false},
		{"lone int stays int", []any{5}, 6, true},
		{"int step", []any{5, 8}, 11, true},
		{"float step", []any{1.5, 2.0}, 2.5, true},
		{"int64 keeps kind", []any{int64(10), int64(20)}, int64(30), true},
		{"no shared structure", []any{"abc", "xyz"}, nil, false},
		{"mismatched separators", []any{"a-1", "a 2"}, nil, false},
		{"previous without separator", []any{"abc", "a-2"}, nil, false},
		{"identical strings", []any{"a-2", "a-2"}, nil, false},
		{"string without previous", []any{"a-2"}, nil, false},
		{"previous not numeric", []any{"x", 3}, nil, false},
		{"empty string", []any{""}, nil, false},
		{"nil current", []any{nil}, nil, false},
		{"no values", nil, nil, false},
		{"too many values", []any{1, 2, 3}, nil, false},
		{"nested suffix", []any{"Q1-Week 1", "Q1-Week 2"}, "Q1-Week 3", true},
		{"rightmost separator wins", []any{"a b-1", "a b-2"}, "a b-3", true},
		{"suffix not inferable", []any{"item-a", "item-b"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectNextInPattern(tt.values...)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectNextInPattern_MixedKinds(t *testing.T) {
	// numeric string previous, number current: the result follows the current value
	got, ok := DetectNextInPattern("4", 6)
	require.True(t, ok)
	assert.Equal(t, 8, got)

	got, ok = DetectNextInPattern(4, "6")
	require.True(t, ok)
	assert.Equal(t, "8", got)
}

func TestDetectNextInPattern_FractionalString(t *testing.T) {
	got, ok := DetectNextInPattern("0.5", "1")
	require.True(t, ok)
	assert.Equal(t, "1.5", got)
}

func TestDetectNextInPattern_OutOfRange(t *testing.T) {
	got, ok := DetectNextInPattern(int8(127))
	require.True(t, ok)
	assert.Equal(t, 128.0, got, "results that overflow the kind fall back to float64")

	got, ok = DetectNextInPattern(uint8(1), uint8(0))
	require.True(t, ok)
	assert.Equal(t, -1.0, got)

	got, ok = DetectNextInPattern(int16(10), int16(20))
	require.True(t, ok)
	assert.Equal(t, int16(30), got)

	_, ok = DetectNextInPattern(int64(1<<53 + 1))
	assert.False(t, ok, "integers beyond float64 precision are not inferred")
	_, ok = DetectNextInPattern("9007199254740993")
	assert.False(t, ok)
}

func TestInferNextValue(t *testing.T) {
	columns := Columns{{Field: "name", NullValue: "", SmartInference: true}}
	rows := []Row{
		{ID: ModelID(1), Data: RowData{"name": "Item 1"}},
		{ID: ModelID(2), Data: RowData{"name": "Item 2"}},
	}
	got, ok, err := InferNextValue("name", columns, rows)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Item 3", got)
}

func TestInferNextValue_UsesLastTwoRows(t *testing.T) {
	columns := Columns{{Field: "n", NullValue: 0}}
	rows := []Row{
		{ID: ModelID(1), Data: RowData{"n": 100}},
		{ID: ModelID(2), Data: RowData{"n": 1}},
		{ID: ModelID(3), Data: RowData{"n": 2}},
	}
	got, ok, err := InferNextValue("n", columns, rows)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got)
}

func TestInferNextValue_NonScalarWarns(t *testing.T) {
	logs := observeLogs(t, zapcore.WarnLevel)
	columns := Columns{{Field: "tags", SmartInference: true}}
	rows := []Row{{ID: ModelID(1), Data: RowData{"tags": []string{"a"}}}}

	got, ok, err := InferNextValue("tags", columns, rows)
	require.ErrorIs(t, err, ErrNotInferable)
	assert.False(t, ok)
	assert.Nil(t, got)
	require.Equal(t, 1, logs.FilterMessage("cannot infer column value from non-scalar data").Len())
}

func TestInferNextValue_MissingModelValueFallsBackToNull(t *testing.T) {
	logs := observeLogs(t, zapcore.WarnLevel)
	columns := Columns{{Field: "n", NullValue: 0}}
	rows := []Row{{ID: ModelID(1), Data: RowData{}}}

	got, ok, err := InferNextValue("n", columns, rows)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, got)
	assert.Equal(t, 1, logs.FilterField(zap.String("field", "n")).Len())
}
