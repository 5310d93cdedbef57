package budgetgrid

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseRowID(t *testing.T) {
	tests := []struct {
		in   string
		want RowID
	}{
		{"12", ModelID(12)},
		{" 7 ", ModelID(7)},
		{"markup-3", MarkupID(3)},
		{"group-0", GroupID(0)},
		{"placeholder-2", PlaceholderID(2)},
		{"footer-1", RowID{Kind: KindFooter, N: 1}},
		{"page-4", RowID{Kind: KindPage, N: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRowID(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.TrimSpace(tt.in), got.String())
		})
	}
}

func TestParseRowID_Invalid(t *testing.T) {
	for _, in := range []string{"", "0", "-1", "abc", "group-", "group-x", "model-1", "widget-2"} {
		_, err := ParseRowID(in)
		assert.ErrorIs(t, err, ErrInvalidRowID, in)
	}
}

func TestRowID_JSON(t *testing.T) {
	type payload struct {
		ID  RowID         `json:"id"`
		IDs map[RowID]int `json:"ids"`
	}
	in := payload{ID: GroupID(3), IDs: map[RowID]int{ModelID(5): 1}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"group-3","ids":{"5":1}}`, string(data))

	var out payload
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestRowID_Editable(t *testing.T) {
	assert.True(t, ModelID(1).Editable())
	assert.True(t, MarkupID(1).Editable())
	assert.False(t, GroupID(1).Editable())
	assert.False(t, PlaceholderID(1).Editable())
	assert.True(t, RowID{}.IsZero())
	assert.Equal(t, "unknown", RowKind(42).String())
}

func TestRow_Predicates(t *testing.T) {
	g := Row{ID: GroupID(1), Children: []int{2, 3}}
	assert.True(t, g.IsGroup())
	assert.True(t, g.HasChild(3))
	assert.False(t, g.HasChild(4))
	assert.False(t, g.IsData())
	assert.True(t, Row{ID: PlaceholderID(1)}.IsData())
	assert.True(t, Row{ID: RowID{Kind: KindPage}}.IsSynthetic())

	clone := g.Clone()
	clone.Children[0] = 99
	assert.Equal(t, 2, g.Children[0])
}

func TestRows_Find(t *testing.T) {
	rows := Rows{{ID: ModelID(1)}, {ID: GroupID(1)}}
	assert.Equal(t, 1, rows.Find(GroupID(1)))
	assert.Equal(t, -1, rows.Find(MarkupID(1)))
	_, ok := rows.RowAt(2)
	assert.False(t, ok)
}

// --- Columns ---

func TestLoadColumns(t *testing.T) {
	src := `
columns:
  - field: name
    label: Name
    nullValue: ""
    smartInference: true
  - field: amount
    nullValue: 0
    default: 0
  - field: note
    defaultExpression: 'previous == nil ? "" : previous.note'
`
	columns, err := LoadColumns(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.Equal(t, "Name", columns[0].DisplayLabel())
	assert.Equal(t, "", columns[0].NullValue)
	assert.True(t, columns[0].SmartInference)
	assert.Equal(t, 0, columns[1].NullValue)
	assert.True(t, columns[1].HasDefault())
	assert.True(t, columns[1].IsNumeric())
	assert.Equal(t, "note", columns[2].DisplayLabel())
	assert.Nil(t, columns[2].NullValue)
	assert.Empty(t, ValidateColumns(columns))

	columns, err = LoadColumns(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, columns)

	_, err = LoadColumns(strings.NewReader("columns: [oops"))
	assert.Error(t, err)
}

func TestColumns_ValueOf(t *testing.T) {
	logs := observeLogs(t, zapcore.WarnLevel)
	columns := Columns{{Field: "amount", NullValue: 0.0}}

	assert.Equal(t, 5.0, columns.ValueOf(Row{ID: ModelID(1), Data: RowData{"amount": 5.0}}, "amount"))
	assert.Equal(t, 0.0, columns.ValueOf(Row{ID: PlaceholderID(1)}, "amount"))
	assert.Equal(t, 0, logs.Len(), "placeholders may omit fields")

	assert.Equal(t, 0.0, columns.ValueOf(Row{ID: ModelID(2)}, "amount"))
	assert.Nil(t, columns.ValueOf(Row{ID: ModelID(2)}, "unknown"))
	assert.Equal(t, 2, logs.FilterMessage("model row is missing a field value, using the column null value").Len())
}
