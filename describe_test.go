package budgetgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeRows(t *testing.T) {
	rows := OrderTableData([]Row{
		{ID: ModelID(1), Order: "a", Data: RowData{"name": "Rent", "amount": 1200.5}},
		{ID: ModelID(2), Order: "b", Data: RowData{"name": "Food"}},
		{ID: GroupID(1), Children: []int{1}, Data: RowData{"name": "Fixed"}},
		{ID: PlaceholderID(1), Data: RowData{"amount": nil}},
	})
	got := DescribeRows(rows, budgetColumns())
	want := `Rows: 4 (1 groups)
  model 1 order="a" name="Rent" amount=1200.5
group group-1 children=[1] name="Fixed"
model 2 order="b" name="Food"
placeholder placeholder-1 amount=<nil>
`
	assert.Equal(t, want, got)
}

func TestDescribeRows_Empty(t *testing.T) {
	assert.Equal(t, "Rows: 0 (0 groups)\n", DescribeRows(nil, nil))
}
