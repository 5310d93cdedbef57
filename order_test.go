package budgetgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID.String()
	}
	return out
}

func TestOrderTableData_GroupFollowsMembers(t *testing.T) {
	rows := []Row{
		{ID: ModelID(2), Order: "b"},
		{ID: GroupID(1), Children: []int{1, 3}},
		{ID: ModelID(3), Order: "c"},
		{ID: ModelID(1), Order: "a"},
	}
	got := OrderTableData(rows)
	assert.Equal(t, []string{"1", "3", "group-1", "2"}, ids(got))
}

func TestOrderTableData_AllKinds(t *testing.T) {
	rows := []Row{
		{ID: MarkupID(1), Children: []int{4}},
		{ID: PlaceholderID(2)},
		{ID: ModelID(4), Order: "d"},
		{ID: GroupID(2), Children: []int{5}},
		{ID: ModelID(5), Order: "a"},
		{ID: GroupID(3)},
		{ID: RowID{Kind: KindFooter}},
		{ID: PlaceholderID(1)},
		{ID: GroupID(1), Children: []int{6}},
		{ID: ModelID(6), Order: "c"},
		{ID: RowID{Kind: KindPage, N: 1}},
	}
	got := OrderTableData(rows)
	assert.Equal(t, []string{
		"5", "group-2",
		"6", "group-1",
		"4",
		"group-3",
		"placeholder-2", "placeholder-1",
		"markup-1",
	}, ids(got))
}

func TestInjectMarkupsAndGroups_ModelInTwoGroups(t *testing.T) {
	logs := observeLogs(t, zapcore.ErrorLevel)
	models := []Row{{ID: ModelID(1), Order: "a"}, {ID: ModelID(2), Order: "b"}}
	groups := []Row{
		{ID: GroupID(1), Children: []int{1}},
		{ID: GroupID(2), Children: []int{1, 2}},
	}
	got := InjectMarkupsAndGroups(models, groups, nil, nil)
	assert.Equal(t, []string{"1", "group-1", "2", "group-2"}, ids(got))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "model row belongs to more than one group", logs.All()[0].Message)
}

func TestInjectMarkupsAndGroups_DoesNotReorderInput(t *testing.T) {
	models := []Row{{ID: ModelID(2), Order: "b"}, {ID: ModelID(1), Order: "a"}}
	got := InjectMarkupsAndGroups(models, nil, nil, nil)
	assert.Equal(t, []string{"1", "2"}, ids(got))
	assert.Equal(t, ModelID(2), models[0].ID)
}

func TestInjectMarkupsAndGroups_Empty(t *testing.T) {
	assert.Empty(t, InjectMarkupsAndGroups(nil, nil, nil, nil))
}
