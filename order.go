package budgetgrid

import (
	"sort"

	"go.uber.org/zap"
)

// OrderTableData arranges rows of every kind into display order. Footer and
// page rows are synthetic and are dropped; the grid appends them itself.
func OrderTableData(rows []Row) []Row {
	var models, groups, markups, placeholders []Row
	for _, r := range rows {
		switch r.Kind() {
		case KindModel:
			models = append(models, r)
		case KindGroup:
			groups = append(groups, r)
		case KindMarkup:
			markups = append(markups, r)
		case KindPlaceholder:
			placeholders = append(placeholders, r)
		}
	}
	return InjectMarkupsAndGroups(models, groups, markups, placeholders)
}

type groupBlock struct {
	group   Row
	members []Row
}

// InjectMarkupsAndGroups merges model rows with their groups. Each group
// follows its members, and groups are ordered by their earliest member. Then
// come ungrouped models by order, groups without members, placeholders in the
// order given, and finally markups.
//
// A model listed by more than one group is logged as an error and stays with
// the first group.
func InjectMarkupsAndGroups(models, groups, markups, placeholders []Row) []Row {
	sorted := make([]Row, len(models))
	copy(sorted, models)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	blocks := make([]*groupBlock, len(groups))
	for i, g := range groups {
		blocks[i] = &groupBlock{group: g}
	}

	var ungrouped []Row
	for _, m := range sorted {
		var owner *groupBlock
		for _, b := range blocks {
			if !b.group.HasChild(m.ID.N) {
				continue
			}
			if owner != nil {
				Logger().Error("model row belongs to more than one group",
					zap.Stringer("row", m.ID),
					zap.Stringer("group", owner.group.ID),
					zap.Stringer("otherGroup", b.group.ID),
				)
				continue
			}
			owner = b
		}
		if owner == nil {
			ungrouped = append(ungrouped, m)
			continue
		}
		owner.members = append(owner.members, m)
	}

	var populated, empty []*groupBlock
	for _, b := range blocks {
		if len(b.members) == 0 {
			empty = append(empty, b)
			continue
		}
		populated = append(populated, b)
	}
	// Members are already sorted, so the first one carries the minimum order.
	sort.SliceStable(populated, func(i, j int) bool {
		return populated[i].members[0].Order < populated[j].members[0].Order
	})

	out := make([]Row, 0, len(models)+len(groups)+len(markups)+len(placeholders))
	for _, b := range populated {
		out = append(out, b.members...)
		out = append(out, b.group)
	}
	out = append(out, ungrouped...)
	for _, b := range empty {
		out = append(out, b.group)
	}
	out = append(out, placeholders...)
	out = append(out, markups...)
	return out
}
