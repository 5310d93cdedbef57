package budgetgrid

import (
	"fmt"
	"strings"
)

// DescribeRows returns a human-readable tree of rows in display order. Model
// rows that belong to a group are indented above their group row, the way the
// grid renders them. Useful for debugging ordering and grouping issues.
func DescribeRows(rows []Row, columns Columns) string {
	grouped := make(map[int]bool)
	groups := 0
	for _, r := range rows {
		if r.IsGroup() {
			groups++
			for _, c := range r.Children {
				grouped[c] = true
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rows: %d (%d groups)\n", len(rows), groups)
	for _, r := range rows {
		prefix := ""
		if r.IsModel() && grouped[r.ID.N] {
			prefix = "  "
		}
		fmt.Fprintf(&b, "%s%s %s", prefix, r.Kind(), r.ID)
		if r.Order != "" {
			fmt.Fprintf(&b, " order=%q", r.Order)
		}
		if r.IsGroup() || r.IsMarkup() {
			fmt.Fprintf(&b, " children=%v", r.Children)
		}
		for _, col := range columns {
			v, ok := r.Data[col.Field]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, " %s=%s", col.Field, describeValue(v))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func describeValue(v any) string {
	switch s := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", s)
	}
	return formatValue(v)
}
