package budgetgrid

import (
	"fmt"
	"strconv"
	"strings"
)

// RowKind classifies a table row.
type RowKind int

const (
	KindModel RowKind = iota
	KindPlaceholder
	KindMarkup
	KindGroup
	KindFooter
	KindPage
)

var rowKindNames = [...]string{
	KindModel:       "model",
	KindPlaceholder: "placeholder",
	KindMarkup:      "markup",
	KindGroup:       "group",
	KindFooter:      "footer",
	KindPage:        "page",
}

// String returns the lowercase kind name used as the id prefix.
func (k RowKind) String() string {
	if k < 0 || int(k) >= len(rowKindNames) {
		return "unknown"
	}
	return rowKindNames[k]
}

// RowID identifies a row. Model ids carry the persisted entity id; the other
// kinds carry a client or server assigned sequence number.
type RowID struct {
	Kind RowKind
	N    int
}

// ModelID returns the id of a model row.
func ModelID(n int) RowID { return RowID{Kind: KindModel, N: n} }

// MarkupID returns the id of a markup row.
func MarkupID(n int) RowID { return RowID{Kind: KindMarkup, N: n} }

// GroupID returns the id of a group row.
func GroupID(n int) RowID { return RowID{Kind: KindGroup, N: n} }

// PlaceholderID returns the id of a placeholder row.
func PlaceholderID(n int) RowID { return RowID{Kind: KindPlaceholder, N: n} }

// ParseRowID parses "12", "markup-3", "group-7", "placeholder-2", "footer-0" or "page-1".
func ParseRowID(s string) (RowID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RowID{}, fmt.Errorf("parse row id %q: %w", s, ErrInvalidRowID)
	}
	prefix, num, found := strings.Cut(s, "-")
	if !found {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return RowID{}, fmt.Errorf("parse row id %q: %w", s, ErrInvalidRowID)
		}
		return ModelID(n), nil
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return RowID{}, fmt.Errorf("parse row id %q: %w", s, ErrInvalidRowID)
	}
	for k, name := range rowKindNames {
		if RowKind(k) != KindModel && name == prefix {
			return RowID{Kind: RowKind(k), N: n}, nil
		}
	}
	return RowID{}, fmt.Errorf("parse row id %q: unknown kind %q: %w", s, prefix, ErrInvalidRowID)
}

// String formats the id the way the grid and the backend expect it.
func (id RowID) String() string {
	if id.Kind == KindModel {
		return strconv.Itoa(id.N)
	}
	return id.Kind.String() + "-" + strconv.Itoa(id.N)
}

// MarshalText implements encoding.TextMarshaler.
func (id RowID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *RowID) UnmarshalText(text []byte) error {
	parsed, err := ParseRowID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Editable reports whether cells of the row can be edited directly.
func (id RowID) Editable() bool {
	return id.Kind == KindModel || id.Kind == KindMarkup
}

// IsZero reports whether the id was never set.
func (id RowID) IsZero() bool {
	return id == RowID{}
}

// RowData holds field values of a row keyed by column field.
type RowData map[string]any

// Clone returns a shallow copy of the data.
func (d RowData) Clone() RowData {
	if d == nil {
		return nil
	}
	out := make(RowData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Row is a single table row. Order is the backend assigned sort key of model
// rows; Children lists the model ids bracketed by a group or markup row.
type Row struct {
	ID       RowID
	Order    string
	Children []int
	Data     RowData
}

// Kind returns the kind encoded in the row id.
func (r Row) Kind() RowKind { return r.ID.Kind }

// IsModel reports whether the row is backed by a persisted entity.
func (r Row) IsModel() bool { return r.ID.Kind == KindModel }

// IsPlaceholder reports whether the row was created client side and not yet persisted.
func (r Row) IsPlaceholder() bool { return r.ID.Kind == KindPlaceholder }

// IsGroup reports whether the row is a group row.
func (r Row) IsGroup() bool { return r.ID.Kind == KindGroup }

// IsMarkup reports whether the row is a markup row.
func (r Row) IsMarkup() bool { return r.ID.Kind == KindMarkup }

// IsData reports whether the row carries editable entity data (model or placeholder).
func (r Row) IsData() bool { return r.IsModel() || r.IsPlaceholder() }

// IsSynthetic reports whether the row is a footer or page row with no data.
func (r Row) IsSynthetic() bool { return r.ID.Kind == KindFooter || r.ID.Kind == KindPage }

// HasChild reports whether the group or markup row brackets the given model id.
func (r Row) HasChild(modelID int) bool {
	for _, c := range r.Children {
		if c == modelID {
			return true
		}
	}
	return false
}

// Clone returns a copy of the row that does not share data or children.
func (r Row) Clone() Row {
	out := r
	out.Data = r.Data.Clone()
	if r.Children != nil {
		out.Children = append([]int(nil), r.Children...)
	}
	return out
}

// RowSource gives random access to rows in display order. Rows implements it
// for in-memory tables; grid adapters implement it over displayed rows.
type RowSource interface {
	RowCount() int
	RowAt(i int) (Row, bool)
}

// Rows is an in-memory RowSource.
type Rows []Row

// RowCount implements RowSource.
func (r Rows) RowCount() int { return len(r) }

// RowAt implements RowSource.
func (r Rows) RowAt(i int) (Row, bool) {
	if i < 0 || i >= len(r) {
		return Row{}, false
	}
	return r[i], true
}

// Find returns the index of the row with the given id, or -1.
func (r Rows) Find(id RowID) int {
	for i, row := range r {
		if row.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the rows.
func (r Rows) Clone() Rows {
	out := make(Rows, len(r))
	for i, row := range r {
		out[i] = row.Clone()
	}
	return out
}
