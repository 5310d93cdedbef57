package budgetgrid

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExportClipboardText renders rows as tab separated text, one line per row,
// the way spreadsheets put a copied range on the clipboard.
func ExportClipboardText(rows []Row, columns Columns) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = formatCell(columns.ValueOf(row, col.Field))
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write row %s: %w", row.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush clipboard text: %w", err)
	}
	return buf.String(), nil
}

// ExportClipboardHTML renders rows as an HTML table for the text/html
// clipboard flavour.
func ExportClipboardHTML(rows []Row, columns Columns) (string, error) {
	table := element(atom.Table)
	body := element(atom.Tbody)
	table.AppendChild(body)
	for _, row := range rows {
		tr := element(atom.Tr)
		for _, col := range columns {
			td := element(atom.Td)
			td.AppendChild(&html.Node{Type: html.TextNode, Data: formatCell(columns.ValueOf(row, col.Field))})
			tr.AppendChild(td)
		}
		body.AppendChild(tr)
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, table); err != nil {
		return "", fmt.Errorf("render clipboard html: %w", err)
	}
	return buf.String(), nil
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

// ParseClipboardText splits tab separated clipboard text into cells. Quoted
// cells may contain tabs and line breaks.
func ParseClipboardText(s string) ([][]string, error) {
	s = strings.TrimRight(s, "\r\n")
	if s == "" {
		return nil, nil
	}
	r := csv.NewReader(strings.NewReader(s))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var grid [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse clipboard text: %w", err)
		}
		grid = append(grid, record)
	}
	return grid, nil
}

// ParseClipboardHTML extracts the cells of the first table in an HTML
// clipboard fragment. Cells spanning several columns are padded with empty
// cells so positions line up with the grid.
func ParseClipboardHTML(s string) ([][]string, error) {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return nil, fmt.Errorf("parse clipboard html: %w", err)
	}
	table := findElement(doc, atom.Table)
	if table == nil {
		return nil, nil
	}
	var grid [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Tr:
				grid = append(grid, rowCells(c))
			case atom.Table:
				// nested tables belong to a cell
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return grid, nil
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		cells = append(cells, strings.TrimSpace(textContent(c)))
		if span, err := strconv.Atoi(attr(c, "colspan")); err == nil {
			for i := 1; i < span; i++ {
				cells = append(cells, "")
			}
		}
	}
	return cells
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Br {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Paste is the effect of pasting a block of cells into the table.
type Paste struct {
	// Changes edits existing rows.
	Changes []CellChange
	// NewRows holds data for pasted lines that ran past the last row.
	NewRows []RowData
}

// Events returns the change events the paste raises: a dataChange for the
// edits and a rowAdd for the new rows, each only when non-empty.
func (p Paste) Events() []ChangeEvent {
	var events []ChangeEvent
	if len(p.Changes) > 0 {
		events = append(events, NewCellChangeEvent(p.Changes...))
	}
	if len(p.NewRows) > 0 {
		events = append(events, NewRowAddEvent(p.NewRows...))
	}
	return events
}

// PasteChanges maps a pasted grid onto the table with its top-left cell at
// (startRow, startCol). Values are converted to the kind of their column.
// Rows that cannot be edited are skipped, cells beyond the last column are
// dropped and unchanged cells produce no change.
func PasteChanges(source RowSource, startRow int, columns Columns, startCol int, grid [][]string) (Paste, error) {
	var p Paste
	rowCount := 0
	if source != nil {
		rowCount = source.RowCount()
	}
	for r, line := range grid {
		target := startRow + r
		if target >= rowCount {
			data, err := pasteRowData(columns, startCol, line, target)
			if err != nil {
				return Paste{}, err
			}
			p.NewRows = append(p.NewRows, data)
			continue
		}
		row, ok := source.RowAt(target)
		if !ok {
			continue
		}
		if !row.ID.Editable() {
			Logger().Debug("skipping paste into read-only row", zap.Stringer("row", row.ID))
			continue
		}
		for c, text := range line {
			colIdx := startCol + c
			if colIdx < 0 || colIdx >= len(columns) {
				continue
			}
			col := columns[colIdx]
			v, err := coerceCell(col, text)
			if err != nil {
				return Paste{}, fmt.Errorf("paste %s: %w", cellName(colIdx, target), err)
			}
			old := columns.ValueOf(row, col.Field)
			if reflect.DeepEqual(old, v) {
				continue
			}
			p.Changes = append(p.Changes, CellChange{Field: col.Field, ID: row.ID, OldValue: old, NewValue: v})
		}
	}
	return p, nil
}

func pasteRowData(columns Columns, startCol int, line []string, target int) (RowData, error) {
	data := make(RowData, len(line))
	for c, text := range line {
		colIdx := startCol + c
		if colIdx < 0 || colIdx >= len(columns) {
			continue
		}
		col := columns[colIdx]
		v, err := coerceCell(col, text)
		if err != nil {
			return nil, fmt.Errorf("paste %s: %w", cellName(colIdx, target), err)
		}
		data[col.Field] = v
	}
	return data, nil
}

// coerceCell converts pasted text to the kind of the column null value.
func coerceCell(col Column, text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return col.NullValue, nil
	}
	switch null := col.NullValue.(type) {
	case nil:
		if n, ok := toNumeric(text); ok {
			return n.value, nil
		}
		return text, nil
	case string:
		return text, nil
	case bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("field %q: %q is not a boolean: %w", col.Field, text, ErrInvalidCellValue)
		}
		return b, nil
	default:
		nullNum, ok := toNumeric(null)
		if !ok {
			return nil, fmt.Errorf("field %q: unsupported column type %T: %w", col.Field, null, ErrInvalidCellValue)
		}
		n, ok := toNumeric(strings.ReplaceAll(text, ",", ""))
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not a number: %w", col.Field, text, ErrInvalidCellValue)
		}
		return nullNum.withValue(n.value), nil
	}
}

// formatCell renders a cell value as clipboard text.
func formatCell(v any) string {
	if v == nil {
		return ""
	}
	return formatValue(v)
}
