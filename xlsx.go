package budgetgrid

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Reserved headers of the two leading workbook columns.
const (
	idHeader    = "id"
	orderHeader = "order"
)

// DefaultSheet is the sheet written by ExportWorkbook when none is given.
const DefaultSheet = "Table"

// ExportWorkbook writes rows in the order given to a single sheet workbook.
// The first row holds the column labels. Columns A and B carry the row id and
// order and are hidden. Group rows are bold, and model rows that belong to a
// group get outline level 1 so they collapse under it.
func ExportWorkbook(w io.Writer, sheet string, rows []Row, columns Columns) error {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet %q: %w", sheet, err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create group style: %w", err)
	}

	header := []any{idHeader, orderHeader}
	for _, col := range columns {
		header = append(header, col.DisplayLabel())
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	grouped := make(map[int]bool)
	for _, r := range rows {
		if r.IsGroup() {
			for _, c := range r.Children {
				grouped[c] = true
			}
		}
	}

	for i, r := range rows {
		excelRow := i + 2
		values := []any{r.ID.String(), r.Order}
		for _, col := range columns {
			values = append(values, columns.ValueOf(r, col.Field))
		}
		if err := f.SetSheetRow(sheet, cellName(0, excelRow-1), &values); err != nil {
			return fmt.Errorf("write row %s: %w", r.ID, err)
		}
		switch {
		case r.IsGroup():
			if err := f.SetRowStyle(sheet, excelRow, excelRow, bold); err != nil {
				return fmt.Errorf("style group row %s: %w", r.ID, err)
			}
		case r.IsModel() && grouped[r.ID.N]:
			if err := f.SetRowOutlineLevel(sheet, excelRow, 1); err != nil {
				return fmt.Errorf("outline row %s: %w", r.ID, err)
			}
		}
	}
	if err := f.SetColVisible(sheet, "A:B", false); err != nil {
		return fmt.Errorf("hide id columns: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ImportWorkbook reads rows back from a sheet written by ExportWorkbook or
// typed by hand. Headers are matched against column labels and fields; unknown
// headers are ignored. Rows without an id become placeholders. Group children
// are rebuilt from the outlined model rows right above each group row. An
// empty sheet name reads the first sheet.
func ImportWorkbook(r io.Reader, sheet string, columns Columns) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %q: %w", sheet, err)
	}
	if len(grid) == 0 {
		return nil, nil
	}

	idCol, orderCol := -1, -1
	fieldAt := make(map[int]Column)
	for i, h := range grid[0] {
		h = strings.TrimSpace(h)
		switch {
		case strings.EqualFold(h, idHeader):
			idCol = i
		case strings.EqualFold(h, orderHeader):
			orderCol = i
		default:
			if col, ok := columnByHeader(columns, h); ok {
				fieldAt[i] = col
			}
		}
	}

	var (
		rows         []Row
		outlined     []int
		placeholders int
	)
	for i, line := range grid[1:] {
		excelRow := i + 2
		if isBlankLine(line) {
			continue
		}
		row := Row{Data: make(RowData, len(fieldAt))}
		if idCol >= 0 && idCol < len(line) && strings.TrimSpace(line[idCol]) != "" {
			id, err := ParseRowID(line[idCol])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", excelRow, err)
			}
			row.ID = id
		} else {
			placeholders++
			row.ID = PlaceholderID(placeholders)
		}
		if orderCol >= 0 && orderCol < len(line) {
			row.Order = line[orderCol]
		}
		for idx, col := range fieldAt {
			text := ""
			if idx < len(line) {
				text = line[idx]
			}
			v, err := coerceCell(col, text)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", cellName(idx, excelRow-1), err)
			}
			row.Data[col.Field] = v
		}

		switch {
		case row.IsGroup():
			row.Children = outlined
			outlined = nil
		case row.IsModel():
			level, err := f.GetRowOutlineLevel(sheet, excelRow)
			if err != nil {
				Logger().Warn("cannot read row outline level", zap.Int("row", excelRow), zap.Error(err))
			}
			if level > 0 {
				outlined = append(outlined, row.ID.N)
			} else {
				outlined = nil
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func columnByHeader(columns Columns, header string) (Column, bool) {
	for _, col := range columns {
		if strings.EqualFold(col.DisplayLabel(), header) || strings.EqualFold(col.Field, header) {
			return col, true
		}
	}
	return Column{}, false
}

func isBlankLine(line []string) bool {
	for _, v := range line {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
