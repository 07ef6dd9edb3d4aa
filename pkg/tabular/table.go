// Package tabular turns raw corpus table bytes into typed, queryable
// relations. The corpus tables are scraped from encyclopedia pages and
// are inherently messy (merged cells, footnote markers, mixed date
// formats), so loading never fails on ragged or ambiguous content;
// ambiguity degrades to string cells instead.
package tabular

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
)

// Cell is one table value: the raw text plus the typed view implied by
// its column's inferred type.
type Cell struct {
	Raw  string
	Type CellType
	Int  int64
	Dec  float64
	Date Date
}

// Table is an ordered relation: named columns and rows of cells. Every
// row has exactly len(Columns) cells and column names are unique.
type Table struct {
	Columns []string
	Types   []CellType
	Rows    [][]Cell
}

// UnknownColumnError reports a reference to a column a table does not have.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

// Load parses delimiter-separated bytes into a Table. The first record
// is the header; the delimiter is sniffed (tab beats comma when both
// appear in the header line). Ragged rows are padded or truncated to the
// header width. Column types are inferred per cell (integer, then
// decimal, then date, then string); a column keeps a non-string type
// only when every non-empty cell agrees on it.
func Load(data []byte) (*Table, error) {
	text := strings.TrimPrefix(string(data), "\uFEFF")

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("table has no header record")
	}

	columns := dedupeColumns(records[0])
	width := len(columns)

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, width)
		for i := 0; i < width && i < len(rec); i++ {
			row[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, row)
	}

	types := inferColumnTypes(rows, width)

	t := &Table{Columns: columns, Types: types, Rows: make([][]Cell, 0, len(rows))}
	for _, row := range rows {
		cells := make([]Cell, width)
		for i, raw := range row {
			cells[i] = makeCell(raw, types[i])
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

func sniffDelimiter(text string) rune {
	header := text
	if i := strings.IndexByte(header, '\n'); i >= 0 {
		header = header[:i]
	}
	if strings.ContainsRune(header, '\t') {
		return '\t'
	}
	return ','
}

func dedupeColumns(header []string) []string {
	columns := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i)
		}
		base := name
		for n := 2; ; n++ {
			if _, ok := seen[name]; !ok {
				break
			}
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = struct{}{}
		columns[i] = name
	}
	return columns
}

func inferColumnTypes(rows [][]string, width int) []CellType {
	types := make([]CellType, width)
	for col := 0; col < width; col++ {
		colType := TypeString
		first := true
		for _, row := range rows {
			raw := cleanCell(row[col])
			if raw == "" {
				continue
			}
			ct := inferCellType(raw)
			if first {
				colType = ct
				first = false
				continue
			}
			if ct != colType {
				// An int among decimals widens; anything else disagrees.
				if (colType == TypeDecimal && ct == TypeInt) || (colType == TypeInt && ct == TypeDecimal) {
					colType = TypeDecimal
					continue
				}
				colType = TypeString
				break
			}
		}
		types[col] = colType
	}
	return types
}

func makeCell(raw string, typ CellType) Cell {
	c := Cell{Raw: raw, Type: typ}
	if cleanCell(raw) == "" {
		c.Type = TypeString
		return c
	}
	switch typ {
	case TypeInt:
		c.Int, _ = parseInt(raw)
		c.Dec = float64(c.Int)
	case TypeDecimal:
		c.Dec, _ = parseDecimal(raw)
	case TypeDate:
		c.Date, _ = ParseDate(raw)
	}
	return c
}

// Text returns the cleaned textual value of the cell.
func (c Cell) Text() string {
	return cleanCell(c.Raw)
}

// Compare orders two cells of the same column type. Empty cells sort
// before any value regardless of the column type; string cells compare
// case-insensitively on cleaned text.
func (c Cell) Compare(o Cell) int {
	cEmpty, oEmpty := c.Text() == "", o.Text() == ""
	switch {
	case cEmpty && oEmpty:
		return 0
	case cEmpty:
		return -1
	case oEmpty:
		return 1
	}
	switch c.Type {
	case TypeInt:
		if o.Type == TypeInt {
			return cmpInt64(c.Int, o.Int)
		}
		fallthrough
	case TypeDecimal:
		return cmpFloat(c.Dec, o.Dec)
	case TypeDate:
		return c.Date.Compare(o.Date)
	default:
		return strings.Compare(strings.ToLower(c.Text()), strings.ToLower(o.Text()))
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Row is one table row with access to its column names.
type Row struct {
	table *Table
	Cells []Cell
}

// Get returns the cell under the named column.
func (r Row) Get(column string) (Cell, bool) {
	i, ok := r.table.ColumnIndex(column)
	if !ok {
		return Cell{}, false
	}
	return r.Cells[i], true
}

// ColumnIndex returns the position of a named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i, true
		}
	}
	return 0, false
}

// Column returns the ordered cells of one column.
func (t *Table) Column(name string) ([]Cell, error) {
	i, ok := t.ColumnIndex(name)
	if !ok {
		return nil, &UnknownColumnError{Column: name}
	}
	out := make([]Cell, len(t.Rows))
	for j, row := range t.Rows {
		out[j] = row[i]
	}
	return out, nil
}

// Row returns row i.
func (t *Table) Row(i int) Row {
	return Row{table: t, Cells: t.Rows[i]}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Filter returns a new Table containing the rows satisfying pred, in
// their original order. The column list is shared; rows are not copied.
func (t *Table) Filter(pred func(Row) bool) *Table {
	out := &Table{Columns: t.Columns, Types: t.Types}
	for i := range t.Rows {
		if pred(t.Row(i)) {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}

// SortBy returns a new Table sorted by the named column. The sort is
// stable; ties are broken by the optional tieBreak column and, beyond
// that, by original row order, so the result is fully deterministic.
func (t *Table) SortBy(column string, descending bool, tieBreak string) (*Table, error) {
	ci, ok := t.ColumnIndex(column)
	if !ok {
		return nil, &UnknownColumnError{Column: column}
	}
	ti := -1
	if tieBreak != "" {
		i, ok := t.ColumnIndex(tieBreak)
		if !ok {
			return nil, &UnknownColumnError{Column: tieBreak}
		}
		ti = i
	}

	out := &Table{Columns: t.Columns, Types: t.Types, Rows: make([][]Cell, len(t.Rows))}
	copy(out.Rows, t.Rows)

	sort.SliceStable(out.Rows, func(a, b int) bool {
		c := out.Rows[a][ci].Compare(out.Rows[b][ci])
		if c == 0 && ti >= 0 {
			c = out.Rows[a][ti].Compare(out.Rows[b][ti])
		}
		if descending {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}
