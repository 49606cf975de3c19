// Package sheets is the spreadsheet access layer: a small tabular model over
// excelize (.xlsx) with a legacy .xls fallback, plus the canonical writer.
package sheets

import (
	"strings"
)

// Table is an in-memory spreadsheet region: a header and its data rows. Rows
// are padded to the header width on construction so column indexing is safe.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable builds a table from raw rows, taking rows[headerRow] as the
// header and everything below it as data.
func NewTable(rows [][]string, headerRow int) *Table {
	t := &Table{}
	if headerRow >= len(rows) {
		return t
	}
	for _, c := range rows[headerRow] {
		t.Columns = append(t.Columns, strings.TrimSpace(c))
	}
	for _, r := range rows[headerRow+1:] {
		t.Rows = append(t.Rows, padRow(r, len(t.Columns)))
	}
	return t
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// Col returns the index of the named column, matching case-insensitively on
// trimmed labels. Returns -1 when absent.
func (t *Table) Col(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// Get returns the cell at (row, named column), or "" when either is absent.
func (t *Table) Get(row []string, name string) string {
	i := t.Col(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// MissingColumns reports which of the given labels have no column.
func (t *Table) MissingColumns(labels ...string) []string {
	var missing []string
	for _, l := range labels {
		if t.Col(l) < 0 {
			missing = append(missing, l)
		}
	}
	return missing
}

// Filter keeps only rows for which keep returns true.
func (t *Table) Filter(keep func(row []string) bool) {
	filtered := t.Rows[:0]
	for _, r := range t.Rows {
		if keep(r) {
			filtered = append(filtered, r)
		}
	}
	t.Rows = filtered
}

// PrependColumns inserts fixed-value columns at the front of the table; used
// to tag every combined row with bank/client/account.
func (t *Table) PrependColumns(names []string, values []string) {
	t.Columns = append(append([]string{}, names...), t.Columns...)
	for i, r := range t.Rows {
		t.Rows[i] = append(append([]string{}, values...), r...)
	}
}

// AddColumn appends an empty named column and returns its index.
func (t *Table) AddColumn(name string) int {
	t.Columns = append(t.Columns, name)
	for i, r := range t.Rows {
		t.Rows[i] = append(r, "")
	}
	return len(t.Columns) - 1
}

// Append concatenates other onto t, aligning other's columns to t's header
// by name. Cells with no matching column in t are discarded; columns absent
// from other come through empty.
func (t *Table) Append(other *Table) {
	if len(t.Columns) == 0 {
		t.Columns = append(t.Columns, other.Columns...)
		t.Rows = append(t.Rows, other.Rows...)
		return
	}
	idx := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		idx[i] = other.Col(c)
	}
	for _, r := range other.Rows {
		aligned := make([]string, len(t.Columns))
		for i, j := range idx {
			if j >= 0 && j < len(r) {
				aligned[i] = r[j]
			}
		}
		t.Rows = append(t.Rows, aligned)
	}
}

// TruncateAtFooter cuts the table before the first occurrence of two or more
// consecutive fully-empty rows, the footer marker used by several banks.
func (t *Table) TruncateAtFooter() {
	emptyRun := 0
	for i, r := range t.Rows {
		if isEmptyRow(r) {
			emptyRun++
			if emptyRun >= 2 {
				t.Rows = t.Rows[:i-1]
				return
			}
		} else {
			emptyRun = 0
		}
	}
}

// DropEmptyRows removes fully-empty rows.
func (t *Table) DropEmptyRows() {
	t.Filter(func(r []string) bool { return !isEmptyRow(r) })
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
