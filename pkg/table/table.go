// SPDX-License-Identifier: Apache-2.0

package table

// Table is an immutable, ordered sequence of rows. Rows don't need to have the
// same number of cells.
type Table struct {
	rows  [][]string
	width int
}

// New builds a table from the rows on input. The rows are copied.
func New(rows [][]string) *Table {
	t := &Table{rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		t.rows = append(t.rows, append([]string(nil), row...))
		if len(row) > t.width {
			t.width = len(row)
		}
	}
	return t
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Width returns the length of the widest row.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return t.width
}

// Row returns a copy of the row at index i.
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// Rows returns a copy of all the table rows.
func (t *Table) Rows() [][]string {
	if t == nil {
		return nil
	}
	rows := make([][]string, 0, len(t.rows))
	for i := range t.rows {
		rows = append(rows, t.Row(i))
	}
	return rows
}

// Cell returns the value at the given position. The boolean is false when the
// row is shorter than the requested column.
func (t *Table) Cell(row, col int) (string, bool) {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.rows[row]) {
		return "", false
	}
	return t.rows[row][col], true
}
