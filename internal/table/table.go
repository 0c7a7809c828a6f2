package table

import (
	"strconv"
	"strings"
)

// Table is an immutable in-memory view of a delimited-text dataset: a header
// row plus string cells. Transformations return new tables; nothing mutates a
// loaded table in place.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New builds a table from a header and rows. Short rows are padded so every
// row has one cell per column.
func New(columns []string, rows [][]string) *Table {
	ncol := len(columns)
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		if len(r) < ncol {
			tmp := make([]string, ncol)
			copy(tmp, r)
			r = tmp
		}
		out = append(out, r[:ncol])
	}
	return &Table{Columns: append([]string(nil), columns...), Rows: out}
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns all cells of the named column in row order.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, true
}

// NumRows reports the row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// Empty reports whether the table has no rows or no columns.
func (t *Table) Empty() bool { return t == nil || len(t.Columns) == 0 || len(t.Rows) == 0 }

// Head returns up to n rows as column-name→cell maps, for samples and
// provenance records.
func (t *Table) Head(n int) []map[string]string {
	if t == nil {
		return nil
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([]map[string]string, 0, n)
	for _, r := range t.Rows[:n] {
		m := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			m[c] = r[i]
		}
		out = append(out, m)
	}
	return out
}

// Missing reports whether a cell value counts as absent.
func Missing(s string) bool {
	v := strings.TrimSpace(s)
	if v == "" {
		return true
	}
	switch strings.ToLower(v) {
	case "na", "n/a", "nan", "null", "-":
		return true
	}
	return false
}

// ParseNumber parses a cell as a float, tolerating thousands-commas and
// surrounding whitespace. Missing cells never parse.
func ParseNumber(s string) (float64, bool) {
	if Missing(s) {
		return 0, false
	}
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "\u00a0", " ")
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// NumericColumn parses a column, returning the values that parsed as numbers.
func (t *Table) NumericColumn(name string) []float64 {
	cells, ok := t.Column(name)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(cells))
	for _, c := range cells {
		if v, okv := ParseNumber(c); okv {
			out = append(out, v)
		}
	}
	return out
}
