package table

import (
	"regexp"
	"strings"
)

var (
	punctRun = regexp.MustCompile(`[-_/\\(),]+`)
	spaceRun = regexp.MustCompile(`\s+`)
)

// CanonicalName lowers a column name into its matching form: the punctuation
// characters - _ / \ ( ) , collapse to single spaces, runs of whitespace
// collapse, and the result is trimmed and lowercased. Idempotent.
func CanonicalName(s string) string {
	s = punctRun.ReplaceAllString(s, " ")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// NameMap maps a canonical column name back to the original header. When two
// originals canonicalize to the same key, the later column in header order
// wins; the earlier one becomes unreachable through the map.
type NameMap map[string]string

// Original resolves a canonical name to the original header, falling back to
// the canonical form itself when unmapped.
func (m NameMap) Original(canonical string) string {
	if orig, ok := m[canonical]; ok {
		return orig
	}
	return canonical
}

// Normalize produces a view of t whose columns carry canonical names, plus the
// reverse map to the original headers. The row data is shared, not copied.
func Normalize(t *Table) (*Table, NameMap) {
	cols := make([]string, len(t.Columns))
	nm := make(NameMap, len(t.Columns))
	for i, c := range t.Columns {
		canon := CanonicalName(c)
		cols[i] = canon
		nm[canon] = c
	}
	return &Table{Columns: cols, Rows: t.Rows}, nm
}
