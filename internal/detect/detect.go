// Package detect infers semantic column roles (year, region, crop, metric)
// from noisy tabular headers and sampled values. Every detector is an ordered
// list of (description, extractor) rules evaluated first-match-wins, so the
// precedence between name matching and value-shape fallbacks stays explicit
// and testable. Detection never fails hard: a miss yields "not found" plus a
// human-readable note for provenance.
package detect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cropwise/agroquery/internal/table"
)

// Year bounds considered plausible for a year-valued column.
const (
	minPlausibleYear = 1800
	maxPlausibleYear = 2100
)

// Temperature bounds (°C) considered plausible for the min/max fallback.
const (
	minPlausibleTemp = -60.0
	maxPlausibleTemp = 80.0
)

// Notes collects human-readable detection remarks surfaced as provenance.
type Notes []string

// Addf appends a formatted note.
func (n *Notes) Addf(format string, args ...any) {
	*n = append(*n, fmt.Sprintf(format, args...))
}

// Candidates holds the priority-ordered canonical column names tried per role.
// Entries are matched against canonicalized headers, so they use spaces where
// a source header may carry underscores or dashes.
type Candidates struct {
	Year             []string
	Region           []string
	Crop             []string
	ClimateMetric    []string
	ProductionMetric []string
}

// DefaultCandidates returns the candidate lists observed across the supported
// government datasets.
func DefaultCandidates() Candidates {
	return Candidates{
		Year:             []string{"year", "yy", "yr", "season", "reporting year", "financial year"},
		Region:           []string{"state", "region", "subdivision", "district", "state name"},
		Crop:             []string{"crop", "commodity", "crop name", "crops"},
		ClimateMetric:    []string{"annual mean temp c", "annual rainfall mm", "rainfall mm", "mean temp c"},
		ProductionMetric: []string{"production tonnes", "production", "quantity"},
	}
}

// Detector resolves column roles for a single table. It holds no state beyond
// its candidate lists; construct once per process and share freely.
type Detector struct {
	cand Candidates
}

// New builds a Detector. Candidate entries are canonicalized defensively so
// configured lists may carry the original punctuation.
func New(c Candidates) *Detector {
	canon := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = table.CanonicalName(s)
		}
		return out
	}
	return &Detector{cand: Candidates{
		Year:             canon(c.Year),
		Region:           canon(c.Region),
		Crop:             canon(c.Crop),
		ClimateMetric:    canon(c.ClimateMetric),
		ProductionMetric: canon(c.ProductionMetric),
	}}
}

// rule is one step of a detector: a description for notes plus an extractor
// returning the canonical column name, or "" for no match.
type rule struct {
	desc string
	find func(norm *table.Table) string
}

func (d *Detector) runRules(rules []rule, norm *table.Table, nm table.NameMap, role string, notes *Notes) (string, bool) {
	for _, r := range rules {
		if canon := r.find(norm); canon != "" {
			if r.desc != "" {
				notes.Addf("%s: %s (column %q)", role, r.desc, nm.Original(canon))
			}
			return nm.Original(canon), true
		}
	}
	notes.Addf("%s: no matching column found", role)
	return "", false
}

// nameMatch returns an extractor trying each candidate canonical name in
// priority order against the normalized header.
func nameMatch(candidates []string) func(norm *table.Table) string {
	return func(norm *table.Table) string {
		for _, cand := range candidates {
			if norm.ColumnIndex(cand) >= 0 {
				return cand
			}
		}
		return ""
	}
}

// Year resolves the year column: candidate names first, then the first column
// whose values look like years (at least 3 numeric cells, all within the
// plausible bounds).
func (d *Detector) Year(norm *table.Table, nm table.NameMap, notes *Notes) (string, bool) {
	rules := []rule{
		{desc: "", find: nameMatch(d.cand.Year)},
		{desc: "using numeric year-like values", find: func(t *table.Table) string {
			for _, col := range t.Columns {
				if yearShaped(t.NumericColumn(col)) {
					return col
				}
			}
			return ""
		}},
	}
	return d.runRules(rules, norm, nm, "year", notes)
}

func yearShaped(nums []float64) bool {
	if len(nums) < 3 {
		return false
	}
	mn, mx := nums[0], nums[0]
	for _, v := range nums[1:] {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	return mn >= minPlausibleYear && mx <= maxPlausibleYear
}

// Region resolves the region/state column. Absence is valid: national-only
// tables carry no region, so there is no value-shape fallback.
func (d *Detector) Region(norm *table.Table, nm table.NameMap, notes *Notes) (string, bool) {
	return d.runRules([]rule{{desc: "", find: nameMatch(d.cand.Region)}}, norm, nm, "region", notes)
}

// Crop resolves the crop/commodity column by name only.
func (d *Detector) Crop(norm *table.Table, nm table.NameMap, notes *Notes) (string, bool) {
	return d.runRules([]rule{{desc: "", find: nameMatch(d.cand.Crop)}}, norm, nm, "crop", notes)
}

// ClimateMetric resolves a climate metric column: candidate names first, then
// the first numeric column that is neither the year nor the region column.
func (d *Detector) ClimateMetric(norm *table.Table, nm table.NameMap, yearCol, regionCol string, notes *Notes) (string, bool) {
	rules := []rule{
		{desc: "", find: nameMatch(d.cand.ClimateMetric)},
		{desc: "falling back to first numeric column", find: func(t *table.Table) string {
			for _, col := range t.Columns {
				if nm.Original(col) == yearCol || nm.Original(col) == regionCol {
					continue
				}
				if len(t.NumericColumn(col)) > 0 {
					return col
				}
			}
			return ""
		}},
	}
	return d.runRules(rules, norm, nm, "climate metric", notes)
}

// ProductionMetric resolves a single (long-format) production column by name.
// Wide tables are recognized separately via WideProductionColumns.
func (d *Detector) ProductionMetric(norm *table.Table, nm table.NameMap, notes *Notes) (string, bool) {
	return d.runRules([]rule{{desc: "", find: nameMatch(d.cand.ProductionMetric)}}, norm, nm, "production metric", notes)
}

// wideProductionPattern matches headers like "2016-17 - Production", the wide
// layout used by the PM-AASHA production tables (en dash tolerated).
var wideProductionPattern = regexp.MustCompile(`(?i)\d{4}[-–]\d{2}\s*-\s*Production`)

// WideProductionColumns returns, in header order, the original names of
// columns carrying one year-range production value each. A non-empty result
// means the table is wide and should be melted.
func WideProductionColumns(t *table.Table) []string {
	var out []string
	for _, c := range t.Columns {
		if wideProductionPattern.MatchString(c) {
			out = append(out, c)
		}
	}
	return out
}

// MinMax is the outcome of annual min/max pair detection for temperature
// series that lack a precomputed mean.
type MinMax struct {
	MinColumn string // original name; empty when only a single metric applies
	MaxColumn string // original name
	Single    string // original name of a lone usable metric column
}

// Found reports whether any usable column was identified.
func (m MinMax) Found() bool { return m.MinColumn != "" || m.MaxColumn != "" || m.Single != "" }

// AnnualMinMax locates annual-min and annual-max temperature columns. Name
// tokens win first; otherwise numeric columns in a plausible temperature range
// (year-like columns excluded) are considered: one candidate is used directly,
// two are ordered by mean into (min, max), anything else fails with a note.
func (d *Detector) AnnualMinMax(norm *table.Table, nm table.NameMap, yearCol string, notes *Notes) (MinMax, bool) {
	var minCanon, maxCanon string
	for _, c := range norm.Columns {
		if strings.Contains(c, "annual") && strings.Contains(c, "min") {
			minCanon = c
		}
		if strings.Contains(c, "annual") && strings.Contains(c, "max") {
			maxCanon = c
		}
	}
	if minCanon != "" && maxCanon != "" {
		return MinMax{MinColumn: nm.Original(minCanon), MaxColumn: nm.Original(maxCanon)}, true
	}

	notes.Addf("annual min/max: no 'annual min'/'annual max' tokens found, trying numeric fallback")
	type scored struct {
		canon string
		mean  float64
	}
	var cands []scored
	for _, c := range norm.Columns {
		if strings.Contains(c, "year") || nm.Original(c) == yearCol {
			continue
		}
		nums := norm.NumericColumn(c)
		if len(nums) < 3 {
			continue
		}
		var sum float64
		for _, v := range nums {
			sum += v
		}
		mean := sum / float64(len(nums))
		if mean < minPlausibleTemp || mean > maxPlausibleTemp {
			continue
		}
		cands = append(cands, scored{canon: c, mean: mean})
	}
	switch len(cands) {
	case 1:
		notes.Addf("annual min/max: single plausible column %q used directly", nm.Original(cands[0].canon))
		return MinMax{Single: nm.Original(cands[0].canon)}, true
	case 2:
		lo, hi := cands[0], cands[1]
		if hi.mean < lo.mean {
			lo, hi = hi, lo
		}
		notes.Addf("annual min/max: paired %q (lower mean) with %q (higher mean)", nm.Original(lo.canon), nm.Original(hi.canon))
		return MinMax{MinColumn: nm.Original(lo.canon), MaxColumn: nm.Original(hi.canon)}, true
	case 0:
		notes.Addf("annual min/max: no candidate columns found even after fallback")
	default:
		notes.Addf("annual min/max: %d ambiguous numeric candidates, refusing to guess", len(cands))
	}
	return MinMax{}, false
}
