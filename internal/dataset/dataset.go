// Package dataset locates and loads the on-disk source files, normalizing each
// into a tidy table. Discovery is a case-insensitive filename substring match;
// a missing file falls back to a small built-in sample so downstream analytics
// never see an absent table.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cropwise/agroquery/internal/detect"
	"github.com/cropwise/agroquery/internal/table"
)

// Role names one of the dataset slots the query flow draws from.
type Role string

const (
	CropProduction Role = "crop_production"
	ClimateSeries  Role = "climate_series"
	YieldAllIndia  Role = "yield_all_india"
)

// searchTerms lists the filename substrings tried per role, in order.
var searchTerms = map[Role][]string{
	CropProduction: {"crop-wise details of production"},
	ClimateSeries:  {"seasonal and annual minmax", "year-wise climate risk"},
	YieldAllIndia:  {"all india level yield"},
}

// SourceMeta records where a loaded table came from.
type SourceMeta struct {
	File   string `json:"source_file"`
	Path   string `json:"full_path,omitempty"`
	Sample bool   `json:"sample,omitempty"`
}

// Loader resolves dataset roles against a data directory.
type Loader struct {
	DataDir  string
	Detector *detect.Detector
}

// NewLoader builds a Loader over the given directory.
func NewLoader(dataDir string, det *detect.Detector) *Loader {
	return &Loader{DataDir: dataDir, Detector: det}
}

// FindFile returns the lexicographically first file in dir whose name contains
// substr case-insensitively, or "" when none match. Sorting makes discovery
// deterministic regardless of the platform's directory-listing order.
func FindFile(dir, substr string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	needle := strings.ToLower(substr)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), needle) {
			return filepath.Join(dir, n)
		}
	}
	return ""
}

func (l *Loader) resolve(role Role) string {
	for _, term := range searchTerms[role] {
		if p := FindFile(l.DataDir, term); p != "" {
			return p
		}
	}
	return ""
}

// Load resolves and loads a dataset role into a tidy table. A missing source
// file yields the role's sample table; only read or decode failures return an
// error.
func (l *Loader) Load(role Role) (*table.Table, SourceMeta, error) {
	switch role {
	case CropProduction:
		return l.loadCropProduction()
	case ClimateSeries:
		return l.loadClimateSeries()
	case YieldAllIndia:
		return l.loadYieldAllIndia()
	default:
		return nil, SourceMeta{}, fmt.Errorf("unknown dataset role %q", role)
	}
}

// loadCropProduction loads the crop production table and normalizes it to long
// form with columns year, crop, production_tonnes. Wide year-range production
// columns are melted; already-tidy tables are renamed in place.
func (l *Loader) loadCropProduction() (*table.Table, SourceMeta, error) {
	path := l.resolve(CropProduction)
	if path == "" {
		return sampleCropProduction(), SourceMeta{File: "sample_crop_production", Sample: true}, nil
	}
	raw, err := table.ReadCSV(path)
	if err != nil {
		return nil, SourceMeta{File: filepath.Base(path), Path: path}, fmt.Errorf("load crop production: %w", err)
	}
	meta := SourceMeta{File: filepath.Base(path), Path: path}

	norm, nm := table.Normalize(raw)
	var notes detect.Notes
	cropCol, haveCrop := l.Detector.Crop(norm, nm, &notes)

	if prodCols := detect.WideProductionColumns(raw); len(prodCols) > 0 && haveCrop {
		return meltWideProduction(raw, cropCol, prodCols), meta, nil
	}

	if tidy, ok := renameTidyProduction(raw); ok {
		return tidy, meta, nil
	}
	// Unrecognized layout: hand back the raw table for downstream detection.
	return raw, meta, nil
}

// meltWideProduction turns one row per crop with a column per year range into
// one row per (crop, year). The year is the start year of the range in the
// header; non-numeric production cells coerce to 0.
func meltWideProduction(raw *table.Table, cropCol string, prodCols []string) *table.Table {
	cropIdx := raw.ColumnIndex(cropCol)
	rows := make([][]string, 0, len(raw.Rows)*len(prodCols))
	for _, col := range prodCols {
		year, ok := ParseHeaderYear(col)
		if !ok {
			continue
		}
		colIdx := raw.ColumnIndex(col)
		for _, r := range raw.Rows {
			prod := 0.0
			if v, okv := table.ParseNumber(r[colIdx]); okv {
				prod = v
			}
			rows = append(rows, []string{
				strconv.Itoa(year),
				r[cropIdx],
				strconv.FormatFloat(prod, 'f', -1, 64),
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i][1] != rows[j][1] {
			return rows[i][1] < rows[j][1]
		}
		return rows[i][0] < rows[j][0]
	})
	return table.New([]string{"year", "crop", "production_tonnes"}, rows)
}

// renameTidyProduction recognizes an already-long production table and renames
// its columns to the canonical tidy schema. Returns false when no
// production-like column exists.
func renameTidyProduction(raw *table.Table) (*table.Table, bool) {
	renames := map[string]string{
		"production":          "production_tonnes",
		"production (tonnes)": "production_tonnes",
		"production_tonnes":   "production_tonnes",
		"quantity":            "production_tonnes",
		"crop":                "crop",
		"crops":               "crop",
		"commodity":           "crop",
		"crop_name":           "crop",
		"year":                "year",
		"season":              "year",
		"state":               "state",
		"state_name":          "state",
	}
	cols := make([]string, len(raw.Columns))
	found := false
	for i, c := range raw.Columns {
		if canon, ok := renames[strings.ToLower(strings.TrimSpace(c))]; ok {
			cols[i] = canon
			if canon == "production_tonnes" {
				found = true
			}
		} else {
			cols[i] = c
		}
	}
	if !found {
		return nil, false
	}
	return &table.Table{Columns: cols, Rows: raw.Rows}, true
}

// loadClimateSeries loads the temperature series. When a year column plus
// annual min/max columns are identifiable it reduces the table to
// (year, annual_mean_temp_c); otherwise the raw table is returned and the
// query flow runs its own robust detection.
func (l *Loader) loadClimateSeries() (*table.Table, SourceMeta, error) {
	path := l.resolve(ClimateSeries)
	if path == "" {
		return sampleClimate(), SourceMeta{File: "sample_climate", Sample: true}, nil
	}
	raw, err := table.ReadCSV(path)
	if err != nil {
		return nil, SourceMeta{File: filepath.Base(path), Path: path}, fmt.Errorf("load climate series: %w", err)
	}
	meta := SourceMeta{File: filepath.Base(path), Path: path}

	norm, nm := table.Normalize(raw)
	var notes detect.Notes
	yearCol, haveYear := l.Detector.Year(norm, nm, &notes)
	if !haveYear {
		return raw, meta, nil
	}
	var minCol, maxCol string
	for _, c := range norm.Columns {
		if strings.Contains(c, "annual") && strings.Contains(c, "min") {
			minCol = nm.Original(c)
		}
		if strings.Contains(c, "annual") && strings.Contains(c, "max") {
			maxCol = nm.Original(c)
		}
	}
	if minCol == "" && maxCol == "" {
		return raw, meta, nil
	}

	yearIdx := raw.ColumnIndex(yearCol)
	minIdx := raw.ColumnIndex(minCol)
	maxIdx := raw.ColumnIndex(maxCol)
	var rows [][]string
	for _, r := range raw.Rows {
		year, ok := table.ParseNumber(r[yearIdx])
		if !ok {
			continue
		}
		var mean float64
		switch {
		case minIdx >= 0 && maxIdx >= 0:
			lo, okLo := table.ParseNumber(r[minIdx])
			hi, okHi := table.ParseNumber(r[maxIdx])
			if !okLo || !okHi {
				continue
			}
			mean = (lo + hi) / 2.0
		case minIdx >= 0:
			v, okv := table.ParseNumber(r[minIdx])
			if !okv {
				continue
			}
			mean = v
		default:
			v, okv := table.ParseNumber(r[maxIdx])
			if !okv {
				continue
			}
			mean = v
		}
		rows = append(rows, []string{
			strconv.Itoa(int(year)),
			strconv.FormatFloat(mean, 'f', -1, 64),
		})
	}
	return table.New([]string{"year", "annual_mean_temp_c"}, rows), meta, nil
}

// loadYieldAllIndia loads the All-India yield table and melts the per-crop
// columns to (year, crop, yield_kg_per_ha).
func (l *Loader) loadYieldAllIndia() (*table.Table, SourceMeta, error) {
	path := l.resolve(YieldAllIndia)
	if path == "" {
		return sampleYield(), SourceMeta{File: "sample_yield", Sample: true}, nil
	}
	raw, err := table.ReadCSV(path)
	if err != nil {
		return nil, SourceMeta{File: filepath.Base(path), Path: path}, fmt.Errorf("load yield: %w", err)
	}
	meta := SourceMeta{File: filepath.Base(path), Path: path}

	yearIdx := -1
	for i, c := range raw.Columns {
		if strings.EqualFold(strings.TrimSpace(c), "year") {
			yearIdx = i
			break
		}
	}
	if yearIdx < 0 {
		return raw, meta, nil
	}

	var rows [][]string
	for colIdx, col := range raw.Columns {
		if colIdx == yearIdx {
			continue
		}
		for _, r := range raw.Rows {
			year, ok := ParseHeaderYear(r[yearIdx])
			if !ok {
				continue
			}
			val, okv := table.ParseNumber(r[colIdx])
			if !okv {
				continue
			}
			rows = append(rows, []string{
				strconv.Itoa(year),
				col,
				strconv.FormatFloat(val, 'f', -1, 64),
			})
		}
	}
	return table.New([]string{"year", "crop", "yield_kg_per_ha"}, rows), meta, nil
}

var (
	yearRangePattern = regexp.MustCompile(`(\d{4})[-–]\d{2}`)
	yearRunPattern   = regexp.MustCompile(`\d{4}`)
)

// ParseHeaderYear extracts a year from a header or cell such as
// "2016-17 - Production" or "2014-15": a YYYY-YY range yields its start year,
// otherwise the first 4-digit run anywhere in the string.
func ParseHeaderYear(s string) (int, bool) {
	if m := yearRangePattern.FindStringSubmatch(s); m != nil {
		y, err := strconv.Atoi(m[1])
		if err == nil {
			return y, true
		}
	}
	if m := yearRunPattern.FindString(s); m != "" {
		y, err := strconv.Atoi(m)
		if err == nil {
			return y, true
		}
	}
	return 0, false
}

func sampleCropProduction() *table.Table {
	return table.New(
		[]string{"year", "state", "district", "crop", "production_tonnes"},
		[][]string{
			{"2019", "StateA", "D1", "Wheat", "1300"},
			{"2019", "StateB", "D2", "Rice", "2000"},
		},
	)
}

func sampleClimate() *table.Table {
	return table.New(
		[]string{"year", "annual_mean_temp_c"},
		[][]string{
			{"2018", "26.5"},
			{"2019", "26.8"},
		},
	)
}

func sampleYield() *table.Table {
	return table.New(
		[]string{"year", "crop", "yield_kg_per_ha"},
		[][]string{
			{"2018", "Rice", "2659"},
			{"2019", "Wheat", "3533"},
		},
	)
}
