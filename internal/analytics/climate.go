package analytics

import (
	"fmt"
	"sort"

	"github.com/cropwise/agroquery/internal/detect"
	"github.com/cropwise/agroquery/internal/table"
)

// ClimateDebug is the full detection trail attached to a national climate
// average, kept even when detection fails so operators can see what the
// detector saw.
type ClimateDebug struct {
	ColumnsSample  []string            `json:"columns_sample,omitempty"`
	RowsSample     []map[string]string `json:"rows_sample,omitempty"`
	DetectionNotes []string            `json:"detection_notes,omitempty"`
	AvailableYears []int               `json:"available_years_sample,omitempty"`
}

// ClimateAverage is the national mean temperature over a trailing window,
// with the rows and columns that produced it.
type ClimateAverage struct {
	Region    string      `json:"region"`
	Value     float64     `json:"avg_annual_mean_temp_c"`
	YearsUsed [2]int      `json:"years_used"`
	YearCol   string      `json:"year_column"`
	MinCol    string      `json:"min_col,omitempty"`
	MaxCol    string      `json:"max_col,omitempty"`
	RowsUsed  []YearValue `json:"rows_used,omitempty"`
}

// NationalClimateAverage derives a per-row mean temperature from detected
// annual min/max columns, windows it to the trailing lastN years, and averages
// it. A nil result with a populated debug trail means detection failed; this
// never returns an error.
func (e *Engine) NationalClimateAverage(t *table.Table, lastN int) (*ClimateAverage, ClimateDebug) {
	debug := ClimateDebug{}
	if t == nil || t.Empty() {
		debug.DetectionNotes = append(debug.DetectionNotes, "climate table empty")
		if t != nil {
			debug.ColumnsSample = t.Columns
		}
		return nil, debug
	}
	debug.ColumnsSample = t.Columns
	debug.RowsSample = t.Head(10)

	var notes detect.Notes
	norm, nm := table.Normalize(t)
	yearCol, okYear := e.det.Year(norm, nm, &notes)
	if !okYear {
		debug.DetectionNotes = append(notes, "no year-like column found")
		return nil, debug
	}
	mm, okMM := e.det.AnnualMinMax(norm, nm, yearCol, &notes)
	if !okMM {
		debug.DetectionNotes = notes
		return nil, debug
	}
	debug.DetectionNotes = notes

	yearIdx := t.ColumnIndex(yearCol)
	minIdx := t.ColumnIndex(mm.MinColumn)
	maxIdx := t.ColumnIndex(mm.MaxColumn)
	singleIdx := t.ColumnIndex(mm.Single)

	type point struct {
		year int
		mean float64
	}
	var points []point
	maxYear := 0
	seen := false
	for _, r := range t.Rows {
		yv, oky := table.ParseNumber(r[yearIdx])
		if !oky {
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
		case singleIdx >= 0:
			v, okv := table.ParseNumber(r[singleIdx])
			if !okv {
				continue
			}
			mean = v
		default:
			continue
		}
		y := int(yv)
		points = append(points, point{year: y, mean: mean})
		if !seen || y > maxYear {
			maxYear = y
			seen = true
		}
	}
	if !seen {
		debug.DetectionNotes = append(debug.DetectionNotes, fmt.Sprintf("year column %q could not be coerced to numeric", yearCol))
		return nil, debug
	}

	if lastN < 1 {
		lastN = 1
	}
	minYear := maxYear - lastN + 1
	var sum float64
	var rowsUsed []YearValue
	for _, p := range points {
		if p.year < minYear || p.year > maxYear {
			continue
		}
		sum += p.mean
		rowsUsed = append(rowsUsed, YearValue{Year: p.year, Value: p.mean})
	}
	if len(rowsUsed) == 0 {
		debug.DetectionNotes = append(debug.DetectionNotes, fmt.Sprintf("no rows in year range %d..%d", minYear, maxYear))
		avail := map[int]struct{}{}
		for _, p := range points {
			avail[p.year] = struct{}{}
		}
		for y := range avail {
			debug.AvailableYears = append(debug.AvailableYears, y)
		}
		sort.Ints(debug.AvailableYears)
		if len(debug.AvailableYears) > 10 {
			debug.AvailableYears = debug.AvailableYears[:10]
		}
		return nil, debug
	}

	return &ClimateAverage{
		Region:    "All India",
		Value:     sum / float64(len(rowsUsed)),
		YearsUsed: [2]int{minYear, maxYear},
		YearCol:   yearCol,
		MinCol:    mm.MinColumn,
		MaxCol:    mm.MaxColumn,
		RowsUsed:  rowsUsed,
	}, debug
}
