// Package analytics computes time-windowed aggregates over tidy tables whose
// column roles are detected at call time. Every result carries a Meta record
// naming the columns and years that produced it; Meta is the audit trail and
// callers must surface it, never drop it.
package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cropwise/agroquery/internal/detect"
	"github.com/cropwise/agroquery/internal/table"
)

// Meta documents the provenance of an aggregate: the trailing year window
// actually applied and the columns the detector resolved.
type Meta struct {
	YearsUsed      [2]int   `json:"years_used"`
	MetricColumn   string   `json:"metric_column,omitempty"`
	YearColumn     string   `json:"year_column,omitempty"`
	RegionColumn   string   `json:"region_column,omitempty"`
	DetectionNotes []string `json:"detection_notes,omitempty"`
}

// RegionValue is one grouped aggregate row keyed by region.
type RegionValue struct {
	Region string  `json:"region"`
	Value  float64 `json:"value"`
}

// CropVolume is one crop's summed production.
type CropVolume struct {
	Crop       string  `json:"crop"`
	Production float64 `json:"production_tonnes"`
}

// YearValue is one point of an annual series.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Trend is a least-squares line over an annual series.
type Trend struct {
	Slope     float64 `json:"slope_per_year"`
	Intercept float64 `json:"intercept"`
}

// JoinedPoint is one year where both production and a climate metric exist.
type JoinedPoint struct {
	Year       int     `json:"year"`
	Production float64 `json:"production_tonnes"`
	Metric     float64 `json:"metric"`
}

// CorrelationResult pairs a production series with a climate series. Pearson
// is nil when fewer than two year-aligned points exist.
type CorrelationResult struct {
	Pearson       *float64      `json:"pearson_corr"`
	ClimateMetric string        `json:"climate_metric,omitempty"`
	Joined        []JoinedPoint `json:"joined_rows,omitempty"`
}

// MissingColumnError reports that a required role could not be resolved.
type MissingColumnError struct {
	Role  string
	Notes []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("could not detect %s column", e.Role)
}

// EmptyWindowError reports that no rows fell inside the requested window.
type EmptyWindowError struct {
	MinYear, MaxYear int
	Available        []int
}

func (e *EmptyWindowError) Error() string {
	return fmt.Sprintf("no rows in year range %d..%d", e.MinYear, e.MaxYear)
}

// Engine evaluates aggregations. It is stateless beyond its detector and safe
// for concurrent use; every call re-derives everything from its input table.
type Engine struct {
	det *detect.Detector
}

// NewEngine builds an Engine around the given detector.
func NewEngine(det *detect.Detector) *Engine {
	return &Engine{det: det}
}

// windowed returns the rows whose year cell parses and falls inside the
// trailing window of lastN years ending at the maximum year present, plus the
// window bounds.
func windowed(t *table.Table, yearCol string, lastN int) (rows [][]string, minYear, maxYear int, err error) {
	idx := t.ColumnIndex(yearCol)
	if idx < 0 {
		return nil, 0, 0, &MissingColumnError{Role: "year"}
	}
	type parsed struct {
		row  []string
		year int
	}
	var all []parsed
	maxYear = 0
	seen := false
	for _, r := range t.Rows {
		v, ok := table.ParseNumber(r[idx])
		if !ok {
			continue
		}
		y := int(v)
		all = append(all, parsed{row: r, year: y})
		if !seen || y > maxYear {
			maxYear = y
			seen = true
		}
	}
	if !seen {
		return nil, 0, 0, &MissingColumnError{Role: "year", Notes: []string{fmt.Sprintf("column %q has no numeric year values", yearCol)}}
	}
	if lastN < 1 {
		lastN = 1
	}
	minYear = maxYear - lastN + 1
	for _, p := range all {
		if p.year >= minYear && p.year <= maxYear {
			rows = append(rows, p.row)
		}
	}
	if len(rows) == 0 {
		avail := make(map[int]struct{})
		for _, p := range all {
			avail[p.year] = struct{}{}
		}
		years := make([]int, 0, len(avail))
		for y := range avail {
			years = append(years, y)
		}
		sort.Ints(years)
		return nil, minYear, maxYear, &EmptyWindowError{MinYear: minYear, MaxYear: maxYear, Available: years}
	}
	return rows, minYear, maxYear, nil
}

// AvgMetricByRegion computes the mean of a detected climate metric over the
// trailing window, grouped by region when a region column exists and filtered
// to the given region names. Without a region column it returns a single
// national average.
func (e *Engine) AvgMetricByRegion(t *table.Table, regions []string, lastN int) ([]RegionValue, Meta, error) {
	var notes detect.Notes
	norm, nm := table.Normalize(t)
	meta := Meta{}

	yearCol, ok := e.det.Year(norm, nm, &notes)
	if !ok {
		meta.DetectionNotes = notes
		return nil, meta, &MissingColumnError{Role: "year", Notes: notes}
	}
	regionCol, hasRegion := e.det.Region(norm, nm, &notes)
	metricCol, ok := e.det.ClimateMetric(norm, nm, yearCol, regionCol, &notes)
	if !ok {
		meta.DetectionNotes = notes
		return nil, meta, &MissingColumnError{Role: "climate metric", Notes: notes}
	}
	meta.YearColumn = yearCol
	meta.MetricColumn = metricCol
	if hasRegion {
		meta.RegionColumn = regionCol
	}
	meta.DetectionNotes = notes

	rows, minYear, maxYear, err := windowed(t, yearCol, lastN)
	if err != nil {
		return nil, meta, err
	}
	meta.YearsUsed = [2]int{minYear, maxYear}

	metricIdx := t.ColumnIndex(metricCol)
	if !hasRegion {
		var sum float64
		var n int
		for _, r := range rows {
			if v, okv := table.ParseNumber(r[metricIdx]); okv {
				sum += v
				n++
			}
		}
		if n == 0 {
			return nil, meta, &MissingColumnError{Role: "climate metric", Notes: []string{fmt.Sprintf("column %q has no numeric values in window", metricCol)}}
		}
		return []RegionValue{{Region: "All India", Value: sum / float64(n)}}, meta, nil
	}

	regionIdx := t.ColumnIndex(regionCol)
	want := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		want[r] = struct{}{}
	}
	sums := map[string]float64{}
	counts := map[string]int{}
	var order []string
	for _, r := range rows {
		region := strings.TrimSpace(r[regionIdx])
		if len(want) > 0 {
			if _, okr := want[region]; !okr {
				continue
			}
		}
		v, okv := table.ParseNumber(r[metricIdx])
		if !okv {
			continue
		}
		if _, seen := counts[region]; !seen {
			order = append(order, region)
		}
		sums[region] += v
		counts[region]++
	}
	out := make([]RegionValue, 0, len(order))
	for _, region := range order {
		out = append(out, RegionValue{Region: region, Value: sums[region] / float64(counts[region])})
	}
	return out, meta, nil
}

// TopCropsByVolume sums the production metric per crop over the trailing
// window, optionally filtered to one region, and returns the top M crops by
// summed volume. The sort is stable, so ties keep first-seen grouping order.
func (e *Engine) TopCropsByVolume(t *table.Table, region string, lastN, topM int) ([]CropVolume, Meta, error) {
	var notes detect.Notes
	norm, nm := table.Normalize(t)
	meta := Meta{}

	cropCol, ok := e.det.Crop(norm, nm, &notes)
	if !ok {
		meta.DetectionNotes = notes
		return nil, meta, &MissingColumnError{Role: "crop", Notes: notes}
	}
	prodCol, ok := e.det.ProductionMetric(norm, nm, &notes)
	if !ok {
		meta.DetectionNotes = notes
		return nil, meta, &MissingColumnError{Role: "production metric", Notes: notes}
	}
	meta.MetricColumn = prodCol

	rows := t.Rows
	if yearCol, okYear := e.det.Year(norm, nm, &notes); okYear {
		meta.YearColumn = yearCol
		wrows, minYear, maxYear, err := windowed(t, yearCol, lastN)
		if err != nil {
			// Season-style year columns ("Kharif", "Rabi") detect but never
			// parse; aggregate over all rows instead of failing.
			notes.Addf("year column %q has no usable numeric years, skipping window", yearCol)
		} else {
			meta.YearsUsed = [2]int{minYear, maxYear}
			rows = wrows
		}
	}
	regionCol, hasRegion := e.det.Region(norm, nm, &notes)
	meta.DetectionNotes = notes

	cropIdx := t.ColumnIndex(cropCol)
	prodIdx := t.ColumnIndex(prodCol)
	regionIdx := -1
	if hasRegion {
		meta.RegionColumn = regionCol
		regionIdx = t.ColumnIndex(regionCol)
	}

	sums := map[string]float64{}
	var order []string
	for _, r := range rows {
		if region != "" && regionIdx >= 0 && strings.TrimSpace(r[regionIdx]) != region {
			continue
		}
		crop := strings.TrimSpace(r[cropIdx])
		if crop == "" {
			continue
		}
		v, okv := table.ParseNumber(r[prodIdx])
		if !okv {
			v = 0
		}
		if _, seen := sums[crop]; !seen {
			order = append(order, crop)
		}
		sums[crop] += v
	}
	out := make([]CropVolume, 0, len(order))
	for _, crop := range order {
		out = append(out, CropVolume{Crop: crop, Production: sums[crop]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Production > out[j].Production })
	if topM >= 0 && len(out) > topM {
		out = out[:topM]
	}
	return out, meta, nil
}

// ProductionTrend collapses a crop's production to per-year sums and fits a
// least-squares line over them. The crop match is case-insensitive; filters
// apply as exact equality on additional columns (missing filter columns are
// ignored).
func (e *Engine) ProductionTrend(t *table.Table, cropName string, filters map[string]string) ([]YearValue, Trend, Meta, error) {
	var notes detect.Notes
	norm, nm := table.Normalize(t)
	meta := Meta{}

	cropCol, ok := e.det.Crop(norm, nm, &notes)
	if !ok {
		meta.DetectionNotes = notes
		return nil, Trend{}, meta, &MissingColumnError{Role: "crop", Notes: notes}
	}
	prodCol, ok := e.det.ProductionMetric(norm, nm, &notes)
	if !ok {
		meta.DetectionNotes = notes
		return nil, Trend{}, meta, &MissingColumnError{Role: "production metric", Notes: notes}
	}
	yearCol, haveYear := e.det.Year(norm, nm, &notes)
	meta.MetricColumn = prodCol
	meta.YearColumn = yearCol
	meta.DetectionNotes = notes

	cropIdx := t.ColumnIndex(cropCol)
	prodIdx := t.ColumnIndex(prodCol)
	yearIdx := -1
	if haveYear {
		yearIdx = t.ColumnIndex(yearCol)
	}

	type filterIdx struct {
		idx  int
		want string
	}
	var fidx []filterIdx
	for col, want := range filters {
		idx := t.ColumnIndex(col)
		if idx < 0 {
			idx = t.ColumnIndex(nm.Original(table.CanonicalName(col)))
		}
		if idx >= 0 {
			fidx = append(fidx, filterIdx{idx: idx, want: want})
		}
	}

	sums := map[int]float64{}
	for _, r := range t.Rows {
		if !strings.EqualFold(strings.TrimSpace(r[cropIdx]), cropName) {
			continue
		}
		skip := false
		for _, f := range fidx {
			if strings.TrimSpace(r[f.idx]) != f.want {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		v, okv := table.ParseNumber(r[prodIdx])
		if !okv {
			v = 0
		}
		year := 0
		if yearIdx >= 0 {
			yv, oky := table.ParseNumber(r[yearIdx])
			if !oky {
				continue
			}
			year = int(yv)
		}
		sums[year] += v
	}

	years := make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Ints(years)
	series := make([]YearValue, 0, len(years))
	xs := make([]float64, 0, len(years))
	ys := make([]float64, 0, len(years))
	for _, y := range years {
		series = append(series, YearValue{Year: y, Value: sums[y]})
		xs = append(xs, float64(y))
		ys = append(ys, sums[y])
	}
	if len(series) > 0 {
		meta.YearsUsed = [2]int{series[0].Year, series[len(series)-1].Year}
	}
	slope, intercept := olsLine(xs, ys)
	return series, Trend{Slope: slope, Intercept: intercept}, meta, nil
}

// CorrelateProductionClimate inner-joins a crop's per-year production series
// with a region's per-year climate metric series and computes their Pearson
// correlation. Any failure in either sub-computation yields an empty result
// with a nil coefficient, never an error.
func (e *Engine) CorrelateProductionClimate(prod, clim *table.Table, cropName, region string) CorrelationResult {
	filters := map[string]string{}
	if region != "" {
		filters["state"] = region
	}
	prodSeries, _, _, err := e.ProductionTrend(prod, cropName, filters)
	if err != nil || len(prodSeries) == 0 {
		return CorrelationResult{}
	}

	var notes detect.Notes
	norm, nm := table.Normalize(clim)
	yearCol, okYear := e.det.Year(norm, nm, &notes)
	if !okYear {
		return CorrelationResult{}
	}
	regionCol, hasRegion := e.det.Region(norm, nm, &notes)
	metricCol, okMetric := e.det.ClimateMetric(norm, nm, yearCol, regionCol, &notes)
	if !okMetric {
		return CorrelationResult{}
	}

	yearIdx := clim.ColumnIndex(yearCol)
	metricIdx := clim.ColumnIndex(metricCol)
	regionIdx := -1
	if hasRegion {
		regionIdx = clim.ColumnIndex(regionCol)
	}
	climSums := map[int]float64{}
	climCounts := map[int]int{}
	for _, r := range clim.Rows {
		if region != "" && regionIdx >= 0 && strings.TrimSpace(r[regionIdx]) != region {
			continue
		}
		yv, oky := table.ParseNumber(r[yearIdx])
		if !oky {
			continue
		}
		mv, okm := table.ParseNumber(r[metricIdx])
		if !okm {
			continue
		}
		y := int(yv)
		climSums[y] += mv
		climCounts[y]++
	}

	var joined []JoinedPoint
	var xs, ys []float64
	for _, p := range prodSeries {
		cnt, okc := climCounts[p.Year]
		if !okc || cnt == 0 {
			continue
		}
		metric := climSums[p.Year] / float64(cnt)
		joined = append(joined, JoinedPoint{Year: p.Year, Production: p.Value, Metric: metric})
		xs = append(xs, p.Value)
		ys = append(ys, metric)
	}
	return CorrelationResult{
		Pearson:       pearson(xs, ys),
		ClimateMetric: metricCol,
		Joined:        joined,
	}
}
