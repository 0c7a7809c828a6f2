package detect

import (
	"testing"

	"github.com/cropwise/agroquery/internal/table"
)

func newDefault() *Detector { return New(DefaultCandidates()) }

func normalized(t *testing.T, cols []string, rows [][]string) (*table.Table, table.NameMap) {
	t.Helper()
	norm, nm := table.Normalize(table.New(cols, rows))
	return norm, nm
}

func TestYearByName(t *testing.T) {
	norm, nm := normalized(t, []string{"State", "Year", "Production"}, [][]string{
		{"A", "2015", "10"},
	})
	var notes Notes
	col, ok := newDefault().Year(norm, nm, &notes)
	if !ok || col != "Year" {
		t.Fatalf("Year = %q, %v; want Year, true", col, ok)
	}
}

func TestYearNameVariants(t *testing.T) {
	for _, header := range []string{"YEAR", "Reporting_Year", "Financial Year", "yr"} {
		norm, nm := normalized(t, []string{header, "v"}, nil)
		var notes Notes
		col, ok := newDefault().Year(norm, nm, &notes)
		if !ok || col != header {
			t.Fatalf("header %q: got %q, %v", header, col, ok)
		}
	}
}

func TestYearValueShapeFallback(t *testing.T) {
	norm, nm := normalized(t, []string{"Period", "Temp"}, [][]string{
		{"2015", "26.1"},
		{"2016", "26.3"},
		{"2017", "26.5"},
	})
	var notes Notes
	col, ok := newDefault().Year(norm, nm, &notes)
	if !ok || col != "Period" {
		t.Fatalf("Year fallback = %q, %v; want Period, true", col, ok)
	}
	if len(notes) == 0 {
		t.Fatal("expected a note for the fallback rule")
	}
}

func TestYearFallbackRejectsOutOfBounds(t *testing.T) {
	norm, nm := normalized(t, []string{"id", "name"}, [][]string{
		{"1", "a"}, {"2", "b"}, {"3", "c"},
	})
	var notes Notes
	if col, ok := newDefault().Year(norm, nm, &notes); ok {
		t.Fatalf("expected no year column, got %q", col)
	}
}

func TestRegionAbsenceIsValid(t *testing.T) {
	norm, nm := normalized(t, []string{"Year", "Production"}, nil)
	var notes Notes
	col, ok := newDefault().Region(norm, nm, &notes)
	if ok || col != "" {
		t.Fatalf("Region = %q, %v; want none", col, ok)
	}
	if len(notes) != 1 {
		t.Fatalf("notes = %v, want one miss note", notes)
	}
}

func TestRegionAndCropByName(t *testing.T) {
	norm, nm := normalized(t, []string{"State_Name", "Crop", "Year"}, nil)
	var notes Notes
	d := newDefault()
	if col, ok := d.Region(norm, nm, &notes); !ok || col != "State_Name" {
		t.Fatalf("Region = %q, %v", col, ok)
	}
	if col, ok := d.Crop(norm, nm, &notes); !ok || col != "Crop" {
		t.Fatalf("Crop = %q, %v", col, ok)
	}
}

func TestClimateMetricNumericFallback(t *testing.T) {
	norm, nm := normalized(t, []string{"Year", "State", "Humidity"}, [][]string{
		{"2015", "A", "61.2"},
		{"2016", "A", "60.8"},
		{"2017", "A", "62.0"},
	})
	var notes Notes
	col, ok := newDefault().ClimateMetric(norm, nm, "Year", "State", &notes)
	if !ok || col != "Humidity" {
		t.Fatalf("ClimateMetric = %q, %v; want Humidity, true", col, ok)
	}
}

func TestClimateMetricFallbackOnShortTable(t *testing.T) {
	// Unlike the year and min/max heuristics, the metric fallback has no
	// minimum row count: any numeric column qualifies.
	norm, nm := normalized(t, []string{"Year", "State", "Humidity"}, [][]string{
		{"2018", "A", "61.2"},
		{"2019", "A", "60.8"},
	})
	var notes Notes
	col, ok := newDefault().ClimateMetric(norm, nm, "Year", "State", &notes)
	if !ok || col != "Humidity" {
		t.Fatalf("ClimateMetric = %q, %v; want Humidity, true", col, ok)
	}
}

func TestWideProductionColumns(t *testing.T) {
	tbl := table.New([]string{"Crops", "2016-17 - Production", "2017-18 - Production", "Notes"}, nil)
	got := WideProductionColumns(tbl)
	if len(got) != 2 || got[0] != "2016-17 - Production" || got[1] != "2017-18 - Production" {
		t.Fatalf("WideProductionColumns = %#v", got)
	}
	if got := WideProductionColumns(table.New([]string{"Year", "Production"}, nil)); got != nil {
		t.Fatalf("expected no wide columns, got %#v", got)
	}
}

func TestAnnualMinMaxByTokens(t *testing.T) {
	norm, nm := normalized(t, []string{"YEAR", "ANNUAL - MIN", "ANNUAL - MAX"}, nil)
	var notes Notes
	mm, ok := newDefault().AnnualMinMax(norm, nm, "YEAR", &notes)
	if !ok || mm.MinColumn != "ANNUAL - MIN" || mm.MaxColumn != "ANNUAL - MAX" {
		t.Fatalf("AnnualMinMax = %#v, %v", mm, ok)
	}
}

func TestAnnualMinMaxNumericFallbackSingle(t *testing.T) {
	norm, nm := normalized(t, []string{"Year", "Temp"}, [][]string{
		{"2015", "26.1"}, {"2016", "26.3"}, {"2017", "26.5"},
	})
	var notes Notes
	mm, ok := newDefault().AnnualMinMax(norm, nm, "Year", &notes)
	if !ok || mm.Single != "Temp" || mm.MinColumn != "" {
		t.Fatalf("AnnualMinMax = %#v, %v", mm, ok)
	}
}

func TestAnnualMinMaxNumericFallbackPairOrderedByMean(t *testing.T) {
	// Columns deliberately reversed: the higher-mean column comes first.
	norm, nm := normalized(t, []string{"Year", "High", "Low"}, [][]string{
		{"2015", "32.0", "18.0"},
		{"2016", "33.0", "19.0"},
		{"2017", "31.0", "17.0"},
	})
	var notes Notes
	mm, ok := newDefault().AnnualMinMax(norm, nm, "Year", &notes)
	if !ok || mm.MinColumn != "Low" || mm.MaxColumn != "High" {
		t.Fatalf("AnnualMinMax = %#v, %v", mm, ok)
	}
}

func TestAnnualMinMaxAmbiguousFails(t *testing.T) {
	norm, nm := normalized(t, []string{"Year", "A", "B", "C"}, [][]string{
		{"2015", "10", "20", "30"},
		{"2016", "11", "21", "31"},
		{"2017", "12", "22", "32"},
	})
	var notes Notes
	if mm, ok := newDefault().AnnualMinMax(norm, nm, "Year", &notes); ok {
		t.Fatalf("expected ambiguity failure, got %#v", mm)
	}
	if len(notes) < 2 {
		t.Fatalf("notes = %v, want fallback trail", notes)
	}
}
