package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cropwise/agroquery/internal/detect"
)

func newLoader(dir string) *Loader {
	return NewLoader(dir, detect.New(detect.DefaultCandidates()))
}

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestFindFileLexicographic(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "b_Crop-wise Details of Production.csv", "x\n")
	writeCSV(t, dir, "a_crop-wise details of production.csv", "x\n")
	writeCSV(t, dir, "unrelated.csv", "x\n")

	got := FindFile(dir, "crop-wise details of production")
	if filepath.Base(got) != "a_crop-wise details of production.csv" {
		t.Fatalf("FindFile = %q, want the lexicographically first match", got)
	}
	if FindFile(dir, "no such dataset") != "" {
		t.Fatal("expected no match")
	}
}

func TestLoadCropProductionSampleFallback(t *testing.T) {
	tbl, meta, err := newLoader(t.TempDir()).Load(CropProduction)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !meta.Sample {
		t.Fatalf("meta = %+v, want Sample", meta)
	}
	if tbl.NumRows() != 2 || tbl.ColumnIndex("production_tonnes") < 0 {
		t.Fatalf("sample table = %+v", tbl)
	}
}

func TestLoadCropProductionWideMelt(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Crop-wise Details of Production Targets.csv",
		"Crops,2016-17 - Production,2017-18 - Production\n"+
			"Wheat,100,110\n"+
			"Rice,200,NA\n")
	tbl, meta, err := newLoader(dir).Load(CropProduction)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta.Sample {
		t.Fatal("expected a real file, not the sample")
	}
	want := []string{"year", "crop", "production_tonnes"}
	for i, c := range tbl.Columns {
		if c != want[i] {
			t.Fatalf("columns = %#v", tbl.Columns)
		}
	}
	if tbl.NumRows() != 4 {
		t.Fatalf("rows = %d, want 4", tbl.NumRows())
	}
	// Sorted by crop then year; the NA cell coerces to 0.
	if r := tbl.Rows[0]; r[0] != "2016" || r[1] != "Rice" || r[2] != "200" {
		t.Fatalf("row 0 = %#v", r)
	}
	if r := tbl.Rows[1]; r[1] != "Rice" || r[2] != "0" {
		t.Fatalf("row 1 = %#v", r)
	}
	if r := tbl.Rows[2]; r[0] != "2016" || r[1] != "Wheat" || r[2] != "100" {
		t.Fatalf("row 2 = %#v", r)
	}
}

func TestLoadCropProductionTidyRename(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "crop-wise details of production 2020.csv",
		"State_Name,Crop,Year,Production\nStateA,Wheat,2019,1300\n")
	tbl, _, err := newLoader(dir).Load(CropProduction)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, col := range []string{"state", "crop", "year", "production_tonnes"} {
		if tbl.ColumnIndex(col) < 0 {
			t.Fatalf("missing renamed column %q in %#v", col, tbl.Columns)
		}
	}
}

func TestLoadClimateSeriesSimplified(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Seasonal and Annual MinMax Temp Series.csv",
		"YEAR,ANNUAL - MIN,ANNUAL - MAX\n2018,19.0,33.0\n2019,20.0,34.0\n")
	tbl, _, err := newLoader(dir).Load(ClimateSeries)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tbl.Columns) != 2 || tbl.Columns[0] != "year" || tbl.Columns[1] != "annual_mean_temp_c" {
		t.Fatalf("columns = %#v", tbl.Columns)
	}
	if tbl.Rows[0][1] != "26" || tbl.Rows[1][1] != "27" {
		t.Fatalf("means = %#v", tbl.Rows)
	}
}

func TestLoadClimateSeriesSampleFallback(t *testing.T) {
	tbl, meta, err := newLoader(t.TempDir()).Load(ClimateSeries)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !meta.Sample || tbl.NumRows() != 2 {
		t.Fatalf("meta = %+v, rows = %d", meta, tbl.NumRows())
	}
}

func TestLoadYieldMelt(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "All India Level Yield of Major Crops.csv",
		"Year,Rice,Wheat\n2014-15,2390,2750\n2015-16,2400,2800\n")
	tbl, _, err := newLoader(dir).Load(YieldAllIndia)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tbl.Columns) != 3 || tbl.Columns[2] != "yield_kg_per_ha" {
		t.Fatalf("columns = %#v", tbl.Columns)
	}
	if tbl.NumRows() != 4 {
		t.Fatalf("rows = %d, want 4", tbl.NumRows())
	}
	if r := tbl.Rows[0]; r[0] != "2014" || r[1] != "Rice" || r[2] != "2390" {
		t.Fatalf("row 0 = %#v", r)
	}
}

func TestParseHeaderYear(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2016-17 - Production", 2016, true},
		{"2014-15", 2014, true},
		{"Year 2019", 2019, true},
		{"no year here", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseHeaderYear(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("ParseHeaderYear(%q) = %d, %v; want %d, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}
