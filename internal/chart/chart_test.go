package chart

import (
	"bytes"
	"strings"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderBarChart(t *testing.T) {
	h, err := NewPNGRenderer().RenderBarChart([]string{"All India"}, []float64{26.5}, "Average annual mean temp (2017-2019)")
	if err != nil {
		t.Fatalf("RenderBarChart: %v", err)
	}
	if !bytes.HasPrefix(h, pngMagic) {
		t.Fatalf("output is not a PNG, starts with % x", h[:4])
	}
}

func TestRenderBarChartFlatValues(t *testing.T) {
	// Equal bars collapse the natural value range; rendering must still work.
	h, err := NewPNGRenderer().RenderBarChart([]string{"a", "b"}, []float64{5, 5}, "flat")
	if err != nil {
		t.Fatalf("RenderBarChart: %v", err)
	}
	if !bytes.HasPrefix(h, pngMagic) {
		t.Fatal("output is not a PNG")
	}
}

func TestRenderBarChartArgErrors(t *testing.T) {
	r := NewPNGRenderer()
	if _, err := r.RenderBarChart(nil, nil, "t"); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := r.RenderBarChart([]string{"a", "b"}, []float64{1}, "t"); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestDataURI(t *testing.T) {
	if got := Handle(nil).DataURI(); got != "" {
		t.Fatalf("empty handle DataURI = %q", got)
	}
	got := Handle([]byte{1, 2, 3}).DataURI()
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Fatalf("DataURI = %q", got)
	}
}
