// Package chart renders supporting evidence charts. The analytics layer only
// sees the Renderer interface and the opaque handle it returns; the encoding
// behind the handle is this package's business.
package chart

import (
	"bytes"
	"encoding/base64"
	"errors"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// Handle is an opaque rendered image. Callers pass it through untouched.
type Handle []byte

// DataURI encodes the handle for embedding in a JSON response.
func (h Handle) DataURI() string {
	if len(h) == 0 {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(h)
}

// Renderer produces a bar chart for a category→value table.
type Renderer interface {
	RenderBarChart(categories []string, values []float64, title string) (Handle, error)
}

// PNGRenderer renders PNG bar charts.
type PNGRenderer struct {
	Width  int
	Height int
}

// NewPNGRenderer returns a renderer with default dimensions.
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Width: 640, Height: 400}
}

// RenderBarChart renders one bar per category. The y-axis range is set
// explicitly: go-chart refuses to render when the value range collapses, which
// is the normal case here (a single bar, or all bars equal).
func (r *PNGRenderer) RenderBarChart(categories []string, values []float64, title string) (Handle, error) {
	if len(categories) == 0 || len(categories) != len(values) {
		return nil, errors.New("categories and values must be non-empty and equal length")
	}
	bars := make([]gochart.Value, len(categories))
	lo, hi := 0.0, values[0]
	for i := range categories {
		bars[i] = gochart.Value{Label: categories[i], Value: values[i]}
		if values[i] > hi {
			hi = values[i]
		}
		if values[i] < lo {
			lo = values[i]
		}
	}
	hi *= 1.1
	if hi <= lo {
		hi = lo + 1
	}
	bc := gochart.BarChart{
		Title:    title,
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: 60,
		Bars:     bars,
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
	}
	var buf bytes.Buffer
	if err := bc.Render(gochart.PNG, &buf); err != nil {
		return nil, err
	}
	return Handle(buf.Bytes()), nil
}
