// Package query turns a free-text question into a structured answer: it
// classifies intent, extracts the window and top-K parameters, drives the
// loaders and the analytics engine, and assembles the response with full
// provenance. The top-level handler is the only place allowed to turn an
// unanticipated failure into a generic diagnostic; every lower layer returns
// result-or-note values instead of panicking.
package query

import (
	"fmt"
	"log/slog"
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/cropwise/agroquery/internal/analytics"
	"github.com/cropwise/agroquery/internal/chart"
	"github.com/cropwise/agroquery/internal/config"
	"github.com/cropwise/agroquery/internal/dataset"
	"github.com/cropwise/agroquery/internal/detect"
)

// Parsed holds the parameters extracted from a question.
type Parsed struct {
	Raw string `json:"raw"`
	N   int    `json:"n"` // trailing window in years
	M   int    `json:"m"` // top-K count
}

var (
	lastNPattern = regexp.MustCompile(`last\s+(\d+)\s+years?`)
	topMPattern  = regexp.MustCompile(`top\s+(\d+)`)
)

// Parse extracts the lookback window N and top-K count M from a question,
// falling back to the provided defaults.
func Parse(question string, defaultN, defaultM int) Parsed {
	raw := strings.TrimSpace(question)
	q := strings.ToLower(raw)
	p := Parsed{Raw: raw, N: defaultN, M: defaultM}
	if m := lastNPattern.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			p.N = n
		}
	}
	if m := topMPattern.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			p.M = n
		}
	}
	return p
}

// Provenance is the per-dataset audit record attached to a response.
type Provenance struct {
	Dataset        string                `json:"dataset,omitempty"`
	Path           string                `json:"path,omitempty"`
	YearsUsed      *[2]int               `json:"years_used,omitempty"`
	SampleRowsUsed []map[string]string   `json:"sample_rows_used,omitempty"`
	RowsUsed       []analytics.YearValue `json:"rows_used,omitempty"`
	ColumnsSample  []string              `json:"columns_sample,omitempty"`
	RowsSample     []map[string]string   `json:"rows_sample,omitempty"`
	DetectionNotes []string              `json:"detection_notes,omitempty"`
	AvailableYears []int                 `json:"available_years_sample,omitempty"`
}

// Response is the single result record for a question. All collection fields
// are always present (possibly empty), never null, so callers can rely on the
// shape.
type Response struct {
	ID           string                            `json:"id"`
	AnswerText   string                            `json:"answer_text"`
	Chart        string                            `json:"chart,omitempty"`
	ClimateTable []analytics.RegionValue           `json:"climate_table"`
	TopCrops     map[string][]analytics.CropVolume `json:"top_crops"`
	Provenance   []Provenance                      `json:"provenance"`
	Debug        string                            `json:"debug,omitempty"`
}

func emptyResponse(answer string) Response {
	return Response{
		ID:           uuid.NewString(),
		AnswerText:   answer,
		ClimateTable: []analytics.RegionValue{},
		TopCrops:     map[string][]analytics.CropVolume{},
		Provenance:   []Provenance{},
	}
}

// Service wires the loaders, detector, engine and renderer for one process.
// It holds no per-request state: every question reloads and re-derives from
// the source files.
type Service struct {
	cfg      *config.Global
	loader   *dataset.Loader
	engine   *analytics.Engine
	renderer chart.Renderer
	log      *slog.Logger
}

// NewService builds a Service from configuration. A nil renderer disables
// charts; a nil logger discards logs.
func NewService(cfg *config.Global, renderer chart.Renderer, log *slog.Logger) *Service {
	det := detect.New(detect.Candidates{
		Year:             cfg.YearColumns,
		Region:           cfg.RegionColumns,
		Crop:             cfg.CropColumns,
		ClimateMetric:    cfg.ClimateMetricColumns,
		ProductionMetric: cfg.ProductionMetricColumns,
	})
	if log == nil {
		log = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}
	return &Service{
		cfg:      cfg,
		loader:   dataset.NewLoader(cfg.DataDir, det),
		engine:   analytics.NewEngine(det),
		renderer: renderer,
		log:      log,
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

const emptyQuestionAnswer = "Please enter a non-empty question."

// Handle answers a question. It never returns an error and never panics
// outward: anything unanticipated becomes a diagnostic response.
func (s *Service) Handle(question string) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("query panic", "panic", r)
			resp = emptyResponse(fmt.Sprintf("Internal error: %v", r))
			resp.Debug = string(debug.Stack())
		}
	}()

	if strings.TrimSpace(question) == "" {
		return emptyResponse(emptyQuestionAnswer)
	}
	parsed := Parse(question, s.cfg.DefaultWindowYears, s.cfg.DefaultTopCrops)
	q := strings.ToLower(parsed.Raw)

	if strings.Contains(q, "list states") {
		return s.listStates()
	}
	// Anything else, including explicit compare/contrast questions, runs the
	// compare flow. Deliberate catch-all.
	return s.compareClimateAndTopCrops(parsed)
}

// listStates enumerates the distinct region values in the crop table.
func (s *Service) listStates() Response {
	var states []string
	crop, _, err := s.loader.Load(dataset.CropProduction)
	if err == nil && crop != nil {
		for _, c := range crop.Columns {
			if strings.EqualFold(strings.TrimSpace(c), "state") {
				seen := map[string]struct{}{}
				col, _ := crop.Column(c)
				for _, v := range col {
					v = strings.TrimSpace(v)
					if v == "" {
						continue
					}
					if _, ok := seen[v]; !ok {
						seen[v] = struct{}{}
						states = append(states, v)
					}
				}
				break
			}
		}
	}
	if len(states) == 0 {
		states = []string{"All India"}
	}
	return emptyResponse("Detected states from local data: " + strings.Join(states, ", "))
}

// compareClimateAndTopCrops runs the end-to-end flow: national climate average
// over the last N years, top M crops by production, optional chart, and the
// full provenance trail for both datasets.
func (s *Service) compareClimateAndTopCrops(parsed Parsed) Response {
	resp := emptyResponse("")

	cropT, cropMeta, cropErr := s.loader.Load(dataset.CropProduction)
	if cropErr != nil {
		s.log.Warn("crop load failed", "err", cropErr)
	}
	climT, climMeta, climErr := s.loader.Load(dataset.ClimateSeries)
	if climErr != nil {
		s.log.Warn("climate load failed", "err", climErr)
	}

	climAvg, climDebug := (*analytics.ClimateAverage)(nil), analytics.ClimateDebug{}
	if climErr == nil {
		climAvg, climDebug = s.engine.NationalClimateAverage(climT, parsed.N)
	}

	var topCrops []analytics.CropVolume
	var cropSample []map[string]string
	if cropErr == nil && cropT != nil {
		var aggErr error
		topCrops, _, aggErr = s.engine.TopCropsByVolume(cropT, "", parsed.N, parsed.M)
		if aggErr != nil {
			s.log.Warn("top crops aggregation failed", "err", aggErr)
			climDebug.DetectionNotes = append(climDebug.DetectionNotes, fmt.Sprintf("top crops: %v", aggErr))
		}
		cropSample = cropT.Head(8)
	}
	resp.TopCrops["All India"] = topCrops

	if climAvg != nil {
		resp.ClimateTable = []analytics.RegionValue{{Region: climAvg.Region, Value: climAvg.Value}}
		if s.renderer != nil {
			title := fmt.Sprintf("Average annual mean temp (%d-%d)", climAvg.YearsUsed[0], climAvg.YearsUsed[1])
			if h, err := s.renderer.RenderBarChart([]string{climAvg.Region}, []float64{climAvg.Value}, title); err == nil {
				resp.Chart = h.DataURI()
			} else {
				s.log.Warn("chart render failed", "err", err)
			}
		}
	}

	resp.AnswerText = buildAnswerText(parsed, climAvg, topCrops)

	cropProv := Provenance{Dataset: cropMeta.File, Path: cropMeta.Path, SampleRowsUsed: cropSample}
	climProv := Provenance{
		Dataset:        climMeta.File,
		Path:           climMeta.Path,
		ColumnsSample:  climDebug.ColumnsSample,
		RowsSample:     climDebug.RowsSample,
		DetectionNotes: climDebug.DetectionNotes,
		AvailableYears: climDebug.AvailableYears,
	}
	if climAvg != nil {
		years := climAvg.YearsUsed
		climProv.YearsUsed = &years
		climProv.RowsUsed = climAvg.RowsUsed
	}
	resp.Provenance = []Provenance{cropProv, climProv}
	return resp
}

// buildAnswerText assembles the ordered human-readable answer lines. It is
// never empty: failures read as explanations, not blanks.
func buildAnswerText(parsed Parsed, climAvg *analytics.ClimateAverage, topCrops []analytics.CropVolume) string {
	var lines []string
	if climAvg != nil {
		lines = append(lines, fmt.Sprintf("Average climate metric (detected) over last %d years:", parsed.N))
		lines = append(lines, fmt.Sprintf(" - %s: %.2f (avg over %d-%d)",
			climAvg.Region, climAvg.Value, climAvg.YearsUsed[0], climAvg.YearsUsed[1]))
	} else {
		lines = append(lines, "No climate metric could be computed from local climate files.")
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Top %d crops in All India (by total production over last %d years):", parsed.M, parsed.N))
	if len(topCrops) > 0 {
		for _, c := range topCrops {
			lines = append(lines, fmt.Sprintf(" - %s: %g", c.Crop, c.Production))
		}
	} else {
		lines = append(lines, " - (no data)")
	}
	return strings.Join(lines, "\n")
}
