package cmd

import (
	"fmt"
	"strings"

	"github.com/cropwise/agroquery/internal/dataset"
	"github.com/cropwise/agroquery/internal/detect"
	"github.com/cropwise/agroquery/internal/table"
	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Inspect the resolved source datasets and their detected columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := mustConfig()
		det := detect.New(detect.Candidates{
			Year:             c.YearColumns,
			Region:           c.RegionColumns,
			Crop:             c.CropColumns,
			ClimateMetric:    c.ClimateMetricColumns,
			ProductionMetric: c.ProductionMetricColumns,
		})
		loader := dataset.NewLoader(c.DataDir, det)

		for _, role := range []dataset.Role{dataset.CropProduction, dataset.ClimateSeries, dataset.YieldAllIndia} {
			fmt.Printf("======== %s ========\n", role)
			t, meta, err := loader.Load(role)
			if err != nil {
				fmt.Printf("load failed: %v\n\n", err)
				continue
			}
			source := meta.File
			if meta.Sample {
				source += " (built-in sample)"
			}
			fmt.Printf("source: %s\n", source)
			if meta.Path != "" {
				fmt.Printf("path:   %s\n", meta.Path)
			}
			fmt.Printf("rows: %d  cols: %d\n", t.NumRows(), len(t.Columns))
			printColumnInfo(t)
			printDetection(det, t)
			fmt.Println()
		}
		return nil
	},
}

func printColumnInfo(t *table.Table) {
	for _, col := range t.Columns {
		cells, _ := t.Column(col)
		nonNull := 0
		var samples []string
		seen := map[string]struct{}{}
		for _, v := range cells {
			if table.Missing(v) {
				continue
			}
			nonNull++
			v = strings.TrimSpace(v)
			if _, ok := seen[v]; !ok && len(samples) < 6 {
				seen[v] = struct{}{}
				samples = append(samples, v)
			}
		}
		fmt.Printf("- %s: non-null %d, e.g. %s\n", col, nonNull, strings.Join(samples, " | "))
	}
}

func printDetection(det *detect.Detector, t *table.Table) {
	norm, nm := table.Normalize(t)
	var notes detect.Notes
	report := func(role, col string, ok bool) {
		if ok {
			fmt.Printf("detected %s column: %q\n", role, col)
		} else {
			fmt.Printf("no %s column detected\n", role)
		}
	}
	yearCol, okYear := det.Year(norm, nm, &notes)
	report("year", yearCol, okYear)
	regionCol, okRegion := det.Region(norm, nm, &notes)
	report("region", regionCol, okRegion)
	cropCol, okCrop := det.Crop(norm, nm, &notes)
	report("crop", cropCol, okCrop)
	if wide := detect.WideProductionColumns(t); len(wide) > 0 {
		fmt.Printf("wide production columns: %s\n", strings.Join(wide, ", "))
	}
	if debugOutput && len(notes) > 0 {
		fmt.Println("detection notes:")
		for _, n := range notes {
			fmt.Printf("  - %s\n", n)
		}
	}
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
