package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/cropwise/agroquery/internal/chart"
	"github.com/cropwise/agroquery/internal/query"
	"github.com/spf13/cobra"
)

var (
	askJSON    bool
	askNoChart bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a free-text question against the local datasets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		c := mustConfig()

		var renderer chart.Renderer
		if !askNoChart {
			renderer = chart.NewPNGRenderer()
		}
		svc := query.NewService(c, renderer, newLogger())
		resp := svc.Handle(question)

		if askJSON {
			b, err := prettyJSON(resp)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}

		fmt.Println(resp.AnswerText)
		if debugOutput {
			if len(resp.Provenance) > 0 {
				fmt.Fprintln(os.Stderr, "\nProvenance:")
				b, err := prettyJSON(resp.Provenance)
				if err == nil {
					fmt.Fprintln(os.Stderr, string(b))
				}
			}
			if resp.Debug != "" {
				fmt.Fprintln(os.Stderr, resp.Debug)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response record as JSON")
	askCmd.Flags().BoolVar(&askNoChart, "no-chart", false, "skip chart rendering")
}
