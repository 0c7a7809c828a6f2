package cmd

import (
	"github.com/cropwise/agroquery/internal/chart"
	"github.com/cropwise/agroquery/internal/query"
	"github.com/cropwise/agroquery/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question-answering API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := mustConfig()
		if servePort > 0 {
			c.Port = servePort
		}
		log := newLogger()
		svc := query.NewService(c, chart.NewPNGRenderer(), log)
		return server.New(svc, log, c.Port).ListenAndServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
}
