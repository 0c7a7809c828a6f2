package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/cropwise/agroquery/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile     string
	debugOutput bool
	flagDataDir string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "agroquery",
	Short: "AgroQuery: ask natural-language questions about agriculture and climate datasets",
	Long:  `AgroQuery loads heterogeneous government CSVs, infers which columns carry years, regions, crops and metrics, and answers free-text questions with windowed aggregates, trends and correlations plus full provenance.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.agroquery/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugOutput, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory holding the source CSVs (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("data-dir") && flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
}

// mustConfig returns the loaded config or a default one when loading failed.
func mustConfig() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	c, err := cfgpkg.Load("")
	if err == nil {
		cfg = c
		return cfg
	}
	return cfgpkg.Defaults()
}
