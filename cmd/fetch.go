package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/cropwise/agroquery/internal/fetch"
	"github.com/spf13/cobra"
)

var (
	fetchResourceID string
	fetchDestName   string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a remote dataset resource into the data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := mustConfig()
		if c.DataGovAPIKey == "" {
			return fmt.Errorf("no API key configured; set AGROQUERY_DATA_GOV_API_KEY or data_gov_api_key in the config file")
		}
		if fetchResourceID == "" {
			return fmt.Errorf("--resource is required (find resource ids on the open data portal)")
		}
		client := fetch.NewClient(
			c.DataGovAPIKey,
			time.Duration(c.HTTPTimeoutSec)*time.Second,
			c.RetryMaxAttempts,
			time.Duration(c.RetryBaseDelayMs)*time.Millisecond,
			time.Duration(c.RetryMaxDelayMs)*time.Millisecond,
		)
		meta, err := client.FetchResource(context.Background(), fetchResourceID, c.DataDir, fetchDestName)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Fetched %s (%d bytes) to %s\n", meta.ResourceID, meta.Bytes, meta.DestPath)
		return nil
	},
}

var fetchDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Hints for finding dataset resource ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Use the open data portal to find resource ids for:")
		fmt.Println("- Crop production statistics (state/district level)")
		fmt.Println("- IMD rainfall / sub-divisional monthly rainfall")
		fmt.Println("- Seasonal and annual min/max temperature series")
		fmt.Println("")
		fmt.Println("Search https://data.gov.in for 'crop production' and 'IMD rainfall',")
		fmt.Println("then pass the resource id to 'agroquery fetch --resource <id>'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.AddCommand(fetchDiscoverCmd)
	fetchCmd.Flags().StringVar(&fetchResourceID, "resource", "", "resource id to download")
	fetchCmd.Flags().StringVar(&fetchDestName, "dest", "", "destination file name (default <resource>.csv)")
}
