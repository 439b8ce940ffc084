package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/intelligrit/choropleth/internal/dataset"
)

var statusListLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how well boundary names join with the percentage tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataset.Load(context.Background(), cfg, logger)
		if err != nil {
			return err
		}

		fmt.Printf("Coverage\n")
		fmt.Printf("========\n")
		fmt.Printf("Normalization: province=%s district=%s duplicates=%s\n",
			ds.Resolver.Province.Name(), ds.Resolver.District.Name(), cfg.Normalize.Duplicates)

		for _, c := range ds.Coverage() {
			fmt.Printf("\n%s\n%s\n", c.Level, strings.Repeat("-", len(c.Level)))
			fmt.Printf("Regions with data: %d / %d\n", c.Matched, c.Regions)
			fmt.Printf("Table rows:        %d (%d duplicate keys)\n", c.TableRows, c.DuplicateKeys)
			printNames("Regions without data", c.Unmatched)
			printNames("Table keys without a region", c.OrphanedKeys)
		}
		return nil
	},
}

func printNames(title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Printf("%s (%d):\n", title, len(names))
	for i, n := range names {
		if statusListLimit > 0 && i == statusListLimit {
			fmt.Printf("  ... and %d more\n", len(names)-i)
			return
		}
		fmt.Printf("  %s\n", n)
	}
}

func init() {
	statusCmd.Flags().IntVar(&statusListLimit, "limit", 20, "Maximum names listed per section (0 for all)")
	rootCmd.AddCommand(statusCmd)
}
