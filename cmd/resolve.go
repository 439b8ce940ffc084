package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/intelligrit/choropleth/internal/colormap"
	"github.com/intelligrit/choropleth/internal/dataset"
	"github.com/intelligrit/choropleth/internal/model"
)

var resolveColormap string

var resolveCmd = &cobra.Command{
	Use:   "resolve NAME [DISTRICT]",
	Short: "Resolve one region name to its label and color",
	Long: `Resolve a province name, or a province and district pair, against the
configured percentage tables and print the label and color the map would use.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("colormap") {
			resolveColormap = cfg.Render.Colormap
		}
		cm, err := colormap.Lookup(resolveColormap)
		if err != nil {
			return err
		}

		ds, err := dataset.Load(context.Background(), cfg, logger)
		if err != nil {
			return err
		}

		level, district := model.LevelProvince, ""
		if len(args) == 2 {
			level, district = model.LevelDistrict, args[1]
		}
		res, err := ds.Resolve(level, args[0], district, cm)
		if err != nil {
			return err
		}

		fmt.Printf("Label: %s\n", res.Label)
		fmt.Printf("Color: %s\n", res.Color)
		if res.Color.IsNoData() {
			fmt.Printf("Fill:  %s\n", cfg.Render.NoData)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveColormap, "colormap", colormap.Default, "Colormap name; append _r to reverse")
	rootCmd.AddCommand(resolveCmd)
}
