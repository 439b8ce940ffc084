package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/intelligrit/choropleth/internal/colormap"
	"github.com/intelligrit/choropleth/internal/dataset"
	"github.com/intelligrit/choropleth/internal/model"
)

var (
	renderLevel    string
	renderProvince string
	renderDistrict string
	renderColormap string
	renderOutput   string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the styled GeoJSON for one level and filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, ok := model.ParseLevel(renderLevel)
		if !ok {
			return fmt.Errorf("unknown level %q (have %v)", renderLevel, model.Levels)
		}
		if !cmd.Flags().Changed("colormap") {
			renderColormap = cfg.Render.Colormap
		}
		cm, err := colormap.Lookup(renderColormap)
		if err != nil {
			return err
		}

		ds, err := dataset.Load(context.Background(), cfg, logger)
		if err != nil {
			return err
		}

		out, err := ds.Render(level, model.Filter{Province: renderProvince, District: renderDistrict}, cm)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if renderOutput != "" && renderOutput != "-" {
			f, err := os.Create(renderOutput)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			defer f.Close()
			w = f
		}
		if err := json.NewEncoder(w).Encode(out.Features); err != nil {
			return fmt.Errorf("writing GeoJSON: %w", err)
		}

		logger.Info().
			Str("level", string(level)).
			Int("found", out.Found).
			Int("no_data", out.NoData).
			Msg("rendered")
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderLevel, "level", "province", "Administrative level (province or district)")
	renderCmd.Flags().StringVar(&renderProvince, "province", model.All, "Only render regions in this province")
	renderCmd.Flags().StringVar(&renderDistrict, "district", model.All, "Only render this district")
	renderCmd.Flags().StringVar(&renderColormap, "colormap", colormap.Default, "Colormap name; append _r to reverse")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(renderCmd)
}
