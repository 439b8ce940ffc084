package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/intelligrit/choropleth/internal/fetch"
)

var fetchForce bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download configured boundary and table sources (rate-limited)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Fetch.Sources) == 0 {
			fmt.Println("No [[fetch.sources]] configured.")
			return nil
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		rl := fetch.NewRateLimiter(cfg.Fetch.RateLimit)
		client := &http.Client{Timeout: 5 * time.Minute}

		for i, src := range cfg.Fetch.Sources {
			dest := src.Dest
			if dest == "" {
				dest = filepath.Base(src.URL)
			}
			dest = cfg.Path(dest)

			if _, err := os.Stat(dest); err == nil && !fetchForce {
				logVerbose("skipping %s, already present", dest)
				continue
			}

			select {
			case <-ctx.Done():
				fmt.Printf("\nInterrupted after %d/%d sources\n", i, len(cfg.Fetch.Sources))
				return nil
			default:
			}

			fmt.Printf("[%d/%d] %s\n", i+1, len(cfg.Fetch.Sources), src.URL)
			n, err := fetch.Fetch(ctx, client, src.URL, dest, rl)
			if err != nil {
				return err
			}
			logger.Info().Str("dest", dest).Int64("bytes", n).Msg("fetched")
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "Download even if the destination file exists")
	rootCmd.AddCommand(fetchCmd)
}
