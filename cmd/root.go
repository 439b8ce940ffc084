package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/intelligrit/choropleth/internal/config"
)

var (
	dataDir    string
	verbose    bool
	configPath string
	envPath    string
	cfg        *config.Config
	logger     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "choropleth",
	Short:        "Color administrative regions by percentage and serve them as an interactive map",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).
			With().Timestamp().Logger()

		if err := config.LoadDotEnv(envPath); err != nil {
			return fmt.Errorf("loading %s: %w", envPath, err)
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.ApplyEnv(os.Getenv); err != nil {
			return fmt.Errorf("applying environment: %w", err)
		}

		if cmd.Flags().Changed("data-dir") {
			cfg.Data.Dir = dataDir
		} else {
			dataDir = cfg.Data.Dir
		}

		logVerbose("config %s, data dir %s", configPath, dataDir)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "Path to a .env file with CHOROPLETH_* overrides")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "Directory for downloaded boundary and table files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func Execute() error {
	return rootCmd.Execute()
}

func logVerbose(format string, args ...any) {
	logger.Debug().Msgf(format, args...)
}
