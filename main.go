package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/podtrends/chartbuilder/client"
	"github.com/podtrends/chartbuilder/config"
	"github.com/podtrends/chartbuilder/pipeline"
)

var (
	configFile string
	verbose    bool

	flagSnapshot    string
	flagOutput      string
	flagRegion      string
	flagChartWeek   string
	flagTopN        int
	flagMaxPerList  int
	flagConcurrency int
	flagAPIKey      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chartbuilder",
		Short: "Build a per-video analytics dataset from a weekly podcast chart snapshot",
		Long: "chartbuilder reads a weekly podcast chart snapshot, resolves each entry's " +
			"playlist through the YouTube Data API, and writes one enriched CSV row per " +
			"charted video.",
		SilenceUsage: true,
		RunE:         runBuild,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&flagSnapshot, "snapshot", "", "Chart snapshot file location")
	rootCmd.Flags().StringVar(&flagOutput, "out", "", "Output CSV path")
	rootCmd.Flags().StringVar(&flagRegion, "region", "", "Region code for category names")
	rootCmd.Flags().StringVar(&flagChartWeek, "chart-week", "", "Process a named chart week instead of the latest")
	rootCmd.Flags().IntVar(&flagTopN, "top-n", 0, "How many ranked entries to process")
	rootCmd.Flags().IntVar(&flagMaxPerList, "max-per-playlist", 0, "Maximum items fetched per playlist")
	rootCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Playlists paginated concurrently")
	rootCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "YouTube Data API key (or set YT_API_KEY)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Error().Err(err).Msg("Configuration failed")
		return err
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Configuration failed")
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ytClient, err := client.NewYouTubeDataClient(cfg.APIKey)
	if err != nil {
		log.Error().Err(err).Msg("Client setup failed")
		return err
	}
	if err := ytClient.Connect(ctx); err != nil {
		log.Error().Err(err).Msg("Client setup failed")
		return err
	}

	pacer := client.NewPacer(client.PacerConfig{
		MinInterval: cfg.RequestInterval,
		MaxRetries:  cfg.MaxRetries,
		BaseDelay:   cfg.BaseDelay,
		MaxDelay:    cfg.MaxDelay,
	})
	paced := client.NewPacedClient(ytClient, pacer)

	runner := pipeline.New(cfg, paced)
	summary, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Error().Msg("Run canceled, no output written")
		} else {
			log.Error().Err(err).Msg("Run failed, no output written")
		}
		return err
	}

	log.Info().
		Str("week", summary.ChartWeek).
		Int("processed", summary.EntriesProcessed).
		Int("skipped", summary.EntriesSkipped).
		Int("unresolved", summary.ItemsUnresolved).
		Int("rows", summary.Rows).
		Str("output", cfg.OutputPath).
		Msg("Dataset build finished")
	return nil
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// applyFlags lets explicit CLI flags override file and environment values.
func applyFlags(cfg *config.Config) {
	if flagSnapshot != "" {
		cfg.SnapshotPath = flagSnapshot
	}
	if flagOutput != "" {
		cfg.OutputPath = flagOutput
	}
	if flagRegion != "" {
		cfg.RegionCode = flagRegion
	}
	if flagChartWeek != "" {
		cfg.ChartWeek = flagChartWeek
	}
	if flagTopN > 0 {
		cfg.TopN = flagTopN
	}
	if flagMaxPerList > 0 {
		cfg.MaxItemsPerPlaylist = flagMaxPerList
	}
	if flagConcurrency > 0 {
		cfg.Concurrency = flagConcurrency
	}
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
}
