package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/oddsradar/surebet/internal/ingest"
	"github.com/oddsradar/surebet/internal/oddsfeed"
	"github.com/oddsradar/surebet/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch live odds from The Odds API and ingest them",
	Long: `Performs a one-shot fetch of upcoming-event odds from The Odds API,
transforms them into ingestion payloads (h2h markets only) and upserts them
into the repository. Requires ODDS_API_KEY and STORAGE_MODE=postgres to be
useful; with the in-memory store the data is gone when the command exits.`,
	RunE: runFetch,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	client := oddsfeed.NewClient(oddsfeed.Config{
		BaseURL: cfg.OddsAPIBaseURL,
		APIKey:  cfg.OddsAPIKey,
		Regions: cfg.OddsAPIRegions,
		Markets: cfg.OddsAPIMarkets,
		Timeout: cfg.OddsAPITimeout,
		Logger:  logger,
	})

	// One-shot command: no quota breaker, the process exits after one fetch.
	fetcher := oddsfeed.NewFetcher(client, nil, logger)

	fmt.Println("Fetching live odds from The Odds API...")

	batch, usage, err := fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch odds: %w", err)
	}

	fmt.Printf("Fetched %d ingestible events (API quota used: %s, remaining: %s)\n",
		len(batch), usage.Used, usage.Remaining)

	if len(batch) == 0 {
		fmt.Println("No ingestible events in the response.")
		return nil
	}

	coordinator := ingest.New(ingest.Config{
		WriteTimeout: cfg.IngestWriteTimeout,
		Logger:       logger,
	}, store, nil, nil)

	report, err := coordinator.Ingest(ctx, batch)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	fmt.Printf("Ingested %d/%d events (status: %s)\n",
		report.ProcessedCount, report.TotalCount, report.Status)
	for _, msg := range report.Errors {
		fmt.Printf("  - %s\n", msg)
	}

	return nil
}
