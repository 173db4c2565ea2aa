package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/oddsradar/surebet/internal/app"
	"github.com/oddsradar/surebet/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the surebet service",
	Long: `Starts the surebet service, which will:
1. Accept scraped odds batches on POST /api/v1/data/ingest
2. Upsert events into the repository (outcomes fully replaced per event)
3. Detect surebet opportunities after every ingestion
4. Serve them on GET /api/v1/surebets and push them to /ws/surebets subscribers`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

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

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
