package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/oddsradar/surebet/internal/storage"
	"github.com/oddsradar/surebet/internal/surebet"
	"github.com/oddsradar/surebet/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var surebetsCmd = &cobra.Command{
	Use:   "surebets",
	Short: "List current surebet opportunities",
	Long:  `Scans the repository and prints current surebet opportunities ranked by profit margin.`,
	RunE:  runSurebets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(surebetsCmd)
	surebetsCmd.Flags().Float64P("min-margin", "m", 0, "Minimum profit margin in percent")
	surebetsCmd.Flags().BoolP("verbose", "v", false, "Show per-outcome prices")
}

func runSurebets(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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

	minMargin, _ := cmd.Flags().GetFloat64("min-margin")
	verbose, _ := cmd.Flags().GetBool("verbose")

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	service := surebet.NewService(surebet.Config{
		MinProfitMargin: minMargin,
		CacheTTL:        cfg.SurebetCacheTTL,
		Logger:          logger,
	}, store, nil)

	opportunities, err := service.ListSurebets(ctx)
	if err != nil {
		return fmt.Errorf("list surebets: %w", err)
	}

	if len(opportunities) == 0 {
		fmt.Println("No surebet opportunities found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "EVENT\tCATEGORY\tMARGIN\tINVERSE\tOUTCOMES\n")
	fmt.Fprintf(w, "-----\t--------\t------\t-------\t--------\n")

	for i := range opportunities {
		opp := &opportunities[i]
		fmt.Fprintf(w, "%s\t%s\t%.2f%%\t%.4f\t%d\n",
			opp.Event.Name,
			opp.Event.Category,
			opp.ProfitMargin,
			opp.TotalInverseOdds,
			len(opp.Event.Outcomes))

		if verbose {
			for _, o := range opp.Event.Outcomes {
				fmt.Fprintf(w, "  %s\t%s\t%.2f\t\t\n", o.Label, o.Bookmaker, o.Price)
			}
		}
	}

	err = w.Flush()
	if err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	fmt.Printf("\n%d surebet opportunities.\n", len(opportunities))
	return nil
}

// openStore opens the configured repository for one-shot CLI commands.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.StorageMode != "postgres" {
		logger.Warn("cli-using-in-memory-store",
			zap.String("note", "set STORAGE_MODE=postgres to operate on persisted odds"))
		return storage.NewMemoryStore(logger), nil
	}

	store, err := storage.NewPostgresStore(&storage.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		Database: cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	err = store.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return store, nil
}
