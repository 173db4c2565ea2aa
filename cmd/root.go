package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "surebet",
	Short: "Surebet detection service",
	Long: `Surebet detection service that ingests betting odds from a scraper
service and The Odds API, stores them, and detects arbitrage opportunities:
combinations of best cross-bookmaker odds whose implied probabilities sum to
less than 1, guaranteeing profit regardless of outcome.

Detected surebets are served over an HTTP API and pushed to websocket
subscribers after each ingestion cycle.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
