package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZyrticX/DELTA-MIX/internal/app/di"
	symbollistadapters "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/adapters"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Pull candles from Twelve Data into the candle store",
	Long: `Fetches daily, weekly and monthly candles for every active symbol (or --symbols)
within the configured requests-per-minute budget.

Examples:
  correlate ingest
  correlate ingest --symbols AAPL,MSFT`,
	RunE: runIngest,
}

var ingestSymbols string

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestSymbols, "symbols", "", "Comma-separated symbols (default all active symbols)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if cfg.TwelveData.TwelveDataAPIKey == "" {
		return fmt.Errorf("TWELVE_DATA_API_KEY is not set")
	}
	db, err := openDB()
	if err != nil {
		return err
	}

	symbols := splitSymbols(ingestSymbols)
	if len(symbols) == 0 {
		if symbols, err = symbollistadapters.NewSymbolRepository(db).ListActiveCodes(cmd.Context()); err != nil {
			return fmt.Errorf("list active symbols: %w", err)
		}
	}

	report, err := di.NewIngestUsecase(cfg.TwelveData, db).IngestAll(cmd.Context(), symbols)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "requests: %d, candles: %d, failures: %d\n", report.Requests, report.Candles, len(report.Failures))
	for _, f := range report.Failures {
		fmt.Fprintf(out, "  %s %s: %v\n", f.Symbol, f.Interval, f.Err)
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d requests failed", len(report.Failures), report.Requests)
	}
	return nil
}
