package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZyrticX/DELTA-MIX/internal/app/di"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/transport/http/dto"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/usecase"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Analyse many symbols and keep the confident predictions",
	Long: `Analyses every active symbol (or --symbols) against one snapshot of returns.
Symbols that fail are listed under failures and do not stop the scan.

Examples:
  correlate scan
  correlate scan --symbols AAPL,MSFT,NVDA --min-confidence 65 --direction up`,
	RunE: runScan,
}

var (
	scanSymbols       string
	scanDate          string
	scanMinConfidence float64
	scanMinAbsReturn  float64
	scanDirection     string
	scanParams        paramFlags
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanSymbols, "symbols", "", "Comma-separated targets (default all active symbols)")
	scanCmd.Flags().StringVar(&scanDate, "date", "", "As-of date YYYY-MM-DD (default today)")
	scanCmd.Flags().Float64Var(&scanMinConfidence, "min-confidence", 0, "Minimum confidence percent")
	scanCmd.Flags().Float64Var(&scanMinAbsReturn, "min-abs-return", 0, "Minimum |expected return| percent")
	scanCmd.Flags().StringVar(&scanDirection, "direction", "", "Keep only up or down predictions")
	addParamFlags(scanCmd, &scanParams)
}

func runScan(cmd *cobra.Command, args []string) error {
	asOf, err := dto.ParseDate("date", scanDate)
	if err != nil {
		return err
	}
	defaults, err := cfg.Analysis.Params()
	if err != nil {
		return err
	}
	db, err := openDB()
	if err != nil {
		return err
	}

	engine := di.NewEngine(cfg.Analysis, db, nil)
	report, err := engine.Scan(cmd.Context(), usecase.ScanRequest{
		Symbols: splitSymbols(scanSymbols),
		AsOf:    asOf,
		Params:  scanParams.request(cmd).Apply(defaults),
		Filter: entity.ScanFilter{
			MinConfidence:        scanMinConfidence,
			MinAbsExpectedReturn: scanMinAbsReturn,
			Direction:            entity.Direction(strings.ToLower(strings.TrimSpace(scanDirection))),
		},
	})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), dto.NewScanResponse(report))
}
