package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZyrticX/DELTA-MIX/internal/app/di"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/transport/http/dto"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse one symbol as of a date",
	Long: `Runs the full pipeline for one symbol and prints the result as JSON.

Examples:
  correlate analyze --symbol AAPL
  correlate analyze --symbol AAPL --date 2024-03-01 --window rolling --threshold 0.8`,
	RunE: runAnalyze,
}

var (
	analyzeSymbol   string
	analyzeDate     string
	analyzeUniverse string
	analyzeParams   paramFlags
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeSymbol, "symbol", "", "Target symbol")
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "As-of date YYYY-MM-DD (default today)")
	analyzeCmd.Flags().StringVar(&analyzeUniverse, "universe", "", "Comma-separated universe (default all active symbols)")
	addParamFlags(analyzeCmd, &analyzeParams)

	_ = analyzeCmd.MarkFlagRequired("symbol")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	asOf, err := dto.ParseDate("date", analyzeDate)
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
	res, err := engine.Analyze(cmd.Context(), usecase.AnalysisRequest{
		Symbol:   analyzeSymbol,
		AsOf:     asOf,
		Params:   analyzeParams.request(cmd).Apply(defaults),
		Universe: splitSymbols(analyzeUniverse),
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", analyzeSymbol, err)
	}
	return writeJSON(cmd.OutOrStdout(), dto.NewAnalysisResponse(res))
}
