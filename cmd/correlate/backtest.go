package main

import (
	"github.com/spf13/cobra"

	"github.com/ZyrticX/DELTA-MIX/internal/app/di"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/transport/http/dto"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/usecase"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay predictions over past dates and score them",
	Long: `Predicts at every --step trading days between --start and --end using only data
up to each date, compares with the realised forward return and stores the run.

Examples:
  correlate backtest --start 2023-01-01 --end 2023-06-30 --symbols AAPL --step 5`,
	RunE: runBacktest,
}

var (
	backtestSymbols string
	backtestStart   string
	backtestEnd     string
	backtestStep    int
	backtestParams  paramFlags
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestSymbols, "symbols", "", "Comma-separated targets (default all active symbols)")
	backtestCmd.Flags().StringVar(&backtestStart, "start", "", "First tested date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestEnd, "end", "", "Last tested date YYYY-MM-DD")
	backtestCmd.Flags().IntVar(&backtestStep, "step", 1, "Trading days between tested dates")
	addParamFlags(backtestCmd, &backtestParams)

	_ = backtestCmd.MarkFlagRequired("start")
	_ = backtestCmd.MarkFlagRequired("end")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	start, err := dto.ParseDate("start", backtestStart)
	if err != nil {
		return err
	}
	end, err := dto.ParseDate("end", backtestEnd)
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
	report, err := engine.Backtest(cmd.Context(), usecase.BacktestRequest{
		Symbols: splitSymbols(backtestSymbols),
		Start:   start,
		End:     end,
		Step:    backtestStep,
		Params:  backtestParams.request(cmd).Apply(defaults),
	})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), dto.NewBacktestResponse(report))
}
