package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/transport/http/dto"
)

// paramFlags holds the analysis knobs shared by analyze, scan and backtest.
// Only flags set on the command line override the configured defaults.
type paramFlags struct {
	lookback  int
	threshold float64
	forward   int
	window    string
	topK      int
}

func addParamFlags(cmd *cobra.Command, pf *paramFlags) {
	cmd.Flags().IntVar(&pf.lookback, "lookback", 0, "Trading days in the correlation window")
	cmd.Flags().Float64Var(&pf.threshold, "threshold", 0, "Minimum |Pearson r| for a related symbol, in [0,1)")
	cmd.Flags().IntVar(&pf.forward, "forward", 0, "Trading days of forward return to aggregate")
	cmd.Flags().StringVar(&pf.window, "window", "", "Candidate sampling: discrete or rolling")
	cmd.Flags().IntVar(&pf.topK, "top-k", 0, "Number of most similar dates to report")
}

func (pf *paramFlags) request(cmd *cobra.Command) dto.ParamsRequest {
	var req dto.ParamsRequest
	f := cmd.Flags()
	if f.Changed("lookback") {
		req.LookbackDays = &pf.lookback
	}
	if f.Changed("threshold") {
		req.CorrelationThreshold = &pf.threshold
	}
	if f.Changed("forward") {
		req.ForwardDays = &pf.forward
	}
	if f.Changed("window") {
		req.WindowType = &pf.window
	}
	if f.Changed("top-k") {
		req.TopK = &pf.topK
	}
	return req
}

// splitSymbols turns "aapl, msft" into [AAPL MSFT].
func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
