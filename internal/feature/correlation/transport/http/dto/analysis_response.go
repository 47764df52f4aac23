package dto

import (
	"github.com/ZyrticX/DELTA-MIX/internal/api"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// MatchItem is one correlated instrument.
type MatchItem struct {
	Symbol      string  `json:"symbol"`
	Correlation float64 `json:"correlation"`
}

// OccurrenceItem is one similar historical date.
type OccurrenceItem struct {
	Date         string      `json:"date"`
	Similarity   float64     `json:"similarity"`
	FutureReturn float64     `json:"future_return"`
	Correlations []MatchItem `json:"correlations"`
}

// AnalysisResponse is the body returned for one analysis.
type AnalysisResponse struct {
	StockSymbol        string                     `json:"stock_symbol"`
	AnalysisDate       string                     `json:"analysis_date"`
	Status             entity.Status              `json:"status"`
	Params             entity.Params              `json:"params"`
	CurrentMatches     []MatchItem                `json:"current_matches"`
	HistoricalPatterns *entity.HistoricalPatterns `json:"historical_patterns"`
	TopSimilarDates    []OccurrenceItem           `json:"top_similar_dates"`
	Warnings           []entity.Warning           `json:"warnings"`
}

// ScanResponse is the body returned for a bulk scan.
type ScanResponse struct {
	ID           string                 `json:"id"`
	AnalysisDate string                 `json:"analysis_date"`
	Scanned      int                    `json:"scanned"`
	Rows         []AnalysisResponse     `json:"rows"`
	Failures     []entity.SymbolFailure `json:"failures"`
}

// BacktestSampleItem is one checked prediction.
type BacktestSampleItem struct {
	StockSymbol        string           `json:"stock_symbol"`
	Date               string           `json:"date"`
	PredictedDirection entity.Direction `json:"predicted_direction"`
	PredictedReturn    float64          `json:"predicted_return"`
	Confidence         float64          `json:"confidence"`
	ActualDirection    entity.Direction `json:"actual_direction"`
	ActualReturn       float64          `json:"actual_return"`
	Correct            bool             `json:"correct"`
}

// BacktestResponse is the body returned for a backtest run.
type BacktestResponse struct {
	ID         string                 `json:"id"`
	StartDate  string                 `json:"start_date"`
	EndDate    string                 `json:"end_date"`
	TotalTests int                    `json:"total_tests"`
	Correct    int                    `json:"correct"`
	Accuracy   float64                `json:"accuracy"`
	Precision  float64                `json:"precision"`
	Recall     float64                `json:"recall"`
	F1Score    float64                `json:"f1_score"`
	Results    []BacktestSampleItem   `json:"results"`
	Failures   []entity.SymbolFailure `json:"failures"`
}

func matchItems(cs entity.CorrelationSet) []MatchItem {
	out := make([]MatchItem, 0, len(cs))
	for _, m := range cs {
		out = append(out, MatchItem{Symbol: m.Symbol, Correlation: m.Correlation})
	}
	return out
}

// NewAnalysisResponse formats an analysis result.
func NewAnalysisResponse(r *entity.AnalysisResult) AnalysisResponse {
	top := make([]OccurrenceItem, 0, len(r.TopSimilar))
	for _, o := range r.TopSimilar {
		top = append(top, OccurrenceItem{
			Date:         o.Date.Format(api.DateLayout),
			Similarity:   o.Similarity,
			FutureReturn: o.ForwardReturn,
			Correlations: matchItems(o.Matches),
		})
	}
	warnings := r.Warnings
	if warnings == nil {
		warnings = []entity.Warning{}
	}
	return AnalysisResponse{
		StockSymbol:        r.Symbol,
		AnalysisDate:       r.AsOf.Format(api.DateLayout),
		Status:             r.Status,
		Params:             r.Params,
		CurrentMatches:     matchItems(r.CurrentMatches),
		HistoricalPatterns: r.Historical,
		TopSimilarDates:    top,
		Warnings:           warnings,
	}
}

// NewScanResponse formats a scan report.
func NewScanResponse(r *entity.ScanReport) ScanResponse {
	rows := make([]AnalysisResponse, 0, len(r.Rows))
	for i := range r.Rows {
		rows = append(rows, NewAnalysisResponse(&r.Rows[i]))
	}
	return ScanResponse{
		ID:           r.ID,
		AnalysisDate: r.AsOf.Format(api.DateLayout),
		Scanned:      r.Scanned,
		Rows:         rows,
		Failures:     nonNilFailures(r.Failures),
	}
}

// NewBacktestResponse formats a backtest report.
func NewBacktestResponse(r *entity.BacktestReport) BacktestResponse {
	results := make([]BacktestSampleItem, 0, len(r.Samples))
	for _, s := range r.Samples {
		results = append(results, BacktestSampleItem{
			StockSymbol:        s.Symbol,
			Date:               s.Date.Format(api.DateLayout),
			PredictedDirection: s.PredictedDirection,
			PredictedReturn:    s.PredictedReturn,
			Confidence:         s.Confidence,
			ActualDirection:    s.ActualDirection,
			ActualReturn:       s.ActualReturn,
			Correct:            s.Correct,
		})
	}
	return BacktestResponse{
		ID:         r.ID,
		StartDate:  r.Start.Format(api.DateLayout),
		EndDate:    r.End.Format(api.DateLayout),
		TotalTests: r.Total,
		Correct:    r.Correct,
		Accuracy:   r.Accuracy,
		Precision:  r.Precision,
		Recall:     r.Recall,
		F1Score:    r.F1,
		Results:    results,
		Failures:   nonNilFailures(r.Failures),
	}
}

func nonNilFailures(fs []entity.SymbolFailure) []entity.SymbolFailure {
	if fs == nil {
		return []entity.SymbolFailure{}
	}
	return fs
}
