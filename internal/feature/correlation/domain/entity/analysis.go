package entity

import "time"

// Status distinguishes a computed result with precedents from one without.
type Status string

const (
	StatusOK Status = "ok"
	// StatusNoHistoricalMatches means the analysis ran and found no precedent.
	// It is not an error and carries no prediction and no warnings.
	StatusNoHistoricalMatches Status = "no_historical_matches"
)

// AnalysisResult is the response of one analysis.
type AnalysisResult struct {
	Symbol         string                 `json:"stock_symbol"`
	AsOf           time.Time              `json:"analysis_date"`
	Params         Params                 `json:"params"`
	Status         Status                 `json:"status"`
	CurrentMatches CorrelationSet         `json:"current_matches"`
	Historical     *HistoricalPatterns    `json:"historical_patterns"`
	TopSimilar     []HistoricalOccurrence `json:"top_similar_dates"`
	Warnings       []Warning              `json:"warnings"`
}

// HasPrediction reports whether the result carries a prediction.
func (r *AnalysisResult) HasPrediction() bool {
	return r != nil && r.Historical != nil
}

// ScanFilter restricts which analyses a bulk scan returns. Zero values disable a filter.
type ScanFilter struct {
	MinConfidence        float64   `json:"min_confidence"`
	MinAbsExpectedReturn float64   `json:"min_abs_expected_return"`
	Direction            Direction `json:"direction,omitempty"`
}

// SymbolFailure records why one symbol of a bulk operation could not be analysed.
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// ScanReport is the result of a bulk scan.
type ScanReport struct {
	ID       string           `json:"id"`
	AsOf     time.Time        `json:"analysis_date"`
	Scanned  int              `json:"scanned"`
	Rows     []AnalysisResult `json:"rows"`
	Failures []SymbolFailure  `json:"failures"`
}

// BacktestSample is one prediction checked against its realised outcome.
type BacktestSample struct {
	Symbol             string    `json:"stock_symbol"`
	Date               time.Time `json:"date"`
	PredictedDirection Direction `json:"predicted_direction"`
	PredictedReturn    float64   `json:"predicted_return"`
	Confidence         float64   `json:"confidence"`
	ActualDirection    Direction `json:"actual_direction"`
	ActualReturn       float64   `json:"actual_return"`
	Correct            bool      `json:"correct"`
}

// BacktestReport summarises a backtest run. Percentages are 0-100.
type BacktestReport struct {
	ID        string           `json:"id"`
	Start     time.Time        `json:"start_date"`
	End       time.Time        `json:"end_date"`
	Params    Params           `json:"params"`
	Total     int              `json:"total_tests"`
	Correct   int              `json:"correct"`
	Accuracy  float64          `json:"accuracy"`
	Precision float64          `json:"precision"`
	Recall    float64          `json:"recall"`
	F1        float64          `json:"f1_score"`
	Samples   []BacktestSample `json:"results"`
	Failures  []SymbolFailure  `json:"failures"`
}
