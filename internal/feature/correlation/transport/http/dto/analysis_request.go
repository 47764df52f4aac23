// Package dto defines the request and response bodies of the analysis API.
package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/ZyrticX/DELTA-MIX/internal/api"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// ParamsRequest holds the optional analysis knobs. Omitted fields keep the server defaults.
type ParamsRequest struct {
	LookbackDays         *int     `json:"lookback_days"`
	CorrelationThreshold *float64 `json:"correlation_threshold"`
	ForwardDays          *int     `json:"forward_days"`
	WindowType           *string  `json:"window_type"`
	TopK                 *int     `json:"top_k"`
}

// Apply overlays the request on base.
func (p ParamsRequest) Apply(base entity.Params) entity.Params {
	if p.LookbackDays != nil {
		base.LookbackDays = *p.LookbackDays
	}
	if p.CorrelationThreshold != nil {
		base.CorrelationThreshold = *p.CorrelationThreshold
	}
	if p.ForwardDays != nil {
		base.ForwardDays = *p.ForwardDays
	}
	if p.WindowType != nil {
		base.WindowType = entity.WindowType(strings.ToLower(strings.TrimSpace(*p.WindowType)))
	}
	if p.TopK != nil {
		base.TopK = *p.TopK
	}
	return base
}

// AnalysisRequest is the body of POST /analysis/current.
type AnalysisRequest struct {
	StockSymbol  string   `json:"stock_symbol" binding:"required"`
	AnalysisDate string   `json:"analysis_date"`
	Universe     []string `json:"universe"`
	ParamsRequest
}

// ScanRequest is the body of POST /analysis/scan.
type ScanRequest struct {
	Symbols              []string `json:"symbols"`
	AnalysisDate         string   `json:"analysis_date"`
	MinConfidence        float64  `json:"min_confidence"`
	MinAbsExpectedReturn float64  `json:"min_abs_expected_return"`
	Direction            string   `json:"direction"`
	ParamsRequest
}

// BacktestRequest is the body of POST /analysis/backtest.
type BacktestRequest struct {
	Symbols   []string `json:"symbols"`
	StartDate string   `json:"start_date" binding:"required"`
	EndDate   string   `json:"end_date" binding:"required"`
	Step      int      `json:"step"`
	ParamsRequest
}

// ParseDate parses an optional YYYY-MM-DD date. The empty string yields the zero time.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(api.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD, got %q", field, s)
	}
	return t, nil
}
