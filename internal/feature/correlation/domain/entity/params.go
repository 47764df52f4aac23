package entity

import (
	"fmt"
	"time"
)

// WindowType selects how historical candidate dates are sampled.
type WindowType string

const (
	// WindowDiscrete samples non-overlapping blocks of lookback days tiled back from the current window.
	WindowDiscrete WindowType = "discrete"
	// WindowRolling samples every trading day. Consecutive candidates share most of their window,
	// so the occurrences are not independent draws.
	WindowRolling WindowType = "rolling"
)

// Valid reports whether w is a known window type.
func (w WindowType) Valid() bool {
	return w == WindowDiscrete || w == WindowRolling
}

// SimilarityParams tunes the fingerprint similarity score.
// Score = JaccardWeight*Jaccard + (1-JaccardWeight)*mean coefficient closeness.
type SimilarityParams struct {
	AcceptanceThreshold float64 `json:"acceptance_threshold" mapstructure:"acceptance_threshold"`
	JaccardWeight       float64 `json:"jaccard_weight" mapstructure:"jaccard_weight"`
}

// BucketEdges are the percent boundaries of the outcome distribution.
// strong_down <= -Strong < moderate_down <= -Moderate < neutral < Moderate <= moderate_up < Strong <= strong_up
type BucketEdges struct {
	Moderate float64 `json:"moderate" mapstructure:"moderate"`
	Strong   float64 `json:"strong" mapstructure:"strong"`
}

// WarningRules holds the thresholds of the reliability warnings.
type WarningRules struct {
	MinExamples          int     `json:"min_examples" mapstructure:"min_examples"`
	MinConfidence        float64 `json:"min_confidence" mapstructure:"min_confidence"`
	MaxAgeYears          int     `json:"max_age_years" mapstructure:"max_age_years"`
	MinDirectionalSpread float64 `json:"min_directional_spread" mapstructure:"min_directional_spread"`
}

// Params carries every analysis knob. Zero values are not defaults; start from DefaultParams.
type Params struct {
	LookbackDays         int              `json:"lookback_days" mapstructure:"lookback_days"`
	CorrelationThreshold float64          `json:"correlation_threshold" mapstructure:"correlation_threshold"`
	ForwardDays          int              `json:"forward_days" mapstructure:"forward_days"`
	WindowType           WindowType       `json:"window_type" mapstructure:"window_type"`
	TopK                 int              `json:"top_k" mapstructure:"top_k"`
	HistoryStart         time.Time        `json:"history_start" mapstructure:"history_start"`
	Similarity           SimilarityParams `json:"similarity" mapstructure:"similarity"`
	Buckets              BucketEdges      `json:"buckets" mapstructure:"buckets"`
	Warnings             WarningRules     `json:"warnings" mapstructure:"warnings"`
}

// DefaultParams returns the analysis defaults. This is the only place they are declared.
func DefaultParams() Params {
	return Params{
		LookbackDays:         15,
		CorrelationThreshold: 0.85,
		ForwardDays:          15,
		WindowType:           WindowDiscrete,
		TopK:                 5,
		HistoryStart:         time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
		Similarity: SimilarityParams{
			AcceptanceThreshold: 0.7,
			JaccardWeight:       0.6,
		},
		Buckets: BucketEdges{
			Moderate: 2,
			Strong:   8,
		},
		Warnings: WarningRules{
			MinExamples:          10,
			MinConfidence:        55,
			MaxAgeYears:          8,
			MinDirectionalSpread: 0.1,
		},
	}
}

// Validate checks the parameter invariants.
func (p Params) Validate() error {
	switch {
	case p.LookbackDays <= 0:
		return fmt.Errorf("lookback_days must be positive, got %d", p.LookbackDays)
	case p.ForwardDays <= 0:
		return fmt.Errorf("forward_days must be positive, got %d", p.ForwardDays)
	case p.CorrelationThreshold < 0 || p.CorrelationThreshold >= 1:
		return fmt.Errorf("correlation_threshold must be in [0,1), got %v", p.CorrelationThreshold)
	case !p.WindowType.Valid():
		return fmt.Errorf("unknown window_type %q", p.WindowType)
	case p.TopK <= 0:
		return fmt.Errorf("top_k must be positive, got %d", p.TopK)
	case p.Similarity.AcceptanceThreshold < 0 || p.Similarity.AcceptanceThreshold > 1:
		return fmt.Errorf("similarity acceptance threshold must be in [0,1], got %v", p.Similarity.AcceptanceThreshold)
	case p.Similarity.JaccardWeight < 0 || p.Similarity.JaccardWeight > 1:
		return fmt.Errorf("similarity jaccard weight must be in [0,1], got %v", p.Similarity.JaccardWeight)
	case p.Buckets.Moderate <= 0 || p.Buckets.Strong <= p.Buckets.Moderate:
		return fmt.Errorf("bucket edges must satisfy 0 < moderate < strong, got %v/%v", p.Buckets.Moderate, p.Buckets.Strong)
	}
	return nil
}
