package entity

import (
	"math"
	"sort"
	"time"
)

// Match is one instrument whose returns correlate with the target over the lookback window.
type Match struct {
	Symbol      string  `json:"symbol"`
	Correlation float64 `json:"correlation"`
}

// CorrelationSet is the correlation fingerprint of a target at one date:
// only matches with |correlation| >= threshold, strongest first.
type CorrelationSet []Match

// SortByStrength orders the set by descending |correlation|, ties by symbol.
func (cs CorrelationSet) SortByStrength() {
	sort.Slice(cs, func(i, j int) bool {
		ai, aj := math.Abs(cs[i].Correlation), math.Abs(cs[j].Correlation)
		if ai != aj {
			return ai > aj
		}
		return cs[i].Symbol < cs[j].Symbol
	})
}

// Symbols returns the matched symbols in set order.
func (cs CorrelationSet) Symbols() []string {
	out := make([]string, 0, len(cs))
	for _, m := range cs {
		out = append(out, m.Symbol)
	}
	return out
}

// Coefficients indexes the set by symbol.
func (cs CorrelationSet) Coefficients() map[string]float64 {
	m := make(map[string]float64, len(cs))
	for _, x := range cs {
		m[x.Symbol] = x.Correlation
	}
	return m
}

// HistoricalOccurrence is a past date whose fingerprint matched the current one.
type HistoricalOccurrence struct {
	Date          time.Time      `json:"date"`
	Similarity    float64        `json:"similarity"`
	ForwardReturn float64        `json:"forward_return"` // percent over forward_days
	Matches       CorrelationSet `json:"matches"`
}
