// Package entity defines the domain models for the candles feature.
package entity

import (
	"errors"
	"time"
)

// IntervalDaily is the candle interval that daily returns are derived from.
const IntervalDaily = "1day"

// ErrNonPositiveClose is returned when a return cannot be computed from a close price.
var ErrNonPositiveClose = errors.New("close price must be positive")

// Candle represents OHLCV (Open, High, Low, Close, Volume) candlestick data
// for a stock symbol at a specific time interval.
type Candle struct {
	Symbol   string    `json:"symbol"`   // Stock ticker symbol (e.g., "AAPL", "7203.T")
	Interval string    `json:"interval"` // Time interval (e.g., "1day", "1week", "1month")
	Time     time.Time `json:"time"`     // Timestamp for the start of this candle period
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
}

// ChangeFrom returns the fractional close-to-close change from prev to c.
func (c Candle) ChangeFrom(prev Candle) (float64, error) {
	if prev.Close <= 0 {
		return 0, ErrNonPositiveClose
	}
	return c.Close/prev.Close - 1, nil
}
