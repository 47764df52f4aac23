// Package domain defines domain-level errors for the correlation feature.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates missing or out-of-range request parameters.
	// It is returned before any data is read.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDataUnavailable indicates that a return series is missing or too short
	// for the requested window. Use errors.As with *DataUnavailableError to get the symbol.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrAnalysisTimeout is returned when an analysis exceeds its deadline.
	// No partial result accompanies it.
	ErrAnalysisTimeout = errors.New("analysis timed out")

	// ErrRunNotFound is returned when a stored backtest run does not exist.
	ErrRunNotFound = errors.New("backtest run not found")
)

// DataUnavailableError reports which symbol could not be served.
type DataUnavailableError struct {
	Symbol string
	Reason string
}

func (e *DataUnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("data unavailable for %s", e.Symbol)
	}
	return fmt.Sprintf("data unavailable for %s: %s", e.Symbol, e.Reason)
}

// Unwrap lets errors.Is(err, ErrDataUnavailable) match.
func (e *DataUnavailableError) Unwrap() error {
	return ErrDataUnavailable
}

// NewDataUnavailable creates a DataUnavailableError for symbol.
func NewDataUnavailable(symbol, reason string) error {
	return &DataUnavailableError{Symbol: symbol, Reason: reason}
}

// InvalidInputf wraps ErrInvalidInput with a formatted detail message.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
