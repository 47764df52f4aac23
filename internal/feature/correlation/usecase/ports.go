// Package usecase implements the correlation-pattern matching and prediction engine.
package usecase

import (
	"context"
	"time"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// ReturnsProvider supplies daily return series.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type ReturnsProvider interface {
	// GetReturns returns the points dated within [start, end].
	// It fails with domain.ErrDataUnavailable when the symbol is unknown or the range is empty.
	GetReturns(ctx context.Context, symbol string, start, end time.Time) (entity.ReturnSeries, error)
}

// StockCatalog lists the symbols that form the default correlation universe.
type StockCatalog interface {
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// Recorder receives engine measurements. A nil Recorder is allowed.
type Recorder interface {
	ObserveAnalysis(outcome string, elapsed time.Duration)
	ObserveCandidates(n int)
}

// BacktestStore persists finished backtest runs.
type BacktestStore interface {
	SaveRun(ctx context.Context, report *entity.BacktestReport) error
}
