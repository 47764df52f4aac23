// Package adapters connects the correlation engine to storage.
package adapters

import (
	"context"
	"fmt"
	"time"

	candle "github.com/ZyrticX/DELTA-MIX/internal/feature/candles/domain/entity"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/usecase"
)

// priorClosePadding is how far before start the previous close is looked up.
// It covers weekends and the longest exchange holidays.
const priorClosePadding = 10 * 24 * time.Hour

// CandleReader reads stored daily candles in ascending time order.
type CandleReader interface {
	FindRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]candle.Candle, error)
}

// CandleReturns derives close-to-close daily returns from the candle store.
type CandleReturns struct {
	candles CandleReader
}

var _ usecase.ReturnsProvider = (*CandleReturns)(nil)

// NewCandleReturns creates a ReturnsProvider over daily candles.
func NewCandleReturns(candles CandleReader) *CandleReturns {
	return &CandleReturns{candles: candles}
}

// GetReturns returns one point per trading day in [start, end]. The first day's return needs
// the close before start, so the read starts a little earlier. Days whose previous close is
// not positive are dropped.
func (r *CandleReturns) GetReturns(ctx context.Context, symbol string, start, end time.Time) (entity.ReturnSeries, error) {
	start, end = entity.Day(start), entity.Day(end)
	if end.Before(start) {
		return entity.ReturnSeries{}, domain.NewDataUnavailable(symbol, "empty range")
	}
	cs, err := r.candles.FindRange(ctx, symbol, candle.IntervalDaily,
		start.Add(-priorClosePadding), end.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		return entity.ReturnSeries{}, fmt.Errorf("find candles for %s: %w", symbol, err)
	}

	out := entity.ReturnSeries{Symbol: symbol}
	for i := 1; i < len(cs); i++ {
		day := entity.Day(cs[i].Time)
		if !day.After(entity.Day(cs[i-1].Time)) || day.Before(start) {
			continue
		}
		ret, err := cs[i].ChangeFrom(cs[i-1])
		if err != nil {
			continue
		}
		out.Points = append(out.Points, entity.ReturnPoint{Date: day, Return: ret})
	}
	if len(out.Points) == 0 {
		return entity.ReturnSeries{}, domain.NewDataUnavailable(symbol, "no daily candles in range")
	}
	return out, nil
}
