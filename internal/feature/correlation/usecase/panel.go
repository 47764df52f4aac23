package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// ReturnsPanel is an immutable in-memory ReturnsProvider.
// The engine loads one per call so that every scan reads a consistent snapshot.
type ReturnsPanel struct {
	series map[string]entity.ReturnSeries
}

var _ ReturnsProvider = (*ReturnsPanel)(nil)

// NewReturnsPanel builds a panel from already loaded series.
func NewReturnsPanel(series ...entity.ReturnSeries) *ReturnsPanel {
	m := make(map[string]entity.ReturnSeries, len(series))
	for _, s := range series {
		m[s.Symbol] = s
	}
	return &ReturnsPanel{series: m}
}

// GetReturns slices the stored series to [start, end].
func (p *ReturnsPanel) GetReturns(_ context.Context, symbol string, start, end time.Time) (entity.ReturnSeries, error) {
	s, ok := p.series[symbol]
	if !ok {
		return entity.ReturnSeries{}, domain.NewDataUnavailable(symbol, "unknown symbol")
	}
	out := s.Slice(start, end)
	if out.Len() == 0 {
		return entity.ReturnSeries{}, domain.NewDataUnavailable(symbol,
			fmt.Sprintf("no data between %s and %s", start.Format(time.DateOnly), end.Format(time.DateOnly)))
	}
	return out, nil
}

// Series returns the full stored series of symbol.
func (p *ReturnsPanel) Series(symbol string) (entity.ReturnSeries, bool) {
	s, ok := p.series[symbol]
	return s, ok
}

// Symbols returns the loaded symbols in ascending order.
func (p *ReturnsPanel) Symbols() []string {
	out := make([]string, 0, len(p.series))
	for s := range p.series {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// loadPanel reads every symbol's series over [start, end] from provider.
// Symbols without data are left out. Any other failure is reported per symbol in failed.
func loadPanel(ctx context.Context, provider ReturnsProvider, symbols []string, start, end time.Time, workers int) (*ReturnsPanel, map[string]error, error) {
	var (
		mu     sync.Mutex
		loaded = make([]entity.ReturnSeries, 0, len(symbols))
		failed = make(map[string]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, sym := range symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := provider.GetReturns(gctx, sym, start, end)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				loaded = append(loaded, s)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				failed[sym] = err
				if !errors.Is(err, domain.ErrDataUnavailable) {
					slog.Warn("failed to load returns", "symbol", sym, "error", err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return NewReturnsPanel(loaded...), failed, nil
}
