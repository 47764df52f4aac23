package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// MatchQuery describes one historical search.
type MatchQuery struct {
	Target   string
	Current  entity.CorrelationSet
	Start    time.Time // earliest candidate date
	End      time.Time // the as-of date
	Params   entity.Params
	Universe []string
}

// Matcher scans history for dates whose fingerprint resembles the current one.
type Matcher struct {
	scanner *Scanner
	workers int
}

// NewMatcher creates a Matcher. workers bounds the number of candidate dates scanned at once.
func NewMatcher(scanner *Scanner, workers int) *Matcher {
	if workers <= 0 {
		workers = 1
	}
	return &Matcher{scanner: scanner, workers: workers}
}

// FindSimilar returns the accepted occurrences in ascending date order.
// Any error, including cancellation, discards the work done so far.
func (m *Matcher) FindSimilar(ctx context.Context, q MatchQuery) ([]entity.HistoricalOccurrence, error) {
	occ, _, err := m.findSimilar(ctx, q)
	return occ, err
}

func (m *Matcher) findSimilar(ctx context.Context, q MatchQuery) ([]entity.HistoricalOccurrence, int, error) {
	if len(q.Current) == 0 {
		return nil, 0, nil
	}
	p := q.Params
	end := entity.Day(q.End)
	ts, err := m.scanner.returns.GetReturns(ctx, q.Target, entity.Day(q.Start).AddDate(0, 0, -calendarSpan(p.LookbackDays)), end)
	if err != nil {
		if errors.Is(err, domain.ErrDataUnavailable) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("load %s returns: %w", q.Target, err)
	}
	asOfIdx := ts.IndexOnOrBefore(end)
	candidates := candidateIndices(ts, asOfIdx, entity.Day(q.Start), p)

	found := make([]*entity.HistoricalOccurrence, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			window := ts.Points[c-p.LookbackDays+1 : c+1]
			set, err := m.scanner.scanWindow(gctx, q.Target, window, p.CorrelationThreshold, q.Universe)
			if err != nil {
				return err
			}
			score := Similarity(q.Current, set, p.Similarity)
			if score < p.Similarity.AcceptanceThreshold {
				return nil
			}
			found[i] = &entity.HistoricalOccurrence{
				Date:          ts.Points[c].Date,
				Similarity:    score,
				ForwardReturn: ts.CompoundPercent(c+1, c+1+p.ForwardDays),
				Matches:       set,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, len(candidates), err
	}

	out := make([]entity.HistoricalOccurrence, 0, len(found))
	for _, o := range found {
		if o != nil {
			out = append(out, *o)
		}
	}
	return out, len(candidates), nil
}

// candidateIndices lists, in ascending order, the target indices eligible as historical candidates.
// A candidate needs a full lookback window and a forward window that closes before asOfIdx.
func candidateIndices(ts entity.ReturnSeries, asOfIdx int, start time.Time, p entity.Params) []int {
	first := p.LookbackDays - 1
	last := asOfIdx - p.ForwardDays - 1
	eligible := func(c int) bool {
		return c >= first && c <= last && !ts.Points[c].Date.Before(start)
	}

	var out []int
	switch p.WindowType {
	case entity.WindowRolling:
		for c := first; c <= last; c++ {
			if eligible(c) {
				out = append(out, c)
			}
		}
	default:
		// blocks tiled back from the current window
		for c := asOfIdx - p.LookbackDays; c >= first && !ts.Points[c].Date.Before(start); c -= p.LookbackDays {
			if eligible(c) {
				out = append(out, c)
			}
		}
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}
