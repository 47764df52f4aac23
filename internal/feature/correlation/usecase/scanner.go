package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// Scanner computes correlation fingerprints.
type Scanner struct {
	returns ReturnsProvider
}

// NewScanner creates a Scanner reading from returns.
func NewScanner(returns ReturnsProvider) *Scanner {
	return &Scanner{returns: returns}
}

// calendarSpan is how many calendar days are requested to cover n trading days.
func calendarSpan(n int) int {
	return n*2 + 15
}

// Scan returns the symbols of universe whose returns over the lookbackDays trading days
// ending at asOf correlate with target by at least threshold in absolute value.
// Only a target without enough history is an error; short candidates are skipped.
func (s *Scanner) Scan(ctx context.Context, target string, asOf time.Time, lookbackDays int, threshold float64, universe []string) (entity.CorrelationSet, error) {
	asOf = entity.Day(asOf)
	ts, err := s.returns.GetReturns(ctx, target, asOf.AddDate(0, 0, -calendarSpan(lookbackDays)), asOf)
	if err != nil {
		if errors.Is(err, domain.ErrDataUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("load %s returns: %w", target, err)
	}
	if ts.Len() < lookbackDays {
		return nil, domain.NewDataUnavailable(target,
			fmt.Sprintf("need %d observations up to %s, have %d", lookbackDays, asOf.Format(time.DateOnly), ts.Len()))
	}
	return s.scanWindow(ctx, target, ts.Points[ts.Len()-lookbackDays:], threshold, universe)
}

// scanWindow correlates the given target window against every candidate aligned on the same dates.
func (s *Scanner) scanWindow(ctx context.Context, target string, window []entity.ReturnPoint, threshold float64, universe []string) (entity.CorrelationSet, error) {
	x := make([]float64, len(window))
	for i, p := range window {
		x[i] = p.Return
	}
	first, last := window[0].Date, window[len(window)-1].Date

	set := entity.CorrelationSet{}
	for _, sym := range universe {
		if sym == target {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cs, err := s.returns.GetReturns(ctx, sym, first, last)
		if err != nil {
			if errors.Is(err, domain.ErrDataUnavailable) {
				continue
			}
			return nil, fmt.Errorf("load %s returns: %w", sym, err)
		}
		y, ok := align(window, cs.Points)
		if !ok {
			continue
		}
		c := stat.Correlation(x, y, nil)
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		if math.Abs(c) >= threshold {
			set = append(set, entity.Match{Symbol: sym, Correlation: c})
		}
	}
	set.SortByStrength()
	return set, nil
}

// align returns the candidate's returns on exactly the window's dates.
// It reports false when any window date is missing from the candidate.
func align(window, candidate []entity.ReturnPoint) ([]float64, bool) {
	if len(candidate) < len(window) {
		return nil, false
	}
	y := make([]float64, len(window))
	j := 0
	for i, p := range window {
		for j < len(candidate) && candidate[j].Date.Before(p.Date) {
			j++
		}
		if j == len(candidate) || !candidate[j].Date.Equal(p.Date) {
			return nil, false
		}
		y[i] = candidate[j].Return
		j++
	}
	return y, true
}
