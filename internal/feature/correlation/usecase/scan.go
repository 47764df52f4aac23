package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// ScanRequest is the input of a bulk scan.
type ScanRequest struct {
	Symbols []string // empty means every active catalog symbol
	AsOf    time.Time
	Params  entity.Params
	Filter  entity.ScanFilter
}

// Scan analyses many symbols against one shared snapshot of returns.
// A failing symbol is reported in Failures and does not affect the others.
// Rows only hold results with a prediction that pass the filter, highest confidence first.
func (e *Engine) Scan(ctx context.Context, req ScanRequest) (*entity.ScanReport, error) {
	if err := req.Params.Validate(); err != nil {
		return nil, domain.InvalidInputf("%v", err)
	}
	if err := validateFilter(req.Filter); err != nil {
		return nil, err
	}
	asOf := e.resolveAsOf(req.AsOf)
	if !asOf.After(req.Params.HistoryStart) {
		return nil, domain.InvalidInputf("analysis_date %s is not after history start %s",
			asOf.Format(time.DateOnly), req.Params.HistoryStart.Format(time.DateOnly))
	}

	universe, err := e.universe(ctx, nil)
	if err != nil {
		return nil, err
	}
	targets := universe
	if len(req.Symbols) > 0 {
		if targets, err = e.universe(ctx, req.Symbols); err != nil {
			return nil, err
		}
	}

	panel, failed, err := loadPanel(ctx, e.returns, union(universe, targets), e.panelStart(req.Params), asOf, e.cfg.Workers)
	if err != nil {
		return nil, err
	}

	uerr := universeFailure(failed)

	results := make([]*entity.AnalysisResult, len(targets))
	errs := make([]error, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, sym := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if ferr, ok := failed[sym]; ok {
				errs[i] = ferr
				return nil
			}
			if uerr != nil {
				errs[i] = uerr
				return nil
			}
			started := time.Now()
			actx, cancel := e.withTimeout(gctx)
			res, _, err := e.analyzeWith(actx, panel, sym, asOf, req.Params, universe)
			cancel()
			if err != nil && ctx.Err() == nil {
				err = e.mapContextErr(err, sym)
			}
			e.observe(res, err, time.Since(started))
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			results[i], errs[i] = res, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &entity.ScanReport{
		ID:       uuid.NewString(),
		AsOf:     asOf,
		Scanned:  len(targets),
		Rows:     []entity.AnalysisResult{},
		Failures: []entity.SymbolFailure{},
	}
	for i, sym := range targets {
		if errs[i] != nil {
			if !errors.Is(errs[i], domain.ErrDataUnavailable) {
				slog.Warn("scan: analysis failed", "symbol", sym, "error", errs[i])
			}
			report.Failures = append(report.Failures, entity.SymbolFailure{Symbol: sym, Error: errs[i].Error()})
			continue
		}
		if keep(results[i], req.Filter) {
			report.Rows = append(report.Rows, *results[i])
		}
	}
	sort.SliceStable(report.Rows, func(i, j int) bool {
		ci, cj := report.Rows[i].Historical.Prediction.Confidence, report.Rows[j].Historical.Prediction.Confidence
		if ci != cj {
			return ci > cj
		}
		return report.Rows[i].Symbol < report.Rows[j].Symbol
	})

	slog.Info("scan completed", "id", report.ID, "scanned", report.Scanned,
		"rows", len(report.Rows), "failures", len(report.Failures))
	return report, nil
}

func validateFilter(f entity.ScanFilter) error {
	switch f.Direction {
	case "", entity.DirectionUp, entity.DirectionDown:
	default:
		return domain.InvalidInputf("direction must be up or down, got %q", f.Direction)
	}
	if f.MinConfidence < 0 || f.MinConfidence > 100 {
		return domain.InvalidInputf("min_confidence must be in [0,100], got %v", f.MinConfidence)
	}
	if f.MinAbsExpectedReturn < 0 {
		return domain.InvalidInputf("min_abs_expected_return must not be negative, got %v", f.MinAbsExpectedReturn)
	}
	return nil
}

func keep(res *entity.AnalysisResult, f entity.ScanFilter) bool {
	if !res.HasPrediction() {
		return false
	}
	pred := res.Historical.Prediction
	if pred.Confidence < f.MinConfidence {
		return false
	}
	if math.Abs(pred.ExpectedReturn) < f.MinAbsExpectedReturn {
		return false
	}
	return f.Direction == "" || pred.Direction == f.Direction
}

// union merges two sorted, deduplicated lists.
func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		case i == len(a) || b[j] < a[i]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
