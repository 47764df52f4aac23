package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// BacktestRequest is the input of Backtest.
type BacktestRequest struct {
	Symbols []string // empty means every active catalog symbol
	Start   time.Time
	End     time.Time
	Step    int // trading days between tested dates; 0 means 1
	Params  entity.Params
}

// Backtest replays the engine over past as-of dates and scores each prediction against
// the realised forward return of the target. Every prediction only sees data up to its date.
// Dates without a prediction or without a full forward window are not counted.
func (e *Engine) Backtest(ctx context.Context, req BacktestRequest) (*entity.BacktestReport, error) {
	if err := req.Params.Validate(); err != nil {
		return nil, domain.InvalidInputf("%v", err)
	}
	start, end := entity.Day(req.Start), entity.Day(req.End)
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, domain.InvalidInputf("backtest range %s..%s is invalid", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	if !start.After(req.Params.HistoryStart) {
		return nil, domain.InvalidInputf("start_date must be after history start %s", req.Params.HistoryStart.Format(time.DateOnly))
	}
	step := req.Step
	if step < 0 {
		return nil, domain.InvalidInputf("step must not be negative, got %d", step)
	}
	if step == 0 {
		step = 1
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

	// the panel reaches past end so that realised outcomes of the last dates can be read
	panelEnd := end.AddDate(0, 0, calendarSpan(req.Params.ForwardDays))
	panel, failed, err := loadPanel(ctx, e.returns, union(universe, targets), e.panelStart(req.Params), panelEnd, e.cfg.Workers)
	if err != nil {
		return nil, err
	}

	uerr := universeFailure(failed)

	samples := make([][]entity.BacktestSample, len(targets))
	errs := make([]error, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, sym := range targets {
		g.Go(func() error {
			if ferr, ok := failed[sym]; ok {
				errs[i] = ferr
				return nil
			}
			if uerr != nil {
				errs[i] = uerr
				return nil
			}
			got, err := e.backtestSymbol(gctx, panel, sym, start, end, step, req.Params, universe)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			samples[i], errs[i] = got, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &entity.BacktestReport{
		ID:       uuid.NewString(),
		Start:    start,
		End:      end,
		Params:   req.Params,
		Samples:  []entity.BacktestSample{},
		Failures: []entity.SymbolFailure{},
	}
	for i, sym := range targets {
		if errs[i] != nil {
			slog.Warn("backtest: symbol failed", "symbol", sym, "error", errs[i])
			report.Failures = append(report.Failures, entity.SymbolFailure{Symbol: sym, Error: errs[i].Error()})
			continue
		}
		report.Samples = append(report.Samples, samples[i]...)
	}
	Score(report)

	if e.cfg.Runs != nil {
		if err := e.cfg.Runs.SaveRun(ctx, report); err != nil {
			slog.Warn("failed to save backtest run", "id", report.ID, "error", err)
		}
	}
	slog.Info("backtest completed", "id", report.ID, "total", report.Total,
		"accuracy", report.Accuracy, "failures", len(report.Failures))
	return report, nil
}

func (e *Engine) backtestSymbol(ctx context.Context, panel *ReturnsPanel, sym string, start, end time.Time, step int, p entity.Params, universe []string) ([]entity.BacktestSample, error) {
	ts, ok := panel.Series(sym)
	if !ok {
		return nil, domain.NewDataUnavailable(sym, "unknown symbol")
	}
	out := []entity.BacktestSample{}
	for idx := ts.IndexOnOrAfter(start); idx < ts.Len() && !ts.Points[idx].Date.After(end); idx += step {
		if idx+p.ForwardDays >= ts.Len() {
			break
		}
		date := ts.Points[idx].Date
		res, _, err := e.analyzeWith(ctx, panel, sym, date, p, universe)
		if err != nil {
			if errors.Is(err, domain.ErrDataUnavailable) {
				continue
			}
			return nil, fmt.Errorf("analyze %s at %s: %w", sym, date.Format(time.DateOnly), err)
		}
		if !res.HasPrediction() {
			continue
		}
		pred := res.Historical.Prediction
		actual := ts.CompoundPercent(idx+1, idx+1+p.ForwardDays)
		actualDir := entity.DirectionOf(actual)
		out = append(out, entity.BacktestSample{
			Symbol:             sym,
			Date:               date,
			PredictedDirection: pred.Direction,
			PredictedReturn:    pred.ExpectedReturn,
			Confidence:         pred.Confidence,
			ActualDirection:    actualDir,
			ActualReturn:       actual,
			Correct:            pred.Direction == actualDir,
		})
	}
	return out, nil
}

// Score fills the report's counters from its samples.
// Precision and recall are measured on the "up" class. All ratios are percentages; an empty
// denominator yields 0.
func Score(r *entity.BacktestReport) {
	var predictedUp, actualUp, truePositive int
	r.Total, r.Correct = len(r.Samples), 0
	for _, s := range r.Samples {
		if s.Correct {
			r.Correct++
		}
		if s.PredictedDirection == entity.DirectionUp {
			predictedUp++
		}
		if s.ActualDirection == entity.DirectionUp {
			actualUp++
			if s.PredictedDirection == entity.DirectionUp {
				truePositive++
			}
		}
	}
	r.Accuracy = percent(r.Correct, r.Total)
	r.Precision = percent(truePositive, predictedUp)
	r.Recall = percent(truePositive, actualUp)
	r.F1 = 0
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
}

func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}
