package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// Outcome labels reported to the Recorder.
const (
	OutcomeOK              = "ok"
	OutcomeNoMatches       = "no_historical_matches"
	OutcomeInvalidInput    = "invalid_input"
	OutcomeDataUnavailable = "data_unavailable"
	OutcomeTimeout         = "timeout"
	OutcomeError           = "error"
)

// EngineConfig holds the engine's resource limits.
type EngineConfig struct {
	// Workers bounds concurrent candidate scans, and concurrent symbols in bulk operations.
	// Defaults to runtime.NumCPU().
	Workers int
	// Timeout bounds one analysis. Zero means no limit beyond the caller's context.
	Timeout time.Duration
	// Recorder receives measurements; optional.
	Recorder Recorder
	// Runs persists backtest reports; optional.
	Runs BacktestStore
}

// Engine orchestrates scanner, matcher, aggregation, top-k selection and warnings.
// It keeps no state between calls.
type Engine struct {
	returns ReturnsProvider
	catalog StockCatalog
	cfg     EngineConfig
	now     func() time.Time
}

// NewEngine creates an Engine reading returns from returns and the default universe from catalog.
func NewEngine(returns ReturnsProvider, catalog StockCatalog, cfg EngineConfig) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Engine{returns: returns, catalog: catalog, cfg: cfg, now: time.Now}
}

// AnalysisRequest is the input of Analyze.
type AnalysisRequest struct {
	Symbol   string
	AsOf     time.Time // zero means today
	Params   entity.Params
	Universe []string // empty means every active catalog symbol
}

// Analyze runs the full pipeline for one symbol.
// A result with StatusNoHistoricalMatches is a valid answer, not an error.
func (e *Engine) Analyze(ctx context.Context, req AnalysisRequest) (*entity.AnalysisResult, error) {
	started := time.Now()
	res, err := e.analyze(ctx, req)
	e.observe(res, err, time.Since(started))
	return res, err
}

func (e *Engine) analyze(ctx context.Context, req AnalysisRequest) (*entity.AnalysisResult, error) {
	symbol := NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, domain.InvalidInputf("stock_symbol is required")
	}
	if err := req.Params.Validate(); err != nil {
		return nil, domain.InvalidInputf("%v", err)
	}
	asOf := e.resolveAsOf(req.AsOf)
	if !asOf.After(req.Params.HistoryStart) {
		return nil, domain.InvalidInputf("analysis_date %s is not after history start %s",
			asOf.Format(time.DateOnly), req.Params.HistoryStart.Format(time.DateOnly))
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	universe, err := e.universe(ctx, req.Universe)
	if err != nil {
		return nil, e.mapContextErr(err, symbol)
	}
	panel, failed, err := loadPanel(ctx, e.returns, withSymbol(universe, symbol), e.panelStart(req.Params), asOf, e.cfg.Workers)
	if err != nil {
		return nil, e.mapContextErr(err, symbol)
	}
	if ferr, ok := failed[symbol]; ok {
		return nil, ferr
	}
	if uerr := universeFailure(failed); uerr != nil {
		return nil, uerr
	}

	res, _, err := e.analyzeWith(ctx, panel, symbol, asOf, req.Params, universe)
	if err != nil {
		return nil, e.mapContextErr(err, symbol)
	}
	return res, nil
}

// analyzeWith runs the pipeline against an already loaded panel.
// It also returns how many candidate dates were scanned.
func (e *Engine) analyzeWith(ctx context.Context, panel ReturnsProvider, symbol string, asOf time.Time, p entity.Params, universe []string) (*entity.AnalysisResult, int, error) {
	scanner := NewScanner(panel)
	current, err := scanner.Scan(ctx, symbol, asOf, p.LookbackDays, p.CorrelationThreshold, universe)
	if err != nil {
		return nil, 0, err
	}

	occurrences, scanned, err := NewMatcher(scanner, e.cfg.Workers).findSimilar(ctx, MatchQuery{
		Target:   symbol,
		Current:  current,
		Start:    p.HistoryStart,
		End:      asOf,
		Params:   p,
		Universe: universe,
	})
	if err != nil {
		return nil, scanned, err
	}
	if e.cfg.Recorder != nil {
		e.cfg.Recorder.ObserveCandidates(scanned)
	}

	res := &entity.AnalysisResult{
		Symbol:         symbol,
		AsOf:           asOf,
		Params:         p,
		Status:         entity.StatusNoHistoricalMatches,
		CurrentMatches: current,
		TopSimilar:     []entity.HistoricalOccurrence{},
		Warnings:       []entity.Warning{},
	}
	patterns, ok := Aggregate(occurrences, p.Buckets)
	if !ok {
		return res, scanned, nil
	}
	res.Status = entity.StatusOK
	res.Historical = &patterns
	res.TopSimilar = TopK(occurrences, p.TopK)
	res.Warnings = EvaluateWarnings(patterns.TotalSimilarOccurrences, patterns.Prediction.Confidence,
		occurrences, patterns.Distribution, asOf, p.Warnings)
	return res, scanned, nil
}

func (e *Engine) resolveAsOf(t time.Time) time.Time {
	if t.IsZero() {
		return entity.Day(e.now())
	}
	return entity.Day(t)
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, e.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// panelStart leaves room for the lookback window of the earliest candidate.
func (e *Engine) panelStart(p entity.Params) time.Time {
	return entity.Day(p.HistoryStart).AddDate(0, 0, -calendarSpan(p.LookbackDays))
}

// universe returns the explicit universe, or the catalog's, deduplicated and sorted.
func (e *Engine) universe(ctx context.Context, explicit []string) ([]string, error) {
	codes := explicit
	if len(codes) == 0 {
		var err error
		codes, err = e.catalog.ListActiveCodes(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active symbols: %w", err)
		}
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = NormalizeSymbol(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (e *Engine) mapContextErr(err error, symbol string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", domain.ErrAnalysisTimeout, symbol)
	}
	return err
}

func (e *Engine) observe(res *entity.AnalysisResult, err error, elapsed time.Duration) {
	if e.cfg.Recorder == nil {
		return
	}
	e.cfg.Recorder.ObserveAnalysis(outcomeOf(res, err), elapsed)
}

func outcomeOf(res *entity.AnalysisResult, err error) string {
	switch {
	case err == nil && res.Status == entity.StatusOK:
		return OutcomeOK
	case err == nil:
		return OutcomeNoMatches
	case errors.Is(err, domain.ErrInvalidInput):
		return OutcomeInvalidInput
	case errors.Is(err, domain.ErrDataUnavailable):
		return OutcomeDataUnavailable
	case errors.Is(err, domain.ErrAnalysisTimeout):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

// NormalizeSymbol trims and upper-cases a symbol code, matching how the catalog stores codes.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// universeFailure returns the first failure, by symbol, that is not a lack of data.
// Symbols without data only shrink the universe; any other failure leaves it incomplete,
// so no analysis over it may be reported.
func universeFailure(failed map[string]error) error {
	syms := make([]string, 0, len(failed))
	for sym, ferr := range failed {
		if !errors.Is(ferr, domain.ErrDataUnavailable) {
			syms = append(syms, sym)
		}
	}
	if len(syms) == 0 {
		return nil
	}
	sort.Strings(syms)
	return fmt.Errorf("load %s returns: %w", syms[0], failed[syms[0]])
}

// withSymbol returns symbols plus s, without duplicating it.
func withSymbol(symbols []string, s string) []string {
	out := make([]string, 0, len(symbols)+1)
	out = append(out, s)
	for _, x := range symbols {
		if x != s {
			out = append(out, x)
		}
	}
	return out
}
