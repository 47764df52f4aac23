package usecase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// ErrDB はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDB = errors.New("database error")

// mockCatalog はStockCatalogインターフェースのモック実装です。
type mockCatalog struct {
	ListActiveCodesFunc func(ctx context.Context) ([]string, error)
}

func (m *mockCatalog) ListActiveCodes(ctx context.Context) ([]string, error) {
	if m.ListActiveCodesFunc != nil {
		return m.ListActiveCodesFunc(ctx)
	}
	return nil, errors.New("ListActiveCodesFunc is not implemented")
}

func staticCatalog(codes ...string) *mockCatalog {
	return &mockCatalog{ListActiveCodesFunc: func(context.Context) ([]string, error) {
		return codes, nil
	}}
}

// mockReturns はReturnsProviderインターフェースのモック実装です。
type mockReturns struct {
	GetReturnsFunc func(ctx context.Context, symbol string, start, end time.Time) (entity.ReturnSeries, error)
}

func (m *mockReturns) GetReturns(ctx context.Context, symbol string, start, end time.Time) (entity.ReturnSeries, error) {
	if m.GetReturnsFunc != nil {
		return m.GetReturnsFunc(ctx, symbol, start, end)
	}
	return entity.ReturnSeries{}, errors.New("GetReturnsFunc is not implemented")
}

// fakeRecorder は計測値を記録するRecorderです。
type fakeRecorder struct {
	mu         sync.Mutex
	outcomes   []string
	candidates []int
}

func (r *fakeRecorder) ObserveAnalysis(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) ObserveCandidates(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates = append(r.candidates, n)
}

// mockRunStore はBacktestStoreインターフェースのモック実装です。
type mockRunStore struct {
	SaveRunFunc func(ctx context.Context, report *entity.BacktestReport) error
	saved       []*entity.BacktestReport
}

func (m *mockRunStore) SaveRun(ctx context.Context, report *entity.BacktestReport) error {
	m.saved = append(m.saved, report)
	if m.SaveRunFunc != nil {
		return m.SaveRunFunc(ctx, report)
	}
	return nil
}

const (
	blockLen   = 15
	blockCount = 41
)

var fixtureAsOf = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// weekdays returns the n weekdays ending on or before end, ascending.
func weekdays(end time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	d := entity.Day(end)
	for i := n - 1; i >= 0; {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out[i] = d
			i--
		}
		d = d.AddDate(0, 0, -1)
	}
	return out
}

// zigzag alternates small moves so that each block has a shape of its own.
func zigzag() []float64 {
	z := make([]float64, blockLen-1)
	for j := range z {
		if j%2 == 0 {
			z[j] = -0.001
		} else {
			z[j] = 0.001
		}
	}
	return z
}

// targetBlock returns the target's returns over one block, compounding to total.
func targetBlock(total float64) []float64 {
	z := zigzag()
	growth := 1.0
	for _, v := range z {
		growth *= 1 + v
	}
	return append([]float64{(1+total)/growth - 1}, z...)
}

// noiseBlock correlates with every target block by less than 0.05 in absolute value.
func noiseBlock() []float64 {
	pattern := []float64{1, 1, -1, -1}
	out := make([]float64, blockLen)
	for j := 1; j < blockLen; j++ {
		out[j] = 0.002 * pattern[(j-1)%4]
	}
	return out
}

// xyzFixture builds the XYZ scenario. Blocks are counted back from the as-of window (block 0).
//
// In blocks 0 and 2,4,...,24 the symbols A, B and C move with XYZ, elsewhere D and E do.
// The discrete matcher therefore accepts exactly twelve dates, whose forward windows
// (blocks 1,3,...,23) compound to +9% nine times and to -3% three times.
// With noiseOnly every other symbol is noise and nothing correlates.
func xyzFixture(noiseOnly bool) []entity.ReturnSeries {
	n := blockLen * blockCount
	dates := weekdays(fixtureAsOf, n)
	last := n - 1

	x := make([]float64, n)
	others := map[string][]float64{}
	for _, s := range []string{"A", "B", "C", "D", "E"} {
		others[s] = make([]float64, n)
	}

	noise := noiseBlock()
	for k := 0; k < blockCount; k++ {
		total := 0.005
		switch {
		case k%2 == 1 && k <= 17:
			total = 0.09
		case k == 19 || k == 21 || k == 23:
			total = -0.03
		}
		blk := targetBlock(total)
		similar := k == 0 || (k%2 == 0 && k >= 2 && k <= 24)
		base := last - blockLen*k - (blockLen - 1)
		for j := 0; j < blockLen; j++ {
			i := base + j
			x[i] = blk[j]
			for _, s := range others {
				s[i] = noise[j]
			}
			if noiseOnly {
				continue
			}
			if similar {
				others["A"][i] = blk[j]
				others["B"][i] = 2 * blk[j]
				others["C"][i] = 0.5 * blk[j]
			} else {
				others["D"][i] = blk[j]
				others["E"][i] = blk[j]
			}
		}
	}

	out := []entity.ReturnSeries{toSeries("XYZ", dates, x)}
	for _, s := range []string{"A", "B", "C", "D", "E"} {
		out = append(out, toSeries(s, dates, others[s]))
	}
	return out
}

func toSeries(symbol string, dates []time.Time, returns []float64) entity.ReturnSeries {
	pts := make([]entity.ReturnPoint, len(dates))
	for i := range dates {
		pts[i] = entity.ReturnPoint{Date: dates[i], Return: returns[i]}
	}
	return entity.ReturnSeries{Symbol: symbol, Points: pts}
}

// occurrencesWithReturns builds occurrences one day apart with the given forward returns.
func occurrencesWithReturns(returns ...float64) []entity.HistoricalOccurrence {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]entity.HistoricalOccurrence, len(returns))
	for i, r := range returns {
		out[i] = entity.HistoricalOccurrence{Date: start.AddDate(0, 0, i), Similarity: 0.8, ForwardReturn: r}
	}
	return out
}
