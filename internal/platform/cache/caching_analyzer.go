package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/usecase"
)

// DefaultAnalysisTTL is how long an analysis result stays cached.
const DefaultAnalysisTTL = 7 * 24 * time.Hour

// AnalysisEngine is the engine surface served over HTTP.
type AnalysisEngine interface {
	Analyze(ctx context.Context, req usecase.AnalysisRequest) (*entity.AnalysisResult, error)
	Scan(ctx context.Context, req usecase.ScanRequest) (*entity.ScanReport, error)
	Backtest(ctx context.Context, req usecase.BacktestRequest) (*entity.BacktestReport, error)
}

// CachingAnalyzer caches single-symbol analyses in Redis, keyed by symbol, as-of date and
// a hash of the parameters. Scan and Backtest pass through uncached.
type CachingAnalyzer struct {
	inner     AnalysisEngine
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	now       func() time.Time
}

var _ AnalysisEngine = (*CachingAnalyzer)(nil)

// NewCachingAnalyzer decorates an engine with Redis caching.
// If ttl is 0, it defaults to DefaultAnalysisTTL. If namespace is empty, it uses "analysis".
func NewCachingAnalyzer(rdb *redis.Client, ttl time.Duration, inner AnalysisEngine, namespace string) *CachingAnalyzer {
	if ttl <= 0 {
		ttl = DefaultAnalysisTTL
	}
	if namespace == "" {
		namespace = "analysis"
	}
	return &CachingAnalyzer{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		now:       time.Now,
	}
}

// Analyze returns a cached result when one exists, otherwise runs the engine and caches
// the result. Results without historical matches are cached too; errors are not.
func (c *CachingAnalyzer) Analyze(ctx context.Context, req usecase.AnalysisRequest) (*entity.AnalysisResult, error) {
	if c.rdb == nil {
		return c.inner.Analyze(ctx, req)
	}
	// 日付を固定してからキーを作る
	if req.AsOf.IsZero() {
		req.AsOf = entity.Day(c.now())
	}

	key, err := c.cacheKey(req)
	if err != nil {
		return c.inner.Analyze(ctx, req)
	}

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.AnalysisResult
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			slog.Warn("failed to cache analysis", "symbol", req.Symbol, "error", err)
		}
	}
	return out, nil
}

func (c *CachingAnalyzer) Scan(ctx context.Context, req usecase.ScanRequest) (*entity.ScanReport, error) {
	return c.inner.Scan(ctx, req)
}

func (c *CachingAnalyzer) Backtest(ctx context.Context, req usecase.BacktestRequest) (*entity.BacktestReport, error) {
	return c.inner.Backtest(ctx, req)
}

// cacheKey generates namespace:symbol:date:hash.
func (c *CachingAnalyzer) cacheKey(req usecase.AnalysisRequest) (string, error) {
	h, err := HashParams(req.Params, req.Universe)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%s:%s",
		c.namespace,
		safe(usecase.NormalizeSymbol(req.Symbol)),
		entity.Day(req.AsOf).Format(time.DateOnly),
		h,
	), nil
}

// HashParams returns the MD5 hex digest of the parameters and the sorted universe.
func HashParams(p entity.Params, universe []string) (string, error) {
	u := make([]string, 0, len(universe))
	for _, sym := range universe {
		u = append(u, usecase.NormalizeSymbol(sym))
	}
	sort.Strings(u)
	b, err := json.Marshal(struct {
		Params   entity.Params `json:"params"`
		Universe []string      `json:"universe,omitempty"`
	}{p, u})
	if err != nil {
		return "", err
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:]), nil
}
