package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	candleadapters "github.com/ZyrticX/DELTA-MIX/internal/feature/candles/adapters"
	correlationadapters "github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/adapters"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/usecase"
	symboladapters "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/adapters"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/cache"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/config"
)

// NewEngine wires the prediction engine to the candle store and the symbol catalog.
// Returns are read from the database directly; whole histories are too large for the candle cache.
// recorder may be nil.
func NewEngine(cfg config.AnalysisConfig, db *gorm.DB, recorder usecase.Recorder) *usecase.Engine {
	returns := correlationadapters.NewCandleReturns(candleadapters.NewCandleRepository(db))
	catalog := symboladapters.NewSymbolRepository(db)
	return usecase.NewEngine(returns, catalog, usecase.EngineConfig{
		Workers:  cfg.Workers,
		Timeout:  cfg.Timeout,
		Recorder: recorder,
		Runs:     correlationadapters.NewBacktestRunRepository(db),
	})
}

// NewAnalyzer wraps the engine with the Redis result cache. A nil rdb disables caching.
func NewAnalyzer(engine *usecase.Engine, rdb *redis.Client, ttl time.Duration) *cache.CachingAnalyzer {
	return cache.NewCachingAnalyzer(rdb, ttl, engine, "analysis")
}
