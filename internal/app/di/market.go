// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"gorm.io/gorm"

	candleadapters "github.com/ZyrticX/DELTA-MIX/internal/feature/candles/adapters"
	candleusecase "github.com/ZyrticX/DELTA-MIX/internal/feature/candles/usecase"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/externalapi/twelvedata"
	infrahttp "github.com/ZyrticX/DELTA-MIX/internal/platform/http"
	"github.com/ZyrticX/DELTA-MIX/internal/shared/ratelimiter"
)

// NewMarket creates a TwelveDataMarket with HTTP client behind a circuit breaker.
func NewMarket(cfg twelvedata.Config) *twelvedata.BreakerMarket {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return twelvedata.NewBreakerMarket("twelvedata", twelvedata.NewTwelveDataMarket(cfg, httpClient))
}

// NewIngestUsecase wires the market client, the candle store and the plan's rate limit.
func NewIngestUsecase(cfg twelvedata.Config, db *gorm.DB) *candleusecase.IngestUsecase {
	limiter := ratelimiter.NewRateLimiter(cfg.RequestsPerMinute, time.Minute)
	return candleusecase.NewIngestUsecase(NewMarket(cfg), candleadapters.NewCandleRepository(db), limiter)
}
