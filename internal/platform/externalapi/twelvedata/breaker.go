package twelvedata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/candles/domain/entity"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/candles/usecase"
)

// ErrCircuitOpen はブレーカーが開いていて呼び出しを拒否したことを表します。
var ErrCircuitOpen = errors.New("twelvedata: circuit open")

// BreakerMarket はMarketRepositoryをサーキットブレーカーで包みます。
// 3回連続の失敗、または20件以上のリクエストで失敗率が5%を超えると開き、60秒後に半開状態で再試行します。
type BreakerMarket struct {
	inner usecase.MarketRepository
	cb    *gobreaker.CircuitBreaker
}

var _ usecase.MarketRepository = (*BreakerMarket)(nil)

// NewBreakerMarket はname付きのブレーカーでinnerを包みます。
func NewBreakerMarket(name string, inner usecase.MarketRepository) *BreakerMarket {
	st := gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
		// 呼び出し元のキャンセルは上流の障害として数えない
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerMarket{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

// GetTimeSeries はブレーカー越しに時系列を取得します。
func (b *BreakerMarket) GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.GetTimeSeries(ctx, symbol, interval, outputsize)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, symbol)
	}
	if err != nil {
		return nil, err
	}
	return out.([]entity.Candle), nil
}

// State はブレーカーの現在の状態を返します。
func (b *BreakerMarket) State() gobreaker.State {
	return b.cb.State()
}
