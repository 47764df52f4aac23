package usecase

import (
	"context"
	"log/slog"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/candles/domain/entity"
)

// ingestTarget は1回の取得対象となる時間足と件数です。
type ingestTarget struct {
	interval   string
	outputsize int
}

// ingestTargets はデータ取得の対象となる時間足のリストです。
// 日足は相関分析の履歴として使うため上限まで取得します。
var ingestTargets = []ingestTarget{
	{interval: entity.IntervalDaily, outputsize: MaxOutputSize},
	{interval: "1week", outputsize: 200},
	{interval: "1month", outputsize: 200},
}

// MarketRepository は株価データを取得するリポジトリのインターフェイスです。
// 外部 API の実装を抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
}

// RateLimiter は外部APIの呼び出し頻度を制限します。
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// IngestFailure は取得に失敗した1リクエストを表します。
type IngestFailure struct {
	Symbol   string
	Interval string
	Err      error
}

// IngestReport はIngestAllの結果です。
type IngestReport struct {
	Requests int
	Candles  int
	Failures []IngestFailure
}

// IngestUsecase は外部APIからデータを取得し、データベースに永続化するユースケースを定義します。
type IngestUsecase struct {
	market      MarketRepository
	candle      CandleRepository
	rateLimiter RateLimiter
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(market MarketRepository, candle CandleRepository, rateLimiter RateLimiter) *IngestUsecase {
	return &IngestUsecase{market: market, candle: candle, rateLimiter: rateLimiter}
}

// ingestOne は指定された銘柄と時間足の時系列データを外部リポジトリから取得し、
// データベースに一括で挿入（または更新）します。保存した件数を返します。
func (iu *IngestUsecase) ingestOne(ctx context.Context, symbol, interval string, outputsize int) (int, error) {
	cs, err := iu.market.GetTimeSeries(ctx, symbol, interval, outputsize)
	if err != nil {
		return 0, err
	}

	// 取得したデータに銘柄コードと時間足を設定
	for i := range cs {
		cs[i].Symbol = symbol
		cs[i].Interval = interval
	}
	if err := iu.candle.UpsertBatch(ctx, cs); err != nil {
		return 0, err
	}
	return len(cs), nil
}

// IngestAll は指定された全銘柄の時系列データを複数の時間足（日足, 週足, 月足）で取得し、
// データベースに永続化します。APIのレートリミットを考慮して、リクエスト間に適切な待機時間を設けます。
// 個別の失敗はレポートに記録して処理を続け、コンテキストの終了時のみエラーを返します。
func (iu *IngestUsecase) IngestAll(ctx context.Context, symbols []string) (IngestReport, error) {
	var report IngestReport
	for _, s := range symbols {
		for _, target := range ingestTargets {
			if err := iu.rateLimiter.Wait(ctx); err != nil {
				return report, err
			}
			report.Requests++
			n, err := iu.ingestOne(ctx, s, target.interval, target.outputsize)
			if err != nil {
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
				// 1つの銘柄でエラーが発生しても処理を止めずにログに出力し、次の処理を続ける
				slog.Error("failed to ingest data", "symbol", s, "interval", target.interval, "error", err)
				report.Failures = append(report.Failures, IngestFailure{Symbol: s, Interval: target.interval, Err: err})
				continue // 次のintervalまたはsymbolへ
			}
			report.Candles += n
		}
	}
	slog.Info("ingest finished", "symbols", len(symbols), "requests", report.Requests,
		"candles", report.Candles, "failures", len(report.Failures))
	return report, nil
}
