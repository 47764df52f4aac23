// Package router はHTTPルーティングを組み立てます。
package router

import (
	"github.com/gin-gonic/gin"

	candlehandler "github.com/ZyrticX/DELTA-MIX/internal/feature/candles/transport/handler"
	correlationhandler "github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/transport/handler"
	symbollisthandler "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/transport/handler"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/http/handler"
	jwtmw "github.com/ZyrticX/DELTA-MIX/internal/platform/jwt"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/metrics"
)

// Handlers はルーターに登録するハンドラー群です。
type Handlers struct {
	Analysis *correlationhandler.AnalysisHandler
	Candles  *candlehandler.CandlesHandler
	Symbols  *symbollisthandler.SymbolHandler
}

// Options は認証・計測・疎通確認の設定です。
type Options struct {
	JWTSecret   string
	Revocations jwtmw.RevocationChecker // nil で失効確認なし
	Metrics     *metrics.Metrics        // nil で /metrics なし
	ReadyChecks map[string]handler.Check
}

func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(opts.ReadyChecks))
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// 認証必須のルート
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(opts.JWTSecret, opts.Revocations))
	{
		auth.POST("/analysis/current", h.Analysis.Current)
		auth.POST("/analysis/scan", h.Analysis.Scan)
		auth.POST("/analysis/backtest", h.Analysis.Backtest)
		auth.GET("/analysis/backtest/:id", h.Analysis.GetBacktest)
		auth.GET("/candles/:code", h.Candles.GetCandlesHandler)
		auth.GET("/symbols", h.Symbols.List)
	}

	return r
}
