// Package handler はcorrelationフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZyrticX/DELTA-MIX/internal/api"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/transport/http/dto"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/usecase"
)

// Analyzer は分析エンジンのユースケースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type Analyzer interface {
	Analyze(ctx context.Context, req usecase.AnalysisRequest) (*entity.AnalysisResult, error)
	Scan(ctx context.Context, req usecase.ScanRequest) (*entity.ScanReport, error)
	Backtest(ctx context.Context, req usecase.BacktestRequest) (*entity.BacktestReport, error)
}

// RunReader は保存済みのバックテスト結果を読み出します。
type RunReader interface {
	FindRun(ctx context.Context, id string) (*entity.BacktestReport, error)
}

// AnalysisHandler は相関パターン分析のHTTPリクエストを処理します。
type AnalysisHandler struct {
	uc       Analyzer
	runs     RunReader
	defaults entity.Params
}

// NewAnalysisHandler は新しい AnalysisHandler を作成します。
// defaults はリクエストで省略されたパラメータに使われます。
func NewAnalysisHandler(uc Analyzer, runs RunReader, defaults entity.Params) *AnalysisHandler {
	return &AnalysisHandler{uc: uc, runs: runs, defaults: defaults}
}

// Current は1銘柄の現在の相関パターンを分析します。
//
// POST /analysis/current
func (h *AnalysisHandler) Current(c *gin.Context) {
	var req dto.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	asOf, err := dto.ParseDate("analysis_date", req.AnalysisDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.uc.Analyze(c.Request.Context(), usecase.AnalysisRequest{
		Symbol:   req.StockSymbol,
		AsOf:     asOf,
		Params:   req.Apply(h.defaults),
		Universe: req.Universe,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAnalysisResponse(res))
}

// Scan は複数銘柄をまとめて分析し、条件に合う予測を信頼度順に返します。
//
// POST /analysis/scan
func (h *AnalysisHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	asOf, err := dto.ParseDate("analysis_date", req.AnalysisDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	report, err := h.uc.Scan(c.Request.Context(), usecase.ScanRequest{
		Symbols: req.Symbols,
		AsOf:    asOf,
		Params:  req.Apply(h.defaults),
		Filter: entity.ScanFilter{
			MinConfidence:        req.MinConfidence,
			MinAbsExpectedReturn: req.MinAbsExpectedReturn,
			Direction:            entity.Direction(req.Direction),
		},
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewScanResponse(report))
}

// Backtest は過去の日付で予測を再現し、実際の値動きと比較します。
//
// POST /analysis/backtest
func (h *AnalysisHandler) Backtest(c *gin.Context) {
	var req dto.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	start, err := dto.ParseDate("start_date", req.StartDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	end, err := dto.ParseDate("end_date", req.EndDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	report, err := h.uc.Backtest(c.Request.Context(), usecase.BacktestRequest{
		Symbols: req.Symbols,
		Start:   start,
		End:     end,
		Step:    req.Step,
		Params:  req.Apply(h.defaults),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBacktestResponse(report))
}

// GetBacktest は保存済みのバックテスト結果を返します。
//
// GET /analysis/backtest/:id
func (h *AnalysisHandler) GetBacktest(c *gin.Context) {
	report, err := h.runs.FindRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBacktestResponse(report))
}

func (h *AnalysisHandler) badRequest(c *gin.Context, err error) {
	slog.Warn("invalid analysis request", "path", c.FullPath(), "remote_addr", c.ClientIP(), "error", err)
	c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
}

// writeError はドメインエラーをHTTPステータスに変換します。
func (h *AnalysisHandler) writeError(c *gin.Context, err error) {
	var unavailable *domain.DataUnavailableError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.badRequest(c, err)
	case errors.As(err, &unavailable):
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: err.Error(), Symbol: unavailable.Symbol})
	case errors.Is(err, domain.ErrRunNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAnalysisTimeout), errors.Is(err, context.DeadlineExceeded):
		slog.Warn("analysis timed out", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusGatewayTimeout, api.ErrorResponse{Error: err.Error()})
	default:
		slog.Error("analysis failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}
