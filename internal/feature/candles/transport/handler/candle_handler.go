// Package handler はcandlesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZyrticX/DELTA-MIX/internal/api"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/candles/domain/entity"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/candles/transport/http/dto"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/candles/usecase"
)

// CandlesUsecase はローソク足データ操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type CandlesUsecase interface {
	GetCandles(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
	GetCandlesBetween(ctx context.Context, symbol, interval string, from, to time.Time) ([]entity.Candle, error)
}

// CandlesHandler はローソク足データのHTTPリクエストを処理します。
type CandlesHandler struct {
	uc CandlesUsecase
}

// NewCandlesHandler は指定されたusecaseでCandlesHandlerの新しいインスタンスを生成します。
func NewCandlesHandler(uc CandlesUsecase) *CandlesHandler {
	return &CandlesHandler{uc: uc}
}

// GetCandlesHandler は銘柄コードと時間間隔を受け取り、ローソク足データをJSONで返します。
// from/toが指定された場合はその期間を古い順に返します。
//
// エンドポイント例:
// GET /candles/:code?interval=1day&outputsize=200
// GET /candles/:code?from=2024-01-01&to=2024-03-31
func (h *CandlesHandler) GetCandlesHandler(c *gin.Context) {
	code := c.Param("code")
	// 未指定の場合はデフォルト値を使用
	interval := c.DefaultQuery("interval", usecase.DefaultInterval)

	var (
		candles []entity.Candle
		err     error
	)
	if c.Query("from") != "" || c.Query("to") != "" {
		from, to, perr := parseRange(c.Query("from"), c.Query("to"))
		if perr != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: perr.Error()})
			return
		}
		candles, err = h.uc.GetCandlesBetween(c.Request.Context(), code, interval, from, to)
	} else {
		// 文字列を整数に変換
		outputsize, _ := strconv.Atoi(c.DefaultQuery("outputsize", strconv.Itoa(usecase.DefaultOutputSize)))
		candles, err = h.uc.GetCandles(c.Request.Context(), code, interval, outputsize)
	}

	if errors.Is(err, usecase.ErrInvalidRange) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
		return
	}

	// データをフォーマット
	out := make([]dto.CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, dto.CandleResponse{
			Time:   x.Time.UTC().Format(api.DateLayout),
			Open:   x.Open,
			High:   x.High,
			Low:    x.Low,
			Close:  x.Close,
			Volume: x.Volume,
		})
	}

	c.JSON(http.StatusOK, out)
}

// parseRange は期間指定を解釈します。省略された端は無制限として扱います。
func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC()
	var err error
	if fromStr != "" {
		if from, err = time.Parse(api.DateLayout, fromStr); err != nil {
			return from, to, errors.New("from must be YYYY-MM-DD")
		}
	}
	if toStr != "" {
		if to, err = time.Parse(api.DateLayout, toStr); err != nil {
			return from, to, errors.New("to must be YYYY-MM-DD")
		}
	}
	return from, to, nil
}
