package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	candlehandler "github.com/ZyrticX/DELTA-MIX/internal/feature/candles/transport/handler"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
	correlationhandler "github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/transport/handler"
	symbolentity "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/domain/entity"
	symbollisthandler "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/transport/handler"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/http/handler"
	jwtmw "github.com/ZyrticX/DELTA-MIX/internal/platform/jwt"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/metrics"
)

const testSecret = "router-test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubSymbols はSymbolUsecaseのスタブです。
type stubSymbols struct{}

func (stubSymbols) ListActiveSymbols(context.Context) ([]symbolentity.Symbol, error) {
	return []symbolentity.Symbol{{Code: "AAPL", Name: "Apple"}}, nil
}

func newTestRouter(t *testing.T, m *metrics.Metrics, checks map[string]handler.Check) *gin.Engine {
	t.Helper()
	h := Handlers{
		Analysis: correlationhandler.NewAnalysisHandler(nil, nil, entity.DefaultParams()),
		Candles:  candlehandler.NewCandlesHandler(nil),
		Symbols:  symbollisthandler.NewSymbolHandler(stubSymbols{}),
	}
	return NewRouter(h, Options{JWTSecret: testSecret, Metrics: m, ReadyChecks: checks})
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := jwtmw.NewGenerator(testSecret, time.Hour).GenerateToken("router-test")
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestNewRouter_PublicRoutes(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, metrics.New(), map[string]handler.Check{
		"db": func(context.Context) error { return nil },
	})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestNewRouter_ReadyzUnavailable(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, nil, map[string]handler.Check{
		"redis": func(context.Context) error { return errors.New("down") },
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewRouter_NoMetrics(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, nil, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewRouter_ProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, nil, nil)

	routes := []struct {
		method, path string
	}{
		{http.MethodPost, "/analysis/current"},
		{http.MethodPost, "/analysis/scan"},
		{http.MethodPost, "/analysis/backtest"},
		{http.MethodGet, "/analysis/backtest/abc"},
		{http.MethodGet, "/candles/AAPL"},
		{http.MethodGet, "/symbols"},
	}
	for _, rt := range routes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", rt.method, rt.path)
	}
}

func TestNewRouter_AuthorizedRequest(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/symbols", nil)
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"AAPL"`)
}

func TestNewRouter_MetricsCountsRoutes(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	r := newTestRouter(t, m, nil)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `deltamix_http_requests_total{method="GET",route="/healthz",status="200"} 2`), body)
}
