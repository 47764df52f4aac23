package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/ZyrticX/DELTA-MIX/internal/app/di"
	"github.com/ZyrticX/DELTA-MIX/internal/app/router"
	candleadapters "github.com/ZyrticX/DELTA-MIX/internal/feature/candles/adapters"
	candlehandler "github.com/ZyrticX/DELTA-MIX/internal/feature/candles/transport/handler"
	candleusecase "github.com/ZyrticX/DELTA-MIX/internal/feature/candles/usecase"
	correlationadapters "github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/adapters"
	correlationhandler "github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/transport/handler"
	symbollistadapters "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/adapters"
	symbollisthandler "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/transport/handler"
	symbollistusecase "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/usecase"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/cache"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/config"
	infradb "github.com/ZyrticX/DELTA-MIX/internal/platform/db"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/http/handler"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/metrics"
	infraredis "github.com/ZyrticX/DELTA-MIX/internal/platform/redis"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	params, err := cfg.Analysis.Params()
	if err != nil {
		return err
	}
	loc, err := cfg.Cache.Location()
	if err != nil {
		return err
	}

	// JWT_SECRETチェック
	if cfg.JWT.Secret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	// db
	db, err := infradb.OpenDB(cfg.Database)
	if err != nil {
		return err
	}

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(context.Background(), cfg.Redis); err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	m := metrics.New()

	// Repository
	symbolRepo := symbollistadapters.NewSymbolRepository(db)
	candleRepo := candleadapters.NewCandleRepository(db)

	// Redisキャッシュでラップ。日足の更新時刻まで保持する
	ttl := cache.TimeUntilNextRefresh(time.Now(), loc, cfg.Cache.RefreshHour)
	cachedCandleRepo := cache.NewCachingCandleRepository(rdb, ttl, candleRepo, "candles")

	// Usecase
	symbolUC := symbollistusecase.NewSymbolUsecase(symbolRepo)
	candlesUC := candleusecase.NewCandlesUsecase(cachedCandleRepo)
	engine := di.NewEngine(cfg.Analysis, db, m)
	analyzer := di.NewAnalyzer(engine, rdb, cfg.Cache.AnalysisTTL)

	// Handler
	handlers := router.Handlers{
		Analysis: correlationhandler.NewAnalysisHandler(analyzer, correlationadapters.NewBacktestRunRepository(db), params),
		Candles:  candlehandler.NewCandlesHandler(candlesUC),
		Symbols:  symbollisthandler.NewSymbolHandler(symbolUC),
	}

	checks := map[string]handler.Check{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// ルータ生成
	r := router.NewRouter(handlers, router.Options{
		JWTSecret:   cfg.JWT.Secret,
		Revocations: di.NewRevocationChecker(rdb),
		Metrics:     m,
		ReadyChecks: checks,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
