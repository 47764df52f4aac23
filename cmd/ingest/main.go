package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/ZyrticX/DELTA-MIX/internal/app/di"
	symbollistadapters "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/adapters"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/config"
	infradb "github.com/ZyrticX/DELTA-MIX/internal/platform/db"
)

// Cloud Run ジョブ等から定期実行される日次取り込み。
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := infradb.OpenDB(cfg.Database)
	if err != nil {
		slog.Error("failed to open db", "error", err)
		os.Exit(1)
	}
	symbolRepo := symbollistadapters.NewSymbolRepository(db)
	uc := di.NewIngestUsecase(cfg.TwelveData, db)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	symbols, err := symbolRepo.ListActiveCodes(ctx)
	if err != nil {
		slog.Error("failed to load symbols", "error", err)
		os.Exit(1)
	}

	report, err := uc.IngestAll(ctx, symbols)
	if err != nil {
		slog.Error("ingest aborted", "error", err)
		os.Exit(1)
	}
	if len(report.Failures) > 0 {
		os.Exit(2)
	}
	slog.Info("ingest ok", "candles", report.Candles)
}
