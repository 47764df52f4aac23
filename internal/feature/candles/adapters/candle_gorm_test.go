package adapters

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/candles/domain/entity"
)

// setupTestDB はテスト用のインメモリSQLiteを用意します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&CandleModel{}))
	return db
}

var day0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// dailyCloses は day0 から1日ずつの日足を作ります。
func dailyCloses(symbol string, closes ...float64) []entity.Candle {
	out := make([]entity.Candle, len(closes))
	for i, c := range closes {
		out[i] = entity.Candle{
			Symbol:   symbol,
			Interval: "1day",
			Time:     day0.AddDate(0, 0, i),
			Open:     c - 1,
			High:     c + 1,
			Low:      c - 2,
			Close:    c,
			Volume:   int64(1000 + i),
		}
	}
	return out
}

func closesOf(cs []entity.Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

func TestNewCandleRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewCandleRepository(db)

	require.NotNil(t, repo)
	assert.Same(t, db, repo.db)
}

func TestCandleGorm_UpsertBatch(t *testing.T) {
	t.Parallel()

	t.Run("inserts every candle", func(t *testing.T) {
		t.Parallel()
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		require.NoError(t, repo.UpsertBatch(context.Background(), dailyCloses("AAPL", 100, 101, 102)))

		var count int64
		require.NoError(t, db.Model(&CandleModel{}).Count(&count).Error)
		assert.Equal(t, int64(3), count)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		t.Parallel()
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		require.NoError(t, repo.UpsertBatch(context.Background(), nil))

		var count int64
		require.NoError(t, db.Model(&CandleModel{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	// 再取り込みで終値が訂正されるケース
	t.Run("same symbol, interval and time replaces prices", func(t *testing.T) {
		t.Parallel()
		db := setupTestDB(t)
		repo := NewCandleRepository(db)
		ctx := context.Background()

		require.NoError(t, repo.UpsertBatch(ctx, dailyCloses("AAPL", 100, 101)))
		corrected := dailyCloses("AAPL", 100, 150)
		require.NoError(t, repo.UpsertBatch(ctx, corrected[1:]))

		var rows []CandleModel
		require.NoError(t, db.Order("time").Find(&rows).Error)
		require.Len(t, rows, 2)
		assert.Equal(t, 100.0, rows[0].Close)
		assert.Equal(t, 150.0, rows[1].Close)
		assert.Equal(t, 149.0, rows[1].Open)
		assert.Equal(t, int64(1001), rows[1].Volume)
	})

	t.Run("stores times in UTC", func(t *testing.T) {
		t.Parallel()
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		tokyo := time.FixedZone("JST", 9*60*60)
		c := dailyCloses("7203", 2500)
		c[0].Time = time.Date(2024, 3, 4, 9, 0, 0, 0, tokyo)
		require.NoError(t, repo.UpsertBatch(context.Background(), c))

		got, err := repo.Find(context.Background(), "7203", "1day", 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, time.UTC, got[0].Time.Location())
		assert.True(t, got[0].Time.Equal(c[0].Time))
	})
}

func TestCandleGorm_Find(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewCandleRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.UpsertBatch(ctx, dailyCloses("AAPL", 100, 101, 102, 103, 104)))
	require.NoError(t, repo.UpsertBatch(ctx, dailyCloses("MSFT", 300, 301)))

	weekly := dailyCloses("AAPL", 999)
	weekly[0].Interval = "1week"
	require.NoError(t, repo.UpsertBatch(ctx, weekly))

	tests := []struct {
		name       string
		symbol     string
		interval   string
		outputsize int
		want       []float64
	}{
		{name: "latest first, limited", symbol: "AAPL", interval: "1day", outputsize: 3, want: []float64{104, 103, 102}},
		{name: "zero outputsize returns everything", symbol: "AAPL", interval: "1day", outputsize: 0, want: []float64{104, 103, 102, 101, 100}},
		{name: "outputsize larger than stored rows", symbol: "MSFT", interval: "1day", outputsize: 10, want: []float64{301, 300}},
		{name: "interval is part of the key", symbol: "AAPL", interval: "1week", outputsize: 10, want: []float64{999}},
		{name: "unknown symbol", symbol: "NOPE", interval: "1day", outputsize: 10, want: []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Find(ctx, tt.symbol, tt.interval, tt.outputsize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, closesOf(got))
			for _, c := range got {
				assert.Equal(t, tt.symbol, c.Symbol)
				assert.Equal(t, tt.interval, c.Interval)
			}
		})
	}
}

func TestCandleGorm_FindRange(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewCandleRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.UpsertBatch(ctx, dailyCloses("AAPL", 100, 101, 102, 103, 104)))
	require.NoError(t, repo.UpsertBatch(ctx, dailyCloses("MSFT", 300, 301, 302)))

	tests := []struct {
		name     string
		symbol   string
		from, to time.Time
		want     []float64
	}{
		{name: "bounds are inclusive and oldest first", symbol: "AAPL", from: day0.AddDate(0, 0, 1), to: day0.AddDate(0, 0, 3), want: []float64{101, 102, 103}},
		{name: "range wider than data", symbol: "AAPL", from: day0.AddDate(-1, 0, 0), to: day0.AddDate(1, 0, 0), want: []float64{100, 101, 102, 103, 104}},
		{name: "single day", symbol: "MSFT", from: day0.AddDate(0, 0, 2), to: day0.AddDate(0, 0, 2), want: []float64{302}},
		{name: "range before data", symbol: "AAPL", from: day0.AddDate(0, 0, -10), to: day0.AddDate(0, 0, -1), want: []float64{}},
		{name: "inverted range", symbol: "AAPL", from: day0.AddDate(0, 0, 3), to: day0, want: []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindRange(ctx, tt.symbol, "1day", tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, closesOf(got))
		})
	}
}

func TestCandleGorm_ContextCanceled(t *testing.T) {
	t.Parallel()

	repo := NewCandleRepository(setupTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// SQLiteはキャンセル済みでも成功することがあるため、エラー時のみ種別を確認する
	if _, err := repo.Find(ctx, "AAPL", "1day", 5); err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
	if _, err := repo.FindRange(ctx, "AAPL", "1day", day0, day0.AddDate(0, 0, 5)); err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
