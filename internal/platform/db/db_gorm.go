// Package db はgormによるデータベース接続とマイグレーションを提供します。
package db

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	candleadapters "github.com/ZyrticX/DELTA-MIX/internal/feature/candles/adapters"
	correlationadapters "github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/adapters"
	symbolentity "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/domain/entity"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// retryInterval は接続リトライの間隔です。
var retryInterval = 3 * time.Second

// Config はデータベース接続の設定です。
type Config struct {
	Driver       string        `mapstructure:"driver"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	Name         string        `mapstructure:"name"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	SSLMode      string        `mapstructure:"sslmode"`
	InstanceName string        `mapstructure:"instance_name"`
	Path         string        `mapstructure:"path"` // sqlite のファイルパス
	Migrate      bool          `mapstructure:"migrate"`
	ConnTimeout  time.Duration `mapstructure:"conn_timeout"`
}

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	return Config{
		Driver:       os.Getenv("DB_DRIVER"),
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		Host:         os.Getenv("DB_HOST"),
		Port:         os.Getenv("DB_PORT"),
		SSLMode:      os.Getenv("DB_SSLMODE"),
		InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		Path:         os.Getenv("DB_PATH"),
		Migrate:      os.Getenv("RUN_MIGRATIONS") == "true",
	}
}

// BuildDSN は設定からDSN文字列を生成します。
// InstanceName が設定されている場合は Cloud SQL の Unix ソケット経由で接続します。
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverSQLite {
		if cfg.Path == "" {
			return "file::memory:?cache=shared"
		}
		return cfg.Path
	}

	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	parts := []string{
		"user=" + cfg.User,
		"password=" + cfg.Password,
		"dbname=" + cfg.Name,
	}
	if cfg.InstanceName != "" {
		parts = append(parts, "host=/cloudsql/"+cfg.InstanceName)
	} else {
		parts = append(parts, "host="+cfg.Host, "port="+cfg.Port)
	}
	parts = append(parts, "sslmode="+sslmode, "TimeZone=UTC")
	return strings.Join(parts, " ")
}

// ApplicationName は接続時に pg_stat_activity へ表示される名前です。
const ApplicationName = "deltamix"

// ParsePostgresDSN はDSNをpgxの接続設定に変換し、application_nameを付与します。
func ParsePostgresDSN(dsn string) (*pgx.ConnConfig, error) {
	pcfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if pcfg.RuntimeParams == nil {
		pcfg.RuntimeParams = map[string]string{}
	}
	pcfg.RuntimeParams["application_name"] = ApplicationName
	return pcfg, nil
}

// Opener はDSNからgorm接続を開く関数です。
type Opener func(dsn string) (*gorm.DB, error)

// OpenerFor は設定のドライバに対応するOpenerを返します。
func OpenerFor(cfg Config) (Opener, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	switch cfg.Driver {
	case "", DriverPostgres:
		return func(dsn string) (*gorm.DB, error) {
			pcfg, err := ParsePostgresDSN(dsn)
			if err != nil {
				return nil, err
			}
			sqlDB := stdlib.OpenDB(*pcfg)
			db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gcfg)
			if err != nil {
				_ = sqlDB.Close()
				return nil, err
			}
			return db, nil
		}, nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gcfg)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// ConnectWithRetry は timeout に達するまで一定間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// OpenDB は設定に従って接続し、必要であればマイグレーションを実行します。
func OpenDB(cfg Config) (*gorm.DB, error) {
	opener, err := OpenerFor(cfg)
	if err != nil {
		return nil, err
	}
	timeout := cfg.ConnTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), timeout, opener)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate || cfg.Driver == DriverSQLite {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	slog.Info("DB connection established", "driver", driverName(cfg.Driver))
	return db, nil
}

// Migrate はアプリケーションのテーブルを作成・更新します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&candleadapters.CandleModel{},
		&symbolentity.Symbol{},
		&correlationadapters.BacktestRunModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func driverName(d string) string {
	if d == "" {
		return DriverPostgres
	}
	return d
}
