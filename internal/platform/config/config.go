// Package config はviperで設定ファイル・環境変数・.envを読み込みます。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata" // CACHE_TIMEZONE をtzdataのないコンテナでも解決する

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/db"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/externalapi/twelvedata"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/redis"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	Environment string            `mapstructure:"environment"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    db.Config         `mapstructure:"database"`
	Redis       redis.Config      `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	TwelveData  twelvedata.Config `mapstructure:"twelvedata"`
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
	Cache       CacheConfig       `mapstructure:"cache"`
}

// ServerConfig はHTTPサーバーの待ち受けポートとタイムアウトです。
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// JWTConfig はAPIトークンの署名鍵と有効期間です。
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

// AnalysisConfig はエンジンのリソース制限とパラメータの既定値です。
type AnalysisConfig struct {
	Workers      int           `mapstructure:"workers"` // 0 は CPU 数
	Timeout      time.Duration `mapstructure:"timeout"`
	HistoryStart string        `mapstructure:"history_start"`
	Defaults     entity.Params `mapstructure:"params"`
}

// CacheConfig はキャッシュの寿命です。
// 日足はRefreshHour(Timezone)に更新されるため、ローソク足キャッシュはその時刻まで保持します。
type CacheConfig struct {
	RefreshHour int           `mapstructure:"refresh_hour"`
	Timezone    string        `mapstructure:"timezone"`
	AnalysisTTL time.Duration `mapstructure:"analysis_ttl"`
}

// Location はTimezoneを解決します。
func (c CacheConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("cache.timezone: %w", err)
	}
	return loc, nil
}

// Params は既定値にHistoryStartを反映したパラメータを返します。
func (a AnalysisConfig) Params() (entity.Params, error) {
	p := a.Defaults
	if a.HistoryStart != "" {
		t, err := time.Parse(time.DateOnly, a.HistoryStart)
		if err != nil {
			return entity.Params{}, fmt.Errorf("analysis.history_start must be YYYY-MM-DD, got %q", a.HistoryStart)
		}
		p.HistoryStart = t
	}
	if err := p.Validate(); err != nil {
		return entity.Params{}, fmt.Errorf("analysis.params: %w", err)
	}
	return p, nil
}

// envBindings は慣習的な環境変数名を設定キーに対応付けます。
var envBindings = map[string]string{
	"server.port":                    "PORT",
	"database.driver":                "DB_DRIVER",
	"database.host":                  "DB_HOST",
	"database.port":                  "DB_PORT",
	"database.user":                  "DB_USER",
	"database.password":              "DB_PASSWORD",
	"database.name":                  "DB_NAME",
	"database.sslmode":               "DB_SSLMODE",
	"database.path":                  "DB_PATH",
	"database.instance_name":         "INSTANCE_CONNECTION_NAME",
	"database.migrate":               "RUN_MIGRATIONS",
	"redis.host":                     "REDIS_HOST",
	"redis.port":                     "REDIS_PORT",
	"redis.password":                 "REDIS_PASSWORD",
	"jwt.secret":                     "JWT_SECRET",
	"twelvedata.api_key":             "TWELVE_DATA_API_KEY",
	"twelvedata.base_url":            "TWELVE_DATA_BASE_URL",
	"twelvedata.requests_per_minute": "TWELVE_DATA_RPM",
	"analysis.workers":               "ANALYSIS_WORKERS",
	"analysis.timeout":               "ANALYSIS_TIMEOUT",
	"analysis.history_start":         "ANALYSIS_HISTORY_START",
	"cache.refresh_hour":             "CACHE_REFRESH_HOUR",
	"cache.timezone":                 "CACHE_TIMEZONE",
}

// Load は .env、config.yaml、環境変数の順に重ねて設定を読み込みます。
// paths を省略すると ./configs とカレントディレクトリを探します。
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./configs", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if _, err := cfg.Analysis.Params(); err != nil {
		return nil, err
	}
	if _, err := cfg.Cache.Location(); err != nil {
		return nil, err
	}
	if cfg.Cache.RefreshHour < 0 || cfg.Cache.RefreshHour > 23 {
		return nil, fmt.Errorf("cache.refresh_hour must be in [0,23], got %d", cfg.Cache.RefreshHour)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", db.DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "deltamix")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.instance_name", "")
	v.SetDefault("database.path", "")
	v.SetDefault("database.migrate", false)
	v.SetDefault("database.conn_timeout", "60s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "720h")

	v.SetDefault("twelvedata.api_key", "")
	v.SetDefault("twelvedata.base_url", twelvedata.DefaultBaseURL)
	v.SetDefault("twelvedata.timeout", "10s")
	v.SetDefault("twelvedata.requests_per_minute", twelvedata.DefaultRequestsPerMinute)

	d := entity.DefaultParams()
	v.SetDefault("analysis.workers", 0)
	v.SetDefault("analysis.timeout", "30s")
	v.SetDefault("analysis.history_start", d.HistoryStart.Format(time.DateOnly))
	v.SetDefault("analysis.params.lookback_days", d.LookbackDays)
	v.SetDefault("analysis.params.correlation_threshold", d.CorrelationThreshold)
	v.SetDefault("analysis.params.forward_days", d.ForwardDays)
	v.SetDefault("analysis.params.window_type", string(d.WindowType))
	v.SetDefault("analysis.params.top_k", d.TopK)
	v.SetDefault("analysis.params.similarity.acceptance_threshold", d.Similarity.AcceptanceThreshold)
	v.SetDefault("analysis.params.similarity.jaccard_weight", d.Similarity.JaccardWeight)
	v.SetDefault("analysis.params.buckets.moderate", d.Buckets.Moderate)
	v.SetDefault("analysis.params.buckets.strong", d.Buckets.Strong)
	v.SetDefault("analysis.params.warnings.min_examples", d.Warnings.MinExamples)
	v.SetDefault("analysis.params.warnings.min_confidence", d.Warnings.MinConfidence)
	v.SetDefault("analysis.params.warnings.max_age_years", d.Warnings.MaxAgeYears)
	v.SetDefault("analysis.params.warnings.min_directional_spread", d.Warnings.MinDirectionalSpread)

	v.SetDefault("cache.refresh_hour", 8)
	v.SetDefault("cache.timezone", "America/New_York")
	v.SetDefault("cache.analysis_ttl", "168h")
}
