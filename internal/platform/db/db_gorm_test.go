package db

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestBuildDSN はドライバと接続方式ごとにDSN文字列が正しく生成されることを検証します。
func TestBuildDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "TCP",
			cfg:  Config{User: "testuser", Password: "testpass", Name: "testdb", Host: "localhost", Port: "5432"},
			want: "user=testuser password=testpass dbname=testdb host=localhost port=5432 sslmode=disable TimeZone=UTC",
		},
		{
			name: "CloudSQL",
			cfg:  Config{User: "testuser", Password: "testpass", Name: "testdb", InstanceName: "project:region:instance"},
			want: "user=testuser password=testpass dbname=testdb host=/cloudsql/project:region:instance sslmode=disable TimeZone=UTC",
		},
		{
			name: "CloudSQL takes precedence over host",
			cfg: Config{User: "testuser", Password: "testpass", Name: "testdb", Host: "localhost", Port: "5432",
				InstanceName: "project:region:instance"},
			want: "user=testuser password=testpass dbname=testdb host=/cloudsql/project:region:instance sslmode=disable TimeZone=UTC",
		},
		{
			name: "explicit sslmode",
			cfg:  Config{User: "u", Password: "p", Name: "d", Host: "h", Port: "1", SSLMode: "require"},
			want: "user=u password=p dbname=d host=h port=1 sslmode=require TimeZone=UTC",
		},
		{
			name: "sqlite path",
			cfg:  Config{Driver: DriverSQLite, Path: "/tmp/deltamix.db"},
			want: "/tmp/deltamix.db",
		},
		{
			name: "sqlite in-memory",
			cfg:  Config{Driver: DriverSQLite},
			want: "file::memory:?cache=shared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildDSN(tt.cfg))
		})
	}
}

// TestParsePostgresDSN は生成したDSNがpgxで解釈できることを検証します。
func TestParsePostgresDSN(t *testing.T) {
	t.Parallel()

	dsn := BuildDSN(Config{User: "u", Password: "p", Name: "deltamix", Host: "db.internal", Port: "6543"})
	pcfg, err := ParsePostgresDSN(dsn)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", pcfg.Host)
	assert.Equal(t, uint16(6543), pcfg.Port)
	assert.Equal(t, "u", pcfg.User)
	assert.Equal(t, "deltamix", pcfg.Database)
	assert.Equal(t, ApplicationName, pcfg.RuntimeParams["application_name"])
	assert.Equal(t, "UTC", pcfg.RuntimeParams["TimeZone"])

	_, err = ParsePostgresDSN("port=notaport")
	assert.Error(t, err)
}

// TestOpenerFor_UnknownDriver は未対応のドライバでエラーになることを検証します。
func TestOpenerFor_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := OpenerFor(Config{Driver: "mysql"})
	assert.Error(t, err)
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	opener := func(dsn string) (*gorm.DB, error) {
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", 5*time.Second, opener)

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	// retryInterval を書き換えるため並列実行しない
	orig := retryInterval
	retryInterval = 10 * time.Millisecond
	t.Cleanup(func() { retryInterval = orig })

	mockDB := &gorm.DB{}
	attemptCount := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attemptCount++
		if attemptCount < 3 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", 5*time.Second, opener)

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 3, attemptCount)
}

// TestConnectWithRetry_TimeoutAfterRetries はタイムアウト後にエラーが返されることを検証します。
func TestConnectWithRetry_TimeoutAfterRetries(t *testing.T) {
	orig := retryInterval
	retryInterval = 10 * time.Millisecond
	t.Cleanup(func() { retryInterval = orig })

	attemptCount := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attemptCount++
		return nil, errors.New("connection refused")
	}

	_, err := ConnectWithRetry("test-dsn", 50*time.Millisecond, opener)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Positive(t, attemptCount)
}

// TestOpenDB_SQLiteMigrates はsqliteで接続するとテーブルが作成されることを検証します。
func TestOpenDB_SQLiteMigrates(t *testing.T) {
	t.Parallel()

	db, err := OpenDB(Config{Driver: DriverSQLite, Path: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)

	for _, table := range []string{"candles", "symbols", "backtest_runs"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s", table)
	}
}

// TestLoadConfigFromEnv は環境変数からデータベース設定が正しく読み込まれることを検証します。
func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_USER", "envuser")
	t.Setenv("DB_PASSWORD", "envpass")
	t.Setenv("DB_NAME", "envdb")
	t.Setenv("DB_HOST", "envhost")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("INSTANCE_CONNECTION_NAME", "")
	t.Setenv("RUN_MIGRATIONS", "true")

	cfg := LoadConfigFromEnv()

	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "envuser", cfg.User)
	assert.Equal(t, "envpass", cfg.Password)
	assert.Equal(t, "envdb", cfg.Name)
	assert.Equal(t, "envhost", cfg.Host)
	assert.Equal(t, "5433", cfg.Port)
	assert.True(t, cfg.Migrate)
}
