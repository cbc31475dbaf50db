package config_test

import (
	"testing"
	"time"

	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("APP_STORAGE", "memory")
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.App.Storage)
	assert.Equal(t, "permissive", cfg.Ledger.StockPolicy)
	assert.Equal(t, 7, cfg.Ledger.ExpiryAlertDays)
	assert.Equal(t, "@every 5m", cfg.POS.SyncCron)
	assert.Equal(t, 500, cfg.POS.BatchSize)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.DB.LockTimeout)
	assert.False(t, cfg.DB.ReadOnly)
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("APP_STORAGE", "postgres")
	t.Setenv("LEDGER_STOCK_POLICY", "STRICT")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("POS_SYNC_BATCH_SIZE", "50")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL_SECONDS", "30")
	t.Setenv("DB_STATEMENT_TIMEOUT_MS", "1500")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "strict", cfg.Ledger.StockPolicy)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 50, cfg.POS.BatchSize)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.DB.StatementTimeout)
}

func TestLoad_PoliticaInvalida(t *testing.T) {
	t.Setenv("LEDGER_STOCK_POLICY", "a veces")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:1", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3A1@db:5432/ledger?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otra"
	assert.Equal(t, "postgres://otra", c.ConnectionString())
}
