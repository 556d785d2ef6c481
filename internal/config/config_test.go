package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PORT", "")
	t.Setenv("TZ", "")
	t.Setenv("WORKER_POOL_SIZE", "")
	t.Setenv("GATEWAY_URL", "http://gw.local/")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.DBDriver)
	assert.Equal(t, "http://gw.local", cfg.GatewayURL)
	assert.Equal(t, 16, cfg.WorkerPoolSize)
	assert.Equal(t, 15*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "Sua Empresa", cfg.DefaultCompanyName)
	assert.NotNil(t, cfg.Location)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("WORKER_POOL_SIZE", "4")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_HOST", "h")
	t.Setenv("DB_PORT", "1")
	t.Setenv("DB_NAME", "n")
	t.Setenv("DB_SSLMODE", "require")

	cfg := Load()

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 4, cfg.WorkerPoolSize)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "postgres://u:p@h:1/n?sslmode=require", cfg.PostgresDSN())
}

func TestLoadLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation("Not/AZone"))
}
