// internal/config/config.go
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port string

	DBDriver   string
	MongoURI   string
	MongoDB    string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBSSLMode  string

	AMQPURL string

	GatewayURL      string
	GatewayToken    string
	GatewayInstance string
	GatewayTimeout  time.Duration

	Timezone string
	Location *time.Location

	LogLevel string
	LogFile  string

	SchedulerSpec      string
	WorkerPoolSize     int
	DefaultCompanyName string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		zap.L().Info("no .env file found, relying on OS environment variables")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", DriverMongo)),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            getEnv("MONGO_DB", "zapcampanhas"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBName:             getEnv("DB_NAME", "zapcampanhas"),
		DBSSLMode:          getEnv("DB_SSLMODE", "disable"),
		AMQPURL:            getEnv("AMQP_URL", ""),
		GatewayURL:         strings.TrimRight(getEnv("GATEWAY_URL", "http://localhost:8081"), "/"),
		GatewayToken:       getEnv("GATEWAY_TOKEN", ""),
		GatewayInstance:    getEnv("GATEWAY_INSTANCE", "default"),
		GatewayTimeout:     cast.ToDuration(getEnv("GATEWAY_TIMEOUT", "15s")),
		Timezone:           getEnv("TZ", "America/Sao_Paulo"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		SchedulerSpec:      getEnv("SCHEDULER_SPEC", "@every 1m"),
		WorkerPoolSize:     cast.ToInt(getEnv("WORKER_POOL_SIZE", "16")),
		DefaultCompanyName: getEnv("DEFAULT_COMPANY_NAME", "Sua Empresa"),
	}

	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 15 * time.Second
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 16
	}
	cfg.Location = LoadLocation(cfg.Timezone)

	return cfg
}

// LoadLocation falls back to UTC for unknown zone names.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		zap.L().Warn("invalid timezone, using UTC", zap.String("tz", name), zap.Error(err))
		return time.UTC
	}
	return loc
}

// PostgresDSN builds the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
