package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"walletd/internal/services/wallet"
	"walletd/internal/validation"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

const defaultJWTSecret = "walletd-dev-secret"

// Config is the full process configuration assembled from the environment.
type Config struct {
	Env         string
	Port        string
	StoreDriver string
	JWTSecret   string
	CORSOrigins string

	LogLevel  string
	LogFormat string

	Wallet   WalletConfig
	Redis    RedisConfig
	Database DatabaseConfig
}

type WalletConfig struct {
	MaxBalance      int64
	TopUpAmount     int64
	StorageKey      string
	PersistAttempts int
	PersistTimeout  time.Duration
	PersistBackoff  time.Duration
	// IdleTTL is how long an unused ledger stays in memory; 0 keeps it forever.
	IdleTTL         time.Duration
}

// LedgerConfig converts the environment settings into ledger limits.
func (c WalletConfig) LedgerConfig() wallet.Config {
	return wallet.Config{
		MaxBalance:      c.MaxBalance,
		TopUpAmount:     c.TopUpAmount,
		StorageKey:      c.StorageKey,
		PersistAttempts: c.PersistAttempts,
		PersistTimeout:  c.PersistTimeout,
		PersistBackoff:  c.PersistBackoff,
	}
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Env:         GetEnv("ENV", "development"),
		Port:        GetEnv("PORT", "3000"),
		StoreDriver: GetEnv("STORE_DRIVER", StoreMemory),
		JWTSecret:   GetEnv("JWT_SECRET", defaultJWTSecret),
		CORSOrigins: GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		LogFormat:   GetEnv("LOG_FORMAT", "json"),
		Wallet: WalletConfig{
			MaxBalance:      GetInt64Env("WALLET_MAX_BALANCE", 5000),
			TopUpAmount:     GetInt64Env("WALLET_TOP_UP_AMOUNT", 1000),
			StorageKey:      GetEnv("WALLET_STORAGE_KEY", "walletBalance"),
			PersistAttempts: GetIntEnv("WALLET_PERSIST_ATTEMPTS", 3),
			PersistTimeout:  GetDurationEnv("WALLET_PERSIST_TIMEOUT", 2*time.Second),
			PersistBackoff:  GetDurationEnv("WALLET_PERSIST_BACKOFF", 25*time.Millisecond),
			IdleTTL:         GetDurationEnv("WALLET_IDLE_TTL", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "walletd"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
	}
}

// Validate reports every setting the server cannot start with.
func (c Config) Validate() error {
	v := validation.New()
	v.Required("PORT", c.Port)
	v.Required("JWT_SECRET", c.JWTSecret)
	v.OneOf("STORE_DRIVER", c.StoreDriver, StoreMemory, StoreRedis, StorePostgres)
	v.OneOf("LOG_FORMAT", c.LogFormat, "json", "console")
	v.Positive("WALLET_MAX_BALANCE", c.Wallet.MaxBalance)
	v.Positive("WALLET_TOP_UP_AMOUNT", c.Wallet.TopUpAmount)
	v.Required("WALLET_STORAGE_KEY", c.Wallet.StorageKey)
	v.Positive("WALLET_PERSIST_ATTEMPTS", int64(c.Wallet.PersistAttempts))
	v.Positive("WALLET_PERSIST_TIMEOUT", int64(c.Wallet.PersistTimeout))
	v.Check(c.Wallet.IdleTTL >= 0, "WALLET_IDLE_TTL", "must not be negative")
	if c.IsProduction() {
		v.Check(c.JWTSecret != defaultJWTSecret, "JWT_SECRET", "must be set in production")
	}
	return v.Err()
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetInt64Env returns an int64 environment variable or a default value.
func GetInt64Env(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the config was loaded for production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
