package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	JWTTTL    time.Duration `env:"JWT_TTL,   default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	Mongo  MongoConfig
	Redis  RedisConfig
	NATS   NATSConfig
	Ledger LedgerConfig
	Socket SocketConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=invest"`
}

type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR,      default=localhost:6379"`
	DB             int           `env:"REDIS_DB,        default=0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

// NATSConfig enables the outbound ledger event stream when URL is set.
type NATSConfig struct {
	URL string `env:"NATS_URL"`
}

type LedgerConfig struct {
	MinDeposit    decimal.Decimal `env:"MIN_DEPOSIT,    default=50"`
	MinWithdrawal decimal.Decimal `env:"MIN_WITHDRAWAL, default=50"`
}

type SocketConfig struct {
	PushWorkers  int           `env:"PUSH_WORKERS,     default=8"`
	WriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT, default=10s"`
	PongTimeout  time.Duration `env:"WS_PONG_TIMEOUT,  default=60s"`
}

// IsProduction reports whether logs should be emitted as plain JSON.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := load(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.Ledger.MinDeposit.IsNegative() || cfg.Ledger.MinWithdrawal.IsNegative() {
		return nil, fmt.Errorf("minimum amounts must not be negative")
	}
	return &cfg, nil
}
