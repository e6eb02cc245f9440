package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
	Seed  SeedConfig
}

// AuthConfig is read once at startup; nothing here is renegotiated per
// request.
type AuthConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	// SessionCap bounds concurrent devices per user; the oldest session is
	// evicted when a login would exceed it.
	SessionCap int `env:"SESSION_CAP, default=2"`
	// PermissionCacheTTL is the resolver's staleness window.
	PermissionCacheTTL time.Duration `env:"PERMISSION_CACHE_TTL, default=60s"`
	// SessionSweepInterval of 0 disables the background sweeper.
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL, default=1h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=license_platform"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type SeedConfig struct {
	ShouldInit    bool   `env:"SHOULD_INIT, default=false"`
	AdminPassword string `env:"INIT_PASSWORD"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
