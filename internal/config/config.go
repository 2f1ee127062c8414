package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port                     string `env:"PORT" envDefault:"8080"`
	DatabaseURL              string `env:"DATABASE_URL"`
	DBMaxOpenConns           int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns           int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeSeconds int    `env:"DB_CONN_MAX_LIFETIME_SECONDS" envDefault:"300"`
	DBConnMaxIdleTimeSeconds int    `env:"DB_CONN_MAX_IDLE_SECONDS" envDefault:"60"`
	ClientURL                string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`
	DeezerBaseURL            string `env:"DEEZER_BASE_URL" envDefault:"https://api.deezer.com"`
	CatalogTimeoutSeconds    int    `env:"CATALOG_TIMEOUT_SECONDS" envDefault:"10"`
	PersistQueueSize         int    `env:"PERSIST_QUEUE_SIZE" envDefault:"256"`
	TickIntervalMillis       int    `env:"TICK_INTERVAL_MS" envDefault:"1000"`
}

// Default returns the configuration used when no environment is set. It is
// read from the envDefault tags with an empty environment.
func Default() Config {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PersistQueueSize <= 0 {
		cfg.PersistQueueSize = Default().PersistQueueSize
	}
	if cfg.TickIntervalMillis <= 0 {
		cfg.TickIntervalMillis = Default().TickIntervalMillis
	}
	if cfg.CatalogTimeoutSeconds <= 0 {
		cfg.CatalogTimeoutSeconds = Default().CatalogTimeoutSeconds
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMillis) * time.Millisecond
}

func (c Config) CatalogTimeout() time.Duration {
	return time.Duration(c.CatalogTimeoutSeconds) * time.Second
}
