package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the service configuration, parsed from the environment. A
// .env file is loaded first when present.
type Config struct {
	Port        string `env:"PORT" envDefault:"8083"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	Debug       bool   `env:"DEBUG"`

	// Base URL clients use to reach the service; embedded in QR join links.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8083"`

	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"mafia.events"`

	// Empty DSN disables the completed-match archive.
	ArchiveDSN string `env:"DB_DSN"`

	// Empty endpoint disables tracing.
	OTELEndpoint string `env:"OTEL_ENDPOINT"`

	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	SessionRetention time.Duration `env:"SESSION_RETENTION" envDefault:"1h"`
}

// Load reads configuration from .env and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
