package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"training"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"dev"`
	DBName     string `env:"DB_NAME" envDefault:"training"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	RedisURL     string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RoleCacheTTL time.Duration `env:"ROLE_CACHE_TTL" envDefault:"10m"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"training-system"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	BootstrapDemoData bool   `env:"BOOTSTRAP_DEMO_DATA" envDefault:"true"`
	CORSOrigins       string `env:"CORS_ORIGINS" envDefault:"*"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
