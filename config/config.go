package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	DatabaseURL   string        `env:"DATABASE_URL" envDefault:"postgresql://postgres@localhost:5432/staffsync"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"your-super-secret-key-change-in-production"`
	JWTExpiration time.Duration `env:"JWT_EXPIRATION" envDefault:"24h"`
	ServerPort    string        `env:"SERVER_PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
