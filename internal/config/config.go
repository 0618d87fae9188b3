// Package config loads service settings from an optional YAML file overlaid by
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigFile = "config.yml"

// Config holds all service settings.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr" env:"HTTP_ADDR" env-default:":8080" env-description:"listen address"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"HTTP_REQUEST_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info" env-description:"debug enables the development logger"`

	DatabaseURL  string `yaml:"database_url" env:"DATABASE_URL" env-description:"postgres DSN, falls back to PG_DSN"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"20"`

	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-description:"HS256 signing secret"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-description:"empty disables the plan snapshot cache"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	} `yaml:"redis"`

	Tariff struct {
		CacheTTL         time.Duration `yaml:"cache_ttl" env:"TARIFF_CACHE_TTL" env-default:"5m"`
		SeedFile         string        `yaml:"seed_file" env:"TARIFF_SEED_FILE"`
		Currency         string        `yaml:"currency" env:"CURRENCY" env-default:"COP"`
		CurrencyExponent int32         `yaml:"currency_exponent" env:"CURRENCY_EXPONENT" env-default:"0"`
	} `yaml:"tariff"`
}

// Load reads CONFIG_PATH (or ./config.yml when present) and the environment.
func Load() (*Config, error) {
	var cfg Config
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("PG_DSN")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("config: DATABASE_URL or PG_DSN is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("config: AUTH_JWT_SECRET is required"))
	}
	if c.Tariff.CurrencyExponent < 0 || c.Tariff.CurrencyExponent > 4 {
		errs = append(errs, fmt.Errorf("config: CURRENCY_EXPONENT %d out of range", c.Tariff.CurrencyExponent))
	}
	return errors.Join(errs...)
}

// Usage describes every environment variable.
func Usage() string {
	desc, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return ""
	}
	return desc
}
