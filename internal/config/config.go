// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // PROPERTY_TZ must resolve on hosts without a zoneinfo database

	"github.com/joho/godotenv"
)

// Config holds the runtime settings. Each field maps to one environment variable.
type Config struct {
	Env       string // APP_ENV: dev, test or prod
	Port      string // APP_PORT
	LogLevel  string // LOG_LEVEL
	LogFormat string // LOG_FORMAT: text or json

	DBDriver string // DB_DRIVER: sqlite or mysql
	DBPath   string // DB_PATH, sqlite only
	DBUser   string
	DBPass   string
	DBHost   string
	DBPort   string
	DBName   string

	JWTSecret  string        // JWT_SECRET
	TokenTTL   time.Duration // TOKEN_TTL
	BcryptCost int           // BCRYPT_COST

	AMQPURL      string // AMQP_URL; empty logs events instead of publishing them
	AMQPExchange string // AMQP_EXCHANGE

	PropertyTZ *time.Location // PROPERTY_TZ
}

const devSecret = "dev-secret-change-me"

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:          getEnv("APP_ENV", "dev"),
		Port:         getEnv("APP_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		DBPath:       getEnv("DB_PATH", "./data/pms.db"),
		DBUser:       getEnv("DB_USER", "pms"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       getEnv("DB_HOST", "127.0.0.1"),
		DBPort:       getEnv("DB_PORT", "3306"),
		DBName:       getEnv("DB_NAME", "pms"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pms.events"),
	}

	var err error
	if cfg.TokenTTL, err = envDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = envInt("BCRYPT_COST", 10); err != nil {
		return Config{}, err
	}
	if cfg.PropertyTZ, err = time.LoadLocation(getEnv("PROPERTY_TZ", "UTC")); err != nil {
		return Config{}, fmt.Errorf("invalid PROPERTY_TZ: %w", err)
	}

	switch cfg.DBDriver {
	case "sqlite", "mysql":
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q: want sqlite or mysql", cfg.DBDriver)
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDev() {
			return Config{}, errors.New("missing required env var: JWT_SECRET")
		}
		cfg.JWTSecret = devSecret
	}
	return cfg, nil
}

// IsDev reports whether the service runs in a development or test environment.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "test"
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, s)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, s)
	}
	return d, nil
}
