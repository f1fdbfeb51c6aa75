package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the lending CLI.
type Config struct {
	Store        StoreConfig
	StartDay     int
	DaySchedule  string
	LogLevel     string
	Seed         bool
	CostStrategy string
}

// StoreConfig selects where members, items and contracts are kept.
type StoreConfig struct {
	Driver string // memory, sqlite, gorm-sqlite, postgres or mysql
	Path   string // sqlite file for the sqlite driver
	DSN    string // connection string for the gorm drivers
}

var storeDrivers = []string{"memory", "sqlite", "gorm-sqlite", "postgres", "mysql"}

// Load reads a .env file if present, then the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Store: StoreConfig{
			Driver: strings.ToLower(strings.TrimSpace(getEnv("LENDING_STORE", "sqlite"))),
			Path:   getEnv("LENDING_DB_PATH", "lending.db"),
			DSN:    getEnv("LENDING_DSN", ""),
		},
		StartDay:     getIntEnv("LENDING_START_DAY", 0),
		DaySchedule:  strings.TrimSpace(getEnv("LENDING_DAY_SCHEDULE", "")),
		LogLevel:     strings.ToLower(getEnv("LENDING_LOG_LEVEL", "info")),
		Seed:         getBoolEnv("LENDING_SEED", false),
		CostStrategy: strings.ToLower(getEnv("LENDING_COST_STRATEGY", "flat")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all values are usable together.
func (c *Config) Validate() error {
	var errs []error

	if !contains(storeDrivers, c.Store.Driver) {
		errs = append(errs, fmt.Errorf("LENDING_STORE must be one of %s, got %q", strings.Join(storeDrivers, ", "), c.Store.Driver))
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		errs = append(errs, errors.New("LENDING_DB_PATH is required for the sqlite store"))
	}
	if (c.Store.Driver == "postgres" || c.Store.Driver == "mysql" || c.Store.Driver == "gorm-sqlite") && c.Store.DSN == "" {
		errs = append(errs, fmt.Errorf("LENDING_DSN is required for the %s store", c.Store.Driver))
	}
	if c.StartDay < 0 {
		errs = append(errs, errors.New("LENDING_START_DAY cannot be negative"))
	}
	if c.DaySchedule != "" {
		if _, err := cron.ParseStandard(c.DaySchedule); err != nil {
			errs = append(errs, fmt.Errorf("LENDING_DAY_SCHEDULE: %w", err))
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.CostStrategy != "flat" && c.CostStrategy != "weekly" {
		errs = append(errs, fmt.Errorf("LENDING_COST_STRATEGY must be flat or weekly, got %q", c.CostStrategy))
	}

	return errors.Join(errs...)
}

// SlogLevel maps LogLevel onto slog.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LENDING_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
}

// NewLogger builds the process logger: text on stderr at the configured level.
func (c *Config) NewLogger() *slog.Logger {
	level, _ := c.SlogLevel()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
