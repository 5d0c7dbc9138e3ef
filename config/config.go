// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Billing  BillingConfig  `yaml:"billing"`
	Plans    []PlanConfig   `yaml:"plans"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// BillingConfig configures invoice generation and money math.
type BillingConfig struct {
	Currency        string `yaml:"currency"`
	TaxRate         string `yaml:"tax_rate"`         // percent, e.g. "8.5"
	ReferenceScheme string `yaml:"reference_scheme"` // "sequential" or "random"
	DueDays         int    `yaml:"due_days"`
}

// TaxRateDecimal returns the configured tax rate as a decimal percent.
// Invalid values were rejected at load time.
func (b BillingConfig) TaxRateDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(b.TaxRate)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// PlanConfig configures a membership plan seeded at startup.
type PlanConfig struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Price        string `yaml:"price"` // decimal string, e.g. "49.90"
	Duration     int    `yaml:"duration"`
	DurationUnit string `yaml:"duration_unit"` // "days", "weeks", "months", "years"
	Enabled      *bool  `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the plan is enabled; unset means enabled.
func (p PlanConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	CLUBGATE_DATABASE_DRIVER   - Database driver: sqlite or memory (default: sqlite)
//	CLUBGATE_DATABASE_DSN      - Database path (default: clubgate.db)
//	CLUBGATE_SERVER_HOST       - Server host (default: 0.0.0.0)
//	CLUBGATE_SERVER_PORT       - Server port (default: 8080)
//	CLUBGATE_BILLING_CURRENCY  - Invoice currency code (default: USD)
//	CLUBGATE_BILLING_TAX_RATE  - Tax rate percent (default: 0)
//	CLUBGATE_LOG_LEVEL         - Log level: debug, info, warn, error (default: info)
//	CLUBGATE_LOG_FORMAT        - Log format: json or console (default: json)
//	CLUBGATE_METRICS_ENABLED   - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies CLUBGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("CLUBGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CLUBGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CLUBGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("CLUBGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Database configuration
	if v := os.Getenv("CLUBGATE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("CLUBGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Billing configuration
	if v := os.Getenv("CLUBGATE_BILLING_CURRENCY"); v != "" {
		cfg.Billing.Currency = v
	}
	if v := os.Getenv("CLUBGATE_BILLING_TAX_RATE"); v != "" {
		cfg.Billing.TaxRate = v
	}
	if v := os.Getenv("CLUBGATE_BILLING_REFERENCE_SCHEME"); v != "" {
		cfg.Billing.ReferenceScheme = v
	}
	if v := os.Getenv("CLUBGATE_BILLING_DUE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Billing.DueDays = n
		}
	}

	// Logging configuration
	if v := os.Getenv("CLUBGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CLUBGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("CLUBGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("CLUBGATE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "clubgate.db"
	}

	if cfg.Billing.Currency == "" {
		cfg.Billing.Currency = "USD"
	}
	if cfg.Billing.TaxRate == "" {
		cfg.Billing.TaxRate = "0"
	}
	if cfg.Billing.ReferenceScheme == "" {
		cfg.Billing.ReferenceScheme = "sequential"
	}
	if cfg.Billing.DueDays == 0 {
		cfg.Billing.DueDays = 14
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	validSchemes := map[string]bool{"sequential": true, "random": true}
	if !validSchemes[cfg.Billing.ReferenceScheme] {
		return fmt.Errorf("billing.reference_scheme must be 'sequential' or 'random', got %q", cfg.Billing.ReferenceScheme)
	}

	rate, err := decimal.NewFromString(cfg.Billing.TaxRate)
	if err != nil {
		return fmt.Errorf("billing.tax_rate %q is not a valid decimal", cfg.Billing.TaxRate)
	}
	if rate.IsNegative() {
		return fmt.Errorf("billing.tax_rate must not be negative")
	}

	if cfg.Billing.DueDays < 0 {
		return fmt.Errorf("billing.due_days must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	validUnits := map[string]bool{"": true, "days": true, "weeks": true, "months": true, "years": true}
	seen := map[string]bool{}
	for i, p := range cfg.Plans {
		if p.ID == "" {
			return fmt.Errorf("plans[%d].id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("plans[%d].id %q is duplicated", i, p.ID)
		}
		seen[p.ID] = true
		if p.Name == "" {
			return fmt.Errorf("plan %q: name is required", p.ID)
		}
		if p.Price != "" {
			price, err := decimal.NewFromString(p.Price)
			if err != nil {
				return fmt.Errorf("plan %q: price %q is not a valid decimal", p.ID, p.Price)
			}
			if price.IsNegative() {
				return fmt.Errorf("plan %q: price must not be negative", p.ID)
			}
		}
		if p.Duration < 0 {
			return fmt.Errorf("plan %q: duration must not be negative", p.ID)
		}
		if !validUnits[p.DurationUnit] {
			return fmt.Errorf("plan %q: duration_unit must be one of: days, weeks, months, years", p.ID)
		}
	}

	return nil
}
