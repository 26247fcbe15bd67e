package application

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/optrun/optrun/internal/domain/indicators"
	"github.com/optrun/optrun/internal/domain/spread"
	"github.com/optrun/optrun/internal/infrastructure/providers"
)

// Config is the full application configuration.
type Config struct {
	Volatility VolatilityConfig      `yaml:"volatility"`
	Indicators indicators.Config     `yaml:"indicators"`
	DTE        DTEConfig             `yaml:"dte"`
	Spread     spread.Config         `yaml:"spread"`
	Provider   providers.StooqConfig `yaml:"provider"`
	Database   DatabaseConfig        `yaml:"database"`
}

// VolatilityConfig holds IV rank engine settings.
type VolatilityConfig struct {
	LookbackDays int `yaml:"lookback_days"`
	CacheTTLSecs int `yaml:"cache_ttl_secs"`
}

// CacheTTL returns the cache TTL as a time.Duration.
func (v VolatilityConfig) CacheTTL() time.Duration {
	return time.Duration(v.CacheTTLSecs) * time.Second
}

// DTEConfig holds optimizer settings.
type DTEConfig struct {
	ModelPath string `yaml:"model_path"`
}

// DatabaseConfig holds the optional record store settings. An empty DSN
// disables persistence.
type DatabaseConfig struct {
	DSN         string `yaml:"dsn"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout returns the query timeout as a time.Duration.
func (d DatabaseConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSecs) * time.Second
}

// DefaultConfig returns the standard settings for every component.
func DefaultConfig() Config {
	return Config{
		Volatility: VolatilityConfig{
			LookbackDays: 252,
			CacheTTLSecs: 3600,
		},
		Indicators: indicators.DefaultConfig(),
		DTE: DTEConfig{
			ModelPath: "models/dte_optimizer.json",
		},
		Spread:   spread.DefaultConfig(),
		Provider: providers.DefaultStooqConfig(),
		Database: DatabaseConfig{
			TimeoutSecs: 5,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults untouched.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config YAML: %w", err)
	}
	return cfg, nil
}
