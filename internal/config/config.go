package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/carelink/benefitlimits/internal/limittree"
)

type Config struct {
	Port               string  `mapstructure:"PORT"`
	DBPath             string  `mapstructure:"DB_PATH"`
	LogLevel           string  `mapstructure:"LOG_LEVEL"`
	LogPretty          bool    `mapstructure:"LOG_PRETTY"`
	LowUsageThreshold  float64 `mapstructure:"LOW_USAGE_THRESHOLD"`
	HighUsageThreshold float64 `mapstructure:"HIGH_USAGE_THRESHOLD"`
	SeedDir            string  `mapstructure:"SEED_DIR"`
}

// Load reads configuration from the environment and an optional .env file
// in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", "benefitlimits.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("LOW_USAGE_THRESHOLD", limittree.DefaultThresholds.Low)
	v.SetDefault("HIGH_USAGE_THRESHOLD", limittree.DefaultThresholds.High)
	v.SetDefault("SEED_DIR", "testdata")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("DB_PATH")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("LOG_PRETTY")
	v.BindEnv("LOW_USAGE_THRESHOLD")
	v.BindEnv("HIGH_USAGE_THRESHOLD")
	v.BindEnv("SEED_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Thresholds().Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Thresholds returns the usage tier cut-offs.
func (c *Config) Thresholds() limittree.Thresholds {
	return limittree.Thresholds{Low: c.LowUsageThreshold, High: c.HighUsageThreshold}
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
