// Package config loads the rate pipeline configuration from YAML, a .env
// file and environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/market"
	"github.com/ignite/rate-intel/internal/pkg/logger"
	"github.com/ignite/rate-intel/internal/recommend"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig    `yaml:"database"`
	Provider  ProviderConfig    `yaml:"provider"`
	Redis     RedisConfig       `yaml:"redis"`
	Archive   ArchiveConfig     `yaml:"archive"`
	Pipeline  PipelineConfig    `yaml:"pipeline"`
	Market    market.Policy     `yaml:"market"`
	Recommend recommend.Weights `yaml:"recommend"`
	Synthetic SyntheticConfig   `yaml:"synthetic"`
	Log       logger.Config     `yaml:"log"`
}

// DatabaseConfig selects the rate and suggestion store.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" validate:"oneof=postgres sqlite"`
	URL                    string `yaml:"url" validate:"required"`
	MaxOpenConns           int    `yaml:"max_open_conns" validate:"gte=1"`
	MaxIdleConns           int    `yaml:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// ConnMaxLifetime returns the pooled connection lifetime.
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMinutes) * time.Minute
}

// ProviderConfig holds the live competitor-rate provider settings. An empty
// BaseURL disables live collection.
type ProviderConfig struct {
	BaseURL        string        `yaml:"base_url" validate:"omitempty,url"`
	APIToken       string        `yaml:"api_token"`
	TimeoutSeconds int           `yaml:"timeout_seconds" validate:"gte=1"`
	MaxResults     int           `yaml:"max_results" validate:"gte=1"`
	MaxRetries     int           `yaml:"max_retries" validate:"gte=0,lte=5"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

// Timeout returns the configured timeout as a duration
func (c ProviderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BreakerConfig tunes the provider circuit breaker.
type BreakerConfig struct {
	MinRequests        uint32  `yaml:"min_requests" validate:"gte=1"`
	FailureRatio       float64 `yaml:"failure_ratio" validate:"gt=0,lte=1"`
	IntervalSeconds    int     `yaml:"interval_seconds" validate:"gte=1"`
	OpenTimeoutSeconds int     `yaml:"open_timeout_seconds" validate:"gte=1"`
}

// RedisConfig enables the provider cache and distributed refresh locks.
type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db" validate:"gte=0"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" validate:"gte=1"`
	LockTTLSeconds  int    `yaml:"lock_ttl_seconds" validate:"gte=1"`
}

// CacheTTL returns the provider cache TTL.
func (c RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// LockTTL returns the refresh lock TTL.
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// ArchiveConfig holds the S3 snapshot archive settings.
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	S3Bucket   string `yaml:"s3_bucket" validate:"required_if=Enabled true"`
	S3Prefix   string `yaml:"s3_prefix"`
	Region     string `yaml:"region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c ArchiveConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// PipelineConfig sizes the orchestrator.
type PipelineConfig struct {
	Workers                int `yaml:"workers" validate:"gte=1,lte=64"`
	RefreshWindowDays      int `yaml:"refresh_window_days" validate:"gte=1,lte=365"`
	HistoryDays            int `yaml:"history_days" validate:"gte=0,lte=365"`
	AnalysisTimeoutSeconds int `yaml:"analysis_timeout_seconds" validate:"gte=1"`
	RetentionDays          int `yaml:"retention_days" validate:"gte=1"`
}

// AnalysisTimeout bounds one CLI-driven pipeline call.
func (c PipelineConfig) AnalysisTimeout() time.Duration {
	return time.Duration(c.AnalysisTimeoutSeconds) * time.Second
}

// Retention is how long stored competitor snapshots are kept.
func (c PipelineConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// SyntheticConfig tunes the fallback generator.
type SyntheticConfig struct {
	Seed        uint64              `yaml:"seed"`
	Competitors []domain.Competitor `yaml:"competitors"`
	BaseRates   map[string]float64  `yaml:"base_rates" validate:"omitempty,dive,gt=0"`
	DefaultRate float64             `yaml:"default_rate" validate:"gt=0"`
}

// Default returns the configuration used when a file leaves values unset.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:                 "sqlite",
			URL:                    "rateintel.db",
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
		},
		Provider: ProviderConfig{
			TimeoutSeconds: 30,
			MaxResults:     100,
			Breaker: BreakerConfig{
				MinRequests:        5,
				FailureRatio:       0.6,
				IntervalSeconds:    60,
				OpenTimeoutSeconds: 120,
			},
		},
		Redis: RedisConfig{
			CacheTTLSeconds: 900,
			LockTTLSeconds:  300,
		},
		Archive: ArchiveConfig{
			S3Prefix: "competitor-rates",
			Region:   "us-east-1",
		},
		Pipeline: PipelineConfig{
			Workers:                4,
			RefreshWindowDays:      30,
			HistoryDays:            28,
			AnalysisTimeoutSeconds: 120,
			RetentionDays:          90,
		},
		Market:    market.DefaultPolicy(),
		Recommend: recommend.DefaultWeights(),
		Synthetic: SyntheticConfig{DefaultRate: 150},
		Log:       logger.Config{Level: "info", Format: "json"},
	}
}

// Load reads and parses the configuration file on top of Default. An empty
// path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Database.Driver == "postgresql" {
		cfg.Database.Driver = "postgres"
	}
	return cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides and
// validates the result. It loads a .env file (if present) before reading
// env vars, so secrets can live in .env locally.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("RATE_PROVIDER_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("RATE_PROVIDER_TOKEN"); v != "" {
		cfg.Provider.APIToken = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.S3Bucket = v
		cfg.Archive.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
