package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the top-level application configuration.
type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Database  DatabaseConfig            `yaml:"database"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Approvals ApprovalsConfig           `yaml:"approvals"`
	Limits    LimitsConfig              `yaml:"limits"`
	Workflows WorkflowsConfig           `yaml:"workflows"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds database connection settings. An empty URL selects
// the in-memory stores.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// ProviderConfig holds AI provider settings.
type ProviderConfig struct {
	Type   string `yaml:"type"`    // "openai" or "gemini"
	URL    string `yaml:"url"`     // base URL for OpenAI-compatible APIs
	APIKey string `yaml:"api_key"` // API key; falls back to <NAME>_API_KEY env
	Model  string `yaml:"model"`   // model identifier, e.g. "gpt-4o-mini"
}

// ApprovalsConfig controls pending-approval retention.
type ApprovalsConfig struct {
	TTLMinutes    int    `yaml:"ttl_minutes"`    // 0 keeps approvals until decided
	SweepSchedule string `yaml:"sweep_schedule"` // cron spec, default "@every 1m"
}

// TTL returns the approval TTL as a duration.
func (a ApprovalsConfig) TTL() time.Duration {
	return time.Duration(a.TTLMinutes) * time.Minute
}

// LimitsConfig bounds concurrent workflow execution.
type LimitsConfig struct {
	GlobalMax int `yaml:"global_max"` // max concurrent runs system-wide (default: 10)
	PerFamily int `yaml:"per_family"` // max concurrent runs per family (default: 3)
}

// WorkflowsConfig tunes workflow behavior.
type WorkflowsConfig struct {
	StepDelayMS int              `yaml:"step_delay_ms"` // pacing between step frames, 0 disables
	Thresholds  ThresholdsConfig `yaml:"thresholds"`
}

// ThresholdsConfig holds the decision amounts the built-in families
// compare against. All comparisons are inclusive (<=).
type ThresholdsConfig struct {
	ExpenseManagerSkip float64 `yaml:"expense_manager_skip"` // default 200
	TaxiAutoApprove    float64 `yaml:"taxi_auto_approve"`    // default 100
	TaxiMaxFare        float64 `yaml:"taxi_max_fare"`        // default 500
	FulfillmentReview  float64 `yaml:"fulfillment_review"`   // default 1000
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database:  DatabaseConfig{},
		Providers: map[string]ProviderConfig{},
		Approvals: ApprovalsConfig{
			SweepSchedule: "@every 1m",
		},
		Workflows: WorkflowsConfig{
			Thresholds: ThresholdsConfig{
				ExpenseManagerSkip: 200,
				TaxiAutoApprove:    100,
				TaxiMaxFare:        500,
				FulfillmentReview:  1000,
			},
		},
	}
}

// Load reads a YAML configuration file at path and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Ensure Providers map is never nil even if YAML has "providers: {}" or omits it.
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	if cfg.Approvals.SweepSchedule == "" {
		cfg.Approvals.SweepSchedule = "@every 1m"
	}

	return cfg, nil
}

// LoadDefault tries to load "config.yaml" from the current directory.
// If the file does not exist, it returns sensible defaults.
// Any other error (e.g. permission denied, malformed YAML) is returned.
func LoadDefault() (*Config, error) {
	cfg, err := Load("config.yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults(), nil
		}
		return nil, err
	}
	return cfg, nil
}
