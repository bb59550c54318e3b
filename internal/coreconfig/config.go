// Package coreconfig loads and validates execution-core configuration:
// concurrency and timeout ceilings, logging destinations, and the tunables
// for the retry/circuit-breaker and reproducibility subsystems.
//
// Grounded in the teacher's internal/config/config.go: defaults layered
// under a YAML file, env-var overrides applied last, and a raw-map merge
// pass that distinguishes "section present but zero-valued" from "section
// absent" before copying typed fields onto the default config.
package coreconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wavecore/execore/internal/drift"
	"github.com/wavecore/execore/internal/faulttolerance"
)

// ConsoleConfig controls terminal output formatting.
type ConsoleConfig struct {
	EnableColor    bool `yaml:"enable_color"`
	ShowDurations  bool `yaml:"show_durations"`
	CompactMode    bool `yaml:"compact_mode"`
	ShowTaskDetail bool `yaml:"show_task_detail"`
}

// RetryConfig configures faulttolerance.RetryOptions.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// CircuitBreakerConfig configures faulttolerance.CircuitBreakerOptions.
type CircuitBreakerConfig struct {
	FailureThreshold uint32        `yaml:"failure_threshold"`
	CooldownPeriod   time.Duration `yaml:"cooldown_period"`
}

// ReproducibilityConfig configures drift.ReproducibilityOptions plus the
// drift-rate threshold past which a task is flagged non-deterministic.
type ReproducibilityConfig struct {
	Runs          int           `yaml:"runs"`
	MaxParallel   int           `yaml:"max_parallel"`
	PerRunTimeout time.Duration `yaml:"per_run_timeout"`
	MaxDriftRate  float64       `yaml:"max_drift_rate"`
}

// Config is the root execution-core configuration document.
type Config struct {
	MaxConcurrency  int    `yaml:"max_concurrency"`
	Timeout         time.Duration `yaml:"timeout"`
	LogLevel        string `yaml:"log_level"`
	LogDir          string `yaml:"log_dir"`
	DryRun          bool   `yaml:"dry_run"`
	SkipCompleted   bool   `yaml:"skip_completed"`
	UseMemoryBudgets bool  `yaml:"use_memory_budgets"`

	Console         ConsoleConfig          `yaml:"console"`
	Retry           RetryConfig            `yaml:"retry"`
	CircuitBreaker  CircuitBreakerConfig   `yaml:"circuit_breaker"`
	Reproducibility ReproducibilityConfig  `yaml:"reproducibility"`
}

// DefaultConsoleConfig returns sensible ConsoleConfig defaults.
func DefaultConsoleConfig() ConsoleConfig {
	return ConsoleConfig{EnableColor: true, ShowDurations: true, CompactMode: false, ShowTaskDetail: true}
}

// DefaultConfig returns a Config seeded from the fault-tolerance and drift
// packages' own documented defaults, so the two never drift apart.
func DefaultConfig() *Config {
	retry := faulttolerance.DefaultRetryOptions()
	cb := faulttolerance.DefaultCircuitBreakerOptions()
	repro := drift.DefaultReproducibilityOptions()

	return &Config{
		MaxConcurrency:   0,
		Timeout:          10 * time.Hour,
		LogLevel:         "info",
		LogDir:           ".execore/logs",
		DryRun:           false,
		SkipCompleted:    false,
		UseMemoryBudgets: true,
		Console:          DefaultConsoleConfig(),
		Retry: RetryConfig{
			MaxAttempts: retry.MaxAttempts,
			BaseDelay:   retry.BaseDelay,
			MaxDelay:    retry.MaxDelay,
		},
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: cb.FailureThreshold,
			CooldownPeriod:   cb.CooldownPeriod,
		},
		Reproducibility: ReproducibilityConfig{
			Runs:          repro.Runs,
			MaxParallel:   repro.MaxParallel,
			PerRunTimeout: repro.PerRunTimeout,
			MaxDriftRate:  drift.DefaultDriftThresholds().MaxDriftRate,
		},
	}
}

// RetryOptions adapts the config's Retry section to faulttolerance.RetryOptions.
func (c *Config) RetryOptions() faulttolerance.RetryOptions {
	return faulttolerance.RetryOptions{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		MaxDelay:    c.Retry.MaxDelay,
	}
}

// CircuitBreakerOptions adapts the config's CircuitBreaker section.
func (c *Config) CircuitBreakerOptions() faulttolerance.CircuitBreakerOptions {
	return faulttolerance.CircuitBreakerOptions{
		FailureThreshold: c.CircuitBreaker.FailureThreshold,
		CooldownPeriod:   c.CircuitBreaker.CooldownPeriod,
	}
}

// ReproducibilityOptions adapts the config's Reproducibility section.
func (c *Config) ReproducibilityOptions() drift.ReproducibilityOptions {
	return drift.ReproducibilityOptions{
		Runs:          c.Reproducibility.Runs,
		MaxParallel:   c.Reproducibility.MaxParallel,
		PerRunTimeout: c.Reproducibility.PerRunTimeout,
	}
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("EXECORE_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := os.Getenv("EXECORE_LOG_DIR"); val != "" {
		cfg.LogDir = val
	}
	if val := os.Getenv("EXECORE_CONSOLE_COLOR"); val != "" {
		cfg.Console.EnableColor = val == "true" || val == "1"
	}
	if val := os.Getenv("EXECORE_MAX_CONCURRENCY"); val != "" {
		var n int
		if _, err := fmt.Sscanf(val, "%d", &n); err == nil {
			cfg.MaxConcurrency = n
		}
	}
}

// yamlConfig mirrors Config but leaves Timeout/BaseDelay/MaxDelay/etc as
// strings, matching the teacher's pattern of hand-parsing duration fields
// rather than trusting yaml.v3's native duration support.
type yamlConfig struct {
	MaxConcurrency   int    `yaml:"max_concurrency"`
	Timeout          string `yaml:"timeout"`
	LogLevel         string `yaml:"log_level"`
	LogDir           string `yaml:"log_dir"`
	DryRun           bool   `yaml:"dry_run"`
	SkipCompleted    bool   `yaml:"skip_completed"`
	UseMemoryBudgets bool   `yaml:"use_memory_budgets"`
	Console          ConsoleConfig `yaml:"console"`
	Retry            struct {
		MaxAttempts int    `yaml:"max_attempts"`
		BaseDelay   string `yaml:"base_delay"`
		MaxDelay    string `yaml:"max_delay"`
	} `yaml:"retry"`
	CircuitBreaker struct {
		FailureThreshold uint32 `yaml:"failure_threshold"`
		CooldownPeriod   string `yaml:"cooldown_period"`
	} `yaml:"circuit_breaker"`
	Reproducibility struct {
		Runs          int     `yaml:"runs"`
		MaxParallel   int     `yaml:"max_parallel"`
		PerRunTimeout string  `yaml:"per_run_timeout"`
		MaxDriftRate  float64 `yaml:"max_drift_rate"`
	} `yaml:"reproducibility"`
}

// LoadConfig loads configuration from path, merging over DefaultConfig().
// A missing file is not an error: defaults (plus env overrides) are
// returned as-is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("coreconfig: read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("coreconfig: parse config file: %w", err)
	}

	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("coreconfig: parse config file: %w", err)
	}

	if yc.MaxConcurrency != 0 {
		cfg.MaxConcurrency = yc.MaxConcurrency
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("coreconfig: invalid timeout %q: %w", yc.Timeout, err)
		}
		cfg.Timeout = d
	}
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}
	if yc.LogDir != "" {
		cfg.LogDir = yc.LogDir
	}
	if yc.DryRun {
		cfg.DryRun = yc.DryRun
	}
	if yc.SkipCompleted {
		cfg.SkipCompleted = yc.SkipCompleted
	}
	if _, exists := rawMap["use_memory_budgets"]; exists {
		cfg.UseMemoryBudgets = yc.UseMemoryBudgets
	}

	if section, ok := rawMap["console"].(map[string]interface{}); ok {
		if _, exists := section["enable_color"]; exists {
			cfg.Console.EnableColor = yc.Console.EnableColor
		}
		if _, exists := section["show_durations"]; exists {
			cfg.Console.ShowDurations = yc.Console.ShowDurations
		}
		if _, exists := section["compact_mode"]; exists {
			cfg.Console.CompactMode = yc.Console.CompactMode
		}
		if _, exists := section["show_task_detail"]; exists {
			cfg.Console.ShowTaskDetail = yc.Console.ShowTaskDetail
		}
	}

	if section, ok := rawMap["retry"].(map[string]interface{}); ok {
		if _, exists := section["max_attempts"]; exists {
			cfg.Retry.MaxAttempts = yc.Retry.MaxAttempts
		}
		if yc.Retry.BaseDelay != "" {
			d, err := time.ParseDuration(yc.Retry.BaseDelay)
			if err != nil {
				return nil, fmt.Errorf("coreconfig: invalid retry.base_delay %q: %w", yc.Retry.BaseDelay, err)
			}
			cfg.Retry.BaseDelay = d
		}
		if yc.Retry.MaxDelay != "" {
			d, err := time.ParseDuration(yc.Retry.MaxDelay)
			if err != nil {
				return nil, fmt.Errorf("coreconfig: invalid retry.max_delay %q: %w", yc.Retry.MaxDelay, err)
			}
			cfg.Retry.MaxDelay = d
		}
	}

	if section, ok := rawMap["circuit_breaker"].(map[string]interface{}); ok {
		if _, exists := section["failure_threshold"]; exists {
			cfg.CircuitBreaker.FailureThreshold = yc.CircuitBreaker.FailureThreshold
		}
		if yc.CircuitBreaker.CooldownPeriod != "" {
			d, err := time.ParseDuration(yc.CircuitBreaker.CooldownPeriod)
			if err != nil {
				return nil, fmt.Errorf("coreconfig: invalid circuit_breaker.cooldown_period %q: %w", yc.CircuitBreaker.CooldownPeriod, err)
			}
			cfg.CircuitBreaker.CooldownPeriod = d
		}
	}

	if section, ok := rawMap["reproducibility"].(map[string]interface{}); ok {
		if _, exists := section["runs"]; exists {
			cfg.Reproducibility.Runs = yc.Reproducibility.Runs
		}
		if _, exists := section["max_parallel"]; exists {
			cfg.Reproducibility.MaxParallel = yc.Reproducibility.MaxParallel
		}
		if _, exists := section["max_drift_rate"]; exists {
			cfg.Reproducibility.MaxDriftRate = yc.Reproducibility.MaxDriftRate
		}
		if yc.Reproducibility.PerRunTimeout != "" {
			d, err := time.ParseDuration(yc.Reproducibility.PerRunTimeout)
			if err != nil {
				return nil, fmt.Errorf("coreconfig: invalid reproducibility.per_run_timeout %q: %w", yc.Reproducibility.PerRunTimeout, err)
			}
			cfg.Reproducibility.PerRunTimeout = d
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// MergeWithFlags applies non-nil CLI flag overrides, highest priority
// after env vars.
func (c *Config) MergeWithFlags(maxConcurrency *int, timeout *time.Duration, logDir *string, dryRun *bool) {
	if maxConcurrency != nil {
		c.MaxConcurrency = *maxConcurrency
	}
	if timeout != nil {
		c.Timeout = *timeout
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if dryRun != nil {
		c.DryRun = *dryRun
	}
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("coreconfig: max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("coreconfig: invalid log_level %q", c.LogLevel)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("coreconfig: timeout must be >= 0, got %v", c.Timeout)
	}

	if err := c.RetryOptions().Validate(); err != nil {
		return fmt.Errorf("coreconfig: retry options: %w", err)
	}

	if c.CircuitBreaker.FailureThreshold == 0 {
		return fmt.Errorf("coreconfig: circuit_breaker.failure_threshold must be > 0")
	}
	if c.CircuitBreaker.CooldownPeriod <= 0 {
		return fmt.Errorf("coreconfig: circuit_breaker.cooldown_period must be > 0")
	}

	if c.Reproducibility.Runs <= 0 {
		return fmt.Errorf("coreconfig: reproducibility.runs must be > 0, got %d", c.Reproducibility.Runs)
	}
	if c.Reproducibility.MaxDriftRate < 0 || c.Reproducibility.MaxDriftRate > 1 {
		return fmt.Errorf("coreconfig: reproducibility.max_drift_rate must be within [0,1], got %f", c.Reproducibility.MaxDriftRate)
	}

	return nil
}
