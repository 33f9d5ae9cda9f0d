// Package config loads gateway configuration from an optional YAML file and
// CHATGATE_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LimitConfig is one rate-limit policy budget.
type LimitConfig struct {
	Max           int `yaml:"max"`
	WindowSeconds int `yaml:"window_seconds"`
}

// Window returns the policy window as a duration.
func (l LimitConfig) Window() time.Duration {
	return time.Duration(l.WindowSeconds) * time.Second
}

// Config is the full gateway configuration.
type Config struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	// PostgresDSN selects the shared product database. Empty means
	// in-memory stores (local development only).
	PostgresDSN string `yaml:"postgres_dsn"`

	// AnthropicAPIKey overrides ANTHROPIC_API_KEY when set.
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	GlobalLimit LimitConfig `yaml:"global_limit"`
	WidgetLimit LimitConfig `yaml:"widget_limit"`
	DomainLimit LimitConfig `yaml:"domain_limit"`

	MessageCap       int `yaml:"message_cap"`
	MaxMessageLength int `yaml:"max_message_length"`

	ProviderTimeoutSeconds int `yaml:"provider_timeout_seconds"`
	SweepIntervalSeconds   int `yaml:"sweep_interval_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:                   ":8080",
		LogLevel:               "info",
		GlobalLimit:            LimitConfig{Max: 100, WindowSeconds: 60},
		WidgetLimit:            LimitConfig{Max: 30, WindowSeconds: 60},
		DomainLimit:            LimitConfig{Max: 200, WindowSeconds: 60},
		MessageCap:             50,
		MaxMessageLength:       2000,
		ProviderTimeoutSeconds: 180,
		SweepIntervalSeconds:   60,
	}
}

// Load reads configuration from path (optional; empty skips the file),
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %q: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies CHATGATE_* environment overrides. Limit overrides use
// "max:window_seconds" form, e.g. CHATGATE_WIDGET_LIMIT=30:60.
func (c *Config) applyEnv() {
	if v := os.Getenv("CHATGATE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("CHATGATE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CHATGATE_POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && c.AnthropicAPIKey == "" {
		c.AnthropicAPIKey = v
	}

	parseLimit("CHATGATE_GLOBAL_LIMIT", &c.GlobalLimit)
	parseLimit("CHATGATE_WIDGET_LIMIT", &c.WidgetLimit)
	parseLimit("CHATGATE_DOMAIN_LIMIT", &c.DomainLimit)

	if n, ok := envInt("CHATGATE_MESSAGE_CAP"); ok {
		c.MessageCap = n
	}
	if n, ok := envInt("CHATGATE_MAX_MESSAGE_LENGTH"); ok {
		c.MaxMessageLength = n
	}
	if n, ok := envInt("CHATGATE_PROVIDER_TIMEOUT_SECONDS"); ok {
		c.ProviderTimeoutSeconds = n
	}
	if n, ok := envInt("CHATGATE_SWEEP_INTERVAL_SECONDS"); ok {
		c.SweepIntervalSeconds = n
	}
}

func parseLimit(env string, l *LimitConfig) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	parts := strings.SplitN(v, ":", 2)
	if max, err := strconv.Atoi(parts[0]); err == nil && max > 0 {
		l.Max = max
	}
	if len(parts) > 1 {
		if window, err := strconv.Atoi(parts[1]); err == nil && window > 0 {
			l.WindowSeconds = window
		}
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ProviderTimeout returns the provider call timeout as a duration.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

// SweepInterval returns the counter-store sweep interval as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}
