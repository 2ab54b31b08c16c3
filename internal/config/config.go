package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultSchedule    = "0 6 * * *"
	DefaultTimezone    = "UTC"
	DefaultChatTimeout = 15 * time.Minute

	DefaultMetricsConsumerName = "autopilot-metrics"
)

// Config holds application configuration. Values come from defaults, then
// an optional YAML file named by AUTOPILOT_CONFIG, then environment
// variables (a .env file is loaded first if present).
type Config struct {
	DatabaseURL string `yaml:"databaseURL"`
	RedisURL    string `yaml:"redisURL"`
	Env         string `yaml:"env"`
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"logLevel"`
	LogFormat   string `yaml:"logFormat"`

	AutopilotSchedule    string        `yaml:"autopilotSchedule"`
	AutopilotTimezone    string        `yaml:"autopilotTimezone"`
	AutopilotChatTimeout time.Duration `yaml:"autopilotChatTimeout"`

	AnalyticsURL         string `yaml:"analyticsURL"`
	ContentEngineURL     string `yaml:"contentEngineURL"`
	ImageOrchestratorURL string `yaml:"imageOrchestratorURL"`
	GrowthAgentURL       string `yaml:"growthAgentURL"`
	WebhookSecret        string `yaml:"webhookSecret"`
	WebhookStubMode      bool   `yaml:"webhookStubMode"`

	GeminiAPIKey string `yaml:"geminiAPIKey"`
	GeminiModel  string `yaml:"geminiModel"`

	// MetricsConsumerName must be stable across restarts of the same replica
	MetricsConsumerName string `yaml:"metricsConsumerName"`
}

// Load reads configuration from the environment and the optional YAML file
func Load() (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := &Config{
		Env:                  "development",
		Port:                 "8080",
		LogLevel:             "info",
		LogFormat:            "text",
		RedisURL:             "redis://localhost:6379/0",
		AutopilotSchedule:    DefaultSchedule,
		AutopilotTimezone:    DefaultTimezone,
		AutopilotChatTimeout: DefaultChatTimeout,
		MetricsConsumerName:  DefaultMetricsConsumerName,
	}

	if path := os.Getenv("AUTOPILOT_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.DatabaseURL = getEnvWithDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = getEnvWithDefault("REDIS_URL", cfg.RedisURL)
	cfg.Env = getEnvWithDefault("ENV", cfg.Env)
	cfg.Port = getEnvWithDefault("PORT", cfg.Port)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvWithDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.AutopilotSchedule = getEnvWithDefault("AUTOPILOT_SCHEDULE", cfg.AutopilotSchedule)
	cfg.AutopilotTimezone = getEnvWithDefault("AUTOPILOT_TIMEZONE", cfg.AutopilotTimezone)
	cfg.AnalyticsURL = getEnvWithDefault("ANALYTICS_URL", cfg.AnalyticsURL)
	cfg.ContentEngineURL = getEnvWithDefault("CONTENT_ENGINE_URL", cfg.ContentEngineURL)
	cfg.ImageOrchestratorURL = getEnvWithDefault("IMAGE_ORCHESTRATOR_URL", cfg.ImageOrchestratorURL)
	cfg.GrowthAgentURL = getEnvWithDefault("GROWTH_AGENT_URL", cfg.GrowthAgentURL)
	cfg.WebhookSecret = getEnvWithDefault("WEBHOOK_SECRET", cfg.WebhookSecret)
	cfg.GeminiAPIKey = getEnvWithDefault("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnvWithDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.MetricsConsumerName = getEnvWithDefault("METRICS_CONSUMER_NAME", cfg.MetricsConsumerName)

	if v := os.Getenv("AUTOPILOT_CHAT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTOPILOT_CHAT_TIMEOUT %q: %w", v, err)
		}
		cfg.AutopilotChatTimeout = d
	}
	if v := os.Getenv("WEBHOOK_STUB_MODE"); v != "" {
		stub, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WEBHOOK_STUB_MODE %q: %w", v, err)
		}
		cfg.WebhookStubMode = stub
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.WebhookSecret == "" && !cfg.WebhookStubMode {
		slog.Warn("WEBHOOK_SECRET is empty; webhook calls are unauthenticated")
	}

	return cfg, nil
}

// IsDevelopment reports whether the process runs in the development environment
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UseGeminiAgent reports whether the Gemini growth agent replaces the webhook agent
func (c *Config) UseGeminiAgent() bool {
	return c.GeminiAPIKey != ""
}

// UseDBAnalytics reports whether analytics are computed from the database
func (c *Config) UseDBAnalytics() bool {
	return c.AnalyticsURL == ""
}

// Location resolves AutopilotTimezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AutopilotTimezone)
	if err != nil {
		slog.Warn("Invalid timezone, using UTC", "timezone", c.AutopilotTimezone, "error", err)
		return time.UTC
	}
	return loc
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
