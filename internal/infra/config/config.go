// Package config provides application-wide configuration.
// Values come from an optional YAML file overridden by environment variables,
// with safe defaults so the binary runs locally without any setup beyond
// OPENAI_API_KEY.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for gohan-bot.
type Config struct {
	// HTTP
	Host string `yaml:"host"` // GOHAN_HOST default: "0.0.0.0"
	Port int    `yaml:"port"` // GOHAN_PORT default: 8080

	// Storage
	DBPath string `yaml:"db_path"` // GOHAN_DB_PATH default: "gohan.db"

	// OpenAI
	OpenAIAPIKey  string `yaml:"openai_api_key"`  // OPENAI_API_KEY
	OpenAIBaseURL string `yaml:"openai_base_url"` // OPENAI_BASE_URL default: "https://api.openai.com/v1"
	OpenAIModel   string `yaml:"openai_model"`    // OPENAI_MODEL default: "gpt-4o-mini"

	// Slack (both empty disables the /slack/events route)
	SlackBotToken      string `yaml:"slack_bot_token"`      // SLACK_BOT_TOKEN
	SlackSigningSecret string `yaml:"slack_signing_secret"` // SLACK_SIGNING_SECRET

	// Auth (empty disables bearer auth on /api/v1)
	JWTSecret string `yaml:"jwt_secret"` // JWT_SECRET

	// Logging
	LogLevel string `yaml:"log_level"` // GOHAN_LOG_LEVEL default: "info"
}

const (
	envKeyHost               = "GOHAN_HOST"
	envKeyPort               = "GOHAN_PORT"
	envKeyDBPath             = "GOHAN_DB_PATH"
	envKeyOpenAIAPIKey       = "OPENAI_API_KEY"
	envKeyOpenAIBaseURL      = "OPENAI_BASE_URL"
	envKeyOpenAIModel        = "OPENAI_MODEL"
	envKeySlackBotToken      = "SLACK_BOT_TOKEN"
	envKeySlackSigningSecret = "SLACK_SIGNING_SECRET"
	envKeyJWTSecret          = "JWT_SECRET"
	envKeyLogLevel           = "GOHAN_LOG_LEVEL"
)

// Load reads configuration from path (optional; "" skips the file) and the
// environment. Precedence: env > file > default.
func Load(path string) (Config, error) {
	cfg := Config{
		Host:          "0.0.0.0",
		Port:          8080,
		DBPath:        "gohan.db",
		OpenAIBaseURL: "https://api.openai.com/v1",
		OpenAIModel:   "gpt-4o-mini",
		LogLevel:      "info",
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	cfg.Host = envOr(envKeyHost, cfg.Host)
	cfg.Port = envOrInt(envKeyPort, cfg.Port)
	cfg.DBPath = envOr(envKeyDBPath, cfg.DBPath)
	cfg.OpenAIAPIKey = envOr(envKeyOpenAIAPIKey, cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = envOr(envKeyOpenAIBaseURL, cfg.OpenAIBaseURL)
	cfg.OpenAIModel = envOr(envKeyOpenAIModel, cfg.OpenAIModel)
	cfg.SlackBotToken = envOr(envKeySlackBotToken, cfg.SlackBotToken)
	cfg.SlackSigningSecret = envOr(envKeySlackSigningSecret, cfg.SlackSigningSecret)
	cfg.JWTSecret = envOr(envKeyJWTSecret, cfg.JWTSecret)
	cfg.LogLevel = envOr(envKeyLogLevel, cfg.LogLevel)

	return cfg, nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOrInt is envOr for integer values; non-numeric values fall back.
func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}
