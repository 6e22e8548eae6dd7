package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

const (
	defaultPort                = "8080"
	defaultDatabaseURL         = "claimdesk.db"
	defaultLogLevel            = "info"
	defaultLogFormat           = "text"
	defaultStoreTimeout        = "10s"
	defaultAlertDelayThreshold = "720h"
	defaultAlertPriceTolerance = "0.01"
	defaultOpenAIModel         = "gpt-3.5-turbo"
	defaultOpenAIBaseURL       = "https://api.openai.com/v1"
	defaultOpenAITemperature   = "0.7"
	defaultOpenAIMaxTokens     = "500"
	defaultChatRateLimit       = "1"
	defaultChatRateBurst       = "5"
	defaultMetricsEnabled      = "true"
)

type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	CORSOrigins    []string
	LogLevel       string
	LogFormat      string
	MetricsEnabled bool

	// StoreTimeout bounds every claim store round trip to the database.
	StoreTimeout time.Duration

	Alerts AlertConfig
	OpenAI OpenAIConfig

	ChatRateLimit float64
	ChatRateBurst int
}

type AlertConfig struct {
	DelayThreshold time.Duration
	PriceTolerance float64
}

type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel)))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", defaultLogFormat)))
	cfg.MetricsEnabled = parseBoolEnv("METRICS_ENABLED", defaultMetricsEnabled)

	var err error
	cfg.StoreTimeout, err = parseDurationEnv("STORE_TIMEOUT", defaultStoreTimeout)
	if err != nil {
		return nil, err
	}

	cfg.Alerts.DelayThreshold, err = parseDurationEnv("ALERT_DELAY_THRESHOLD", defaultAlertDelayThreshold)
	if err != nil {
		return nil, err
	}
	cfg.Alerts.PriceTolerance, err = parseFloatEnv("ALERT_PRICE_TOLERANCE", defaultAlertPriceTolerance)
	if err != nil {
		return nil, err
	}

	cfg.OpenAI.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.OpenAI.Model = strings.TrimSpace(getEnv("OPENAI_MODEL", defaultOpenAIModel))
	cfg.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(getEnv("OPENAI_BASE_URL", defaultOpenAIBaseURL)), "/")
	cfg.OpenAI.Temperature, err = parseFloatEnv("OPENAI_TEMPERATURE", defaultOpenAITemperature)
	if err != nil {
		return nil, err
	}
	cfg.OpenAI.MaxTokens, err = parseIntEnv("OPENAI_MAX_TOKENS", defaultOpenAIMaxTokens)
	if err != nil {
		return nil, err
	}

	cfg.ChatRateLimit, err = parseFloatEnv("CHAT_RATE_LIMIT", defaultChatRateLimit)
	if err != nil {
		return nil, err
	}
	cfg.ChatRateBurst, err = parseIntEnv("CHAT_RATE_BURST", defaultChatRateBurst)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"env":      cfg.AppEnv,
		"port":     cfg.Port,
		"postgres": IsPostgresDSN(cfg.DatabaseURL),
		"model":    cfg.OpenAI.Model,
	}).Info("config loaded")

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be > 0")
	}
	if cfg.Alerts.DelayThreshold <= 0 {
		return fmt.Errorf("ALERT_DELAY_THRESHOLD must be > 0")
	}
	if cfg.Alerts.PriceTolerance < 0 {
		return fmt.Errorf("ALERT_PRICE_TOLERANCE must be >= 0")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be one of: text, json")
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	if cfg.OpenAI.MaxTokens <= 0 {
		return fmt.Errorf("OPENAI_MAX_TOKENS must be > 0")
	}
	if cfg.OpenAI.Temperature < 0 || cfg.OpenAI.Temperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2")
	}
	if cfg.ChatRateLimit <= 0 || cfg.ChatRateBurst <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT and CHAT_RATE_BURST must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if !IsPostgresDSN(cfg.DatabaseURL) {
			return fmt.Errorf("in prod/release DATABASE_URL must point to PostgreSQL")
		}
		if cfg.OpenAI.APIKey == "" {
			return fmt.Errorf("in prod/release OPENAI_API_KEY must be set")
		}
	}

	return nil
}

// IsPostgresDSN reports whether dsn selects the PostgreSQL driver.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// IsProdLike reports whether the app runs in a production-like environment.
func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseFloatEnv(name, fallback string) (float64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return f, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
