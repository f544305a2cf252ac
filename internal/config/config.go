package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Bot receive modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	BotToken       string `env:"BOT_TOKEN,required,notEmpty"`
	TelegramAPIURL string `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	BotMode        string `env:"BOT_MODE" envDefault:"polling"`
	WebhookURL     string `env:"WEBHOOK_URL"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`
	AdminChatID    int64  `env:"ADMIN_CHAT_ID" envDefault:"0"`

	GoogleMapsAPIKey  string        `env:"GOOGLE_MAPS_API_KEY"`
	PlacesBaseURL     string        `env:"PLACES_BASE_URL" envDefault:"https://maps.googleapis.com/maps/api/place/nearbysearch/json"`
	ProviderTimeout   time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	ProviderPageDelay time.Duration `env:"PROVIDER_PAGE_DELAY" envDefault:"2s"`
	ProviderMaxRadius int           `env:"PROVIDER_MAX_RADIUS" envDefault:"50000"`
	RawCategories     string        `env:"SEARCH_CATEGORIES" envDefault:"restaurant,cafe,bar"`
	DefaultLanguage   string        `env:"DEFAULT_LANGUAGE" envDefault:"ru"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"venue-finder.db"`

	Port                 string        `env:"PORT" envDefault:"8080"`
	JWTSecret            string        `env:"JWT_SECRET" envDefault:"dev-secret"`
	TokenTTL             time.Duration `env:"JWT_TTL" envDefault:"24h"`
	OperatorEmail        string        `env:"OPERATOR_EMAIL"`
	OperatorPasswordHash string        `env:"OPERATOR_PASSWORD_HASH"`
	RawRateLimitSearch   string        `env:"RATE_LIMIT_SEARCH" envDefault:"5/min"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`

	// derived from the raw values above
	Categories      []string
	RateLimitSearch RateLimitConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	rl, err := parseRateLimit(cfg.RawRateLimitSearch)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SEARCH value: %w", err)
	}
	cfg.RateLimitSearch = rl

	categories, err := parseCategories(cfg.RawCategories)
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_CATEGORIES value: %w", err)
	}
	cfg.Categories = categories

	cfg.BotMode = strings.ToLower(strings.TrimSpace(cfg.BotMode))
	if cfg.BotMode != ModePolling && cfg.BotMode != ModeWebhook {
		return nil, fmt.Errorf("invalid BOT_MODE value: %q", cfg.BotMode)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s store driver", DriverPostgres)
		}
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER value: %q", cfg.StoreDriver)
	}

	if cfg.ProviderMaxRadius <= 0 {
		return nil, fmt.Errorf("invalid PROVIDER_MAX_RADIUS value: %d", cfg.ProviderMaxRadius)
	}
	if cfg.ProviderTimeout <= 0 {
		return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT value: %s", cfg.ProviderTimeout)
	}
	cfg.DefaultLanguage = strings.ToLower(strings.TrimSpace(cfg.DefaultLanguage))

	return cfg, nil
}

// OperatorEnabled reports whether operator login is configured.
func (c *Config) OperatorEnabled() bool {
	return c.OperatorEmail != "" && c.OperatorPasswordHash != ""
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

// parseCategories splits a comma separated list, keeping order and dropping duplicates.
func parseCategories(value string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(value, ",") {
		category := strings.ToLower(strings.TrimSpace(part))
		if category == "" {
			continue
		}
		if _, dup := seen[category]; dup {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no categories in %q", value)
	}
	return out, nil
}
