package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultAppName         = "ValutaTrade"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultDataDir         = "data"
	defaultBaseCurrency    = "USD"
	defaultStartingBalance = "10000"
	defaultBasket          = "EUR,GBP,JPY,CAD,CHF,AUD,CNY,RUB,BTC,ETH,SOL"
	defaultProviderURL     = "https://api.exchangerate-api.com/v4/latest"
	defaultRateTTL         = 300 * time.Second
	defaultProviderTimeout = 10 * time.Second
	defaultRefreshEvery    = 5 * time.Minute
	defaultAccessTTL       = 15 * time.Minute
	defaultRefreshTTL      = 7 * 24 * time.Hour
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultShutdownDelay   = 10 * time.Second
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	DataDir         string
	BaseCurrency    string
	StartingBalance decimal.Decimal
	Basket          []string

	RateTTL         time.Duration
	RefreshInterval time.Duration
	ProviderURL     string
	ProviderAPIKey  string
	ProviderTimeout time.Duration

	RedisURL string

	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	IdempotencyTTL  time.Duration
	ShutdownPeriod  time.Duration
}

// Load reads configuration values from the environment (and an optional .env
// file) and populates a Config instance.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DataDir:         getEnv("DATA_DIR", defaultDataDir),
		BaseCurrency:    strings.ToUpper(getEnv("BASE_CURRENCY", defaultBaseCurrency)),
		ProviderURL:     getEnv("EXCHANGERATE_API_URL", defaultProviderURL),
		ProviderAPIKey:  os.Getenv("EXCHANGERATE_API_KEY"),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret"),
		RefreshSecret:   getEnv("REFRESH_SECRET", "dev-refresh-secret"),
		RateTTL:         defaultRateTTL,
		RefreshInterval: defaultRefreshEvery,
		ProviderTimeout: defaultProviderTimeout,
		AccessTokenTTL:  defaultAccessTTL,
		RefreshTokenTTL: defaultRefreshTTL,
		IdempotencyTTL:  defaultIdempotencyTTL,
		ShutdownPeriod:  defaultShutdownDelay,
	}

	balance, err := decimal.NewFromString(getEnv("STARTING_BALANCE", defaultStartingBalance))
	if err != nil {
		return Config{}, fmt.Errorf("invalid STARTING_BALANCE: %w", err)
	}
	if balance.IsNegative() {
		return Config{}, fmt.Errorf("STARTING_BALANCE must not be negative")
	}
	cfg.StartingBalance = balance

	for _, code := range strings.Split(getEnv("CURRENCY_BASKET", defaultBasket), ",") {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			cfg.Basket = append(cfg.Basket, code)
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"RATE_TTL", &cfg.RateTTL},
		{"REFRESH_INTERVAL", &cfg.RefreshInterval},
		{"PROVIDER_TIMEOUT", &cfg.ProviderTimeout},
		{"ACCESS_TOKEN_TTL", &cfg.AccessTokenTTL},
		{"REFRESH_TOKEN_TTL", &cfg.RefreshTokenTTL},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	if cfg.RateTTL <= 0 {
		return Config{}, fmt.Errorf("RATE_TTL must be positive")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
