package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config aggregates application configuration values.
type Config struct {
	DBSource string
	Env      string

	HTTP    HTTPConfig
	Logging LoggingConfig
	Fees    FeesConfig
	Payment PaymentConfig

	// RecordNoopStatusEvents appends a status_updated event for patches that keep the status.
	RecordNoopStatusEvents bool
}

type HTTPConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

type FeesConfig struct {
	PlatformRate decimal.Decimal
	PaymentRate  decimal.Decimal
}

const (
	PaymentProviderSandbox = "sandbox"
	PaymentProviderHTTP    = "http"
)

type PaymentConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	// DeclineAbove makes the sandbox decline charges above this amount; nil disables it.
	DeclineAbove *decimal.Decimal
}

const (
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultPaymentTimeout  = 10 * time.Second
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
	defaultEnvironment     = "development"
	defaultPlatformFeeRate = "0.05"
	defaultPaymentFeeRate  = "0.029"
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		DBSource: os.Getenv("DB_SOURCE"),
		Env:      valueOrDefault("ENVIRONMENT", defaultEnvironment),
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Payment: PaymentConfig{
			Provider: valueOrDefault("PAYMENT_PROVIDER", PaymentProviderSandbox),
			BaseURL:  os.Getenv("PAYMENT_BASE_URL"),
			APIKey:   os.Getenv("PAYMENT_API_KEY"),
		},
		RecordNoopStatusEvents: parseBoolWithDefault("RECORD_NOOP_STATUS_EVENTS", false),
	}

	if cfg.DBSource == "" {
		return Config{}, fmt.Errorf("DB_SOURCE environment variable is required")
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key      string
		fallback time.Duration
		target   *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", defaultReadTimeout, &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", defaultWriteTimeout, &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", defaultIdleTimeout, &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout, &cfg.HTTP.ShutdownTimeout},
		{"PAYMENT_TIMEOUT", defaultPaymentTimeout, &cfg.Payment.Timeout},
	}
	for _, d := range durations {
		if *d.target, err = parseDuration(d.key, d.fallback); err != nil {
			return Config{}, err
		}
	}

	if cfg.Fees.PlatformRate, err = parseRate("PLATFORM_FEE_RATE", defaultPlatformFeeRate); err != nil {
		return Config{}, err
	}
	if cfg.Fees.PaymentRate, err = parseRate("PAYMENT_FEE_RATE", defaultPaymentFeeRate); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("SANDBOX_DECLINE_ABOVE"); v != "" {
		limit, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SANDBOX_DECLINE_ABOVE: %w", err)
		}
		cfg.Payment.DeclineAbove = &limit
	}

	switch cfg.Payment.Provider {
	case PaymentProviderSandbox:
	case PaymentProviderHTTP:
		if cfg.Payment.BaseURL == "" {
			return Config{}, fmt.Errorf("PAYMENT_BASE_URL is required for the %s payment provider", PaymentProviderHTTP)
		}
	default:
		return Config{}, fmt.Errorf("unknown PAYMENT_PROVIDER %q", cfg.Payment.Provider)
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseRate(key, fallback string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(valueOrDefault(key, fallback))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be in [0, 1)", key)
	}
	return rate, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
