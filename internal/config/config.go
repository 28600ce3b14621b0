package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/antoniostano/cadence/internal/cycle"
	"github.com/antoniostano/cadence/internal/reminder"
)

// Config contains all runtime settings for the prediction service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	Timezone string
	Location *time.Location

	DatabaseURL             string
	DatabaseConnectAttempts int

	Priors               cycle.Priors
	ForecastCountDefault int
	ForecastCountMax     int
	ReminderTime         reminder.TimeOfDay

	LatencyWindowSize int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:        envOrDefault("APP_METRICS_NAMESPACE", "cadence"),
		Timezone:                envOrDefault("APP_TIMEZONE", "UTC"),
		DatabaseURL:             stringsTrimSpace("DATABASE_URL"),
		DatabaseConnectAttempts: 3,
		ShutdownTimeout:         15 * time.Second,
		Priors:                  cycle.DefaultPriors,
		ForecastCountDefault:    3,
		ForecastCountMax:        24,
		ReminderTime:            reminder.DefaultTime,
		LatencyWindowSize:       256,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.DatabaseConnectAttempts, err = intFromEnv("DATABASE_CONNECT_ATTEMPTS", cfg.DatabaseConnectAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.Priors.CycleLength, err = intFromEnv("CYCLE_LENGTH_DEFAULT", cfg.Priors.CycleLength)
	if err != nil {
		return Config{}, err
	}
	cfg.Priors.PeriodLength, err = intFromEnv("PERIOD_LENGTH_DEFAULT", cfg.Priors.PeriodLength)
	if err != nil {
		return Config{}, err
	}
	cfg.ForecastCountDefault, err = intFromEnv("FORECAST_COUNT_DEFAULT", cfg.ForecastCountDefault)
	if err != nil {
		return Config{}, err
	}
	cfg.ForecastCountMax, err = intFromEnv("FORECAST_COUNT_MAX", cfg.ForecastCountMax)
	if err != nil {
		return Config{}, err
	}
	cfg.LatencyWindowSize, err = intFromEnv("LATENCY_WINDOW_SIZE", cfg.LatencyWindowSize)
	if err != nil {
		return Config{}, err
	}
	if v := stringsTrimSpace("REMINDER_TIME"); v != "" {
		cfg.ReminderTime, err = reminder.ParseTimeOfDay(v)
		if err != nil {
			return Config{}, fmt.Errorf("REMINDER_TIME parse error: %w", err)
		}
	}
	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("APP_TIMEZONE parse error: %w", err)
	}

	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.DatabaseConnectAttempts < 1 {
		return Config{}, fmt.Errorf("DATABASE_CONNECT_ATTEMPTS must be at least 1")
	}
	if err := cfg.Priors.Validate(); err != nil {
		return Config{}, fmt.Errorf("CYCLE_LENGTH_DEFAULT/PERIOD_LENGTH_DEFAULT: %w", err)
	}
	if cfg.ForecastCountMax < 0 {
		return Config{}, fmt.Errorf("FORECAST_COUNT_MAX must be >= 0")
	}
	if cfg.ForecastCountDefault < 0 || cfg.ForecastCountDefault > cfg.ForecastCountMax {
		return Config{}, fmt.Errorf("FORECAST_COUNT_DEFAULT must be within 0..%d", cfg.ForecastCountMax)
	}
	if cfg.LatencyWindowSize <= 0 {
		return Config{}, fmt.Errorf("LATENCY_WINDOW_SIZE must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
